package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/observability"
)

const maxErrorBodyBytes = 512

// providerClient is the rate-limited JSON transport shared by providers.
type providerClient struct {
	name       string
	baseURL    string
	apiKey     string
	// authScheme, when set, sends the key as "Authorization: <scheme> <key>"
	// instead of leaving it to the query string.
	authScheme string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newProviderClient(name string, cfg ProviderConfig, defaultRPS float64, defaultBurst int) *providerClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	rps, burst := cfg.RequestsPerSecond, cfg.Burst
	if rps <= 0 {
		rps = defaultRPS
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return &providerClient{
		name:       name,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *providerClient) configured() bool {
	return c.apiKey != "" && c.baseURL != ""
}

// getJSON waits for the limiter, performs a GET and decodes a 200 body into out.
func (c *providerClient) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) (err error) {
	if !c.configured() {
		return fmt.Errorf("%s: %w", c.name, ErrProviderNotConfigured)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s rate limiter: %w", c.name, err)
	}

	start := time.Now()
	defer func() {
		observability.RecordProviderCall(c.name, endpoint, err, time.Since(start).Seconds())
	}()

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%s build request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.authScheme != "" {
		req.Header.Set("Authorization", c.authScheme+" "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Keep credentials in the query string out of logs.
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = c.baseURL + path
		}
		return fmt.Errorf("%s %s request: %w", c.name, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		logger.FromContext(ctx).Warn("Provider returned non-200 status",
			"provider", c.name, "endpoint", endpoint, "status", resp.StatusCode)
		return fmt.Errorf("%s %s: %w: status %d: %s", c.name, endpoint, ErrProviderResponse, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s decode: %w", c.name, endpoint, err)
	}
	return nil
}
