package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Skythrill256/yield-ranker-sub001/src/config"
	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/model"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
	"github.com/Skythrill256/yield-ranker-sub001/src/observability"
)

type ingestionServiceImpl struct {
	store       model.Store
	prices      PriceProvider
	dividends   DividendProvider // fallback, may be nil
	concurrency int
	now         func() time.Time
}

// NewIngestionService wires the providers to the store. concurrency bounds
// SyncAll; values below 1 mean sequential.
func NewIngestionService(store model.Store, prices PriceProvider, dividends DividendProvider, concurrency int) IngestionService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ingestionServiceImpl{
		store:       store,
		prices:      prices,
		dividends:   dividends,
		concurrency: concurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// TargetsFromUniverse lists fund tickers followed by their NAV symbols.
func TargetsFromUniverse(u *config.Universe) []SyncTarget {
	if u == nil {
		return nil
	}
	funds := make(map[string]bool, len(u.Funds))
	for _, f := range u.Funds {
		funds[f.Ticker] = true
	}
	var out []SyncTarget
	for _, t := range u.Tickers() {
		out = append(out, SyncTarget{Ticker: t, PricesOnly: !funds[t]})
	}
	return out
}

func (s *ingestionServiceImpl) SyncTicker(ctx context.Context, target SyncTarget, from time.Time) (*SyncResult, error) {
	ticker := target.Ticker
	log := logger.FromContext(ctx).With("ticker", ticker)
	result := &SyncResult{Ticker: ticker}

	bars, err := s.prices.FetchPrices(ctx, ticker, from, s.now())
	if err != nil {
		return nil, fmt.Errorf("fetch prices for %s: %w", ticker, err)
	}
	if result.Prices, err = s.store.UpsertPrices(ctx, bars); err != nil {
		return nil, fmt.Errorf("store prices for %s: %w", ticker, err)
	}
	if target.PricesOnly {
		log.Info("Synced NAV prices", "prices", result.Prices)
		return result, nil
	}

	divs := DividendsFromPrices(ticker, bars)
	result.DividendSource = models.SourceTiingo
	if len(divs) == 0 && s.dividends != nil {
		fallback, err := s.dividends.FetchDividends(ctx, ticker)
		switch {
		case errors.Is(err, ErrProviderNotConfigured):
			log.Debug("No dividends from price feed and fallback provider is not configured")
		case err != nil:
			log.Warn("Fallback dividend provider failed", "error", err)
		default:
			divs = fallback
			result.DividendSource = models.SourceAlphaVantage
		}
	}
	if len(divs) == 0 {
		result.DividendSource = ""
	}
	if result.Dividends, err = s.store.UpsertDividends(ctx, divs); err != nil {
		return nil, fmt.Errorf("store dividends for %s: %w", ticker, err)
	}

	// Metadata is cosmetic; a failure keeps the previous name and description.
	var name, description, exchange string
	if meta, err := s.prices.FetchMetadata(ctx, ticker); err != nil {
		log.Warn("Could not fetch ticker metadata", "error", err)
	} else {
		name, description, exchange = meta.Name, meta.Description, meta.Exchange
	}
	if err := s.store.UpsertStaticInfo(ctx, ticker, name, description, exchange); err != nil {
		return nil, fmt.Errorf("store metadata for %s: %w", ticker, err)
	}

	log.Info("Synced ticker", "prices", result.Prices, "dividends", result.Dividends, "dividendSource", result.DividendSource)
	return result, nil
}

func (s *ingestionServiceImpl) SyncAll(ctx context.Context, targets []SyncTarget, from time.Time) SyncSummary {
	summary := SyncSummary{Errors: map[string]string{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, target := range targets {
		g.Go(func() error {
			_, err := s.SyncTicker(gctx, target, from)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				summary.Errors[target.Ticker] = err.Error()
				logger.FromContext(ctx).Error("Ticker sync failed", "ticker", target.Ticker, "error", err)
				return nil
			}
			summary.Succeeded++
			return nil
		})
	}
	_ = g.Wait()

	if len(summary.Errors) == 0 {
		summary.Errors = nil
	}
	observability.RecordSyncRun(summary.Succeeded, summary.Failed, float64(s.now().Unix()))
	logger.FromContext(ctx).Info("Sync run finished", "succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary
}

func (s *ingestionServiceImpl) SeedUniverse(ctx context.Context, funds []models.ManualFund) (int, error) {
	created := 0
	for _, f := range funds {
		_, err := s.store.GetManualFund(ctx, f.Ticker)
		if err == nil {
			continue
		}
		if !errors.Is(err, model.ErrNotFound) {
			return created, fmt.Errorf("look up %s: %w", f.Ticker, err)
		}
		if err := s.store.UpsertManualFund(ctx, f); err != nil {
			return created, fmt.Errorf("seed %s: %w", f.Ticker, err)
		}
		created++
	}
	if created > 0 {
		logger.FromContext(ctx).Info("Seeded curated fund rows", "count", created)
	}
	return created, nil
}

// ManualFundsFromUniverse converts universe entries into curated rows.
func ManualFundsFromUniverse(u *config.Universe) []models.ManualFund {
	if u == nil {
		return nil
	}
	out := make([]models.ManualFund, 0, len(u.Funds))
	for _, f := range u.Funds {
		out = append(out, models.ManualFund{
			Ticker:          f.Ticker,
			Name:            f.Name,
			Issuer:          f.Issuer,
			Category:        f.Category,
			NAVSymbol:       f.NAVSymbol,
			PaymentsPerYear: f.PaymentsPerYear,
		})
	}
	return out
}
