package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/model"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
	"github.com/Skythrill256/yield-ranker-sub001/src/processors"
)

const (
	ckFundList             = "funds_category_%s"
	DefaultCacheExpiration = 5 * time.Minute
	CacheCleanupInterval   = 10 * time.Minute
)

type fundServiceImpl struct {
	store     model.Store
	metrics   MetricsService // optional, refreshes stale snapshots in Get
	listCache *cache.Cache
}

// NewFundService creates the fund view service. A nil cache gets one with
// the default expiration.
func NewFundService(store model.Store, metrics MetricsService, listCache *cache.Cache) FundService {
	if listCache == nil {
		listCache = cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	}
	return &fundServiceImpl{store: store, metrics: metrics, listCache: listCache}
}

func (s *fundServiceImpl) List(ctx context.Context, category string) ([]models.Fund, error) {
	category = strings.ToUpper(strings.TrimSpace(category))
	cacheKey := fmt.Sprintf(ckFundList, category)
	if cached, found := s.listCache.Get(cacheKey); found {
		logger.FromContext(ctx).Debug("Fund list cache hit", "category", category)
		return cached.([]models.Fund), nil
	}

	manual, err := s.store.ListManualFunds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list curated funds: %w", err)
	}
	static, err := s.store.ListStaticFunds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list provider funds: %w", err)
	}

	manualByTicker := make(map[string]*models.ManualFund, len(manual))
	for i := range manual {
		manualByTicker[manual[i].Ticker] = &manual[i]
	}
	staticByTicker := make(map[string]*models.StaticFund, len(static))
	for i := range static {
		staticByTicker[static[i].Ticker] = &static[i]
	}

	funds := make([]models.Fund, 0, len(manualByTicker)+len(staticByTicker))
	for ticker, m := range manualByTicker {
		if f, ok := processors.MergeFund(staticByTicker[ticker], m); ok {
			funds = append(funds, f)
		}
	}
	for ticker, st := range staticByTicker {
		if _, done := manualByTicker[ticker]; done {
			continue
		}
		if f, ok := processors.MergeFund(st, nil); ok {
			funds = append(funds, f)
		}
	}

	filtered := funds[:0]
	for _, f := range funds {
		if category == "" || f.Category == category {
			filtered = append(filtered, f)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Ticker < filtered[j].Ticker })

	s.listCache.Set(cacheKey, filtered, cache.DefaultExpiration)
	return filtered, nil
}

func (s *fundServiceImpl) rows(ctx context.Context, ticker string) (*models.StaticFund, *models.ManualFund, error) {
	manual, err := s.store.GetManualFund(ctx, ticker)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, nil, fmt.Errorf("load curated row for %s: %w", ticker, err)
	}
	static, err := s.store.GetStaticFund(ctx, ticker)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, nil, fmt.Errorf("load provider row for %s: %w", ticker, err)
	}
	if manual == nil && static == nil {
		return nil, nil, fmt.Errorf("%s: %w", ticker, ErrUnknownTicker)
	}
	return static, manual, nil
}

func (s *fundServiceImpl) Get(ctx context.Context, ticker string) (*models.Fund, error) {
	static, manual, err := s.rows(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		snap, err := s.metrics.GetFresh(ctx, ticker)
		if err != nil {
			logger.FromContext(ctx).Warn("Could not refresh metrics", "ticker", ticker, "error", err)
		} else {
			if static == nil {
				static = &models.StaticFund{Ticker: ticker}
			}
			// A recompute on read makes every cached list older than this fund.
			if !snap.CalculatedAt.Equal(static.Metrics.CalculatedAt) {
				s.ClearCache()
			}
			static.Metrics = *snap
		}
	}

	f, _ := processors.MergeFund(static, manual)
	return &f, nil
}

func (s *fundServiceImpl) Delete(ctx context.Context, ticker string) error {
	if err := s.store.DeleteFund(ctx, ticker); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%s: %w", ticker, ErrUnknownTicker)
		}
		return fmt.Errorf("delete %s: %w", ticker, err)
	}
	s.ClearCache()
	logger.FromContext(ctx).Info("Deleted fund", "ticker", ticker)
	return nil
}

func (s *fundServiceImpl) Dividends(ctx context.Context, ticker string) ([]models.DividendRecord, error) {
	if _, _, err := s.rows(ctx, ticker); err != nil {
		return nil, err
	}
	divs, err := s.store.ListDividends(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("load dividends for %s: %w", ticker, err)
	}
	return divs, nil
}

func (s *fundServiceImpl) Prices(ctx context.Context, ticker, from string) ([]models.PriceRecord, error) {
	if _, _, err := s.rows(ctx, ticker); err != nil {
		return nil, err
	}
	prices, err := s.store.ListPrices(ctx, ticker, from)
	if err != nil {
		return nil, fmt.Errorf("load prices for %s: %w", ticker, err)
	}
	return prices, nil
}

func (s *fundServiceImpl) ClearCache() {
	s.listCache.Flush()
}
