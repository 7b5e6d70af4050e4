package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/model"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
	"github.com/Skythrill256/yield-ranker-sub001/src/observability"
	"github.com/Skythrill256/yield-ranker-sub001/src/processors"
	"github.com/Skythrill256/yield-ranker-sub001/src/security/validation"
)

// History older than this cannot affect any horizon, the DVI window or the Z-score.
const historyYears = 4

type metricsServiceImpl struct {
	store      model.Store
	staleAfter time.Duration
	now        func() time.Time
}

// NewMetricsService creates the snapshot calculator. Snapshots older than
// staleAfter are recomputed on read.
func NewMetricsService(store model.Store, staleAfter time.Duration) MetricsService {
	return &metricsServiceImpl{
		store:      store,
		staleAfter: staleAfter,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type fundRows struct {
	manual *models.ManualFund
	static *models.StaticFund
}

func (r fundRows) declaredFrequency() int {
	if r.manual == nil {
		return 0
	}
	return r.manual.PaymentsPerYear
}

func (r fundRows) navSymbol() string {
	if r.manual == nil || !strings.EqualFold(r.manual.Category, models.CategoryCEF) {
		return ""
	}
	return r.manual.NAVSymbol
}

func (s *metricsServiceImpl) load(ctx context.Context, ticker string) (fundRows, error) {
	var rows fundRows
	manual, err := s.store.GetManualFund(ctx, ticker)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return rows, fmt.Errorf("load curated row for %s: %w", ticker, err)
	}
	static, err := s.store.GetStaticFund(ctx, ticker)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return rows, fmt.Errorf("load provider row for %s: %w", ticker, err)
	}
	if manual == nil && static == nil {
		return rows, fmt.Errorf("%s: %w", ticker, ErrUnknownTicker)
	}
	rows.manual, rows.static = manual, static
	return rows, nil
}

func (s *metricsServiceImpl) history(ctx context.Context, ticker string, asOf time.Time) ([]models.DividendRecord, []models.PriceRecord, error) {
	divs, err := s.store.ListDividends(ctx, ticker)
	if err != nil {
		return nil, nil, fmt.Errorf("load dividends for %s: %w", ticker, err)
	}
	prices, err := s.store.ListPrices(ctx, ticker, asOf.AddDate(-historyYears, 0, 0).Format(validation.DateLayout))
	if err != nil {
		return nil, nil, fmt.Errorf("load prices for %s: %w", ticker, err)
	}
	return divs, prices, nil
}

func (s *metricsServiceImpl) Compute(ctx context.Context, ticker string) (snap *models.MetricsSnapshot, err error) {
	defer func() { observability.RecordMetricsComputed(err) }()
	log := logger.FromContext(ctx).With("ticker", ticker)

	rows, err := s.load(ctx, ticker)
	if err != nil {
		return nil, err
	}
	asOf := s.now()
	divs, prices, err := s.history(ctx, ticker, asOf)
	if err != nil {
		return nil, err
	}

	dvi := processors.CalculateDVI(ticker, divs, rows.declaredFrequency(), asOf)
	returns := processors.CalculateReturns(ticker, prices, divs, asOf)
	high, low := processors.FiftyTwoWeekRange(prices, asOf)

	m := models.MetricsSnapshot{
		Ticker:       ticker,
		DividendSD:   dvi.StdDev,
		DividendCV:   dvi.DVI,
		DVILabel:     dvi.Label,
		Week52High:   high,
		Week52Low:    low,
		PriceReturns: returns.PriceReturns(),
		TotalReturns: returns.TotalReturns(),
		CalculatedAt: asOf,
	}
	if rows.static != nil {
		m.WeightedRank = rows.static.Metrics.WeightedRank
	}
	if len(returns.Horizons) > 0 && returns.Horizons[0].EndDate != "" {
		m.LastPrice = returns.Horizons[0].EndPrice
		m.LastPriceDate = returns.Horizons[0].EndDate
	}
	applyDividendFigures(&m, divs, dvi, rows.declaredFrequency(), asOf)

	if nav := rows.navSymbol(); nav != "" {
		z, err := s.zscore(ctx, ticker, nav, prices, asOf)
		if err != nil {
			return nil, err
		}
		if z.Status == models.ZScoreActive {
			m.ZScore = z.ZScore
		} else {
			observability.RecordUnavailable("zscore")
		}
	}

	if !dvi.Available {
		observability.RecordUnavailable("dvi")
		log.Debug("DVI unavailable", "reason", dvi.Reason)
	}
	if !m.ForwardYield.Valid {
		observability.RecordUnavailable("forward_yield")
	}
	for _, w := range append(dvi.Warnings, returns.Warnings...) {
		log.Warn("Metrics input warning", "warning", w)
	}

	if err := s.store.SaveMetrics(ctx, m); err != nil {
		return nil, fmt.Errorf("save metrics for %s: %w", ticker, err)
	}
	return &m, nil
}

// applyDividendFigures fills the last payment, the annualized run rate
// (last cash amount times that payment's frequency) and the forward yield.
func applyDividendFigures(m *models.MetricsSnapshot, divs []models.DividendRecord, dvi models.DVIResult, declared int, asOf time.Time) {
	cutoff := asOf.Format(validation.DateLayout)
	var last *models.DividendRecord
	for i := range divs {
		d := &divs[i]
		if d.ExDate > cutoff || d.CashAmount <= 0 {
			continue
		}
		if last == nil || d.ExDate >= last.ExDate {
			last = d
		}
	}
	if last == nil {
		return
	}
	m.LastDividend = models.FloatOf(last.CashAmount)
	m.LastDividendDate = last.ExDate

	freq := declared
	if n := len(dvi.Payments); n > 0 && dvi.Payments[n-1].ExDate == last.ExDate {
		freq = dvi.Payments[n-1].Frequency
	}
	if freq <= 0 {
		return
	}
	annual := last.CashAmount * float64(freq)
	m.AnnualizedDividend = models.FloatOf(annual)
	if m.LastPrice.Valid && m.LastPrice.Float64 > 0 {
		m.ForwardYield = models.FloatOf(annual / m.LastPrice.Float64 * 100)
	}
}

func (s *metricsServiceImpl) zscore(ctx context.Context, ticker, nav string, prices []models.PriceRecord, asOf time.Time) (models.ZScoreResult, error) {
	navPrices, err := s.store.ListPrices(ctx, nav, asOf.AddDate(-historyYears, 0, 0).Format(validation.DateLayout))
	if err != nil {
		return models.ZScoreResult{}, fmt.Errorf("load NAV prices %s for %s: %w", nav, ticker, err)
	}
	return processors.CalculateZScore(ticker, nav, prices, navPrices, asOf), nil
}

func (s *metricsServiceImpl) GetFresh(ctx context.Context, ticker string) (*models.MetricsSnapshot, error) {
	static, err := s.store.GetStaticFund(ctx, ticker)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("load provider row for %s: %w", ticker, err)
	}
	if static != nil && !static.Metrics.Stale(s.now(), s.staleAfter) {
		return &static.Metrics, nil
	}

	snap, err := s.Compute(ctx, ticker)
	if err != nil {
		if static != nil && !errors.Is(err, ErrUnknownTicker) {
			logger.FromContext(ctx).Warn("Serving stale metrics after recompute failure", "ticker", ticker, "error", err)
			return &static.Metrics, nil
		}
		return nil, err
	}
	return snap, nil
}

func (s *metricsServiceImpl) RecomputeAll(ctx context.Context) (int, error) {
	tickers, err := s.knownTickers(ctx)
	if err != nil {
		return 0, err
	}

	computed := 0
	for _, t := range tickers {
		if err := ctx.Err(); err != nil {
			return computed, err
		}
		if _, err := s.Compute(ctx, t); err != nil {
			logger.FromContext(ctx).Error("Metrics recompute failed", "ticker", t, "error", err)
			continue
		}
		computed++
	}
	observability.RecordRecomputeAll(float64(s.now().Unix()))
	logger.FromContext(ctx).Info("Metrics recompute finished", "computed", computed, "total", len(tickers))
	return computed, nil
}

// knownTickers returns every ticker with a curated or provider row, sorted.
func (s *metricsServiceImpl) knownTickers(ctx context.Context) ([]string, error) {
	manual, err := s.store.ListManualFunds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list curated funds: %w", err)
	}
	static, err := s.store.ListStaticFunds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list provider funds: %w", err)
	}
	seen := make(map[string]bool, len(manual)+len(static))
	var out []string
	for _, f := range manual {
		if !seen[f.Ticker] {
			seen[f.Ticker] = true
			out = append(out, f.Ticker)
		}
	}
	for _, f := range static {
		if !seen[f.Ticker] {
			seen[f.Ticker] = true
			out = append(out, f.Ticker)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *metricsServiceImpl) DVI(ctx context.Context, ticker string) (*models.DVIResult, error) {
	rows, err := s.load(ctx, ticker)
	if err != nil {
		return nil, err
	}
	divs, err := s.store.ListDividends(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("load dividends for %s: %w", ticker, err)
	}
	res := processors.CalculateDVI(ticker, divs, rows.declaredFrequency(), s.now())
	return &res, nil
}

func (s *metricsServiceImpl) Returns(ctx context.Context, ticker string) (*models.ReturnsResult, error) {
	if _, err := s.load(ctx, ticker); err != nil {
		return nil, err
	}
	asOf := s.now()
	divs, prices, err := s.history(ctx, ticker, asOf)
	if err != nil {
		return nil, err
	}
	res := processors.CalculateReturns(ticker, prices, divs, asOf)
	return &res, nil
}

func (s *metricsServiceImpl) ZScore(ctx context.Context, ticker string) (*models.ZScoreResult, error) {
	rows, err := s.load(ctx, ticker)
	if err != nil {
		return nil, err
	}
	nav := rows.navSymbol()
	if nav == "" {
		return nil, fmt.Errorf("%s: %w", ticker, ErrNotClosedEnd)
	}
	asOf := s.now()
	prices, err := s.store.ListPrices(ctx, ticker, asOf.AddDate(-historyYears, 0, 0).Format(validation.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("load prices for %s: %w", ticker, err)
	}
	res, err := s.zscore(ctx, ticker, nav, prices, asOf)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
