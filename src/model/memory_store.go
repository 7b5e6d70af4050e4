package model

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

// MemStore is an in-memory implementation of Store for local runs and tests.
type MemStore struct {
	mu        sync.RWMutex
	manual    map[string]models.ManualFund
	static    map[string]models.StaticFund
	dividends map[string]map[string]models.DividendRecord // ticker -> ex_date
	prices    map[string]map[string]models.PriceRecord    // ticker -> date
	now       func() time.Time
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		manual:    make(map[string]models.ManualFund),
		static:    make(map[string]models.StaticFund),
		dividends: make(map[string]map[string]models.DividendRecord),
		prices:    make(map[string]map[string]models.PriceRecord),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) ListManualFunds(_ context.Context) ([]models.ManualFund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ManualFund, 0, len(s.manual))
	for _, f := range s.manual {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (s *MemStore) GetManualFund(_ context.Context, ticker string) (*models.ManualFund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.manual[ticker]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (s *MemStore) UpsertManualFund(_ context.Context, f models.ManualFund) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.UpdatedAt = s.now()
	s.manual[f.Ticker] = f
	return nil
}

func (s *MemStore) ListStaticFunds(_ context.Context) ([]models.StaticFund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.StaticFund, 0, len(s.static))
	for _, f := range s.static {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (s *MemStore) GetStaticFund(_ context.Context, ticker string) (*models.StaticFund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.static[ticker]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (s *MemStore) UpsertStaticInfo(_ context.Context, ticker, name, description, exchange string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.static[ticker]
	f.Ticker = ticker
	if name != "" {
		f.Name = name
	}
	if description != "" {
		f.Description = description
	}
	if exchange != "" {
		f.Exchange = exchange
	}
	f.UpdatedAt = s.now()
	s.static[ticker] = f
	return nil
}

func (s *MemStore) SaveMetrics(_ context.Context, m models.MetricsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.static[m.Ticker]
	f.Ticker = m.Ticker
	f.Metrics = m
	f.UpdatedAt = s.now()
	s.static[m.Ticker] = f
	return nil
}

func (s *MemStore) SaveWeightedRank(_ context.Context, ticker string, rank models.NullFloat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.static[ticker]
	if !ok {
		return ErrNotFound
	}
	f.Metrics.WeightedRank = rank
	s.static[ticker] = f
	return nil
}

func (s *MemStore) DeleteFund(_ context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, hasManual := s.manual[ticker]
	_, hasStatic := s.static[ticker]
	delete(s.manual, ticker)
	delete(s.static, ticker)
	delete(s.dividends, ticker)
	delete(s.prices, ticker)
	if !hasManual && !hasStatic {
		return ErrNotFound
	}
	return nil
}

func (s *MemStore) UpsertDividends(_ context.Context, records []models.DividendRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		byDate, ok := s.dividends[r.Ticker]
		if !ok {
			byDate = make(map[string]models.DividendRecord)
			s.dividends[r.Ticker] = byDate
		}
		if r.SplitFactor == 0 {
			r.SplitFactor = 1
		}
		if r.PayDate == "" {
			r.PayDate = byDate[r.ExDate].PayDate
		}
		byDate[r.ExDate] = r
	}
	return len(records), nil
}

func (s *MemStore) UpsertPrices(_ context.Context, records []models.PriceRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range records {
		byDate, ok := s.prices[p.Ticker]
		if !ok {
			byDate = make(map[string]models.PriceRecord)
			s.prices[p.Ticker] = byDate
		}
		if p.SplitFactor == 0 {
			p.SplitFactor = 1
		}
		byDate[p.Date] = p
	}
	return len(records), nil
}

func (s *MemStore) ListDividends(_ context.Context, ticker string) ([]models.DividendRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DividendRecord, 0, len(s.dividends[ticker]))
	for _, r := range s.dividends[ticker] {
		out = append(out, r)
	}
	// YYYY-MM-DD sorts lexically.
	sort.Slice(out, func(i, j int) bool { return out[i].ExDate < out[j].ExDate })
	return out, nil
}

func (s *MemStore) ListPrices(_ context.Context, ticker, from string) ([]models.PriceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PriceRecord, 0, len(s.prices[ticker]))
	for _, p := range s.prices[ticker] {
		if from != "" && p.Date < from {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
