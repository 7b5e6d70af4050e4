package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skythrill256/yield-ranker-sub001/src/model"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

type fakePriceProvider struct {
	mu       sync.Mutex
	bars     map[string][]models.PriceRecord
	meta     map[string]*TickerMetadata
	failFor  map[string]error
	metaErr  error
	requests []string
}

func (f *fakePriceProvider) FetchPrices(_ context.Context, ticker string, _, _ time.Time) ([]models.PriceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, ticker)
	if err := f.failFor[ticker]; err != nil {
		return nil, err
	}
	return f.bars[ticker], nil
}

func (f *fakePriceProvider) FetchMetadata(_ context.Context, ticker string) (*TickerMetadata, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	if m, ok := f.meta[ticker]; ok {
		return m, nil
	}
	return &TickerMetadata{Ticker: ticker}, nil
}

type fakeDividendProvider struct {
	divs  map[string][]models.DividendRecord
	err   error
	calls int
}

func (f *fakeDividendProvider) FetchDividends(_ context.Context, ticker string) ([]models.DividendRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.divs[ticker], nil
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func fixedNow(t *testing.T, s string) func() time.Time {
	d := mustDate(t, s)
	return func() time.Time { return d }
}

// seedDailyPrices stores one bar per calendar day at a constant close.
func seedDailyPrices(t *testing.T, store *model.MemStore, ticker, from, to string, close float64) {
	t.Helper()
	var bars []models.PriceRecord
	for d := mustDate(t, from); !d.After(mustDate(t, to)); d = d.AddDate(0, 0, 1) {
		bars = append(bars, models.PriceRecord{Ticker: ticker, Date: d.Format("2006-01-02"), Close: close, AdjClose: close, SplitFactor: 1})
	}
	_, err := store.UpsertPrices(context.Background(), bars)
	require.NoError(t, err)
}

// seedMonthlyDividends stores n payments on the 15th of consecutive months starting at start.
func seedMonthlyDividends(t *testing.T, store *model.MemStore, ticker, start string, n int, amount float64) {
	t.Helper()
	var divs []models.DividendRecord
	d := mustDate(t, start)
	for i := 0; i < n; i++ {
		divs = append(divs, models.DividendRecord{
			Ticker:     ticker,
			ExDate:     d.AddDate(0, i, 0).Format("2006-01-02"),
			CashAmount: amount,
			Source:     models.SourceTiingo,
		})
	}
	_, err := store.UpsertDividends(context.Background(), divs)
	require.NoError(t, err)
}

func errFor(ticker string) error {
	return fmt.Errorf("boom %s", ticker)
}
