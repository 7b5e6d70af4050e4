package services

import (
	"context"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skythrill256/yield-ranker-sub001/src/config"
	"github.com/Skythrill256/yield-ranker-sub001/src/model"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
	"github.com/Skythrill256/yield-ranker-sub001/src/security/validation"
)

func seedRankable(t *testing.T, store *model.MemStore) {
	t.Helper()
	ctx := context.Background()
	snaps := []models.MetricsSnapshot{
		{Ticker: "AAA", ForwardYield: models.FloatOf(7.1), DividendCV: models.FloatOf(10)},
		{Ticker: "BBB", ForwardYield: models.FloatOf(6.3), DividendCV: models.FloatOf(2)},
		{Ticker: "CCC", ForwardYield: models.FloatOf(17.4)},
	}
	for _, s := range snaps {
		require.NoError(t, store.UpsertManualFund(ctx, models.ManualFund{Ticker: s.Ticker, Category: models.CategoryETF}))
		require.NoError(t, store.SaveMetrics(ctx, s))
	}
}

func TestRankByYieldOnly(t *testing.T) {
	store := model.NewMemStore()
	seedRankable(t, store)
	svc := NewRankingService(NewFundService(store, nil, nil), store, nil)

	res, err := svc.Rank(context.Background(), "ETF", models.RankingWeights{Yield: 100})
	require.NoError(t, err)
	assert.True(t, res.WeightsValid)
	assert.Equal(t, models.Timeframe12Mo, res.Weights.Timeframe)

	order := make([]string, 0, len(res.Funds))
	for _, f := range res.Funds {
		order = append(order, f.Ticker)
	}
	assert.Equal(t, []string{"CCC", "AAA", "BBB"}, order)
	assert.Equal(t, 2, res.Funds[1].MetricRanks[models.CriterionYield])
}

func TestRankMissingVolatilityGetsWorstRank(t *testing.T) {
	store := model.NewMemStore()
	seedRankable(t, store)
	svc := NewRankingService(NewFundService(store, nil, nil), store, nil)

	res, err := svc.Rank(context.Background(), "", models.RankingWeights{Volatility: 100})
	require.NoError(t, err)
	require.Len(t, res.Funds, 3)
	assert.Equal(t, "BBB", res.Funds[0].Ticker)
	last := res.Funds[2]
	assert.Equal(t, "CCC", last.Ticker)
	assert.Equal(t, 3, last.MetricRanks[models.CriterionVolatility])
}

func TestRankRejectsInvalidWeights(t *testing.T) {
	store := model.NewMemStore()
	svc := NewRankingService(NewFundService(store, nil, nil), store, nil)

	_, err := svc.Rank(context.Background(), "", models.RankingWeights{Yield: 150})
	assert.ErrorIs(t, err, validation.ErrValidationFailed)

	_, err = svc.Rank(context.Background(), "", models.RankingWeights{Yield: 100, Timeframe: "5y"})
	assert.ErrorIs(t, err, validation.ErrValidationFailed)
}

func TestRankReportsNonStandardSum(t *testing.T) {
	store := model.NewMemStore()
	seedRankable(t, store)
	svc := NewRankingService(NewFundService(store, nil, nil), store, nil)

	res, err := svc.Rank(context.Background(), "", models.RankingWeights{Yield: 40, Volatility: 40})
	require.NoError(t, err)
	assert.False(t, res.WeightsValid)
	assert.NotEmpty(t, res.Warning)
	assert.Len(t, res.Funds, 3)
}

func TestPersistDefaultRanks(t *testing.T) {
	ctx := context.Background()
	store := model.NewMemStore()
	seedRankable(t, store)
	require.NoError(t, store.UpsertManualFund(ctx, models.ManualFund{Ticker: "ONLY", Category: models.CategoryCEF}))

	u, err := config.ParseUniverse([]byte("weights:\n  ETF:\n    yield: 100\n"))
	require.NoError(t, err)
	svc := NewRankingService(NewFundService(store, nil, nil), store, u)

	require.NoError(t, svc.PersistDefaultRanks(ctx))

	for ticker, want := range map[string]float64{"CCC": 1, "AAA": 2, "BBB": 3} {
		f, err := store.GetStaticFund(ctx, ticker)
		require.NoError(t, err)
		assert.Equal(t, want, f.Metrics.WeightedRank.Float64, ticker)
	}
	_, err = store.GetStaticFund(ctx, "ONLY")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPersistDefaultRanksIgnoresCachedList(t *testing.T) {
	ctx := context.Background()
	store := model.NewMemStore()
	for ticker, yield := range map[string]float64{"AAA": 10, "BBB": 5} {
		require.NoError(t, store.UpsertManualFund(ctx, models.ManualFund{Ticker: ticker, Category: models.CategoryETF}))
		require.NoError(t, store.SaveMetrics(ctx, models.MetricsSnapshot{Ticker: ticker, ForwardYield: models.FloatOf(yield)}))
	}
	u, err := config.ParseUniverse([]byte("weights:\n  ETF:\n    yield: 100\n"))
	require.NoError(t, err)
	funds := NewFundService(store, nil, cache.New(time.Hour, time.Hour))
	svc := NewRankingService(funds, store, u)

	_, err = funds.List(ctx, "")
	require.NoError(t, err)

	// Recompute flips the yields after the list was cached.
	require.NoError(t, store.SaveMetrics(ctx, models.MetricsSnapshot{Ticker: "AAA", ForwardYield: models.FloatOf(5)}))
	require.NoError(t, store.SaveMetrics(ctx, models.MetricsSnapshot{Ticker: "BBB", ForwardYield: models.FloatOf(10)}))

	require.NoError(t, svc.PersistDefaultRanks(ctx))
	for ticker, want := range map[string]float64{"BBB": 1, "AAA": 2} {
		f, err := store.GetStaticFund(ctx, ticker)
		require.NoError(t, err)
		assert.Equal(t, want, f.Metrics.WeightedRank.Float64, ticker)
	}
}
