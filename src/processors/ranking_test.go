package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

func fund(ticker string, yield, dvi, z, tr12 *float64) models.RankInput {
	f := models.RankInput{Ticker: ticker, Name: ticker}
	if yield != nil {
		f.Yield = models.FloatOf(*yield)
	}
	if dvi != nil {
		f.DVI = models.FloatOf(*dvi)
	}
	if z != nil {
		f.ZScore = models.FloatOf(*z)
	}
	if tr12 != nil {
		f.TotalReturns.M12 = models.FloatOf(*tr12)
	}
	return f
}

func ptr[T any](v T) *T { return &v }

func tickers(res models.RankingResult) []string {
	out := make([]string, 0, len(res.Funds))
	for _, f := range res.Funds {
		out = append(out, f.Ticker)
	}
	return out
}

func finalRanks(res models.RankingResult) map[string]int {
	out := make(map[string]int, len(res.Funds))
	for _, f := range res.Funds {
		out[f.Ticker] = f.FinalRank
	}
	return out
}

func TestRank_YieldOnly(t *testing.T) {
	funds := []models.RankInput{
		fund("Fund1", ptr(7.1), nil, nil, nil),
		fund("Fund2", ptr(6.3), nil, nil, nil),
		fund("Fund3", ptr(17.4), nil, nil, nil),
	}

	res := Rank(funds, models.RankingWeights{Yield: 100, Timeframe: models.Timeframe12Mo})

	assert.True(t, res.WeightsValid)
	assert.Empty(t, res.Warning)
	assert.Equal(t, []string{"Fund3", "Fund1", "Fund2"}, tickers(res))
	assert.Equal(t, map[string]int{"Fund1": 2, "Fund2": 3, "Fund3": 1}, finalRanks(res))
	for _, f := range res.Funds {
		assert.Equal(t, float64(f.MetricRanks[models.CriterionYield]), f.TotalScore)
	}
}

func TestRank_ZeroWeightEqualsOmitted(t *testing.T) {
	withZ := []models.RankInput{
		fund("A", ptr(8.0), ptr(12.0), ptr(-2.0), ptr(5.0)),
		fund("B", ptr(6.0), ptr(3.0), ptr(1.5), ptr(9.0)),
		fund("C", ptr(9.0), ptr(40.0), ptr(0.2), ptr(-1.0)),
	}
	withoutZ := make([]models.RankInput, len(withZ))
	copy(withoutZ, withZ)
	for i := range withoutZ {
		withoutZ[i].ZScore = models.NoFloat()
	}
	weights := models.RankingWeights{Yield: 50, Volatility: 30, ZScore: 0, TotalReturn: 20, Timeframe: models.Timeframe12Mo}

	a := Rank(withZ, weights)
	b := Rank(withoutZ, weights)

	require.Equal(t, tickers(a), tickers(b))
	for i := range a.Funds {
		assert.Equal(t, a.Funds[i].TotalScore, b.Funds[i].TotalScore)
		assert.Equal(t, a.Funds[i].MetricRanks, b.Funds[i].MetricRanks)
		assert.NotContains(t, a.Funds[i].MetricRanks, models.CriterionZScore)
	}
}

func TestRank_AllMissingIsWorst(t *testing.T) {
	funds := []models.RankInput{
		fund("EMPTY", nil, nil, nil, nil),
		fund("A", ptr(5.0), ptr(10.0), nil, ptr(3.0)),
		fund("B", ptr(7.0), ptr(20.0), nil, ptr(1.0)),
	}
	weights := models.RankingWeights{Yield: 40, Volatility: 40, TotalReturn: 20, Timeframe: models.Timeframe12Mo}

	res := Rank(funds, weights)

	last := res.Funds[len(res.Funds)-1]
	assert.Equal(t, "EMPTY", last.Ticker)
	assert.Equal(t, 3, last.FinalRank)
	for _, r := range last.MetricRanks {
		assert.Equal(t, 3, r)
	}
	for _, f := range res.Funds[:2] {
		assert.LessOrEqual(t, f.TotalScore, last.TotalScore)
	}
}

func TestRank_DirectionPerCriterion(t *testing.T) {
	funds := []models.RankInput{
		fund("HIGHDVI", nil, ptr(45.0), nil, nil),
		fund("LOWDVI", nil, ptr(2.0), nil, nil),
	}

	res := Rank(funds, models.RankingWeights{Volatility: 100})
	assert.Equal(t, []string{"LOWDVI", "HIGHDVI"}, tickers(res))

	funds = []models.RankInput{
		fund("PREMIUM", nil, nil, ptr(1.8), nil),
		fund("DISCOUNT", nil, nil, ptr(-1.2), nil),
	}
	res = Rank(funds, models.RankingWeights{ZScore: 100})
	assert.Equal(t, []string{"DISCOUNT", "PREMIUM"}, tickers(res))
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	funds := []models.RankInput{
		fund("FIRST", ptr(5.0), nil, nil, nil),
		fund("SECOND", ptr(5.0), nil, nil, nil),
	}

	res := Rank(funds, models.RankingWeights{Yield: 100})

	assert.Equal(t, []string{"FIRST", "SECOND"}, tickers(res))
	assert.Equal(t, 1, res.Funds[0].MetricRanks[models.CriterionYield])
	assert.Equal(t, 2, res.Funds[1].MetricRanks[models.CriterionYield])
}

func TestRank_InvalidWeightSumStillRanks(t *testing.T) {
	funds := []models.RankInput{
		fund("A", ptr(5.0), nil, nil, nil),
		fund("B", ptr(6.0), nil, nil, nil),
	}

	res := Rank(funds, models.RankingWeights{Yield: 70})

	assert.False(t, res.WeightsValid)
	assert.Equal(t, 70.0, res.WeightSum)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, []string{"B", "A"}, tickers(res))
}

func TestRank_TimeframeSelectsHorizon(t *testing.T) {
	a := fund("A", nil, nil, nil, ptr(1.0))
	a.TotalReturns.M3 = models.FloatOf(10)
	b := fund("B", nil, nil, nil, ptr(5.0))
	b.TotalReturns.M3 = models.FloatOf(2)
	funds := []models.RankInput{a, b}

	twelve := Rank(funds, models.RankingWeights{TotalReturn: 100, Timeframe: models.Timeframe12Mo})
	three := Rank(funds, models.RankingWeights{TotalReturn: 100, Timeframe: models.Timeframe3Mo})

	assert.Equal(t, []string{"B", "A"}, tickers(twelve))
	assert.Equal(t, []string{"A", "B"}, tickers(three))
	assert.Equal(t, 10.0, three.Funds[0].TotalReturn.Float64)
}

func TestRank_Empty(t *testing.T) {
	res := Rank(nil, models.DefaultWeights())

	assert.NotNil(t, res.Funds)
	assert.Empty(t, res.Funds)
	assert.Equal(t, 0, res.FundCount)
}
