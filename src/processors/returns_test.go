package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

func px(date string, close float64) models.PriceRecord {
	return models.PriceRecord{Ticker: "TEST", Date: date, Close: close, AdjClose: close}
}

// dailyPrices returns one bar per calendar day, inclusive, at a constant close.
func dailyPrices(t *testing.T, from, to string, close float64) []models.PriceRecord {
	t.Helper()
	var out []models.PriceRecord
	for d := mustDate(t, from); !d.After(mustDate(t, to)); d = d.AddDate(0, 0, 1) {
		out = append(out, px(d.Format(dateLayout), close))
	}
	return out
}

func horizon(t *testing.T, res models.ReturnsResult, h models.Horizon) models.HorizonReturn {
	t.Helper()
	for _, hr := range res.Horizons {
		if hr.Horizon == h {
			return hr
		}
	}
	t.Fatalf("horizon %s not found", h)
	return models.HorizonReturn{}
}

func TestCalculateReturns_SimpleWeek(t *testing.T) {
	prices := []models.PriceRecord{
		px("2024-12-24", 10),
		px("2024-12-27", 10),
		px("2024-12-31", 11),
	}
	dividends := []models.DividendRecord{div("2024-12-27", 0.5)}

	res := CalculateReturns("W", prices, dividends, mustDate(t, "2024-12-31"))

	w := horizon(t, res, models.Horizon1W)
	assert.Equal(t, "2024-12-24", w.StartDate)
	assert.Equal(t, "2024-12-31", w.EndDate)
	assert.InDelta(t, 10.0, w.PriceReturn.Float64, 1e-9)
	// 1 share + 0.5/10 reinvested = 1.05 shares worth 11.55.
	assert.InDelta(t, 15.5, w.TotalReturn.Float64, 1e-9)
	assert.Equal(t, 1, w.Reinvested)
}

func TestCalculateReturns_MissingLongHistoryOnlyNullsThatHorizon(t *testing.T) {
	prices := dailyPrices(t, "2023-01-01", "2024-12-31", 10)

	res := CalculateReturns("H", prices, nil, mustDate(t, "2024-12-31"))

	require.Len(t, res.Horizons, len(models.AllHorizons))
	for _, hr := range res.Horizons {
		if hr.Horizon == models.Horizon3Y {
			assert.False(t, hr.PriceReturn.Valid)
			assert.False(t, hr.TotalReturn.Valid)
			continue
		}
		assert.True(t, hr.PriceReturn.Valid, "horizon %s", hr.Horizon)
		assert.InDelta(t, 0.0, hr.PriceReturn.Float64, 1e-9)
		assert.InDelta(t, 0.0, hr.TotalReturn.Float64, 1e-9)
	}
}

func TestCalculateReturns_DripAtLeastPriceReturn(t *testing.T) {
	prices := dailyPrices(t, "2023-06-01", "2024-12-31", 20)
	for i := range prices {
		prices[i].Close += float64(i%17) * 0.1
	}
	var dividends []models.DividendRecord
	for m := 1; m <= 12; m++ {
		dividends = append(dividends, div(time.Date(2024, time.Month(m), 10, 0, 0, 0, 0, time.UTC).Format(dateLayout), 0.15))
	}

	res := CalculateReturns("D", prices, dividends, mustDate(t, "2024-12-31"))

	for _, h := range []models.Horizon{models.Horizon1M, models.Horizon3M, models.Horizon6M, models.Horizon12M} {
		hr := horizon(t, res, h)
		require.True(t, hr.TotalReturn.Valid, "horizon %s", h)
		assert.GreaterOrEqual(t, hr.TotalReturn.Float64, hr.PriceReturn.Float64, "horizon %s", h)
		assert.Positive(t, hr.Reinvested, "horizon %s", h)
	}
}

func TestCalculateReturns_NoDividendsTotalEqualsPrice(t *testing.T) {
	prices := []models.PriceRecord{px("2024-11-29", 8), px("2024-12-31", 10)}

	res := CalculateReturns("N", prices, nil, mustDate(t, "2024-12-31"))

	m := horizon(t, res, models.Horizon1M)
	assert.InDelta(t, 25.0, m.PriceReturn.Float64, 1e-9)
	assert.InDelta(t, m.PriceReturn.Float64, m.TotalReturn.Float64, 1e-9)
}

func TestCalculateReturns_ZeroStartPriceIsNull(t *testing.T) {
	prices := []models.PriceRecord{px("2024-12-24", 0), px("2024-12-31", 10)}

	res := CalculateReturns("Z", prices, nil, mustDate(t, "2024-12-31"))

	w := horizon(t, res, models.Horizon1W)
	assert.True(t, w.StartPrice.Valid)
	assert.False(t, w.PriceReturn.Valid)
	assert.False(t, w.TotalReturn.Valid)
}

func TestCalculateReturns_NearestStartTiesToEarlier(t *testing.T) {
	prices := []models.PriceRecord{
		px("2024-12-23", 8),
		px("2024-12-25", 12),
		px("2024-12-31", 10),
	}

	res := CalculateReturns("T", prices, nil, mustDate(t, "2024-12-31"))

	w := horizon(t, res, models.Horizon1W)
	assert.Equal(t, "2024-12-23", w.StartDate)
	assert.InDelta(t, 25.0, w.PriceReturn.Float64, 1e-9)
}

func TestCalculateReturns_StartOutsideToleranceIsNull(t *testing.T) {
	prices := []models.PriceRecord{px("2024-11-15", 10), px("2024-12-31", 10)}

	res := CalculateReturns("S", prices, nil, mustDate(t, "2024-12-31"))

	assert.False(t, horizon(t, res, models.Horizon1W).PriceReturn.Valid)
	assert.False(t, horizon(t, res, models.Horizon1M).PriceReturn.Valid)
}

func TestCalculateReturns_IgnoresPricesAfterAsOf(t *testing.T) {
	prices := []models.PriceRecord{
		px("2024-12-24", 10),
		px("2024-12-31", 12),
		px("2025-01-02", 50),
	}

	res := CalculateReturns("A", prices, nil, mustDate(t, "2024-12-31"))

	w := horizon(t, res, models.Horizon1W)
	assert.Equal(t, "2024-12-31", w.EndDate)
	assert.InDelta(t, 20.0, w.PriceReturn.Float64, 1e-9)
}

func TestCalculateReturns_SkipsMalformedRows(t *testing.T) {
	prices := []models.PriceRecord{px("2024-12-24", 10), px("bad", 99), px("2024-12-31", 11)}

	res := CalculateReturns("M", prices, nil, mustDate(t, "2024-12-31"))

	assert.Len(t, res.Warnings, 1)
	assert.True(t, horizon(t, res, models.Horizon1W).PriceReturn.Valid)
}

func TestCalculateReturns_NoPrices(t *testing.T) {
	res := CalculateReturns("E", nil, nil, mustDate(t, "2024-12-31"))

	require.Len(t, res.Horizons, len(models.AllHorizons))
	for _, hr := range res.Horizons {
		assert.False(t, hr.PriceReturn.Valid)
	}
	assert.NotEmpty(t, res.Warnings)
}

// splitAt records a split on date and restates earlier closes in pre-split shares.
func splitAt(t *testing.T, prices []models.PriceRecord, date string, factor float64) []models.PriceRecord {
	t.Helper()
	on := mustDate(t, date)
	out := make([]models.PriceRecord, len(prices))
	for i, p := range prices {
		if mustDate(t, p.Date).Before(on) {
			p.Close *= factor
			p.AdjClose = p.Close
		}
		if p.Date == date {
			p.SplitFactor = factor
		}
		out[i] = p
	}
	return out
}

func TestCalculateReturns_ReverseSplitIsNotAReturn(t *testing.T) {
	// 1-for-10 reverse split: close 2 becomes 20, value per holder unchanged.
	prices := splitAt(t, dailyPrices(t, "2023-12-01", "2024-12-31", 20), "2024-10-31", 0.1)
	require.InDelta(t, 2.0, prices[0].Close, 1e-9)

	res := CalculateReturns("RS", prices, nil, mustDate(t, "2024-12-31"))

	for _, h := range []models.Horizon{models.Horizon3M, models.Horizon6M, models.Horizon12M} {
		hr := horizon(t, res, h)
		assert.InDelta(t, 0.0, hr.PriceReturn.Float64, 1e-9, h)
		assert.InDelta(t, 0.0, hr.TotalReturn.Float64, 1e-9, h)
	}
	assert.InDelta(t, 0.0, horizon(t, res, models.Horizon1M).PriceReturn.Float64, 1e-9)
}

func TestCalculateReturns_DripAcrossForwardSplit(t *testing.T) {
	// 2-for-1 on 2024-07-01 (100 -> 50), then 1.00 per new share.
	prices := splitAt(t, dailyPrices(t, "2023-12-01", "2024-12-31", 50), "2024-07-01", 2)
	dividends := []models.DividendRecord{div("2024-08-15", 1)}

	res := CalculateReturns("FS", prices, dividends, mustDate(t, "2024-12-31"))

	hr := horizon(t, res, models.Horizon12M)
	assert.Equal(t, 100.0, hr.StartPrice.Float64)
	assert.InDelta(t, 0.0, hr.PriceReturn.Float64, 1e-9)
	// 2 shares earn 2.00, buying 0.04 more at 50: 2.04 x 50 = 102.
	assert.InDelta(t, 2.0, hr.TotalReturn.Float64, 1e-9)
	assert.Equal(t, 1, hr.Reinvested)
}

func TestFiftyTwoWeekRange_RestatesPreSplitCloses(t *testing.T) {
	prices := splitAt(t, dailyPrices(t, "2024-01-01", "2024-12-31", 20), "2024-10-31", 0.1)
	prices[len(prices)-1].Close = 22

	high, low := FiftyTwoWeekRange(prices, mustDate(t, "2024-12-31"))

	assert.InDelta(t, 22.0, high.Float64, 1e-9)
	assert.InDelta(t, 20.0, low.Float64, 1e-9)
}

func TestFiftyTwoWeekRange(t *testing.T) {
	prices := []models.PriceRecord{
		px("2023-12-01", 100),
		px("2024-02-01", 12),
		px("2024-06-01", 9),
		px("2024-12-31", 10),
	}

	high, low := FiftyTwoWeekRange(prices, mustDate(t, "2024-12-31"))

	assert.Equal(t, 12.0, high.Float64)
	assert.Equal(t, 9.0, low.Float64)

	high, low = FiftyTwoWeekRange(nil, mustDate(t, "2024-12-31"))
	assert.False(t, high.Valid)
	assert.False(t, low.Valid)
}
