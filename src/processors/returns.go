package processors

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

// startToleranceDays is how far the start observation may sit from the
// calendar target before a horizon is reported as unavailable.
const startToleranceDays = 7

type pricePoint struct {
	date  time.Time
	day   string
	close float64
	// split is the shares held after this day's open per share held before.
	split float64
}

func normalizePrices(prices []models.PriceRecord) ([]pricePoint, []string) {
	var out []pricePoint
	var warnings []string
	for _, p := range prices {
		d, err := time.Parse(dateLayout, p.Date)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped price with malformed date %q", p.Date))
			continue
		}
		if !isFinite(p.Close) || p.Close < 0 {
			warnings = append(warnings, fmt.Sprintf("skipped price on %s with invalid close", p.Date))
			continue
		}
		split := p.SplitFactor
		if !isFinite(split) || split <= 0 {
			split = 1
		}
		out = append(out, pricePoint{date: d, day: p.Date, close: p.Close, split: split})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	return out, warnings
}

func dayOf(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// splitRatio is the number of shares one share held at points[from] becomes
// by points[to].
func splitRatio(points []pricePoint, from, to int) float64 {
	ratio := 1.0
	for i := from + 1; i <= to; i++ {
		ratio *= points[i].split
	}
	return ratio
}

// latestOnOrBefore returns the index of the last point not after t, or -1.
func latestOnOrBefore(points []pricePoint, t time.Time) int {
	i := sort.Search(len(points), func(i int) bool { return points[i].date.After(t) })
	return i - 1
}

// nearestBefore finds the point closest to target among points[:endIdx].
// On equal distance the earlier point wins.
func nearestBefore(points []pricePoint, endIdx int, target time.Time) (int, bool) {
	best, bestDist := -1, math.MaxInt
	for i := 0; i < endIdx; i++ {
		dist := daysBetween(target, points[i].date)
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 || bestDist > startToleranceDays {
		return -1, false
	}
	return best, true
}

// CalculateReturns computes price and DRIP total returns for every horizon
// ending at the latest price on or before asOf. A horizon without a start
// observation within a week of its target is null; the others are unaffected.
// Closes are unadjusted; splits inside a horizon change the share count, so a
// split alone moves neither return.
func CalculateReturns(ticker string, prices []models.PriceRecord, dividends []models.DividendRecord, asOf time.Time) models.ReturnsResult {
	asOf = dayOf(asOf)
	result := models.ReturnsResult{Ticker: ticker, AsOf: asOf.Format(dateLayout)}

	points, warnings := normalizePrices(prices)
	result.Warnings = warnings

	endIdx := latestOnOrBefore(points, asOf)
	divs := cashDividends(dividends)

	for _, h := range models.AllHorizons {
		hr := models.HorizonReturn{Horizon: h}
		if endIdx < 0 {
			result.Horizons = append(result.Horizons, hr)
			continue
		}
		end := points[endIdx]
		hr.EndDate = end.day
		hr.EndPrice = models.FloatOf(end.close)

		startIdx, ok := nearestBefore(points, endIdx, h.Start(asOf))
		if !ok {
			result.Horizons = append(result.Horizons, hr)
			continue
		}
		start := points[startIdx]
		hr.StartDate = start.day
		hr.StartPrice = models.FloatOf(start.close)

		if start.close > 0 && end.close > 0 {
			ratio := splitRatio(points, startIdx, endIdx)
			hr.PriceReturn = models.FloatOf((end.close*ratio/start.close - 1) * 100)
			total, reinvested := dripReturn(points, startIdx, endIdx, divs)
			hr.TotalReturn = models.FloatOf(total)
			hr.Reinvested = reinvested
		}
		result.Horizons = append(result.Horizons, hr)
	}

	if endIdx < 0 {
		result.Warnings = append(result.Warnings, "no price on or before as-of date")
	}
	return result
}

type cashDividend struct {
	date   time.Time
	amount float64
}

// cashDividends keeps the unadjusted cash amount, which matches the
// unadjusted closes the shares are bought at.
func cashDividends(records []models.DividendRecord) []cashDividend {
	var out []cashDividend
	for _, r := range records {
		d, err := time.Parse(dateLayout, r.ExDate)
		if err != nil {
			continue
		}
		amount := r.CashAmount
		if !isFinite(amount) || amount <= 0 {
			if a, _, ok := paymentAmount(r); ok {
				amount = a
			} else {
				continue
			}
		}
		out = append(out, cashDividend{date: d, amount: amount})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	return out
}

// dripReturn starts with one share at the start close and walks the days in
// (start, end]. Each day's split is applied first, then every dividend whose
// first close on or after the ex-date is that day is reinvested at that close.
// It returns the percentage return and the number of reinvestments.
func dripReturn(points []pricePoint, startIdx, endIdx int, divs []cashDividend) (float64, int) {
	start, end := points[startIdx], points[endIdx]
	shares := decimal.NewFromInt(1)
	reinvested := 0

	j := sort.Search(len(divs), func(j int) bool { return divs[j].date.After(start.date) })
	for i := startIdx + 1; i <= endIdx; i++ {
		p := points[i]
		if p.split != 1 {
			shares = shares.Mul(decimal.NewFromFloat(p.split))
		}
		for ; j < len(divs) && !divs[j].date.After(p.date); j++ {
			if p.close <= 0 {
				continue
			}
			cash := shares.Mul(decimal.NewFromFloat(divs[j].amount))
			shares = shares.Add(cash.Div(decimal.NewFromFloat(p.close)))
			reinvested++
		}
	}

	endValue := shares.Mul(decimal.NewFromFloat(end.close))
	ret := endValue.Div(decimal.NewFromFloat(start.close)).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
	return ret.InexactFloat64(), reinvested
}

// FiftyTwoWeekRange returns the highest and lowest close in (asOf-365d, asOf].
// Closes before a split are restated in shares as of asOf.
func FiftyTwoWeekRange(prices []models.PriceRecord, asOf time.Time) (high, low models.NullFloat) {
	asOf = dayOf(asOf)
	from := asOf.AddDate(0, 0, -dviWindowDays)
	points, _ := normalizePrices(prices)

	hi, lo := math.Inf(-1), math.Inf(1)
	laterSplits := 1.0
	for i := latestOnOrBefore(points, asOf); i >= 0; i-- {
		p := points[i]
		if !p.date.After(from) {
			break
		}
		if p.close > 0 {
			c := p.close / laterSplits
			hi = math.Max(hi, c)
			lo = math.Min(lo, c)
		}
		laterSplits *= p.split
	}
	if math.IsInf(hi, -1) {
		return models.NoFloat(), models.NoFloat()
	}
	return models.FloatOf(hi), models.FloatOf(lo)
}
