package processors

import (
	"sort"
	"time"

	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

const (
	// MinZScorePoints is one year of trading days.
	MinZScorePoints = 252
	zScoreYears     = 3

	// flatSeriesEpsilon absorbs summation error on a constant series.
	flatSeriesEpsilon = 1e-12
)

type pdPoint struct {
	date time.Time
	pd   float64
}

// CalculateZScore computes the 3-year premium/discount Z-score of a CEF
// from its market closes and the closes of its NAV symbol. Only dates with
// both closes positive and on or before asOf are used.
func CalculateZScore(ticker, navSymbol string, prices, navPrices []models.PriceRecord, asOf time.Time) models.ZScoreResult {
	asOf = dayOf(asOf)
	result := models.ZScoreResult{
		Ticker:    ticker,
		NAVSymbol: navSymbol,
		Status:    models.ZScoreNoData,
		Required:  MinZScorePoints,
	}

	navByDate := make(map[string]float64, len(navPrices))
	for _, n := range navPrices {
		if isFinite(n.Close) && n.Close > 0 {
			navByDate[n.Date] = n.Close
		}
	}

	var merged []pdPoint
	for _, p := range prices {
		nav, ok := navByDate[p.Date]
		if !ok || !isFinite(p.Close) || p.Close <= 0 {
			continue
		}
		d, err := time.Parse(dateLayout, p.Date)
		if err != nil || d.After(asOf) {
			continue
		}
		merged = append(merged, pdPoint{date: d, pd: p.Close/nav - 1})
	}
	if len(merged) == 0 {
		return result
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].date.Before(merged[j].date) })

	end := merged[len(merged)-1].date
	start := end.AddDate(-zScoreYears, 0, 0)
	window := make([]float64, 0, len(merged))
	for _, m := range merged {
		if !m.date.Before(start) {
			window = append(window, m.pd)
		}
	}

	result.DataPoints = len(window)
	result.StartDate = start.Format(dateLayout)
	result.EndDate = end.Format(dateLayout)
	if len(window) < MinZScorePoints {
		result.Status = models.ZScoreInsufficientData
		return result
	}

	current := window[len(window)-1]
	avg := Mean(window)
	sd := PopulationStdDev(window)
	z := 0.0
	if sd > flatSeriesEpsilon {
		z = (current - avg) / sd
	}

	result.Status = models.ZScoreActive
	result.ZScore = models.FloatOf(z)
	result.CurrentPD = models.FloatOf(current)
	result.CurrentPDPct = models.FloatOf(current * 100)
	result.AvgPD = models.FloatOf(avg)
	result.AvgPDPct = models.FloatOf(avg * 100)
	result.StdDevPD = models.FloatOf(sd)
	result.StdDevPDPct = models.FloatOf(sd * 100)
	return result
}
