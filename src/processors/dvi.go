package processors

import (
	"fmt"
	"sort"
	"time"

	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

const (
	dateLayout       = "2006-01-02"
	dviWindowDays    = 365
	minDVIPayments   = 2
	reasonTooFew     = "fewer than 2 payments in the trailing 365-day window"
	reasonZeroMedian = "median annualized payment is zero"
)

// frequencyBand maps an inter-payment gap, in days, onto payments per year.
type frequencyBand struct {
	minDays, maxDays int
	perYear          int
}

var frequencyBands = []frequencyBand{
	{4, 10, 52},
	{20, 45, 12},
	{70, 120, 4},
	{150, 215, 2},
	{300, 430, 1},
}

// FrequencyFromGap returns payments per year for a gap in days, or false
// when the gap does not fall inside any known band.
func FrequencyFromGap(days int) (int, bool) {
	for _, b := range frequencyBands {
		if days >= b.minDays && days <= b.maxDays {
			return b.perYear, true
		}
	}
	return 0, false
}

// DVILabel buckets a DVI percentage.
func DVILabel(dvi float64) string {
	switch {
	case dvi <= 5:
		return "Very Low"
	case dvi <= 15:
		return "Low"
	case dvi <= 30:
		return "Moderate"
	case dvi <= 50:
		return "High"
	default:
		return "Very High"
	}
}

type payment struct {
	date         time.Time
	exDate       string
	amount       float64
	amountSource string
	declared     int
}

// normalizeDividends parses and orders a raw history. Unusable rows are
// returned as warnings, never as errors.
func normalizeDividends(records []models.DividendRecord) ([]payment, []string) {
	var out []payment
	var warnings []string
	for _, r := range records {
		d, err := time.Parse(dateLayout, r.ExDate)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped dividend with malformed ex-date %q", r.ExDate))
			continue
		}
		amount, source, ok := paymentAmount(r)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("skipped dividend on %s with no positive amount", r.ExDate))
			continue
		}
		out = append(out, payment{date: d, exDate: r.ExDate, amount: amount, amountSource: source, declared: r.DeclaredFrequency})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	return out, warnings
}

// paymentAmount applies adjusted > scaled > cash precedence.
func paymentAmount(r models.DividendRecord) (float64, string, bool) {
	if r.AdjustedAmount.Valid && isFinite(r.AdjustedAmount.Float64) && r.AdjustedAmount.Float64 > 0 {
		return r.AdjustedAmount.Float64, models.AmountSourceAdjusted, true
	}
	if r.ScaledAmount.Valid && isFinite(r.ScaledAmount.Float64) && r.ScaledAmount.Float64 > 0 {
		return r.ScaledAmount.Float64, models.AmountSourceScaled, true
	}
	if isFinite(r.CashAmount) && r.CashAmount > 0 {
		return r.CashAmount, models.AmountSourceCash, true
	}
	return 0, "", false
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// CalculateDVI computes the dividend volatility index over the trailing
// 365 days ending at end (zero means today, UTC). Each payment in the window
// is annualized with the frequency observed from its gap to the previous
// payment in the full history; the first payment ever uses the gap to the
// next one. Ambiguous gaps fall back to the declared frequency, then to
// the number of payments in the window.
func CalculateDVI(ticker string, records []models.DividendRecord, declaredFrequency int, end time.Time) models.DVIResult {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -dviWindowDays)

	result := models.DVIResult{
		Ticker:      ticker,
		WindowStart: start.Format(dateLayout),
		WindowEnd:   end.Format(dateLayout),
		Payments:    []models.AnnualizedPayment{},
	}

	history, warnings := normalizeDividends(records)
	result.Warnings = warnings

	var inWindow []int
	for i, p := range history {
		if p.date.After(start) && !p.date.After(end) {
			inWindow = append(inWindow, i)
		}
	}
	result.PaymentCount = len(inWindow)

	annualized := make([]float64, 0, len(inWindow))
	for _, i := range inWindow {
		p := history[i]
		gap := 0
		switch {
		case i > 0:
			gap = daysBetween(history[i-1].date, p.date)
		case len(history) > 1:
			gap = daysBetween(p.date, history[1].date)
		}

		freq, ok := FrequencyFromGap(gap)
		source := models.FrequencySourceObserved
		if !ok {
			freq, source = fallbackFrequency(p.declared, declaredFrequency, len(inWindow))
		}

		a := p.amount * float64(freq)
		annualized = append(annualized, a)
		result.Payments = append(result.Payments, models.AnnualizedPayment{
			ExDate:          p.exDate,
			Amount:          p.amount,
			AmountSource:    p.amountSource,
			GapDays:         gap,
			Frequency:       freq,
			FrequencySource: source,
			Annualized:      a,
		})
	}

	if len(annualized) < minDVIPayments {
		result.Reason = reasonTooFew
		return result
	}

	mean := Mean(annualized)
	median := Median(annualized)
	variance := PopulationVariance(annualized)
	sd := PopulationStdDev(annualized)
	result.Mean = models.FloatOf(mean)
	result.Median = models.FloatOf(median)
	result.Variance = models.FloatOf(variance)
	result.StdDev = models.FloatOf(sd)

	if median == 0 || !isFinite(median) {
		result.Reason = reasonZeroMedian
		return result
	}

	dvi := sd / median * 100
	if !isFinite(dvi) {
		result.Reason = reasonZeroMedian
		return result
	}
	result.Available = true
	result.DVI = models.FloatOf(dvi)
	result.Label = DVILabel(dvi)
	return result
}

func fallbackFrequency(recordDeclared, declared, windowCount int) (int, string) {
	if recordDeclared > 0 {
		return recordDeclared, models.FrequencySourceDeclared
	}
	if declared > 0 {
		return declared, models.FrequencySourceDeclared
	}
	return windowCount, models.FrequencySourceCount
}
