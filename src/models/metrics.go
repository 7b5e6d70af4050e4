package models

import "time"

// Labels describing which amount a payment was annualized from.
const (
	AmountSourceAdjusted = "adjusted"
	AmountSourceScaled   = "scaled"
	AmountSourceCash     = "cash"
)

// Labels describing where a payment's frequency came from.
const (
	FrequencySourceObserved = "observed"
	FrequencySourceDeclared = "declared-fallback"
	FrequencySourceCount    = "count-fallback"
)

// AnnualizedPayment is one row of the DVI audit trail.
type AnnualizedPayment struct {
	ExDate          string  `json:"ex_date"`
	Amount          float64 `json:"amount"`
	AmountSource    string  `json:"amount_source"`
	GapDays         int     `json:"gap_days,omitempty"`
	Frequency       int     `json:"frequency"`
	FrequencySource string  `json:"frequency_source"`
	Annualized      float64 `json:"annualized"`
}

// DVIResult is the dividend volatility index together with its breakdown.
// When Available is false DVI is null and Reason explains why.
type DVIResult struct {
	Ticker       string              `json:"ticker"`
	Available    bool                `json:"available"`
	DVI          NullFloat           `json:"dvi_pct"`
	Label        string              `json:"label,omitempty"`
	Reason       string              `json:"reason,omitempty"`
	WindowStart  string              `json:"window_start"`
	WindowEnd    string              `json:"window_end"`
	PaymentCount int                 `json:"payment_count"`
	Payments     []AnnualizedPayment `json:"payments"`
	Mean         NullFloat           `json:"mean"`
	Median       NullFloat           `json:"median"`
	Variance     NullFloat           `json:"variance"`
	StdDev       NullFloat           `json:"std_dev"`
	Warnings     []string            `json:"warnings,omitempty"`
}

// Horizon is a trailing return window.
type Horizon string

const (
	Horizon1W  Horizon = "1W"
	Horizon1M  Horizon = "1M"
	Horizon3M  Horizon = "3M"
	Horizon6M  Horizon = "6M"
	Horizon12M Horizon = "12M"
	Horizon3Y  Horizon = "3Y"
)

// AllHorizons lists horizons in display order.
var AllHorizons = []Horizon{Horizon1W, Horizon1M, Horizon3M, Horizon6M, Horizon12M, Horizon3Y}

// Start returns the calendar target date for the start of the window ending at end.
func (h Horizon) Start(end time.Time) time.Time {
	switch h {
	case Horizon1W:
		return end.AddDate(0, 0, -7)
	case Horizon1M:
		return end.AddDate(0, -1, 0)
	case Horizon3M:
		return end.AddDate(0, -3, 0)
	case Horizon6M:
		return end.AddDate(0, -6, 0)
	case Horizon12M:
		return end.AddDate(-1, 0, 0)
	case Horizon3Y:
		return end.AddDate(-3, 0, 0)
	}
	return end
}

// ReturnSet holds one value per horizon.
type ReturnSet struct {
	W1  NullFloat `json:"1w"`
	M1  NullFloat `json:"1m"`
	M3  NullFloat `json:"3m"`
	M6  NullFloat `json:"6m"`
	M12 NullFloat `json:"12m"`
	Y3  NullFloat `json:"3y"`
}

// For returns the value stored for h.
func (s ReturnSet) For(h Horizon) NullFloat {
	switch h {
	case Horizon1W:
		return s.W1
	case Horizon1M:
		return s.M1
	case Horizon3M:
		return s.M3
	case Horizon6M:
		return s.M6
	case Horizon12M:
		return s.M12
	case Horizon3Y:
		return s.Y3
	}
	return NoFloat()
}

// Set stores v for h.
func (s *ReturnSet) Set(h Horizon, v NullFloat) {
	switch h {
	case Horizon1W:
		s.W1 = v
	case Horizon1M:
		s.M1 = v
	case Horizon3M:
		s.M3 = v
	case Horizon6M:
		s.M6 = v
	case Horizon12M:
		s.M12 = v
	case Horizon3Y:
		s.Y3 = v
	}
}

// HorizonReturn is the price and DRIP total return over one horizon.
type HorizonReturn struct {
	Horizon     Horizon   `json:"horizon"`
	StartDate   string    `json:"start_date,omitempty"`
	EndDate     string    `json:"end_date,omitempty"`
	StartPrice  NullFloat `json:"start_price"`
	EndPrice    NullFloat `json:"end_price"`
	PriceReturn NullFloat `json:"price_return_pct"`
	TotalReturn NullFloat `json:"total_return_pct"`
	Reinvested  int       `json:"dividends_reinvested"`
}

// ReturnsResult groups all horizons for a ticker.
type ReturnsResult struct {
	Ticker   string          `json:"ticker"`
	AsOf     string          `json:"as_of"`
	Horizons []HorizonReturn `json:"horizons"`
	Warnings []string        `json:"warnings,omitempty"`
}

// PriceReturns collapses the result into a ReturnSet of price returns.
func (r ReturnsResult) PriceReturns() ReturnSet {
	var s ReturnSet
	for _, h := range r.Horizons {
		s.Set(h.Horizon, h.PriceReturn)
	}
	return s
}

// TotalReturns collapses the result into a ReturnSet of DRIP total returns.
func (r ReturnsResult) TotalReturns() ReturnSet {
	var s ReturnSet
	for _, h := range r.Horizons {
		s.Set(h.Horizon, h.TotalReturn)
	}
	return s
}

// Z-score statuses.
const (
	ZScoreActive           = "active"
	ZScoreInsufficientData = "insufficient_data"
	ZScoreNoData           = "no_data"
)

// ZScoreResult is the premium/discount Z-score of a closed-end fund.
type ZScoreResult struct {
	Ticker       string    `json:"ticker"`
	NAVSymbol    string    `json:"nav_symbol"`
	Status       string    `json:"status"`
	ZScore       NullFloat `json:"z_score"`
	CurrentPD    NullFloat `json:"current_pd"`
	CurrentPDPct NullFloat `json:"current_pd_pct"`
	AvgPD        NullFloat `json:"avg_pd"`
	AvgPDPct     NullFloat `json:"avg_pd_pct"`
	StdDevPD     NullFloat `json:"stddev_pd"`
	StdDevPDPct  NullFloat `json:"stddev_pd_pct"`
	DataPoints   int       `json:"data_points"`
	Required     int       `json:"required"`
	StartDate    string    `json:"start_date,omitempty"`
	EndDate      string    `json:"end_date,omitempty"`
}

// MetricsSnapshot is the computed state persisted onto etf_static.
type MetricsSnapshot struct {
	Ticker             string    `json:"ticker"`
	LastDividend       NullFloat `json:"last_dividend"`
	LastDividendDate   string    `json:"last_dividend_date,omitempty"`
	AnnualizedDividend NullFloat `json:"annualized_dividend"`
	ForwardYield       NullFloat `json:"forward_yield_pct"`
	DividendSD         NullFloat `json:"dividend_sd"`
	DividendCV         NullFloat `json:"dividend_cv_pct"`
	DVILabel           string    `json:"dvi_label,omitempty"`
	Week52High         NullFloat `json:"week_52_high"`
	Week52Low          NullFloat `json:"week_52_low"`
	LastPrice          NullFloat `json:"last_price"`
	LastPriceDate      string    `json:"last_price_date,omitempty"`
	PriceReturns       ReturnSet `json:"price_returns"`
	TotalReturns       ReturnSet `json:"total_returns"`
	ZScore             NullFloat `json:"z_score"`
	WeightedRank       NullFloat `json:"weighted_rank"`
	CalculatedAt       time.Time `json:"calculated_at"`
}

// Stale reports whether the snapshot is older than maxAge at now.
func (m MetricsSnapshot) Stale(now time.Time, maxAge time.Duration) bool {
	if m.CalculatedAt.IsZero() {
		return true
	}
	return now.Sub(m.CalculatedAt) > maxAge
}
