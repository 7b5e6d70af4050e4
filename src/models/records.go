package models

// Fund categories.
const (
	CategoryETF = "ETF"
	CategoryCEF = "CEF"
)

// Where a dividend record came from.
const (
	SourceTiingo       = "tiingo"
	SourceAlphaVantage = "alphavantage"
	SourceManual       = "manual"
)

// DividendRecord is a single distribution as stored in dividends_detail.
// Dates are kept as YYYY-MM-DD strings so a malformed value can be skipped
// by the calculators instead of failing the whole history.
type DividendRecord struct {
	Ticker            string    `json:"ticker"`
	ExDate            string    `json:"ex_date"`
	PayDate           string    `json:"pay_date,omitempty"`
	CashAmount        float64   `json:"cash_amount"`
	AdjustedAmount    NullFloat `json:"adjusted_amount"`
	ScaledAmount      NullFloat `json:"scaled_amount"`
	SplitFactor       float64   `json:"split_factor"`
	DeclaredFrequency int       `json:"declared_frequency,omitempty"` // payments per year, 0 if unknown
	Source            string    `json:"source"`
}

// PriceRecord is one daily bar as stored in prices_daily.
type PriceRecord struct {
	Ticker      string  `json:"ticker"`
	Date        string  `json:"date"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	AdjClose    float64 `json:"adj_close"`
	Volume      int64   `json:"volume"`
	DivCash     float64 `json:"div_cash"`
	SplitFactor float64 `json:"split_factor"`
}
