package models

import "time"

// Fund is the merged, served view of one ETF or CEF.
type Fund struct {
	Ticker            string          `json:"ticker"`
	Name              string          `json:"name"`
	Issuer            string          `json:"issuer,omitempty"`
	Description       string          `json:"description,omitempty"`
	Category          string          `json:"category"`
	NAVSymbol         string          `json:"nav_symbol,omitempty"`
	PaymentsPerYear   int             `json:"payments_per_year,omitempty"`
	Price             NullFloat       `json:"price"`
	Dividend          NullFloat       `json:"dividend"`
	ForwardYield      NullFloat       `json:"forward_yield_pct"`
	Metrics           MetricsSnapshot `json:"metrics"`
	LastUpdated       time.Time       `json:"last_updated"`
	HasProviderRecord bool            `json:"has_provider_record"`
}

// IsCEF reports whether the fund is a closed-end fund.
func (f Fund) IsCEF() bool {
	return f.Category == CategoryCEF
}

// ManualFund is a curated row from the etfs table.
type ManualFund struct {
	Ticker          string    `json:"ticker"`
	Name            string    `json:"name"`
	Issuer          string    `json:"issuer"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	NAVSymbol       string    `json:"nav_symbol"`
	PaymentsPerYear int       `json:"payments_per_year"`
	Price           NullFloat `json:"price"`
	Dividend        NullFloat `json:"dividend"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StaticFund is a provider-backed row from etf_static, including the last
// computed metrics snapshot.
type StaticFund struct {
	Ticker      string          `json:"ticker"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Exchange    string          `json:"exchange"`
	Metrics     MetricsSnapshot `json:"metrics"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
