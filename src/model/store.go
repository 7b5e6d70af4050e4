package model

import (
	"context"
	"errors"

	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

// ErrNotFound is returned when a requested fund or row does not exist.
var ErrNotFound = errors.New("not found")

// FundStore persists the curated etfs rows and the provider-backed
// etf_static rows, including the computed metrics snapshot.
type FundStore interface {
	ListManualFunds(ctx context.Context) ([]models.ManualFund, error)
	GetManualFund(ctx context.Context, ticker string) (*models.ManualFund, error)
	UpsertManualFund(ctx context.Context, f models.ManualFund) error

	ListStaticFunds(ctx context.Context) ([]models.StaticFund, error)
	GetStaticFund(ctx context.Context, ticker string) (*models.StaticFund, error)
	// UpsertStaticInfo refreshes provider metadata without touching metrics.
	UpsertStaticInfo(ctx context.Context, ticker, name, description, exchange string) error
	// SaveMetrics overwrites the metrics snapshot of a ticker.
	SaveMetrics(ctx context.Context, m models.MetricsSnapshot) error
	SaveWeightedRank(ctx context.Context, ticker string, rank models.NullFloat) error

	// DeleteFund removes a fund and all of its history. Returns ErrNotFound
	// when neither an etfs nor an etf_static row existed.
	DeleteFund(ctx context.Context, ticker string) error
}

// HistoryStore persists dividend and price history keyed by (ticker, date).
type HistoryStore interface {
	UpsertDividends(ctx context.Context, records []models.DividendRecord) (int, error)
	UpsertPrices(ctx context.Context, records []models.PriceRecord) (int, error)
	// ListDividends returns the full history ordered by ex-date.
	ListDividends(ctx context.Context, ticker string) ([]models.DividendRecord, error)
	// ListPrices returns bars on or after from (YYYY-MM-DD, empty for all) ordered by date.
	ListPrices(ctx context.Context, ticker, from string) ([]models.PriceRecord, error)
}

// Store is everything the services need from persistence.
type Store interface {
	FundStore
	HistoryStore
	Ping(ctx context.Context) error
}
