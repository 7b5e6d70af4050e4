package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Skythrill256/yield-ranker-sub001/src/database"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

// PgStore implements Store on Postgres.
type PgStore struct {
	pool *database.Pool
}

// NewPgStore creates a store on an open pool.
func NewPgStore(pool *database.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Compile-time interface check.
var _ Store = (*PgStore)(nil)

func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const manualColumns = `ticker, name, issuer, description, category, nav_symbol, payments_per_year, price, dividend, updated_at`

func scanManual(row pgx.Row) (*models.ManualFund, error) {
	var f models.ManualFund
	if err := row.Scan(
		&f.Ticker,
		&f.Name,
		&f.Issuer,
		&f.Description,
		&f.Category,
		&f.NAVSymbol,
		&f.PaymentsPerYear,
		&f.Price,
		&f.Dividend,
		&f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListManualFunds returns all curated funds ordered by ticker.
func (s *PgStore) ListManualFunds(ctx context.Context) ([]models.ManualFund, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+manualColumns+` FROM etfs ORDER BY ticker ASC`)
	if err != nil {
		return nil, fmt.Errorf("list etfs: %w", err)
	}
	defer rows.Close()

	var out []models.ManualFund
	for rows.Next() {
		f, err := scanManual(rows)
		if err != nil {
			return nil, fmt.Errorf("scan etfs row: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// GetManualFund returns ErrNotFound if the ticker has no etfs row.
func (s *PgStore) GetManualFund(ctx context.Context, ticker string) (*models.ManualFund, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+manualColumns+` FROM etfs WHERE ticker = $1`, ticker)
	f, err := scanManual(row)
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get etfs row: %w", err)
	}
	return f, nil
}

func (s *PgStore) UpsertManualFund(ctx context.Context, f models.ManualFund) error {
	query := `
		INSERT INTO etfs (ticker, name, issuer, description, category, nav_symbol, payments_per_year, price, dividend, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			issuer = EXCLUDED.issuer,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			nav_symbol = EXCLUDED.nav_symbol,
			payments_per_year = EXCLUDED.payments_per_year,
			price = EXCLUDED.price,
			dividend = EXCLUDED.dividend,
			updated_at = NOW()
	`
	_, err := s.pool.Exec(ctx, query,
		f.Ticker, f.Name, f.Issuer, f.Description, f.Category, f.NAVSymbol, f.PaymentsPerYear, f.Price, f.Dividend)
	if err != nil {
		return fmt.Errorf("upsert etfs row %s: %w", f.Ticker, err)
	}
	return nil
}

// snapshotColumn maps one etf_static metrics column onto the snapshot.
type snapshotColumn struct {
	name   string
	isDate bool
	get    func(m *models.MetricsSnapshot) any
}

// snapshotColumns lists the etf_static columns owned by the metrics job.
var snapshotColumns = []snapshotColumn{
	{"last_dividend", false, func(m *models.MetricsSnapshot) any { return &m.LastDividend }},
	{"last_dividend_date", true, func(m *models.MetricsSnapshot) any { return &m.LastDividendDate }},
	{"annualized_dividend", false, func(m *models.MetricsSnapshot) any { return &m.AnnualizedDividend }},
	{"forward_yield", false, func(m *models.MetricsSnapshot) any { return &m.ForwardYield }},
	{"dividend_sd", false, func(m *models.MetricsSnapshot) any { return &m.DividendSD }},
	{"dividend_cv_percent", false, func(m *models.MetricsSnapshot) any { return &m.DividendCV }},
	{"dividend_volatility_index", false, func(m *models.MetricsSnapshot) any { return &m.DVILabel }},
	{"week_52_high", false, func(m *models.MetricsSnapshot) any { return &m.Week52High }},
	{"week_52_low", false, func(m *models.MetricsSnapshot) any { return &m.Week52Low }},
	{"last_price", false, func(m *models.MetricsSnapshot) any { return &m.LastPrice }},
	{"last_price_date", true, func(m *models.MetricsSnapshot) any { return &m.LastPriceDate }},
	{"price_return_1wk", false, func(m *models.MetricsSnapshot) any { return &m.PriceReturns.W1 }},
	{"price_return_1mo", false, func(m *models.MetricsSnapshot) any { return &m.PriceReturns.M1 }},
	{"price_return_3mo", false, func(m *models.MetricsSnapshot) any { return &m.PriceReturns.M3 }},
	{"price_return_6mo", false, func(m *models.MetricsSnapshot) any { return &m.PriceReturns.M6 }},
	{"price_return_12mo", false, func(m *models.MetricsSnapshot) any { return &m.PriceReturns.M12 }},
	{"price_return_3yr", false, func(m *models.MetricsSnapshot) any { return &m.PriceReturns.Y3 }},
	{"tr_drip_1wk", false, func(m *models.MetricsSnapshot) any { return &m.TotalReturns.W1 }},
	{"tr_drip_1mo", false, func(m *models.MetricsSnapshot) any { return &m.TotalReturns.M1 }},
	{"tr_drip_3mo", false, func(m *models.MetricsSnapshot) any { return &m.TotalReturns.M3 }},
	{"tr_drip_6mo", false, func(m *models.MetricsSnapshot) any { return &m.TotalReturns.M6 }},
	{"tr_drip_12mo", false, func(m *models.MetricsSnapshot) any { return &m.TotalReturns.M12 }},
	{"tr_drip_3yr", false, func(m *models.MetricsSnapshot) any { return &m.TotalReturns.Y3 }},
	{"five_year_z_score", false, func(m *models.MetricsSnapshot) any { return &m.ZScore }},
	{"weighted_rank", false, func(m *models.MetricsSnapshot) any { return &m.WeightedRank }},
}

func staticSelect() string {
	cols := []string{"ticker", "name", "description", "exchange"}
	for _, c := range snapshotColumns {
		if c.isDate {
			cols = append(cols, fmt.Sprintf("COALESCE(to_char(%s, 'YYYY-MM-DD'), '')", c.name))
			continue
		}
		cols = append(cols, c.name)
	}
	cols = append(cols, "last_updated", "updated_at")
	return "SELECT " + strings.Join(cols, ", ") + " FROM etf_static"
}

func scanStatic(row pgx.Row) (*models.StaticFund, error) {
	var f models.StaticFund
	var calculatedAt *time.Time
	dest := []any{&f.Ticker, &f.Name, &f.Description, &f.Exchange}
	for _, c := range snapshotColumns {
		dest = append(dest, c.get(&f.Metrics))
	}
	dest = append(dest, &calculatedAt, &f.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	f.Metrics.Ticker = f.Ticker
	if calculatedAt != nil {
		f.Metrics.CalculatedAt = *calculatedAt
	}
	return &f, nil
}

// ListStaticFunds returns all provider-backed rows ordered by ticker.
func (s *PgStore) ListStaticFunds(ctx context.Context) ([]models.StaticFund, error) {
	rows, err := s.pool.Query(ctx, staticSelect()+` ORDER BY ticker ASC`)
	if err != nil {
		return nil, fmt.Errorf("list etf_static: %w", err)
	}
	defer rows.Close()

	var out []models.StaticFund
	for rows.Next() {
		f, err := scanStatic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan etf_static row: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// GetStaticFund returns ErrNotFound if the ticker has no etf_static row.
func (s *PgStore) GetStaticFund(ctx context.Context, ticker string) (*models.StaticFund, error) {
	f, err := scanStatic(s.pool.QueryRow(ctx, staticSelect()+` WHERE ticker = $1`, ticker))
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get etf_static row: %w", err)
	}
	return f, nil
}

func (s *PgStore) UpsertStaticInfo(ctx context.Context, ticker, name, description, exchange string) error {
	query := `
		INSERT INTO etf_static (ticker, name, description, exchange, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (ticker) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), etf_static.name),
			description = COALESCE(NULLIF(EXCLUDED.description, ''), etf_static.description),
			exchange = COALESCE(NULLIF(EXCLUDED.exchange, ''), etf_static.exchange),
			updated_at = NOW()
	`
	if _, err := s.pool.Exec(ctx, query, ticker, name, description, exchange); err != nil {
		return fmt.Errorf("upsert etf_static info %s: %w", ticker, err)
	}
	return nil
}

// SaveMetrics inserts or overwrites every snapshot column of the ticker.
func (s *PgStore) SaveMetrics(ctx context.Context, m models.MetricsSnapshot) error {
	cols := []string{"ticker"}
	placeholders := []string{"$1"}
	updates := make([]string, 0, len(snapshotColumns)+2)
	args := []any{m.Ticker}

	for _, c := range snapshotColumns {
		args = append(args, deref(c.get(&m)))
		ph := fmt.Sprintf("$%d", len(args))
		if c.isDate {
			ph = fmt.Sprintf("NULLIF(%s::text, '')::date", ph)
		}
		cols = append(cols, c.name)
		placeholders = append(placeholders, ph)
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c.name, c.name))
	}
	var calculatedAt any
	if !m.CalculatedAt.IsZero() {
		calculatedAt = m.CalculatedAt
	}
	args = append(args, calculatedAt)
	cols = append(cols, "last_updated", "updated_at")
	placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)), "NOW()")
	updates = append(updates, "last_updated = EXCLUDED.last_updated", "updated_at = NOW()")

	query := fmt.Sprintf(`INSERT INTO etf_static (%s) VALUES (%s) ON CONFLICT (ticker) DO UPDATE SET %s`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save metrics %s: %w", m.Ticker, err)
	}
	return nil
}

func deref(v any) any {
	switch p := v.(type) {
	case *models.NullFloat:
		return *p
	case *string:
		return *p
	}
	return v
}

func (s *PgStore) SaveWeightedRank(ctx context.Context, ticker string, rank models.NullFloat) error {
	tag, err := s.pool.Exec(ctx, `UPDATE etf_static SET weighted_rank = $2 WHERE ticker = $1`, ticker, rank)
	if err != nil {
		return fmt.Errorf("save weighted rank %s: %w", ticker, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFund removes all rows of a ticker in one transaction.
func (s *PgStore) DeleteFund(ctx context.Context, ticker string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete %s: %w", ticker, err)
	}
	defer tx.Rollback(ctx)

	var affected int64
	for _, step := range []struct {
		query   string
		counted bool
	}{
		{`DELETE FROM dividends_detail WHERE ticker = $1`, false},
		{`DELETE FROM prices_daily WHERE ticker = $1`, false},
		{`DELETE FROM etf_static WHERE ticker = $1`, true},
		{`DELETE FROM etfs WHERE ticker = $1`, true},
	} {
		tag, err := tx.Exec(ctx, step.query, ticker)
		if err != nil {
			return fmt.Errorf("delete %s: %w", ticker, err)
		}
		if step.counted {
			affected += tag.RowsAffected()
		}
	}
	if affected == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

// UpsertDividends writes records in one batch, replacing rows with the same
// (ticker, ex_date).
func (s *PgStore) UpsertDividends(ctx context.Context, records []models.DividendRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	query := `
		INSERT INTO dividends_detail (ticker, ex_date, pay_date, div_cash, adj_amount, scaled_amount, split_factor, frequency, source)
		VALUES ($1, $2::text::date, NULLIF($3::text, '')::date, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ticker, ex_date) DO UPDATE SET
			pay_date = COALESCE(EXCLUDED.pay_date, dividends_detail.pay_date),
			div_cash = EXCLUDED.div_cash,
			adj_amount = EXCLUDED.adj_amount,
			scaled_amount = EXCLUDED.scaled_amount,
			split_factor = EXCLUDED.split_factor,
			frequency = EXCLUDED.frequency,
			source = EXCLUDED.source
	`
	batch := &pgx.Batch{}
	for _, r := range records {
		split := r.SplitFactor
		if split == 0 {
			split = 1
		}
		batch.Queue(query, r.Ticker, r.ExDate, r.PayDate, r.CashAmount, r.AdjustedAmount, r.ScaledAmount, split, r.DeclaredFrequency, r.Source)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("upsert dividends: %w", err)
	}
	return len(records), nil
}

// UpsertPrices writes bars in one batch, replacing rows with the same (ticker, date).
func (s *PgStore) UpsertPrices(ctx context.Context, records []models.PriceRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	query := `
		INSERT INTO prices_daily (ticker, date, open, high, low, close, adj_close, volume, div_cash, split_factor)
		VALUES ($1, $2::text::date, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (ticker, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			adj_close = EXCLUDED.adj_close,
			volume = EXCLUDED.volume,
			div_cash = EXCLUDED.div_cash,
			split_factor = EXCLUDED.split_factor
	`
	batch := &pgx.Batch{}
	for _, p := range records {
		split := p.SplitFactor
		if split == 0 {
			split = 1
		}
		batch.Queue(query, p.Ticker, p.Date, p.Open, p.High, p.Low, p.Close, p.AdjClose, p.Volume, p.DivCash, split)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("upsert prices: %w", err)
	}
	return len(records), nil
}

func (s *PgStore) ListDividends(ctx context.Context, ticker string) ([]models.DividendRecord, error) {
	query := `
		SELECT ticker, to_char(ex_date, 'YYYY-MM-DD'), COALESCE(to_char(pay_date, 'YYYY-MM-DD'), ''),
			div_cash, adj_amount, scaled_amount, split_factor, frequency, source
		FROM dividends_detail
		WHERE ticker = $1
		ORDER BY ex_date ASC
	`
	rows, err := s.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("list dividends %s: %w", ticker, err)
	}
	defer rows.Close()

	var out []models.DividendRecord
	for rows.Next() {
		var r models.DividendRecord
		if err := rows.Scan(&r.Ticker, &r.ExDate, &r.PayDate, &r.CashAmount, &r.AdjustedAmount, &r.ScaledAmount,
			&r.SplitFactor, &r.DeclaredFrequency, &r.Source); err != nil {
			return nil, fmt.Errorf("scan dividend row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PgStore) ListPrices(ctx context.Context, ticker, from string) ([]models.PriceRecord, error) {
	query := `
		SELECT ticker, to_char(date, 'YYYY-MM-DD'), open, high, low, close, adj_close, volume, div_cash, split_factor
		FROM prices_daily
		WHERE ticker = $1 AND ($2::text = '' OR date >= NULLIF($2::text, '')::date)
		ORDER BY date ASC
	`
	rows, err := s.pool.Query(ctx, query, ticker, from)
	if err != nil {
		return nil, fmt.Errorf("list prices %s: %w", ticker, err)
	}
	defer rows.Close()

	var out []models.PriceRecord
	for rows.Next() {
		var p models.PriceRecord
		if err := rows.Scan(&p.Ticker, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.AdjClose, &p.Volume,
			&p.DivCash, &p.SplitFactor); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
