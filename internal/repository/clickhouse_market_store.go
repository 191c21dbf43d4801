package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/models"
	pkgch "github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/clickhouse"
	applogger "github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/logger"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/util"
)

// CHMarketStore reads the crawler-owned price_history and chips tables from
// ClickHouse. Scan errors are wrapped with table and symbol context so
// upstream schema drift surfaces at this boundary, not inside indicator math.
type CHMarketStore struct {
	db     *sql.DB
	dbName string
	l      *applogger.Logger
}

// NewCHMarketStore creates the read side of the engine.
func NewCHMarketStore(ch *pkgch.Client, dbName string, l *applogger.Logger) *CHMarketStore {
	return &CHMarketStore{db: ch.DB(), dbName: dbName, l: l}
}

func (s *CHMarketStore) table(name string) string {
	return s.dbName + "." + name
}

// Symbols returns every symbol known to the price store.
func (s *CHMarketStore) Symbols(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT symbol FROM %s ORDER BY symbol", s.table("price_history"))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.l.Error("clickhouse symbols query error", applogger.Error(err))
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, 2048)
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol from price_history: %w", err)
		}
		out = append(out, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("symbols rows: %w", err)
	}
	return out, nil
}

// PriceHistory returns one symbol's full bar history in ascending date order.
func (s *CHMarketStore) PriceHistory(ctx context.Context, symbol string) ([]models.PriceBar, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT symbol, date, open, high, low, close, volume, turnover
        FROM %s
        WHERE symbol = ?
        ORDER BY date ASC
    `, s.table("price_history"))
	rows, err := s.db.QueryContext(ctx, q, symbol)
	if err != nil {
		s.l.Error("clickhouse price_history query error",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query price_history %s: %w", symbol, err)
	}
	defer rows.Close()

	out := make([]models.PriceBar, 0, 1024)
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Turnover); err != nil {
			return nil, fmt.Errorf("scan price_history row for %s: %w", symbol, err)
		}
		b.Date = util.DateOnly(b.Date)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("price_history rows for %s: %w", symbol, err)
	}
	s.l.Debug("clickhouse price_history ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

// RecentChipJoins returns a symbol's latest n chip records joined with the
// same-date traded volume, newest first, restricted to volume > 0.
func (s *CHMarketStore) RecentChipJoins(ctx context.Context, symbol string, n int) ([]models.ChipJoin, error) {
	q := fmt.Sprintf(`
        SELECT c.symbol, c.date, c.foreign_net, c.trust_net, c.dealer_net, p.volume
        FROM %s AS c
        INNER JOIN %s AS p ON c.symbol = p.symbol AND c.date = p.date
        WHERE c.symbol = ? AND p.volume > 0
        ORDER BY c.date DESC
        LIMIT ?
    `, s.table("chips"), s.table("price_history"))
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		s.l.Error("clickhouse chip join query error",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query chip joins %s: %w", symbol, err)
	}
	defer rows.Close()

	out := make([]models.ChipJoin, 0, n)
	for rows.Next() {
		var j models.ChipJoin
		if err := rows.Scan(&j.Symbol, &j.Date, &j.ForeignNet, &j.TrustNet, &j.DealerNet, &j.Volume); err != nil {
			return nil, fmt.Errorf("scan chip join for %s: %w", symbol, err)
		}
		j.Date = util.DateOnly(j.Date)
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chip join rows for %s: %w", symbol, err)
	}
	return out, nil
}

// TradingDates returns every distinct trading date in the price store,
// ascending. This ordering is what the ADL fold depends on.
func (s *CHMarketStore) TradingDates(ctx context.Context) ([]time.Time, error) {
	q := fmt.Sprintf("SELECT DISTINCT date FROM %s ORDER BY date ASC", s.table("price_history"))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.l.Error("clickhouse trading dates query error", applogger.Error(err))
		return nil, fmt.Errorf("query trading dates: %w", err)
	}
	defer rows.Close()

	out := make([]time.Time, 0, 512)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan trading date: %w", err)
		}
		out = append(out, util.DateOnly(d))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trading date rows: %w", err)
	}
	return out, nil
}

// CrossSection returns every valid (close > 0) symbol row for one date,
// joined with that date's indicator row. MA columns are NULL for symbols
// still inside warm-up or missing an indicator row entirely.
func (s *CHMarketStore) CrossSection(ctx context.Context, date time.Time) ([]models.CrossSectionRow, error) {
	q := fmt.Sprintf(`
        SELECT p.symbol, p.close, p.volume, p.turnover, i.ma5, i.ma20, i.ma60, i.ma120
        FROM %s AS p
        LEFT JOIN %s AS i ON p.symbol = i.symbol AND p.date = i.date
        WHERE p.date = ? AND p.close > 0
    `, s.table("price_history"), s.table("daily_indicators"))
	rows, err := s.db.QueryContext(ctx, q, date)
	if err != nil {
		s.l.Error("clickhouse cross section query error",
			applogger.String("date", util.FormatDate(date)),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query cross section %s: %w", util.FormatDate(date), err)
	}
	defer rows.Close()

	out := make([]models.CrossSectionRow, 0, 2048)
	for rows.Next() {
		var r models.CrossSectionRow
		var ma5, ma20, ma60, ma120 sql.NullFloat64
		if err := rows.Scan(&r.Symbol, &r.Close, &r.Volume, &r.Turnover, &ma5, &ma20, &ma60, &ma120); err != nil {
			return nil, fmt.Errorf("scan cross section row at %s: %w", util.FormatDate(date), err)
		}
		r.MA5 = nullable(ma5)
		r.MA20 = nullable(ma20)
		r.MA60 = nullable(ma60)
		r.MA120 = nullable(ma120)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cross section rows at %s: %w", util.FormatDate(date), err)
	}
	return out, nil
}

// Health pings the database.
func (s *CHMarketStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
