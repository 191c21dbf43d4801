package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/models"
	pkgch "github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/clickhouse"
	applogger "github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/logger"
)

// Feature table names; the engine's external contract.
const (
	TableIndicators   = "daily_indicators"
	TableChipFeatures = "chip_features"
	TableBreadth      = "market_breadth_history"

	stagingSuffix = "_staging"

	// insertChunk bounds the multi-row VALUES insert size.
	insertChunk = 2000
)

// CHFeatureStore rebuilds the derived feature tables in ClickHouse. Every
// rebuild writes into the table's staging twin and publishes with an atomic
// EXCHANGE TABLES, so readers always observe either the previous run or the
// new one, never a half-written mix.
type CHFeatureStore struct {
	db     *sql.DB
	dbName string
	l      *applogger.Logger
}

// NewCHFeatureStore creates the write side of the engine.
func NewCHFeatureStore(ch *pkgch.Client, dbName string, l *applogger.Logger) *CHFeatureStore {
	return &CHFeatureStore{db: ch.DB(), dbName: dbName, l: l}
}

func (s *CHFeatureStore) table(name string) string {
	return s.dbName + "." + name
}

// ReplaceIndicators rebuilds daily_indicators from scratch.
func (s *CHFeatureStore) ReplaceIndicators(ctx context.Context, rows []models.IndicatorRow) error {
	cols := []string{"symbol", "date", "ma5", "ma10", "ma20", "ma60", "ma120", "atr14", "rsi14", "macd_diff", "macd_dea", "kd_k", "kd_d"}
	args := make([][]interface{}, len(rows))
	for i, r := range rows {
		args[i] = []interface{}{r.Symbol, r.Date, r.MA5, r.MA10, r.MA20, r.MA60, r.MA120, r.ATR14, r.RSI14, r.MACDDiff, r.MACDDea, r.KDK, r.KDD}
	}
	return s.replace(ctx, TableIndicators, cols, args)
}

// ReplaceChipFeatures rebuilds chip_features from scratch.
func (s *CHFeatureStore) ReplaceChipFeatures(ctx context.Context, rows []models.ChipFeatureRow) error {
	cols := []string{"symbol", "date", "foreign_buy", "trust_buy", "dealer_buy", "total_inst_buy", "concentration_5d"}
	args := make([][]interface{}, len(rows))
	for i, r := range rows {
		args[i] = []interface{}{r.Symbol, r.Date, r.ForeignBuy, r.TrustBuy, r.DealerBuy, r.TotalInstBuy, r.Concentration5D}
	}
	return s.replace(ctx, TableChipFeatures, cols, args)
}

// ReplaceBreadth rebuilds market_breadth_history from scratch.
func (s *CHFeatureStore) ReplaceBreadth(ctx context.Context, rows []models.BreadthRow) error {
	cols := []string{"date", "up_count", "down_count", "flat_count", "up_turnover", "down_turnover", "up_volume", "down_volume", "trin", "ma5_breadth", "ma20_breadth", "ma60_breadth", "ma120_breadth", "adl", "total_stocks"}
	args := make([][]interface{}, len(rows))
	for i, r := range rows {
		args[i] = []interface{}{r.Date, r.UpCount, r.DownCount, r.FlatCount, r.UpTurnover, r.DownTurnover, r.UpVolume, r.DownVolume, r.TRIN, r.MA5Breadth, r.MA20Breadth, r.MA60Breadth, r.MA120Breadth, r.ADL, r.TotalStocks}
	}
	return s.replace(ctx, TableBreadth, cols, args)
}

// Close is a no-op; the connection pool is owned by pkg/clickhouse.
func (s *CHFeatureStore) Close() error { return nil }

// replace truncates the staging twin, inserts all rows into it in chunks,
// then swaps it with the live table. A failure before the swap leaves the
// live table untouched.
func (s *CHFeatureStore) replace(ctx context.Context, name string, cols []string, rows [][]interface{}) error {
	start := time.Now()
	live := s.table(name)
	staging := s.table(name + stagingSuffix)

	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE "+staging); err != nil {
		s.l.Error("clickhouse truncate staging error", applogger.String("table", name), applogger.Error(err))
		return fmt.Errorf("truncate %s: %w", staging, err)
	}

	written := 0
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",") + ")"
	for chunkStart := 0; chunkStart < len(rows); chunkStart += insertChunk {
		end := chunkStart + insertChunk
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[chunkStart:end]

		values := make([]string, 0, len(chunk))
		args := make([]interface{}, 0, len(chunk)*len(cols))
		for _, row := range chunk {
			values = append(values, placeholder)
			args = append(args, row...)
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", staging, strings.Join(cols, ", "), strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert error",
				applogger.String("table", name),
				applogger.Int("rows_written", written),
				applogger.Error(err),
			)
			return fmt.Errorf("insert into %s after %d rows: %w", staging, written, err)
		}
		written += len(chunk)
	}

	q := fmt.Sprintf("EXCHANGE TABLES %s AND %s", live, staging)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		s.l.Error("clickhouse exchange error",
			applogger.String("table", name),
			applogger.Int("rows_written", written),
			applogger.Error(err),
		)
		return fmt.Errorf("exchange %s: %w", name, err)
	}

	s.l.Info("feature table replaced",
		applogger.String("table", name),
		applogger.Int("rows", written),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}
