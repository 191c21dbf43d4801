package repository

import (
	"context"
	"time"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/models"
)

// MarketStore reads the crawler-owned source tables (price_history, chips).
// All methods are read-only; rows come back in the order the phase needs.
type MarketStore interface {
	Symbols(ctx context.Context) ([]string, error)
	PriceHistory(ctx context.Context, symbol string) ([]models.PriceBar, error)
	RecentChipJoins(ctx context.Context, symbol string, n int) ([]models.ChipJoin, error)
	TradingDates(ctx context.Context) ([]time.Time, error)
	CrossSection(ctx context.Context, date time.Time) ([]models.CrossSectionRow, error)
	Health(ctx context.Context) error
}

// FeatureStore rebuilds the derived feature tables. Each Replace* call is a
// phase-scoped, all-or-nothing publish: the previous contents stay visible
// until the new rows are fully written.
type FeatureStore interface {
	ReplaceIndicators(ctx context.Context, rows []models.IndicatorRow) error
	ReplaceChipFeatures(ctx context.Context, rows []models.ChipFeatureRow) error
	ReplaceBreadth(ctx context.Context, rows []models.BreadthRow) error
	Close() error
}

// Notifier announces a completed refresh to downstream consumers
// (screener/UI caches, the prediction pipeline).
type Notifier interface {
	NotifyRefresh(ctx context.Context, report models.RunReport) error
	Close() error
}

// Metrics records batch-run observations.
type Metrics interface {
	RecordRowsWritten(table string, n int)
	RecordSymbols(phase, status string, n int)
	RecordError(kind string)
	RecordPhaseDuration(phase string, seconds float64)
}
