package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/models"
	drepo "github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/repository"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/cache"
	applogger "github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/logger"
)

const (
	runLockKey = "features:run_lock"
	runLockTTL = time.Hour

	refreshedAtKey = "features:refreshed_at"
	rowCountsKey   = "features:row_counts"
)

// Engine sequences the three feature phases. Indicators run first because
// the breadth phase reads the freshly swapped daily_indicators table; chips
// are independent but kept between them so a chip failure surfaces before
// the expensive breadth pass is thrown away.
type Engine struct {
	indicators *IndicatorJob
	chips      *ChipJob
	breadth    *BreadthJob
	notifier   drepo.Notifier
	cache      cache.Service // optional; nil when Redis is disabled
	metrics    drepo.Metrics
	l          *applogger.Logger
}

// NewEngine wires the full batch run.
func NewEngine(
	indicators *IndicatorJob,
	chips *ChipJob,
	breadth *BreadthJob,
	notifier drepo.Notifier,
	cacheSvc cache.Service,
	metrics drepo.Metrics,
	l *applogger.Logger,
) *Engine {
	return &Engine{
		indicators: indicators,
		chips:      chips,
		breadth:    breadth,
		notifier:   notifier,
		cache:      cacheSvc,
		metrics:    metrics,
		l:          l,
	}
}

// Run executes one full recompute. Each phase replaces its table atomically;
// a phase failure aborts the run and leaves the later tables at their
// previous contents.
func (e *Engine) Run(ctx context.Context) (models.RunReport, error) {
	report := models.RunReport{StartedAt: time.Now()}

	if e.cache != nil {
		ok, err := e.cache.TryLock(ctx, runLockKey, runLockTTL)
		if err != nil {
			return report, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			return report, fmt.Errorf("another feature refresh is already running")
		}
		defer func() {
			if err := e.cache.Unlock(context.WithoutCancel(ctx), runLockKey); err != nil {
				e.l.Warn("release run lock failed", applogger.Error(err))
			}
		}()
	}

	ind, err := e.indicators.Run(ctx)
	if err != nil {
		return report, err
	}
	report.IndicatorRows = ind.Rows
	report.SymbolsProcessed = ind.Processed
	report.SymbolsSkipped = ind.Skipped

	chip, err := e.chips.Run(ctx)
	if err != nil {
		return report, err
	}
	report.ChipRows = chip.Rows
	report.ChipSymbols = chip.Rows
	report.ChipSkipped = chip.Skipped

	br, err := e.breadth.Run(ctx)
	if err != nil {
		return report, err
	}
	report.BreadthRows = br.Rows
	report.Dates = br.Rows

	report.FinishedAt = time.Now()
	e.publishRefresh(ctx, report)

	e.l.Info("feature refresh complete",
		applogger.Int("indicator_rows", report.IndicatorRows),
		applogger.Int("chip_rows", report.ChipRows),
		applogger.Int("breadth_rows", report.BreadthRows),
		applogger.Int("symbols", report.SymbolsProcessed),
		applogger.Int("skipped", report.SymbolsSkipped),
		applogger.Duration("duration_ms", report.Duration()),
	)
	return report, nil
}

// publishRefresh tells downstream readers the tables were swapped. Failures
// here are logged and counted, not fatal: the tables themselves are already
// consistent.
func (e *Engine) publishRefresh(ctx context.Context, report models.RunReport) {
	if e.cache != nil {
		err := e.cache.MSet(ctx, map[string]interface{}{
			refreshedAtKey: report.FinishedAt.UTC().Format(time.RFC3339),
			rowCountsKey: map[string]int{
				"daily_indicators":       report.IndicatorRows,
				"chip_features":          report.ChipRows,
				"market_breadth_history": report.BreadthRows,
			},
		}, 0)
		if err != nil {
			e.metrics.RecordError("refresh_marker")
			e.l.Warn("refresh marker publish failed", applogger.Error(err))
		}
	}
	if e.notifier != nil {
		if err := e.notifier.NotifyRefresh(ctx, report); err != nil {
			e.metrics.RecordError("refresh_notify")
			e.l.Warn("refresh event publish failed", applogger.Error(err))
		}
	}
}
