package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/models"
	drepo "github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/repository"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/repository"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/services/chips"
	applogger "github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/logger"
)

// ChipJob recomputes chip_features: one row per symbol, keyed to the most
// recent date with a chip/price join. Like the indicator phase, it is
// embarrassingly parallel across symbols.
type ChipJob struct {
	market  drepo.MarketStore
	store   drepo.FeatureStore
	metrics drepo.Metrics
	l       *applogger.Logger
	workers int
	window  int
}

// ChipResult summarizes one chip pass.
type ChipResult struct {
	Rows    int
	Skipped int
}

// NewChipJob creates the chip concentration phase.
func NewChipJob(market drepo.MarketStore, store drepo.FeatureStore, metrics drepo.Metrics, l *applogger.Logger, workers, window int) *ChipJob {
	if workers < 1 {
		workers = 1
	}
	if window < 1 {
		window = chips.Window
	}
	return &ChipJob{market: market, store: store, metrics: metrics, l: l, workers: workers, window: window}
}

// Run computes chip feature rows for all symbols and atomically replaces the
// chip_features table. Symbols with no joined chip history are skipped.
func (j *ChipJob) Run(ctx context.Context) (ChipResult, error) {
	start := time.Now()
	var res ChipResult

	symbols, err := j.market.Symbols(ctx)
	if err != nil {
		j.metrics.RecordError("chip_symbols")
		return res, fmt.Errorf("chip phase: %w", err)
	}

	var mu sync.Mutex
	rows := make([]models.ChipFeatureRow, 0, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers)
	for _, symbol := range symbols {
		g.Go(func() error {
			joins, err := j.market.RecentChipJoins(gctx, symbol, j.window)
			if err != nil {
				return err
			}
			row := chips.Compute(symbol, joins)

			mu.Lock()
			defer mu.Unlock()
			if row == nil {
				res.Skipped++
				return nil
			}
			rows = append(rows, *row)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		j.metrics.RecordError("chip_compute")
		return res, fmt.Errorf("chip phase after %d rows: %w", len(rows), err)
	}

	sort.Slice(rows, func(a, b int) bool { return rows[a].Symbol < rows[b].Symbol })

	if err := j.store.ReplaceChipFeatures(ctx, rows); err != nil {
		j.metrics.RecordError("chip_write")
		return res, fmt.Errorf("chip phase write: %w", err)
	}
	res.Rows = len(rows)

	j.metrics.RecordRowsWritten(repository.TableChipFeatures, res.Rows)
	j.metrics.RecordSymbols("chips", "processed", res.Rows)
	j.metrics.RecordSymbols("chips", "skipped", res.Skipped)
	j.metrics.RecordPhaseDuration("chips", time.Since(start).Seconds())
	j.l.Info("chip phase done",
		applogger.Int("symbols", res.Rows),
		applogger.Int("skipped", res.Skipped),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return res, nil
}
