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
	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/services/indicators"
	applogger "github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/logger"
)

// IndicatorJob recomputes daily_indicators for every symbol in the price
// store. Symbols are independent, so the job fans out across a bounded worker
// pool; each worker reads only its own symbol's history and appends only its
// own rows.
type IndicatorJob struct {
	market  drepo.MarketStore
	store   drepo.FeatureStore
	metrics drepo.Metrics
	l       *applogger.Logger
	workers int
}

// IndicatorResult summarizes one indicator pass.
type IndicatorResult struct {
	Rows      int
	Processed int
	Skipped   int
}

// NewIndicatorJob creates the per-symbol indicator phase.
func NewIndicatorJob(market drepo.MarketStore, store drepo.FeatureStore, metrics drepo.Metrics, l *applogger.Logger, workers int) *IndicatorJob {
	if workers < 1 {
		workers = 1
	}
	return &IndicatorJob{market: market, store: store, metrics: metrics, l: l, workers: workers}
}

// Run computes indicator rows for all symbols and atomically replaces the
// daily_indicators table. A storage error aborts the whole pass; symbols with
// insufficient history are skipped and counted, never fatal.
func (j *IndicatorJob) Run(ctx context.Context) (IndicatorResult, error) {
	start := time.Now()
	var res IndicatorResult

	symbols, err := j.market.Symbols(ctx)
	if err != nil {
		j.metrics.RecordError("indicator_symbols")
		return res, fmt.Errorf("indicator phase: %w", err)
	}

	var mu sync.Mutex
	all := make([]models.IndicatorRow, 0, len(symbols)*256)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers)
	for _, symbol := range symbols {
		g.Go(func() error {
			bars, err := j.market.PriceHistory(gctx, symbol)
			if err != nil {
				return err
			}
			rows := indicators.Compute(symbol, bars)

			mu.Lock()
			defer mu.Unlock()
			if rows == nil {
				res.Skipped++
				return nil
			}
			all = append(all, rows...)
			res.Processed++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		j.metrics.RecordError("indicator_compute")
		return res, fmt.Errorf("indicator phase after %d symbols: %w", res.Processed, err)
	}

	// Deterministic insert order regardless of worker scheduling.
	sort.Slice(all, func(a, b int) bool {
		if all[a].Symbol != all[b].Symbol {
			return all[a].Symbol < all[b].Symbol
		}
		return all[a].Date.Before(all[b].Date)
	})

	if err := j.store.ReplaceIndicators(ctx, all); err != nil {
		j.metrics.RecordError("indicator_write")
		return res, fmt.Errorf("indicator phase write: %w", err)
	}
	res.Rows = len(all)

	j.metrics.RecordRowsWritten(repository.TableIndicators, res.Rows)
	j.metrics.RecordSymbols("indicators", "processed", res.Processed)
	j.metrics.RecordSymbols("indicators", "skipped", res.Skipped)
	j.metrics.RecordPhaseDuration("indicators", time.Since(start).Seconds())
	j.l.Info("indicator phase done",
		applogger.Int("symbols", res.Processed),
		applogger.Int("skipped", res.Skipped),
		applogger.Int("rows", res.Rows),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return res, nil
}
