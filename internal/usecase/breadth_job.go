package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/models"
	drepo "github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/repository"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/repository"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/services/breadth"
	applogger "github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/logger"
)

// BreadthJob recomputes market_breadth_history. Unlike the symbol phases this
// pass is strictly sequential: the ADL column is a running sum across dates,
// and the change classification needs the previous date's closes, so dates
// are walked in ascending order in a single pass, always from the earliest
// date. A partial or resumed pass would silently corrupt the ADL series.
type BreadthJob struct {
	market  drepo.MarketStore
	store   drepo.FeatureStore
	metrics drepo.Metrics
	l       *applogger.Logger
}

// BreadthResult summarizes one breadth pass.
type BreadthResult struct {
	Rows int
}

// NewBreadthJob creates the market breadth phase.
func NewBreadthJob(market drepo.MarketStore, store drepo.FeatureStore, metrics drepo.Metrics, l *applogger.Logger) *BreadthJob {
	return &BreadthJob{market: market, store: store, metrics: metrics, l: l}
}

// Run aggregates every trading date and atomically replaces
// market_breadth_history. Dates with zero qualifying symbols still emit a
// row so the date axis stays contiguous.
func (j *BreadthJob) Run(ctx context.Context) (BreadthResult, error) {
	start := time.Now()
	var res BreadthResult

	dates, err := j.market.TradingDates(ctx)
	if err != nil {
		j.metrics.RecordError("breadth_dates")
		return res, fmt.Errorf("breadth phase: %w", err)
	}

	rows := make([]models.BreadthRow, 0, len(dates))
	prevCloses := map[string]float64{}
	for _, date := range dates {
		section, err := j.market.CrossSection(ctx, date)
		if err != nil {
			j.metrics.RecordError("breadth_cross_section")
			return res, fmt.Errorf("breadth phase after %d dates: %w", len(rows), err)
		}
		rows = append(rows, breadth.DayStats(date, section, prevCloses))
		prevCloses = breadth.CloseMap(section)
	}

	if err := breadth.FoldADL(rows); err != nil {
		j.metrics.RecordError("breadth_adl")
		return res, fmt.Errorf("breadth phase: %w", err)
	}

	if err := j.store.ReplaceBreadth(ctx, rows); err != nil {
		j.metrics.RecordError("breadth_write")
		return res, fmt.Errorf("breadth phase write: %w", err)
	}
	res.Rows = len(rows)

	j.metrics.RecordRowsWritten(repository.TableBreadth, res.Rows)
	j.metrics.RecordPhaseDuration("breadth", time.Since(start).Seconds())
	j.l.Info("breadth phase done",
		applogger.Int("dates", res.Rows),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return res, nil
}
