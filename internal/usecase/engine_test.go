package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/models"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/util"

	applogger "github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/logger"
)

// fakeMarket serves canned source data keyed the way the real store returns
// it: ascending bars and dates, descending chip joins.
type fakeMarket struct {
	symbols    []string
	bars       map[string][]models.PriceBar
	joins      map[string][]models.ChipJoin
	dates      []time.Time
	sections   map[string][]models.CrossSectionRow
	symbolsErr error
}

func (f *fakeMarket) Symbols(ctx context.Context) ([]string, error) {
	return f.symbols, f.symbolsErr
}

func (f *fakeMarket) PriceHistory(ctx context.Context, symbol string) ([]models.PriceBar, error) {
	return f.bars[symbol], nil
}

func (f *fakeMarket) RecentChipJoins(ctx context.Context, symbol string, n int) ([]models.ChipJoin, error) {
	joins := f.joins[symbol]
	if len(joins) > n {
		joins = joins[:n]
	}
	return joins, nil
}

func (f *fakeMarket) TradingDates(ctx context.Context) ([]time.Time, error) {
	return f.dates, nil
}

func (f *fakeMarket) CrossSection(ctx context.Context, date time.Time) ([]models.CrossSectionRow, error) {
	return f.sections[util.FormatDate(date)], nil
}

func (f *fakeMarket) Health(ctx context.Context) error { return nil }

// fakeStore records replaced tables.
type fakeStore struct {
	mu         sync.Mutex
	indicators []models.IndicatorRow
	chipRows   []models.ChipFeatureRow
	breadth    []models.BreadthRow
	indicErr   error
}

func (f *fakeStore) ReplaceIndicators(ctx context.Context, rows []models.IndicatorRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indicErr != nil {
		return f.indicErr
	}
	f.indicators = rows
	return nil
}

func (f *fakeStore) ReplaceChipFeatures(ctx context.Context, rows []models.ChipFeatureRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chipRows = rows
	return nil
}

func (f *fakeStore) ReplaceBreadth(ctx context.Context, rows []models.BreadthRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breadth = rows
	return nil
}

func (f *fakeStore) Close() error { return nil }

type fakeMetrics struct {
	mu     sync.Mutex
	errors []string
}

func (f *fakeMetrics) RecordRowsWritten(table string, n int) {}
func (f *fakeMetrics) RecordSymbols(phase, status string, n int) {}
func (f *fakeMetrics) RecordError(kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, kind)
}
func (f *fakeMetrics) RecordPhaseDuration(phase string, seconds float64) {}

type fakeNotifier struct {
	reports []models.RunReport
	err     error
}

func (f *fakeNotifier) NotifyRefresh(ctx context.Context, report models.RunReport) error {
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, report)
	return nil
}

func (f *fakeNotifier) Close() error { return nil }

// fakeCache implements the run lock and refresh markers in memory.
type fakeCache struct {
	mu     sync.Mutex
	locked map[string]bool
	sets   map[string]interface{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{locked: map[string]bool{}, sets: map[string]interface{}{}}
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets[key] = value
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error { return nil }
func (f *fakeCache) Delete(ctx context.Context, keys ...string) error            { return nil }

func (f *fakeCache) MSet(ctx context.Context, values map[string]interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range values {
		f.sets[k] = v
	}
	return nil
}

func (f *fakeCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locked[key] {
		return false, nil
	}
	f.locked[key] = true
	return true, nil
}

func (f *fakeCache) Unlock(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locked, key)
	return nil
}

func (f *fakeCache) Close() error { return nil }

func seedMarket(t *testing.T) *fakeMarket {
	t.Helper()
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	symbols := []string{"2330", "2454", "2603"}
	const days = 130

	m := &fakeMarket{
		symbols:  append(symbols, "9999"), // one symbol with too little history
		bars:     map[string][]models.PriceBar{},
		joins:    map[string][]models.ChipJoin{},
		sections: map[string][]models.CrossSectionRow{},
	}

	for si, symbol := range symbols {
		bars := make([]models.PriceBar, days)
		for i := range bars {
			c := 100 + float64(si*50) + float64(i%9) + float64(i)*0.2
			bars[i] = models.PriceBar{
				Symbol: symbol,
				Date:   start.AddDate(0, 0, i),
				Open:   c - 0.5,
				High:   c + 1,
				Low:    c - 1,
				Close:  c,
				Volume: 10000,
			}
		}
		m.bars[symbol] = bars
	}
	m.bars["9999"] = []models.PriceBar{{
		Symbol: "9999", Date: start, Close: 12, High: 12.5, Low: 11.5, Volume: 100,
	}}

	// Cross-sections mirror what the live store's join produces: closes plus
	// rolling means where the window has filled.
	rollingMA := func(bars []models.PriceBar, i, w int) *float64 {
		if i+1 < w {
			return nil
		}
		var sum float64
		for j := i + 1 - w; j <= i; j++ {
			sum += bars[j].Close
		}
		v := sum / float64(w)
		return &v
	}
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		m.dates = append(m.dates, date)
		section := make([]models.CrossSectionRow, 0, len(symbols))
		for _, symbol := range symbols {
			bars := m.bars[symbol]
			b := bars[i]
			section = append(section, models.CrossSectionRow{
				Symbol: symbol,
				Close:  b.Close,
				Volume: b.Volume,
				MA5:    rollingMA(bars, i, 5),
				MA120:  rollingMA(bars, i, 120),
			})
		}
		m.sections[util.FormatDate(date)] = section
	}

	latest := start.AddDate(0, 0, days-1)
	for _, symbol := range []string{"2330", "2454"} {
		joins := make([]models.ChipJoin, 5)
		for i := range joins {
			joins[i] = models.ChipJoin{
				ChipRecord: models.ChipRecord{
					Symbol:     symbol,
					Date:       latest.AddDate(0, 0, -i),
					ForeignNet: 100,
				},
				Volume: 2000,
			}
		}
		m.joins[symbol] = joins
	}

	return m
}

func newTestEngine(market *fakeMarket, store *fakeStore, notifier *fakeNotifier, cacheSvc *fakeCache) (*Engine, *fakeMetrics) {
	metrics := &fakeMetrics{}
	l := applogger.Nop()
	indicators := NewIndicatorJob(market, store, metrics, l, 4)
	chipJob := NewChipJob(market, store, metrics, l, 4, 5)
	breadthJob := NewBreadthJob(market, store, metrics, l)

	if cacheSvc == nil {
		// A typed nil inside the interface would defeat the engine's
		// cache-disabled check.
		return NewEngine(indicators, chipJob, breadthJob, notifier, nil, metrics, l), metrics
	}
	return NewEngine(indicators, chipJob, breadthJob, notifier, cacheSvc, metrics, l), metrics
}

func TestEngineFullRun(t *testing.T) {
	market := seedMarket(t)
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	engine, _ := newTestEngine(market, store, notifier, nil)

	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3*130, report.IndicatorRows)
	assert.Equal(t, 3, report.SymbolsProcessed)
	assert.Equal(t, 1, report.SymbolsSkipped)
	assert.Equal(t, 2, report.ChipRows)
	assert.Equal(t, 2, report.ChipSkipped)
	assert.Equal(t, 130, report.BreadthRows)
	assert.False(t, report.FinishedAt.IsZero())

	require.Len(t, store.indicators, 3*130)
	require.Len(t, store.chipRows, 2)
	require.Len(t, store.breadth, 130)

	// Insert order is deterministic regardless of worker interleaving.
	sorted := sort.SliceIsSorted(store.indicators, func(a, b int) bool {
		ra, rb := store.indicators[a], store.indicators[b]
		if ra.Symbol != rb.Symbol {
			return ra.Symbol < rb.Symbol
		}
		return ra.Date.Before(rb.Date)
	})
	assert.True(t, sorted, "indicator rows not sorted by (symbol, date)")

	// MA120 emerges exactly at bar 120 for each 130-bar symbol.
	bySymbol := map[string][]models.IndicatorRow{}
	for _, r := range store.indicators {
		bySymbol[r.Symbol] = append(bySymbol[r.Symbol], r)
	}
	for symbol, rows := range bySymbol {
		require.Len(t, rows, 130, symbol)
		assert.Nil(t, rows[118].MA120, "%s bar 118 should still be warming up", symbol)
		assert.NotNil(t, rows[119].MA120, "%s bar 119 should have MA120", symbol)
	}

	// The breadth pass saw the same closes the indicator pass did, so the
	// first date is all-flat and the ADL stays a pure running sum.
	first := store.breadth[0]
	assert.Equal(t, 3, first.FlatCount)
	assert.Equal(t, 0, first.UpCount)
	var adl int64
	for i, r := range store.breadth {
		adl += int64(r.UpCount - r.DownCount)
		assert.Equal(t, adl, r.ADL, "ADL broke at date index %d", i)
	}

	// MA120 breadth appears the day the window fills; the seeded uptrend
	// puts every close above its 120-day mean from then on.
	assert.Equal(t, 0.0, store.breadth[118].MA120Breadth)
	assert.Equal(t, 100.0, store.breadth[119].MA120Breadth)
	assert.Equal(t, 100.0, store.breadth[129].MA120Breadth)

	require.Len(t, notifier.reports, 1)
	assert.Equal(t, report.IndicatorRows, notifier.reports[0].IndicatorRows)
}

func TestEngineChipConcentration(t *testing.T) {
	market := seedMarket(t)
	store := &fakeStore{}
	engine, _ := newTestEngine(market, store, &fakeNotifier{}, nil)

	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	// 5 joins of +100 over 5*2000 shares: 5.00% for both chip symbols.
	require.Len(t, store.chipRows, 2)
	assert.Equal(t, "2330", store.chipRows[0].Symbol)
	assert.Equal(t, "2454", store.chipRows[1].Symbol)
	for _, r := range store.chipRows {
		assert.Equal(t, 5.0, r.Concentration5D)
		assert.Equal(t, 100.0, r.ForeignBuy)
	}
}

func TestEngineAbortsOnSourceError(t *testing.T) {
	market := seedMarket(t)
	market.symbolsErr = errors.New("clickhouse gone")
	store := &fakeStore{}
	engine, metrics := newTestEngine(market, store, &fakeNotifier{}, nil)

	_, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.indicators)
	assert.Empty(t, store.breadth)
	assert.Contains(t, metrics.errors, "indicator_symbols")
}

func TestEngineAbortsOnWriteError(t *testing.T) {
	market := seedMarket(t)
	store := &fakeStore{indicErr: errors.New("exchange failed")}
	engine, metrics := newTestEngine(market, store, &fakeNotifier{}, nil)

	_, err := engine.Run(context.Background())
	require.Error(t, err)
	// Later phases never ran: their tables keep previous contents.
	assert.Empty(t, store.chipRows)
	assert.Empty(t, store.breadth)
	assert.Contains(t, metrics.errors, "indicator_write")
}

func TestEngineRunLock(t *testing.T) {
	market := seedMarket(t)
	cacheSvc := newFakeCache()

	engine, _ := newTestEngine(market, &fakeStore{}, &fakeNotifier{}, cacheSvc)

	// A held lock rejects the run outright.
	ok, err := cacheSvc.TryLock(context.Background(), "features:run_lock", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = engine.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	// Released lock lets the run proceed and publish refresh markers.
	require.NoError(t, cacheSvc.Unlock(context.Background(), "features:run_lock"))
	_, err = engine.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, cacheSvc.sets, "features:refreshed_at")
	assert.Contains(t, cacheSvc.sets, "features:row_counts")
	assert.False(t, cacheSvc.locked["features:run_lock"], "lock not released after run")
}

func TestEngineNotifierFailureNotFatal(t *testing.T) {
	market := seedMarket(t)
	store := &fakeStore{}
	notifier := &fakeNotifier{err: errors.New("broker down")}
	engine, metrics := newTestEngine(market, store, notifier, nil)

	_, err := engine.Run(context.Background())
	require.NoError(t, err, "a refresh-event failure must not fail the run")
	assert.Contains(t, metrics.errors, "refresh_notify")
}
