package breadth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/models"
)

func ptr(v float64) *float64 { return &v }

func row(symbol string, close, volume, turnover float64) models.CrossSectionRow {
	return models.CrossSectionRow{Symbol: symbol, Close: close, Volume: volume, Turnover: turnover}
}

var day = time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)

func TestDayStatsClassification(t *testing.T) {
	prev := map[string]float64{"UP": 100, "DOWN": 50, "FLAT": 20}
	rows := []models.CrossSectionRow{
		row("UP", 101, 1000, 101000),
		row("DOWN", 49, 2000, 98000),
		row("FLAT", 20, 500, 10000),
		row("NEW", 33, 700, 23100), // no prior close: flat
	}

	got := DayStats(day, rows, prev)
	assert.Equal(t, 1, got.UpCount)
	assert.Equal(t, 1, got.DownCount)
	assert.Equal(t, 2, got.FlatCount)
	assert.Equal(t, 4, got.TotalStocks)
	assert.Equal(t, 101000.0, got.UpTurnover)
	assert.Equal(t, 98000.0, got.DownTurnover)
	assert.Equal(t, 1000.0, got.UpVolume)
	assert.Equal(t, 2000.0, got.DownVolume)
	assert.Equal(t, int64(0), got.ADL, "ADL is materialized by the fold, not per day")
}

func TestDayStatsTurnoverFallback(t *testing.T) {
	prev := map[string]float64{"UP": 100}
	rows := []models.CrossSectionRow{row("UP", 110, 1000, 0)}

	got := DayStats(day, rows, prev)
	// Missing turnover falls back to close*volume.
	assert.Equal(t, 110000.0, got.UpTurnover)
}

func TestDayStatsEmptyCrossSection(t *testing.T) {
	got := DayStats(day, nil, map[string]float64{})
	assert.Equal(t, 0, got.TotalStocks)
	assert.True(t, got.Date.Equal(day))
	// Both ratios collapse to epsilon/epsilon: a neutral reading.
	assert.Equal(t, 1.0, got.TRIN)
	assert.Equal(t, 0.0, got.MA5Breadth)
}

func TestTRINBalancedDay(t *testing.T) {
	prev := map[string]float64{"A": 100, "B": 100}
	rows := []models.CrossSectionRow{
		row("A", 110, 1000, 50000),
		row("B", 90, 1000, 50000),
	}

	got := DayStats(day, rows, prev)
	assert.Equal(t, 1.0, got.TRIN)
}

func TestTRINOneSidedDayClamped(t *testing.T) {
	prev := map[string]float64{"A": 100, "B": 100, "C": 100}
	rows := []models.CrossSectionRow{
		row("A", 110, 1000, 50000),
		row("B", 120, 1000, 50000),
		row("C", 130, 1000, 50000),
	}

	// All advancers: issues ratio explodes upward, turnover ratio explodes
	// the same way, and the clamp keeps the stored value in range.
	got := DayStats(day, rows, prev)
	assert.GreaterOrEqual(t, got.TRIN, 0.1)
	assert.LessOrEqual(t, got.TRIN, 8.0)
}

func TestTRINAlwaysWithinBounds(t *testing.T) {
	cases := []struct {
		name                     string
		up, down                 int
		upTurnover, downTurnover float64
	}{
		{"all zero", 0, 0, 0, 0},
		{"heavy up issues thin up turnover", 500, 1, 1, 900000},
		{"heavy down", 1, 500, 900000, 1},
		{"tiny turnover", 5, 5, 0.0001, 900000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := trin(tc.up, tc.down, tc.upTurnover, tc.downTurnover)
			assert.GreaterOrEqual(t, got, 0.1)
			assert.LessOrEqual(t, got, 8.0)
		})
	}
}

func TestMABreadth(t *testing.T) {
	rows := []models.CrossSectionRow{
		{Symbol: "A", Close: 105, MA20: ptr(100)}, // above
		{Symbol: "B", Close: 95, MA20: ptr(100)},  // below
		{Symbol: "C", Close: 100, MA20: ptr(100)}, // at the line: not above
		{Symbol: "D", Close: 50, MA20: nil},       // still warming up: excluded
	}

	got := DayStats(day, rows, map[string]float64{})
	assert.Equal(t, 33.33, got.MA20Breadth)
}

func TestMABreadthNoEligibleSymbols(t *testing.T) {
	rows := []models.CrossSectionRow{
		{Symbol: "A", Close: 105},
		{Symbol: "B", Close: 95},
	}
	got := DayStats(day, rows, map[string]float64{})
	assert.Equal(t, 0.0, got.MA5Breadth)
	assert.Equal(t, 0.0, got.MA120Breadth)
}

func TestCloseMap(t *testing.T) {
	rows := []models.CrossSectionRow{
		row("A", 110, 1000, 0),
		row("B", 90, 1000, 0),
	}
	m := CloseMap(rows)
	require.Len(t, m, 2)
	assert.Equal(t, 110.0, m["A"])
	assert.Equal(t, 90.0, m["B"])
}
