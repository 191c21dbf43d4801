package models

import "time"

// IndicatorRow is one symbol's derived technical indicators for one trading
// date. Pointer fields are nil while the indicator is still inside its
// warm-up region; consumers must tolerate nulls there.
type IndicatorRow struct {
	Symbol   string
	Date     time.Time
	MA5      *float64
	MA10     *float64
	MA20     *float64
	MA60     *float64
	MA120    *float64
	ATR14    *float64
	RSI14    *float64
	MACDDiff *float64
	MACDDea  *float64
	KDK      *float64
	KDD      *float64
}

// ChipFeatureRow is one symbol's institutional concentration snapshot, keyed
// to the most recent date with a chip/price join. The buy fields reflect only
// that latest row while Concentration5D aggregates the trailing 5-row window.
type ChipFeatureRow struct {
	Symbol          string
	Date            time.Time
	ForeignBuy      float64
	TrustBuy        float64
	DealerBuy       float64
	TotalInstBuy    float64
	Concentration5D float64
}

// BreadthRow is the market-wide aggregate for one trading date. ADL is the
// only path-dependent field: a running sum threaded across dates in ascending
// order, seeded at zero on every run.
type BreadthRow struct {
	Date         time.Time
	UpCount      int
	DownCount    int
	FlatCount    int
	UpTurnover   float64
	DownTurnover float64
	UpVolume     float64
	DownVolume   float64
	TRIN         float64
	MA5Breadth   float64
	MA20Breadth  float64
	MA60Breadth  float64
	MA120Breadth float64
	ADL          int64
	TotalStocks  int
}

// RunReport summarizes one engine run for operator logs and downstream
// refresh notifications.
type RunReport struct {
	StartedAt        time.Time
	FinishedAt       time.Time
	IndicatorRows    int
	ChipRows         int
	BreadthRows      int
	SymbolsProcessed int
	SymbolsSkipped   int
	ChipSymbols      int
	ChipSkipped      int
	Dates            int
}

// Duration is the wall time of the run.
func (r RunReport) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }
