package models

import "time"

// PriceBar is one symbol's OHLCV row for a trading date, as persisted by the
// ingestion crawlers. Bars with Close <= 0 are treated as invalid and excluded
// from cross-sectional aggregation.
type PriceBar struct {
	Symbol   string
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Turnover float64
}

// Valid reports whether the bar participates in breadth aggregation.
func (b PriceBar) Valid() bool { return b.Close > 0 }

// ChipRecord is one symbol's institutional net-buy row for a trading date.
// Values are signed share counts; positive means net buy.
type ChipRecord struct {
	Symbol     string
	Date       time.Time
	ForeignNet float64
	TrustNet   float64
	DealerNet  float64
}

// TotalNet is the combined institutional net flow for the day.
func (c ChipRecord) TotalNet() float64 { return c.ForeignNet + c.TrustNet + c.DealerNet }

// ChipJoin is a ChipRecord joined with the traded volume of the same
// (symbol, date) price bar. The concentration window is built from these.
type ChipJoin struct {
	ChipRecord
	Volume float64
}

// CrossSectionRow is one symbol's slice of a single trading date: the price
// bar joined with that date's indicator row. MA fields are nil inside the
// indicator warm-up region.
type CrossSectionRow struct {
	Symbol   string
	Close    float64
	Volume   float64
	Turnover float64
	MA5      *float64
	MA20     *float64
	MA60     *float64
	MA120    *float64
}

// EffectiveTurnover falls back to close*volume when the ingested turnover is
// missing or zero.
func (r CrossSectionRow) EffectiveTurnover() float64 {
	if r.Turnover > 0 {
		return r.Turnover
	}
	return r.Close * r.Volume
}
