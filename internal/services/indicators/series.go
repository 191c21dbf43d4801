package indicators

import (
	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/models"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/util"
)

// Align realigns an indicator series to the canonical bar count n.
//
// Indicator outputs come in two shapes: full-length slices whose warm-up
// prefix holds meaningless zeros (ta-lib style), and shorter slices with the
// warm-up already trimmed. Both are handled by the same rule: the series is
// right-aligned against the bar sequence and every index before
// (n - len(values)) + lookback is nil. Every indicator goes through this one
// helper so date alignment can never drift per indicator.
func Align(values []float64, lookback, n int) []*float64 {
	out := make([]*float64, n)
	shift := n - len(values)
	if shift < 0 {
		values = values[len(values)-n:]
		shift = 0
	}
	for i := shift + lookback; i < n; i++ {
		v := values[i-shift]
		out[i] = &v
	}
	return out
}

// nullSeries is the all-warm-up series for inputs too short to compute.
func nullSeries(n int) []*float64 { return make([]*float64, n) }

// roundSeries rounds every non-nil element in place and returns the series,
// so stored values stay deterministic across runs.
func roundSeries(s []*float64, places int) []*float64 {
	for _, p := range s {
		if p != nil {
			*p = util.RoundPlaces(*p, places)
		}
	}
	return s
}

// extract splits a bar sequence into the close/high/low arrays the indicator
// functions consume, preserving positional date alignment.
func extract(bars []models.PriceBar) (closes, highs, lows []float64) {
	closes = make([]float64, len(bars))
	highs = make([]float64, len(bars))
	lows = make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}
	return closes, highs, lows
}
