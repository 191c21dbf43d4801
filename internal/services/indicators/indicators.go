// Package indicators derives per-symbol technical indicator series from raw
// daily price bars. All series are realigned to the input bar count before
// they leave this package; warm-up positions are nil.
package indicators

import (
	talib "github.com/markcheno/go-talib"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/models"
)

// MAWindows are the simple moving-average windows published on every row.
var MAWindows = [5]int{5, 10, 20, 60, 120}

const (
	atrPeriod  = 14
	rsiPeriod  = 14
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
	kdPeriod   = 9
	kdSmooth   = 3

	// MinBars is the smallest history that produces any output; shorter
	// symbols are skipped by the caller, not errored.
	MinBars = 2

	pricePrecision = 2
	macdPrecision  = 4
)

// Compute turns one symbol's full ascending price history into exactly
// len(bars) indicator rows, positionally keyed to the input dates. Histories
// shorter than MinBars yield nil.
func Compute(symbol string, bars []models.PriceBar) []models.IndicatorRow {
	n := len(bars)
	if n < MinBars {
		return nil
	}
	closes, highs, lows := extract(bars)

	ma5 := SMA(closes, 5)
	ma10 := SMA(closes, 10)
	ma20 := SMA(closes, 20)
	ma60 := SMA(closes, 60)
	ma120 := SMA(closes, 120)
	atr := ATR(highs, lows, closes)
	rsi := RSI(closes)
	diff, dea := MACD(closes)
	k, d := KD(highs, lows, closes)

	rows := make([]models.IndicatorRow, n)
	for i, b := range bars {
		rows[i] = models.IndicatorRow{
			Symbol:   symbol,
			Date:     b.Date,
			MA5:      ma5[i],
			MA10:     ma10[i],
			MA20:     ma20[i],
			MA60:     ma60[i],
			MA120:    ma120[i],
			ATR14:    atr[i],
			RSI14:    rsi[i],
			MACDDiff: diff[i],
			MACDDea:  dea[i],
			KDK:      k[i],
			KDD:      d[i],
		}
	}
	return rows
}

// SMA is the simple moving average over window w, nil for the first w-1 bars.
func SMA(closes []float64, w int) []*float64 {
	n := len(closes)
	if n < w {
		return nullSeries(n)
	}
	return roundSeries(Align(talib.Sma(closes, w), w-1, n), pricePrecision)
}

// ATR is Wilder's average true range over atrPeriod.
func ATR(highs, lows, closes []float64) []*float64 {
	n := len(closes)
	if n <= atrPeriod {
		return nullSeries(n)
	}
	return roundSeries(Align(talib.Atr(highs, lows, closes, atrPeriod), atrPeriod, n), pricePrecision)
}

// RSI is Wilder-smoothed relative strength over rsiPeriod.
func RSI(closes []float64) []*float64 {
	n := len(closes)
	if n <= rsiPeriod {
		return nullSeries(n)
	}
	return roundSeries(Align(talib.Rsi(closes, rsiPeriod), rsiPeriod, n), pricePrecision)
}

// MACD returns the diff (fast EMA minus slow EMA) and dea (signal EMA of
// diff) series for the 12/26/9 model. Both carry the model's combined
// warm-up: slow EMA seed plus signal EMA seed.
func MACD(closes []float64) (diff, dea []*float64) {
	n := len(closes)
	lookback := (macdSlow - 1) + (macdSignal - 1)
	if n <= lookback {
		return nullSeries(n), nullSeries(n)
	}
	macd, signal, _ := talib.Macd(closes, macdFast, macdSlow, macdSignal)
	diff = roundSeries(Align(macd, lookback, n), macdPrecision)
	dea = roundSeries(Align(signal, lookback, n), macdPrecision)
	return diff, dea
}

// KD returns the stochastic %K/%D series for the (9,3) model, both smoothed
// with simple moving averages.
func KD(highs, lows, closes []float64) (k, d []*float64) {
	n := len(closes)
	lookback := (kdPeriod - 1) + 2*(kdSmooth-1)
	if n <= lookback {
		return nullSeries(n), nullSeries(n)
	}
	slowK, slowD := talib.Stoch(highs, lows, closes, kdPeriod, kdSmooth, talib.SMA, kdSmooth, talib.SMA)
	k = roundSeries(Align(slowK, lookback, n), pricePrecision)
	d = roundSeries(Align(slowD, lookback, n), pricePrecision)
	return k, d
}
