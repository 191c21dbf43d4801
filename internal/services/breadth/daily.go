// Package breadth derives market-wide daily aggregates from per-date
// cross-sections of price and indicator rows. Everything here is a pure
// function of a single date's cross-section except the advance-decline fold
// in adl.go, which is the one order-sensitive computation.
package breadth

import (
	"time"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/models"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/util"
)

const (
	// trinEpsilon substitutes a zero count or turnover side so the Arms
	// Index ratio stays defined on one-sided days.
	trinEpsilon = 0.1
	trinMin     = 0.1
	trinMax     = 8
)

// DayStats computes the breadth row for one trading date from its
// cross-section. prevCloses maps symbol to the previous trading date's close;
// a symbol with no prior close counts as flat. ADL is left zero — it is
// materialized afterwards by FoldADL.
//
// An empty cross-section still yields a row (trin 1.0 via the epsilon
// substitution) so the date axis stays contiguous for charting.
func DayStats(date time.Time, rows []models.CrossSectionRow, prevCloses map[string]float64) models.BreadthRow {
	out := models.BreadthRow{Date: date, TotalStocks: len(rows)}

	for _, r := range rows {
		switch change := changePct(r, prevCloses); {
		case change > 0:
			out.UpCount++
			out.UpTurnover += r.EffectiveTurnover()
			out.UpVolume += r.Volume
		case change < 0:
			out.DownCount++
			out.DownTurnover += r.EffectiveTurnover()
			out.DownVolume += r.Volume
		default:
			out.FlatCount++
		}
	}

	out.TRIN = trin(out.UpCount, out.DownCount, out.UpTurnover, out.DownTurnover)
	out.MA5Breadth = maBreadth(rows, func(r models.CrossSectionRow) *float64 { return r.MA5 })
	out.MA20Breadth = maBreadth(rows, func(r models.CrossSectionRow) *float64 { return r.MA20 })
	out.MA60Breadth = maBreadth(rows, func(r models.CrossSectionRow) *float64 { return r.MA60 })
	out.MA120Breadth = maBreadth(rows, func(r models.CrossSectionRow) *float64 { return r.MA120 })

	return out
}

// CloseMap indexes a cross-section by symbol for the next date's change
// classification.
func CloseMap(rows []models.CrossSectionRow) map[string]float64 {
	m := make(map[string]float64, len(rows))
	for _, r := range rows {
		m[r.Symbol] = r.Close
	}
	return m
}

func changePct(r models.CrossSectionRow, prevCloses map[string]float64) float64 {
	prev, ok := prevCloses[r.Symbol]
	if !ok || prev <= 0 {
		return 0
	}
	return (r.Close - prev) / prev * 100
}

// trin is the Arms Index: advancing/declining issues over advancing/declining
// turnover, clamped to [0.1, 8]. Unclamped values diverge to extremes on
// near-zero decliner days and must never be stored.
func trin(up, down int, upTurnover, downTurnover float64) float64 {
	issues := trinRatio(float64(up), float64(down))
	turnover := trinRatio(upTurnover, downTurnover)
	return util.RoundPlaces(util.Clamp(issues/turnover, trinMin, trinMax), 2)
}

func trinRatio(num, den float64) float64 {
	if num == 0 {
		num = trinEpsilon
	}
	if den == 0 {
		den = trinEpsilon
	}
	return num / den
}

// maBreadth is the percentage of symbols trading above the given moving
// average, among symbols whose MA is already out of warm-up and positive.
func maBreadth(rows []models.CrossSectionRow, ma func(models.CrossSectionRow) *float64) float64 {
	count, above := 0, 0
	for _, r := range rows {
		v := ma(r)
		if v == nil || *v <= 0 {
			continue
		}
		count++
		if r.Close > *v {
			above++
		}
	}
	if count == 0 {
		return 0
	}
	return util.RoundPlaces(float64(above)/float64(count)*100, 2)
}
