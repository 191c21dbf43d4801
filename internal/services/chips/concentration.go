// Package chips derives per-symbol institutional concentration features from
// a short trailing window of chip/price joins.
package chips

import (
	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/models"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/util"
)

const (
	// Window is the trailing join count the concentration ratio aggregates.
	Window = 5

	// volumeFloor keeps the ratio defined when the whole window traded
	// nothing.
	volumeFloor = 1
)

// Compute derives one symbol's chip feature row from its trailing window of
// chip/price joins, ordered date-descending with volume > 0. The caller
// bounds the window (Window rows by default). Returns nil when the symbol has
// no joined history (skipped, not an error).
//
// The snapshot fields (foreign/trust/dealer/total) come from the single most
// recent join only, while Concentration5D aggregates the full window: the
// concentration signal needs more history than the latest snapshot.
func Compute(symbol string, joins []models.ChipJoin) *models.ChipFeatureRow {
	if len(joins) == 0 {
		return nil
	}

	var netFlow, totalVol float64
	for _, j := range joins {
		netFlow += j.TotalNet()
		totalVol += j.Volume
	}
	if totalVol < volumeFloor {
		totalVol = volumeFloor
	}

	latest := joins[0]
	return &models.ChipFeatureRow{
		Symbol:          symbol,
		Date:            latest.Date,
		ForeignBuy:      latest.ForeignNet,
		TrustBuy:        latest.TrustNet,
		DealerBuy:       latest.DealerNet,
		TotalInstBuy:    latest.TotalNet(),
		Concentration5D: util.RoundPlaces(netFlow/totalVol*100, 2),
	}
}
