package breadth

import (
	"fmt"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/models"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/util"
)

// FoldADL materializes the advance-decline line in place:
// adl[i] = adl[i-1] + (up[i] - down[i]), seeded at zero before the first row.
//
// The accumulator restarts at zero on every call, so a full replay of the
// same rows always reproduces the same series. Rows must arrive in strictly
// ascending date order; out-of-order input is rejected rather than silently
// folded, because a partial or resumed pass would corrupt the line.
func FoldADL(rows []models.BreadthRow) error {
	var adl int64
	for i := range rows {
		if i > 0 && !rows[i].Date.After(rows[i-1].Date) {
			return fmt.Errorf("breadth rows out of order at %s", rows[i].Date.Format(util.DateLayout))
		}
		adl += int64(rows[i].UpCount - rows[i].DownCount)
		rows[i].ADL = adl
	}
	return nil
}
