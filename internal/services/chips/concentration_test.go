package chips

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/models"
)

func join(date time.Time, foreign, trust, dealer, volume float64) models.ChipJoin {
	return models.ChipJoin{
		ChipRecord: models.ChipRecord{
			Symbol:     "2330",
			Date:       date,
			ForeignNet: foreign,
			TrustNet:   trust,
			DealerNet:  dealer,
		},
		Volume: volume,
	}
}

func TestComputeConcentration(t *testing.T) {
	d := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	// Date-descending, as the store returns them. Net flows sum to 300 over
	// 10000 shares traded: 3.00%.
	joins := []models.ChipJoin{
		join(d, 100, 0, 0, 2000),
		join(d.AddDate(0, 0, -1), -50, 0, 0, 2000),
		join(d.AddDate(0, 0, -2), 200, 0, 0, 2000),
		join(d.AddDate(0, 0, -3), 0, 0, 0, 2000),
		join(d.AddDate(0, 0, -4), 50, 0, 0, 2000),
	}

	row := Compute("2330", joins)
	require.NotNil(t, row)
	assert.Equal(t, 3.0, row.Concentration5D)
	assert.True(t, row.Date.Equal(d))
}

func TestComputeSnapshotFromLatestOnly(t *testing.T) {
	d := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	joins := []models.ChipJoin{
		join(d, 100, 20, -10, 1000),
		join(d.AddDate(0, 0, -1), 999, 999, 999, 1000),
	}

	row := Compute("2330", joins)
	require.NotNil(t, row)
	assert.Equal(t, 100.0, row.ForeignBuy)
	assert.Equal(t, 20.0, row.TrustBuy)
	assert.Equal(t, -10.0, row.DealerBuy)
	assert.Equal(t, 110.0, row.TotalInstBuy)
}

func TestComputeNoHistory(t *testing.T) {
	assert.Nil(t, Compute("2330", nil))
	assert.Nil(t, Compute("2330", []models.ChipJoin{}))
}

func TestComputeShortWindow(t *testing.T) {
	// Fewer joins than the full window still produce a row over what exists.
	d := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	joins := []models.ChipJoin{
		join(d, 50, 0, 0, 1000),
		join(d.AddDate(0, 0, -1), 50, 0, 0, 1000),
	}

	row := Compute("2330", joins)
	require.NotNil(t, row)
	assert.Equal(t, 5.0, row.Concentration5D)
}

func TestComputeVolumeFloor(t *testing.T) {
	d := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	joins := []models.ChipJoin{join(d, 3, 0, 0, 0)}

	row := Compute("2330", joins)
	require.NotNil(t, row)
	// Zero traded volume falls back to the floor of 1 share.
	assert.Equal(t, 300.0, row.Concentration5D)
}

func TestComputeNegativeConcentration(t *testing.T) {
	d := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	joins := []models.ChipJoin{
		join(d, -100, -50, 0, 3000),
		join(d.AddDate(0, 0, -1), -150, 0, 0, 3000),
	}

	row := Compute("2330", joins)
	require.NotNil(t, row)
	assert.Equal(t, -5.0, row.Concentration5D)
}
