package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolSnapshot/internal/model"
)

func dailyRow(poolID, tvl, volume, apr string) model.Row {
	return model.Row{
		"pool_id":        poolID,
		"pool_address":   "terra1" + poolID,
		"tvl_usd":        tvl,
		"volume_24h_usd": volume,
		"apr_7d":         apr,
		"reserve_0":      "1000",
		"reserve_1":      "2001",
		"total_share":    "15",
	}
}

func TestAggregateAveragesOnlyPresentObservations(t *testing.T) {
	rows := []model.Row{
		dailyRow("P1", "100", "10", "0.1"),
		dailyRow("P1", "", "20", "0.2"),
		dailyRow("P1", "300", "", "0.3"),
	}
	delete(rows[2], "apr_7d")

	got := Aggregate("6-day-avg", rows, DailyScheme)
	require.Len(t, got, 1)

	assert.Equal(t, "200.00", got[0].AvgTVLUSD)
	assert.Equal(t, "30.00", got[0].TotalVolumeUSD)
	assert.Equal(t, "0.1500", got[0].AvgAPR7d)
	assert.Equal(t, int64(2), got[0].SnapshotCount, "count follows TVL observations")
}

func TestAggregateEmptyMetricIsZero(t *testing.T) {
	rows := []model.Row{{"pool_id": "P1", "pool_address": "terra1p1"}}

	got := Aggregate("2025-epoch-114", rows, DailyScheme)
	require.Len(t, got, 1)

	assert.Equal(t, "0.00", got[0].AvgTVLUSD)
	assert.Equal(t, "0.00", got[0].TotalVolumeUSD)
	assert.Equal(t, "0.0000", got[0].AvgAPR7d)
	assert.Equal(t, "0", got[0].AvgReserve0)
	assert.Equal(t, int64(0), got[0].SnapshotCount)
}

func TestAggregateIndependentOfRowOrder(t *testing.T) {
	forward := []model.Row{
		dailyRow("P1", "0.1", "1.1", "0.0001"),
		dailyRow("P1", "0.2", "2.2", "0.0002"),
		dailyRow("P1", "0.3", "3.3", "0.0004"),
	}
	backward := []model.Row{forward[2], forward[0], forward[1]}

	a := Aggregate("p", forward, DailyScheme)
	b := Aggregate("p", backward, DailyScheme)
	assert.Equal(t, a, b)
	assert.Equal(t, "0.20", a[0].AvgTVLUSD)
	assert.Equal(t, "6.60", a[0].TotalVolumeUSD)
}

func TestAggregateOneRowPerPoolInFirstSeenOrder(t *testing.T) {
	rows := []model.Row{
		dailyRow("B", "1", "1", "0"),
		dailyRow("A", "1", "1", "0"),
		dailyRow("B", "3", "1", "0"),
		dailyRow("C", "1", "1", "0"),
		dailyRow("A", "5", "1", "0"),
	}

	got := Aggregate("p", rows, DailyScheme)
	require.Len(t, got, 3)

	ids := []string{got[0].PoolID, got[1].PoolID, got[2].PoolID}
	assert.Equal(t, []string{"B", "A", "C"}, ids)
	assert.Equal(t, "2.00", got[0].AvgTVLUSD)
	assert.Equal(t, "3.00", got[1].AvgTVLUSD)
}

func TestAggregateKeepsFirstAddress(t *testing.T) {
	first := dailyRow("P1", "1", "1", "0")
	second := dailyRow("P1", "1", "1", "0")
	second["pool_address"] = "terra1changed"

	got := Aggregate("p", []model.Row{first, second}, DailyScheme)
	require.Len(t, got, 1)
	assert.Equal(t, "terra1P1", got[0].PoolAddress)
}

func TestAggregateFormatsFixedPlaces(t *testing.T) {
	rows := []model.Row{
		{
			"pool_id":        "P1",
			"tvl_usd":        "10.005",
			"volume_24h_usd": "1.234",
			"apr_7d":         "0.123456",
			"reserve_0":      "1000000000000000000000001",
			"reserve_1":      "2.5",
			"total_share":    "7",
		},
	}

	got := Aggregate("p", rows, DailyScheme)
	require.Len(t, got, 1)

	assert.Equal(t, "10.01", got[0].AvgTVLUSD)
	assert.Equal(t, "1.23", got[0].TotalVolumeUSD)
	assert.Equal(t, "0.1235", got[0].AvgAPR7d)
	assert.Equal(t, "1000000000000000000000001", got[0].AvgReserve0)
	assert.Equal(t, "3", got[0].AvgReserve1)
	assert.Equal(t, "7", got[0].AvgTotalShare)
}

func TestAggregateSkipsUnparseableCells(t *testing.T) {
	rows := []model.Row{
		dailyRow("P1", "abc", "5", "0"),
		dailyRow("P1", "40", "5", "0"),
	}

	got := Aggregate("p", rows, DailyScheme)
	require.Len(t, got, 1)
	assert.Equal(t, "40.00", got[0].AvgTVLUSD)
	assert.Equal(t, int64(1), got[0].SnapshotCount)
}

func TestRollupSchemeSumsUpstreamSnapshotCounts(t *testing.T) {
	rows := []model.Row{
		{"pool_id": "P1", "pool_address": "terra1p1", "avg_tvl_usd": "100.00", "total_volume_usd": "70.00", "avg_apr_7d": "0.1000", "snapshot_count": "7"},
		{"pool_id": "P1", "pool_address": "terra1p1", "avg_tvl_usd": "300.00", "total_volume_usd": "30.00", "avg_apr_7d": "0.3000", "snapshot_count": "5"},
		{"pool_id": "P2", "pool_address": "terra1p2", "avg_tvl_usd": "50.00", "total_volume_usd": "1.00", "avg_apr_7d": "0", "snapshot_count": ""},
	}

	got := Aggregate("2025-01", rows, RollupScheme)
	require.Len(t, got, 2)

	assert.Equal(t, "200.00", got[0].AvgTVLUSD)
	assert.Equal(t, "100.00", got[0].TotalVolumeUSD)
	assert.Equal(t, "0.2000", got[0].AvgAPR7d)
	assert.Equal(t, int64(12), got[0].SnapshotCount, "sum of upstream counts, not number of rows")
	assert.Equal(t, int64(0), got[1].SnapshotCount)
}
