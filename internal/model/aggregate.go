package model

// Row is one raw line of a flat file keyed by column name.
type Row map[string]string

// AggregateRecord is one rollup row for one pool over a period.
// Numeric fields hold their written, fixed-point representation.
type AggregateRecord struct {
	Period         string `json:"period"`
	PoolID         string `json:"pool_id"`
	PoolAddress    string `json:"pool_address"`
	AvgTVLUSD      string `json:"avg_tvl_usd"`
	TotalVolumeUSD string `json:"total_volume_usd"`
	AvgAPR7d       string `json:"avg_apr_7d"`
	AvgReserve0    string `json:"avg_reserve_0"`
	AvgReserve1    string `json:"avg_reserve_1"`
	AvgTotalShare  string `json:"avg_total_share"`
	SnapshotCount  int64  `json:"snapshot_count"`
}

// AggregateRecordHeader is the column order of every rollup file.
var AggregateRecordHeader = []string{
	"period", "pool_id", "pool_address", "avg_tvl_usd", "total_volume_usd", "avg_apr_7d",
	"avg_reserve_0", "avg_reserve_1", "avg_total_share", "snapshot_count",
}
