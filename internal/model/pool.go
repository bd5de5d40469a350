package model

// PoolRecord is one snapshot of one pool as written to a weekday slot file.
type PoolRecord struct {
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	PoolID       string  `json:"pool_id"`
	PoolAddress  string  `json:"pool_address"`
	TVLUSD       float64 `json:"tvl_usd"`
	Volume24hUSD float64 `json:"volume_24h_usd"`
	Volume7dUSD  float64 `json:"volume_7d_usd"`
	APR7d        float64 `json:"apr_7d"`
	Reserve0     string  `json:"reserve_0"`
	Reserve1     string  `json:"reserve_1"`
	TotalShare   string  `json:"total_share"`
}

// PoolRecordHeader is the column order of a slot file.
var PoolRecordHeader = []string{
	"date", "time", "pool_id", "pool_address", "tvl_usd", "volume_24h_usd",
	"volume_7d_usd", "apr_7d", "reserve_0", "reserve_1", "total_share",
}
