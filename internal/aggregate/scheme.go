package aggregate

// Metric is a target statistic of an aggregate row.
type Metric int

const (
	MetricTVL Metric = iota
	MetricVolume
	MetricAPR
	MetricReserve0
	MetricReserve1
	MetricTotalShare
	metricCount
)

// Reduction folds the observations of one metric.
type Reduction int

const (
	Average Reduction = iota
	Sum
)

// CountMode selects how snapshot_count is derived.
type CountMode int

const (
	// CountObservations counts the TVL observations folded into the row.
	CountObservations CountMode = iota
	// SumSnapshotCounts adds up the snapshot_count column of already aggregated rows.
	SumSnapshotCounts
)

// Field maps one source column onto a target metric.
type Field struct {
	Source string
	Metric Metric
	Reduce Reduction
}

// Scheme describes how raw rows are folded into aggregate rows.
type Scheme struct {
	Fields      []Field
	Count       CountMode
	CountSource string
}

// DailyScheme folds raw slot-file rows.
var DailyScheme = Scheme{
	Fields: []Field{
		{Source: "tvl_usd", Metric: MetricTVL, Reduce: Average},
		{Source: "volume_24h_usd", Metric: MetricVolume, Reduce: Sum},
		{Source: "apr_7d", Metric: MetricAPR, Reduce: Average},
		{Source: "reserve_0", Metric: MetricReserve0, Reduce: Average},
		{Source: "reserve_1", Metric: MetricReserve1, Reduce: Average},
		{Source: "total_share", Metric: MetricTotalShare, Reduce: Average},
	},
	Count: CountObservations,
}

// RollupScheme re-aggregates rows that are themselves rollups.
var RollupScheme = Scheme{
	Fields: []Field{
		{Source: "avg_tvl_usd", Metric: MetricTVL, Reduce: Average},
		{Source: "total_volume_usd", Metric: MetricVolume, Reduce: Sum},
		{Source: "avg_apr_7d", Metric: MetricAPR, Reduce: Average},
		{Source: "avg_reserve_0", Metric: MetricReserve0, Reduce: Average},
		{Source: "avg_reserve_1", Metric: MetricReserve1, Reduce: Average},
		{Source: "avg_total_share", Metric: MetricTotalShare, Reduce: Average},
	},
	Count:       SumSnapshotCounts,
	CountSource: "snapshot_count",
}

// places is the number of decimals written for each metric.
var places = [metricCount]int32{
	MetricTVL:        2,
	MetricVolume:     2,
	MetricAPR:        4,
	MetricReserve0:   0,
	MetricReserve1:   0,
	MetricTotalShare: 0,
}
