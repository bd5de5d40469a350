package aggregate

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"poolSnapshot/internal/model"
)

// Aggregate folds rows into one record per distinct pool id. Output order follows the
// first appearance of each pool id in rows.
func Aggregate(period string, rows []model.Row, scheme Scheme) []model.AggregateRecord {
	accumulators := Group(rows, scheme)

	records := make([]model.AggregateRecord, 0, accumulators.Len())
	for pair := accumulators.Oldest(); pair != nil; pair = pair.Next() {
		records = append(records, pair.Value.Record(period, scheme))
	}
	return records
}

// Group builds the per-pool accumulators keyed by pool id in insertion order.
func Group(rows []model.Row, scheme Scheme) *orderedmap.OrderedMap[string, *Accumulator] {
	accumulators := orderedmap.New[string, *Accumulator]()
	for _, row := range rows {
		poolID := row["pool_id"]
		acc, ok := accumulators.Get(poolID)
		if !ok {
			acc = NewAccumulator(poolID, row["pool_address"], scheme)
			accumulators.Set(poolID, acc)
		}
		acc.AddRow(row, scheme)
	}
	return accumulators
}
