package aggregate

import (
	"strings"

	"github.com/shopspring/decimal"

	"poolSnapshot/internal/model"
)

// Accumulator holds the observations of one pool across all input rows.
type Accumulator struct {
	PoolID      string
	PoolAddress string
	Snapshots   int64
	sums        [metricCount]decimal.Decimal
	counts      [metricCount]int64
	reductions  [metricCount]Reduction
}

func NewAccumulator(poolID, poolAddress string, scheme Scheme) *Accumulator {
	acc := &Accumulator{PoolID: poolID, PoolAddress: poolAddress}
	for _, field := range scheme.Fields {
		acc.reductions[field.Metric] = field.Reduce
	}
	return acc
}

// AddRow folds one row. Missing, empty, or unparseable cells are not observations.
func (a *Accumulator) AddRow(row model.Row, scheme Scheme) {
	for _, field := range scheme.Fields {
		value, ok := parseCell(row[field.Source])
		if !ok {
			continue
		}
		a.sums[field.Metric] = a.sums[field.Metric].Add(value)
		a.counts[field.Metric]++
	}

	if scheme.Count == SumSnapshotCounts {
		if value, ok := parseCell(row[scheme.CountSource]); ok {
			a.Snapshots += value.IntPart()
		}
	}
}

// Value returns the reduced value of a metric; an empty average is zero.
func (a *Accumulator) Value(metric Metric) decimal.Decimal {
	if a.reductions[metric] == Sum {
		return a.sums[metric]
	}
	if a.counts[metric] == 0 {
		return decimal.Zero
	}
	return a.sums[metric].Div(decimal.NewFromInt(a.counts[metric]))
}

// Record renders the accumulator as an output row.
func (a *Accumulator) Record(period string, scheme Scheme) model.AggregateRecord {
	snapshots := a.Snapshots
	if scheme.Count == CountObservations {
		snapshots = a.counts[MetricTVL]
	}

	return model.AggregateRecord{
		Period:         period,
		PoolID:         a.PoolID,
		PoolAddress:    a.PoolAddress,
		AvgTVLUSD:      a.format(MetricTVL),
		TotalVolumeUSD: a.format(MetricVolume),
		AvgAPR7d:       a.format(MetricAPR),
		AvgReserve0:    a.format(MetricReserve0),
		AvgReserve1:    a.format(MetricReserve1),
		AvgTotalShare:  a.format(MetricTotalShare),
		SnapshotCount:  snapshots,
	}
}

func (a *Accumulator) format(metric Metric) string {
	return a.Value(metric).StringFixed(places[metric])
}

func parseCell(cell string) (decimal.Decimal, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(cell)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}
