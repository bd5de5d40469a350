package storage

import (
	"context"

	"poolSnapshot/internal/model"
)

// Sink receives a copy of every rollup and vote snapshot written to disk.
type Sink interface {
	PutAggregates(ctx context.Context, granularity string, records []model.AggregateRecord) error
	PutVoteSnapshot(ctx context.Context, snapshot *model.VoteSnapshot) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) PutAggregates(context.Context, string, []model.AggregateRecord) error { return nil }

func (NopSink) PutVoteSnapshot(context.Context, *model.VoteSnapshot) error { return nil }
