package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"poolSnapshot/internal/aggregate"
	"poolSnapshot/internal/model"
	"poolSnapshot/internal/period"
	"poolSnapshot/internal/storage"
)

// Daily overwrites today's weekday slot with the current pool list, then refreshes the
// 6-day average.
func (r *Runner) Daily(ctx context.Context) (Result, error) {
	if r.fetcher == nil {
		return Result{}, fmt.Errorf("pool fetcher is nil")
	}
	now := r.clock()
	day := period.DayOfWeek(now)

	r.printf("\n-- daily snapshot --\n")
	r.printf("Date: %s (day %d of week)\n", now.UTC().Format("2006-01-02"), day)
	r.printf("Current epoch: %d\n", period.EpochNumber(now))

	pools, err := r.fetcher.FetchPools(ctx, now)
	if err != nil {
		return Result{}, fmt.Errorf("fetch pools: %w", err)
	}
	r.printf("Found %d pools\n", len(pools))

	path := r.layout.SlotPath(day)
	if err := storage.WritePoolRecords(path, pools); err != nil {
		return Result{}, err
	}
	r.printf("Saved: %s\n", path)
	r.logger.Info("daily snapshot written", zap.String("file", path), zap.Int("pools", len(pools)), zap.Int("day", day))

	if _, err := r.SixDayAverage(ctx); err != nil {
		return Result{}, err
	}
	return Result{Mode: ModeDaily, Pools: len(pools), File: fmt.Sprintf("day-%d.csv", day)}, nil
}

// SixDayAverage folds slots 1 through 6 into the rolling average file. Slot 7 never
// contributes. With no slot files present it does nothing.
func (r *Runner) SixDayAverage(ctx context.Context) (Result, error) {
	r.printf("\n-- 6-day average --\n")

	paths := r.slotPaths(6)
	if len(paths) == 0 {
		r.printf("  No daily files found yet\n")
		r.logger.Info("no daily files for 6-day average")
		return Result{Mode: ModeDaily}, nil
	}
	r.printf("  Using %d daily files\n", len(paths))

	rows, err := readAll(paths)
	if err != nil {
		return Result{}, err
	}
	records := aggregate.Aggregate(storage.SixDayAvgPeriod, rows, aggregate.DailyScheme)

	path := r.layout.SixDayAvgPath()
	if err := r.writeRollup(ctx, storage.SixDayAvgPeriod, path, records); err != nil {
		return Result{}, err
	}
	r.printf("  Saved: %s\n", path)
	r.printf("  Pools processed: %d\n", len(records))
	return Result{Mode: ModeDaily, Pools: len(records), File: storage.SixDayAvgPeriod + ".csv"}, nil
}

// slotPaths returns the existing slot files among days 1..last, in ascending day order.
func (r *Runner) slotPaths(last int) []string {
	var paths []string
	for day := 1; day <= last; day++ {
		path := r.layout.SlotPath(day)
		if storage.Exists(path) {
			paths = append(paths, path)
		}
	}
	return paths
}

func readAll(paths []string) ([]model.Row, error) {
	var rows []model.Row
	for _, path := range paths {
		fileRows, err := storage.ReadRows(path)
		if err != nil {
			return nil, err
		}
		rows = append(rows, fileRows...)
	}
	return rows, nil
}

// writeRollup writes records to path and mirrors them to the sink. Sink failures are logged.
func (r *Runner) writeRollup(ctx context.Context, granularity, path string, records []model.AggregateRecord) error {
	if err := storage.WriteAggregateRecords(path, records); err != nil {
		return err
	}
	if err := r.sink.PutAggregates(ctx, granularity, records); err != nil {
		r.logger.Warn("mirror rollup failed", zap.String("granularity", granularity), zap.String("file", path), zap.Error(err))
	}
	return nil
}
