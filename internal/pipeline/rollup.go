package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"poolSnapshot/internal/aggregate"
	"poolSnapshot/internal/model"
	"poolSnapshot/internal/period"
	"poolSnapshot/internal/storage"
)

// Weekly folds every present slot file into the current epoch's rollup.
func (r *Runner) Weekly(ctx context.Context) (Result, error) {
	now := r.clock()
	label := period.NewEpochLabel(now).String()

	r.printf("\n-- weekly (epoch) aggregation --\n")
	r.printf("Aggregating epoch: %d\n", period.EpochNumber(now))
	r.printf("Filename: %s.csv\n", label)

	paths := r.slotPaths(7)
	r.printf("Found %d daily files\n", len(paths))

	rows, err := readAll(paths)
	if err != nil {
		return Result{}, err
	}
	records := aggregate.Aggregate(label, rows, aggregate.DailyScheme)
	for _, rec := range records {
		r.printf("  %-20s Avg TVL: $%10s  Total Vol: $%s\n", rec.PoolID, rec.AvgTVLUSD, rec.TotalVolumeUSD)
	}

	path := r.layout.WeeklyPath(label)
	if err := r.writeRollup(ctx, "weekly", path, records); err != nil {
		return Result{}, err
	}
	r.printf("Saved: %s\n", path)
	r.logger.Info("weekly rollup written", zap.String("file", path), zap.Int("pools", len(records)))
	return Result{Mode: ModeWeekly, Pools: len(records), File: label + ".csv"}, nil
}

// Monthly folds the previous month's weekly rollups. A weekly file belongs to the month when
// its epoch lies in the month's epoch range, or for legacy week labels, by the week estimate.
func (r *Runner) Monthly(ctx context.Context) (Result, error) {
	now := r.clock()
	year, month := period.PreviousMonth(now)
	label := period.PreviousMonthLabel(now)

	r.printf("\n-- monthly aggregation --\n")
	r.printf("Aggregating month: %s\n", label)

	names, err := storage.ListFiles(r.layout.WeeklyDir(), fmt.Sprintf("%04d-epoch-", year), fmt.Sprintf("%04d-W", year))
	if err != nil {
		return Result{}, err
	}
	r.printf("Found %d weekly/epoch files for %d\n", len(names), year)

	first, last := period.MonthBounds(year, month, r.loc)
	epochStart, epochEnd := period.EpochRangeForMonth(first, last)
	r.printf("Month %02d spans epochs %d to %d\n", int(month), epochStart, epochEnd)

	selected := SelectWeeklyFiles(names, month, epochStart, epochEnd)
	r.printf("Using %d files for %s\n", len(selected), label)

	paths := make([]string, 0, len(selected))
	for _, name := range selected {
		paths = append(paths, filepath.Join(r.layout.WeeklyDir(), name))
	}
	records, err := r.rollup(label, paths)
	if err != nil {
		return Result{}, err
	}

	path := r.layout.MonthlyPath(label)
	if err := r.writeRollup(ctx, "monthly", path, records); err != nil {
		return Result{}, err
	}
	r.printf("Saved: %s\n", path)
	r.logger.Info("monthly rollup written", zap.String("file", path), zap.Int("pools", len(records)), zap.Int("sources", len(paths)))
	return Result{Mode: ModeMonthly, Pools: len(records), File: label + ".csv"}, nil
}

// Yearly folds every monthly rollup of the previous year into a top-level yearly file.
func (r *Runner) Yearly(ctx context.Context) (Result, error) {
	now := r.clock()
	year := period.PreviousYear(now)
	label := fmt.Sprintf("%04d", year)

	r.printf("\n-- yearly aggregation --\n")
	r.printf("Aggregating year: %s\n", label)

	names, err := storage.ListFiles(r.layout.MonthlyDir(), label+"-")
	if err != nil {
		return Result{}, err
	}
	r.printf("Found %d monthly files for %s\n", len(names), label)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, filepath.Join(r.layout.MonthlyDir(), name))
	}
	records, err := r.rollup(label, paths)
	if err != nil {
		return Result{}, err
	}

	path := r.layout.YearlyPath(year)
	if err := r.writeRollup(ctx, "yearly", path, records); err != nil {
		return Result{}, err
	}
	r.printf("Saved: %s\n", path)
	r.logger.Info("yearly rollup written", zap.String("file", path), zap.Int("pools", len(records)))
	return Result{Mode: ModeYearly, Pools: len(records), File: filepath.Base(path)}, nil
}

func (r *Runner) rollup(label string, paths []string) ([]model.AggregateRecord, error) {
	rows, err := readAll(paths)
	if err != nil {
		return nil, err
	}
	records := aggregate.Aggregate(label, rows, aggregate.RollupScheme)
	for _, rec := range records {
		r.printf("  %-20s Avg TVL: $%10s\n", rec.PoolID, rec.AvgTVLUSD)
	}
	return records, nil
}

// SelectWeeklyFiles keeps the weekly rollup names that belong to month, preserving order.
func SelectWeeklyFiles(names []string, month time.Month, epochStart, epochEnd int) []string {
	var out []string
	for _, name := range names {
		label, ok := period.ParseWeeklyLabel(name)
		if ok && label.InMonth(month, epochStart, epochEnd) {
			out = append(out, name)
		}
	}
	return out
}
