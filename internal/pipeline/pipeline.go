// Package pipeline drives the snapshot and rollup runs: fetch or load, aggregate, persist.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"poolSnapshot/internal/model"
	"poolSnapshot/internal/period"
	"poolSnapshot/internal/storage"
)

type Mode string

const (
	ModeDaily   Mode = "daily"
	ModeWeekly  Mode = "weekly"
	ModeMonthly Mode = "monthly"
	ModeYearly  Mode = "yearly"
	ModeVotion  Mode = "votion"
)

// ParseMode maps a CLI argument to a pool pipeline mode. An empty argument means daily.
func ParseMode(arg string) (Mode, error) {
	switch Mode(arg) {
	case "":
		return ModeDaily, nil
	case ModeDaily, ModeWeekly, ModeMonthly, ModeYearly:
		return Mode(arg), nil
	default:
		return "", fmt.Errorf("unknown mode: %s", arg)
	}
}

// Result summarises one run for the commit message and the final progress line.
type Result struct {
	Mode  Mode
	Pools int
	File  string
}

// CommitMessage is the bulk publish message for the run.
func (r Result) CommitMessage() string {
	return fmt.Sprintf("%s snapshot: %s", r.Mode, r.File)
}

// PoolFetcher returns the current pool list stamped with now.
type PoolFetcher interface {
	FetchPools(ctx context.Context, now time.Time) ([]model.PoolRecord, error)
}

type Options struct {
	Layout   storage.Layout
	Fetcher  PoolFetcher
	Sink     storage.Sink
	Location *time.Location
	Now      func() time.Time
	Out      io.Writer
	Logger   *zap.Logger
}

// Runner runs the pool pipelines against one data directory.
type Runner struct {
	layout  storage.Layout
	fetcher PoolFetcher
	sink    storage.Sink
	loc     *time.Location
	now     func() time.Time
	out     io.Writer
	logger  *zap.Logger
}

func NewRunner(opts Options) *Runner {
	r := &Runner{
		layout:  opts.Layout,
		fetcher: opts.Fetcher,
		sink:    opts.Sink,
		loc:     opts.Location,
		now:     opts.Now,
		out:     opts.Out,
		logger:  opts.Logger,
	}
	if r.layout.Root == "" {
		r.layout = storage.NewLayout(".")
	}
	if r.sink == nil {
		r.sink = storage.NopSink{}
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.out == nil {
		r.out = io.Discard
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Run dispatches mode to its pipeline.
func (r *Runner) Run(ctx context.Context, mode Mode) (Result, error) {
	switch mode {
	case ModeDaily:
		return r.Daily(ctx)
	case ModeWeekly:
		return r.Weekly(ctx)
	case ModeMonthly:
		return r.Monthly(ctx)
	case ModeYearly:
		return r.Yearly(ctx)
	default:
		return Result{}, fmt.Errorf("unknown mode: %s", mode)
	}
}

// Now returns the runner's current time in its configured location.
func (r *Runner) Now() time.Time {
	return r.clock()
}

func (r *Runner) clock() time.Time {
	return r.now().In(r.loc)
}

func (r *Runner) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// Banner prints the run header.
func Banner(out io.Writer, mode Mode, now time.Time) {
	fmt.Fprintf(out, "\n== Pool Snapshot ==\n")
	fmt.Fprintf(out, "Mode:  %s\n", mode)
	fmt.Fprintf(out, "Time:  %s\n", now.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	fmt.Fprintf(out, "Epoch: %d\n", period.EpochNumber(now))
}
