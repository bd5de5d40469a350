package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"poolSnapshot/internal/metrics"
	"poolSnapshot/internal/publish"
	"poolSnapshot/internal/storage"
)

// RunFunc is one pipeline invocation.
type RunFunc func(ctx context.Context) (Result, error)

type JobOptions struct {
	Name string
	// Publisher is optional; the vote pipeline publishes on its own.
	Publisher publish.Publisher
	Layout    *storage.Layout
	Metrics   *metrics.Metrics
	PushURL   string
	Instance  string
	Out       io.Writer
	Logger    *zap.Logger
}

// Execute prepares the working tree, runs the pipeline, publishes and records metrics.
// Only prepare-stage file system errors and pipeline errors fail the job; publish and
// metrics failures are logged.
func Execute(ctx context.Context, opts JobOptions, run RunFunc) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	start := time.Now()

	if opts.Publisher != nil {
		if err := opts.Publisher.Prepare(ctx); err != nil {
			logger.Warn("prepare working tree failed", zap.Error(err))
		}
	}
	if opts.Layout != nil {
		if err := opts.Layout.EnsureDirs(logger); err != nil {
			opts.Metrics.ObserveRun(opts.Name, 0, time.Since(start), err)
			pushMetrics(opts, logger)
			return Result{}, err
		}
	}

	result, err := run(ctx)
	opts.Metrics.ObserveRun(opts.Name, result.Pools, time.Since(start), err)
	if err != nil {
		pushMetrics(opts, logger)
		return Result{}, err
	}

	if opts.Publisher != nil {
		err := opts.Publisher.Publish(ctx, result.CommitMessage())
		switch {
		case errors.Is(err, publish.ErrNothingToCommit):
			fmt.Fprintln(out, "Nothing new to commit")
		case err != nil:
			logger.Error("publish failed", zap.Error(err))
		}
	}

	pushMetrics(opts, logger)
	logger.Info("run complete",
		zap.String("pipeline", opts.Name),
		zap.Int("pools", result.Pools),
		zap.String("file", result.File),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func pushMetrics(opts JobOptions, logger *zap.Logger) {
	if err := opts.Metrics.Push(opts.PushURL, opts.Instance); err != nil {
		logger.Warn("push metrics failed", zap.Error(err))
	}
}
