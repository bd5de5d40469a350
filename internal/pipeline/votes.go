package pipeline

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"poolSnapshot/internal/metrics"
	"poolSnapshot/internal/model"
	"poolSnapshot/internal/publish"
	"poolSnapshot/internal/storage"
)

// OptimizationFetcher returns the captured state of one lockup bucket, or nil when the
// bucket holds no position.
type OptimizationFetcher interface {
	FetchOptimization(ctx context.Context, lockup model.Lockup) (*model.LockupSnapshot, error)
}

type VoteOptions struct {
	Fetcher OptimizationFetcher
	Lockups []model.Lockup
	// Publisher is nil when no credential is configured; the snapshot is then written locally.
	Publisher publish.FilePublisher
	Layout    storage.Layout
	Sink      storage.Sink
	Metrics   *metrics.Metrics
	Now       func() time.Time
	Out       io.Writer
	Logger    *zap.Logger
}

// VoteSnapshotter captures one vote-optimization snapshot across all lockups.
type VoteSnapshotter struct {
	opts VoteOptions
}

func NewVoteSnapshotter(opts VoteOptions) *VoteSnapshotter {
	if opts.Layout.Root == "" {
		opts.Layout = storage.NewLayout(".")
	}
	if opts.Sink == nil {
		opts.Sink = storage.NopSink{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &VoteSnapshotter{opts: opts}
}

// Capture fetches every lockup in order. A failed or empty bucket is recorded as null and
// never aborts the run. The first captured bucket sets the snapshot period and deadline.
func (s *VoteSnapshotter) Capture(ctx context.Context) (*model.VoteSnapshot, error) {
	now := s.opts.Now().UTC()
	snap := model.NewVoteSnapshot(now.Format("2006-01-02T15:04:05.000Z07:00"), now.UnixMilli())

	fmt.Fprintf(s.opts.Out, "\nVotion epoch snapshot\n  Time: %s\n\n", snap.CapturedAt)

	for _, lockup := range s.opts.Lockups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprintf(s.opts.Out, "  Fetching %s %s...\n", lockup.Type, lockup.Duration)

		bucket, err := s.opts.Fetcher.FetchOptimization(ctx, lockup)
		if err != nil {
			s.opts.Logger.Warn("lockup fetch failed", zap.String("lockup", lockup.ID), zap.Error(err))
			fmt.Fprintf(s.opts.Out, "    error: %v\n", err)
			snap.Lockups.Set(lockup.ID, nil)
			continue
		}
		if bucket == nil {
			fmt.Fprintf(s.opts.Out, "    no position or empty response\n")
			snap.Lockups.Set(lockup.ID, nil)
			continue
		}

		snap.Lockups.Set(lockup.ID, bucket)
		if snap.Period == nil {
			p := bucket.Period
			snap.Period = &p
			snap.VoteBefore = bucket.VoteBefore
		}
		snap.TotalExpectedRewards += bucket.TotalExpectedReward
		fmt.Fprintf(s.opts.Out, "    VP: %.0f, Expected: $%.2f\n", bucket.VotingPower, bucket.TotalExpectedReward)
	}

	captured := snap.Succeeded()
	s.opts.Metrics.ObserveVoteBuckets(captured, len(s.opts.Lockups)-captured)

	fmt.Fprintf(s.opts.Out, "\n  Summary:\n")
	fmt.Fprintf(s.opts.Out, "  - Period: %s\n", periodText(snap.Period, "null"))
	fmt.Fprintf(s.opts.Out, "  - Lockups with positions: %d/%d\n", captured, len(s.opts.Lockups))
	fmt.Fprintf(s.opts.Out, "  - Total Expected Rewards: $%.2f\n", snap.TotalExpectedRewards)
	if len(snap.VoteBefore) > 0 {
		fmt.Fprintf(s.opts.Out, "  - Vote Before: %s\n", snap.VoteBefore)
	}
	return snap, nil
}

// Run captures a snapshot and persists it: published remotely when a publisher is configured
// and a period was captured, written locally when no publisher is configured.
func (s *VoteSnapshotter) Run(ctx context.Context) (Result, error) {
	snap, err := s.Capture(ctx)
	if err != nil {
		return Result{}, err
	}
	result := Result{Mode: ModeVotion, Pools: snap.Succeeded()}

	content, err := storage.MarshalJSONDocument(snap)
	if err != nil {
		return Result{}, err
	}

	switch {
	case s.opts.Publisher == nil:
		path := s.opts.Layout.VotionLocalPath(periodText(snap.Period, "test"))
		if err := storage.WriteFile(path, content); err != nil {
			return Result{}, err
		}
		fmt.Fprintf(s.opts.Out, "\n  No publishing credential, saved locally: %s\n", path)
		result.File = path
	case snap.Period != nil:
		remote := storage.VotionRemotePath(*snap.Period)
		message := fmt.Sprintf("Votion epoch %d snapshot - %s", *snap.Period, snap.CapturedAt[:10])
		fmt.Fprintf(s.opts.Out, "\n  Pushing to GitHub...\n")
		if err := s.opts.Publisher.PutFile(ctx, remote, content, message); err != nil {
			s.opts.Logger.Error("publish vote snapshot failed", zap.String("path", remote), zap.Error(err))
		} else {
			fmt.Fprintf(s.opts.Out, "  Pushed: %s\n", remote)
		}
		result.File = remote
	default:
		s.opts.Logger.Warn("no lockup returned a period, nothing published")
	}

	if err := s.opts.Sink.PutVoteSnapshot(ctx, snap); err != nil {
		s.opts.Logger.Warn("mirror vote snapshot failed", zap.Error(err))
	}
	return result, nil
}

func periodText(p *int, fallback string) string {
	if p == nil {
		return fallback
	}
	return strconv.Itoa(*p)
}
