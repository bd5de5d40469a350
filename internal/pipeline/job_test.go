package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolSnapshot/internal/metrics"
	"poolSnapshot/internal/publish"
	"poolSnapshot/internal/storage"
)

type fakePublisher struct {
	prepared   int
	messages   []string
	prepareErr error
	publishErr error
}

func (f *fakePublisher) Prepare(ctx context.Context) error {
	f.prepared++
	return f.prepareErr
}

func (f *fakePublisher) Publish(ctx context.Context, message string) error {
	f.messages = append(f.messages, message)
	return f.publishErr
}

func okRun(ctx context.Context) (Result, error) {
	return Result{Mode: ModeWeekly, Pools: 4, File: "2025-epoch-115.csv"}, nil
}

func TestExecutePublishesWithCommitMessage(t *testing.T) {
	pub := &fakePublisher{}
	m := metrics.New()
	layout := storage.NewLayout(t.TempDir())

	res, err := Execute(context.Background(), JobOptions{Name: "weekly", Publisher: pub, Layout: &layout, Metrics: m}, okRun)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Pools)
	assert.Equal(t, 1, pub.prepared)
	assert.Equal(t, []string{"weekly snapshot: 2025-epoch-115.csv"}, pub.messages)
	stat, err := os.Stat(layout.WeeklyDir())
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("weekly", "success")))
}

func TestExecuteTreatsPublishFailuresAsNonFatal(t *testing.T) {
	for name, publishErr := range map[string]error{
		"nothing to commit": publish.ErrNothingToCommit,
		"push rejected":     errors.New("git push --force: exit 128"),
	} {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			pub := &fakePublisher{prepareErr: errors.New("fetch failed"), publishErr: publishErr}
			_, err := Execute(context.Background(), JobOptions{Name: "weekly", Publisher: pub, Out: &out}, okRun)
			assert.NoError(t, err)
			assert.Len(t, pub.messages, 1)
		})
	}
}

func TestExecuteRunFailureSkipsPublish(t *testing.T) {
	pub := &fakePublisher{}
	m := metrics.New()
	boom := errors.New("invalid response")

	_, err := Execute(context.Background(), JobOptions{Name: "daily", Publisher: pub, Metrics: m}, func(ctx context.Context) (Result, error) {
		return Result{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, pub.messages)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("daily", "error")))
}
