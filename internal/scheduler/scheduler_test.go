package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAllSkipsEmptySpecs(t *testing.T) {
	s := NewScheduler(context.Background(), time.UTC, nil)
	n, err := s.RegisterAll([]Entry{
		{Name: "daily", Spec: "0 5 0 * * *", Job: func(context.Context) error { return nil }},
		{Name: "weekly", Spec: "", Job: func(context.Context) error { return nil }},
		{Name: "monthly", Spec: "0 30 0 1 * *", Job: func(context.Context) error { return nil }},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, s.Cron.Entries(), 2)
}

func TestRegisterAllRejectsBadSpec(t *testing.T) {
	s := NewScheduler(context.Background(), nil, nil)
	_, err := s.RegisterAll([]Entry{{Name: "yearly", Spec: "every tuesday", Job: func(context.Context) error { return nil }}})
	assert.Error(t, err)
}

func TestRunSerialisesJobs(t *testing.T) {
	s := NewScheduler(context.Background(), nil, nil)

	var active, peak int32
	job := func(context.Context) error {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Run("daily", job)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestRunReturnsJobErrorAndHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(ctx, nil, nil)

	boom := errors.New("boom")
	assert.ErrorIs(t, s.Run("weekly", func(context.Context) error { return boom }), boom)

	cancel()
	called := false
	err := s.Run("weekly", func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
