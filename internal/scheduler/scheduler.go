package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job runs one pipeline to completion.
type Job func(ctx context.Context) error

// Entry binds a job to a six-field cron spec. An empty spec disables the job.
type Entry struct {
	Name string
	Spec string
	Job  Job
}

// Scheduler fires pipeline jobs on cron specs, one at a time.
type Scheduler struct {
	Cron   *cron.Cron
	ctx    context.Context
	logger *zap.Logger
	mu     sync.Mutex
}

func NewScheduler(ctx context.Context, loc *time.Location, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []cron.Option{cron.WithSeconds()}
	if loc != nil {
		opts = append(opts, cron.WithLocation(loc))
	}
	return &Scheduler{
		Cron:   cron.New(opts...),
		ctx:    ctx,
		logger: logger,
	}
}

// RegisterAll adds every entry with a non-empty spec.
func (s *Scheduler) RegisterAll(entries []Entry) (int, error) {
	var registered int
	for _, e := range entries {
		if e.Spec == "" {
			s.logger.Info("job disabled", zap.String("job", e.Name))
			continue
		}
		entry := e
		if _, err := s.Cron.AddFunc(entry.Spec, func() { s.Run(entry.Name, entry.Job) }); err != nil {
			return registered, fmt.Errorf("register %s task: %w", entry.Name, err)
		}
		s.logger.Info("job registered", zap.String("job", entry.Name), zap.String("spec", entry.Spec))
		registered++
	}
	return registered, nil
}

// Run executes job under the scheduler lock so runs never overlap.
func (s *Scheduler) Run(name string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("running task", zap.String("job", name))
	if err := job(s.ctx); err != nil {
		s.logger.Error("task failed", zap.String("job", name), zap.Error(err))
		return err
	}
	return nil
}

func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the cron and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
