package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolSnapshot/internal/api"
	"poolSnapshot/internal/config"
	"poolSnapshot/internal/logging"
	"poolSnapshot/internal/metrics"
	"poolSnapshot/internal/pipeline"
	"poolSnapshot/internal/publish"
	"poolSnapshot/internal/scheduler"
	"poolSnapshot/internal/storage"
	"poolSnapshot/internal/storage/postgres"
)

// app holds the components shared by one-shot and scheduled runs.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	layout    storage.Layout
	runner    *pipeline.Runner
	publisher publish.Publisher
	metrics   *metrics.Metrics
	instance  string
	closers   []func()
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		layout:  storage.NewLayout(cfg.DataDir),
		metrics: metrics.New(),
	}
	a.instance, _ = os.Hostname()

	var sink storage.Sink = storage.NopSink{}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		sink = store
	}

	if cfg.GitHub.Token != "" {
		a.publisher = publish.NewGitPublisher(publish.GitConfig{
			Dir:       a.layout.Root,
			Token:     cfg.GitHub.Token,
			Repo:      cfg.GitHub.Repo,
			Branch:    cfg.GitHub.Branch,
			UserName:  cfg.GitHub.UserName,
			UserEmail: cfg.GitHub.UserEmail,
		}, publish.ExecRunner{}, logger)
	} else {
		a.publisher = publish.Noop{Logger: logger}
	}

	client := api.NewClient(api.ClientConfig{
		Timeout:     cfg.HTTPTimeout,
		BearerToken: cfg.PoolsAPIToken,
	}, logger)

	a.runner = pipeline.NewRunner(pipeline.Options{
		Layout:   a.layout,
		Fetcher:  api.NewPoolsClient(client, cfg.PoolsAPIURL, logger),
		Sink:     sink,
		Location: cfg.Location,
		Out:      os.Stdout,
		Logger:   logger,
	})
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

// execute runs one mode end to end under a fresh run id.
func (a *app) execute(ctx context.Context, mode pipeline.Mode) (pipeline.Result, error) {
	logger := a.logger.With(zap.String("run_id", uuid.NewString()), zap.String("mode", string(mode)))
	logger.Info("run start", zap.String("data_dir", a.layout.Root), zap.Bool("publish", a.cfg.GitHub.Token != ""))

	return pipeline.Execute(ctx, pipeline.JobOptions{
		Name:      string(mode),
		Publisher: a.publisher,
		Layout:    &a.layout,
		Metrics:   a.metrics,
		PushURL:   a.cfg.PushgatewayURL,
		Instance:  a.instance,
		Out:       os.Stdout,
		Logger:    logger,
	}, func(ctx context.Context) (pipeline.Result, error) {
		return a.runner.Run(ctx, mode)
	})
}

func runPipeline(cmd *cobra.Command, args []string) error {
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	mode, err := pipeline.ParseMode(arg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	pipeline.Banner(os.Stdout, mode, a.runner.Now())
	result, err := a.execute(ctx, mode)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\nComplete! Processed %d pools.\n", result.Pools)
	return nil
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	s := scheduler.NewScheduler(ctx, a.cfg.Location, a.logger)
	job := func(mode pipeline.Mode) scheduler.Job {
		return func(ctx context.Context) error {
			_, err := a.execute(ctx, mode)
			return err
		}
	}
	n, err := s.RegisterAll([]scheduler.Entry{
		{Name: string(pipeline.ModeDaily), Spec: a.cfg.Cron.Daily, Job: job(pipeline.ModeDaily)},
		{Name: string(pipeline.ModeWeekly), Spec: a.cfg.Cron.Weekly, Job: job(pipeline.ModeWeekly)},
		{Name: string(pipeline.ModeMonthly), Spec: a.cfg.Cron.Monthly, Job: job(pipeline.ModeMonthly)},
		{Name: string(pipeline.ModeYearly), Spec: a.cfg.Cron.Yearly, Job: job(pipeline.ModeYearly)},
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no cron specs configured")
	}

	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}
