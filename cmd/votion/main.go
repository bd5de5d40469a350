package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolSnapshot/internal/api"
	"poolSnapshot/internal/config"
	"poolSnapshot/internal/logging"
	"poolSnapshot/internal/metrics"
	"poolSnapshot/internal/pipeline"
	"poolSnapshot/internal/publish"
	"poolSnapshot/internal/storage"
	"poolSnapshot/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:           "votion",
		Short:         "Capture a vote-optimization snapshot for every lockup bucket",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runVotion,
	}

	root.Flags().String("config", "", "config file path")
	root.Flags().String("data-dir", "", "directory for local snapshots")
	root.Flags().String("votion-api-base", "", "vote optimization API base URL")
	root.Flags().Duration("http-timeout", 0, "HTTP timeout (0 uses the default)")
	root.Flags().Duration("request-interval", 0, "minimum interval between bucket requests")
	root.Flags().String("github-repo", "", "target repository owner/name")
	root.Flags().String("github-branch", "", "target branch")
	root.Flags().String("pg-dsn", "", "optional Postgres DSN for mirroring snapshots")
	root.Flags().String("pushgateway-url", "", "optional Prometheus Pushgateway URL")
	root.Flags().String("log-level", "", "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Snapshot failed: %v\n%+v\n", err, err)
		os.Exit(1)
	}
}

func runVotion(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadVotion(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink storage.Sink = storage.NopSink{}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		sink = store
	}

	var publisher publish.FilePublisher
	if cfg.GitHub.Token != "" {
		contents, err := publish.NewContentsPublisher(publish.ContentsConfig{
			APIURL:  cfg.GitHub.APIURL,
			Token:   cfg.GitHub.Token,
			Repo:    cfg.GitHub.Repo,
			Branch:  cfg.GitHub.Branch,
			Timeout: cfg.HTTPTimeout,
		}, logger)
		if err != nil {
			return err
		}
		publisher = contents
	} else {
		logger.Warn("GITHUB_TOKEN not set, snapshot will be saved locally")
	}

	client := api.NewClient(api.ClientConfig{
		Timeout:         cfg.HTTPTimeout,
		RequestInterval: cfg.RequestInterval,
	}, logger)

	m := metrics.New()
	snapshotter := pipeline.NewVoteSnapshotter(pipeline.VoteOptions{
		Fetcher:   api.NewVotionClient(client, cfg.APIBase, logger),
		Lockups:   cfg.Lockups,
		Publisher: publisher,
		Layout:    storage.NewLayout(cfg.DataDir),
		Sink:      sink,
		Metrics:   m,
		Out:       os.Stdout,
		Logger:    logger,
	})

	instance, _ := os.Hostname()
	logger.Info("votion start", zap.String("api_base", cfg.APIBase), zap.Int("lockups", len(cfg.Lockups)))
	if _, err := pipeline.Execute(ctx, pipeline.JobOptions{
		Name:     string(pipeline.ModeVotion),
		Metrics:  m,
		PushURL:  cfg.PushgatewayURL,
		Instance: instance,
		Out:      os.Stdout,
		Logger:   logger,
	}, snapshotter.Run); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "\nSnapshot complete!")
	return nil
}
