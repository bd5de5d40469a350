package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	root := &cobra.Command{
		Use:           "lpdata [daily|weekly|monthly|yearly]",
		Short:         "Liquidity pool snapshots and rollups",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPipeline,
	}

	root.PersistentFlags().String("config", "", "config file path")
	addSharedFlags(root.PersistentFlags())

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipelines on their cron schedules until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runSchedule,
	}
	scheduleCmd.Flags().String("cron-daily", "", "daily snapshot cron spec (with seconds)")
	scheduleCmd.Flags().String("cron-weekly", "", "weekly rollup cron spec")
	scheduleCmd.Flags().String("cron-monthly", "", "monthly rollup cron spec")
	scheduleCmd.Flags().String("cron-yearly", "", "yearly rollup cron spec")
	root.AddCommand(scheduleCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n%+v\n", err, err)
		os.Exit(1)
	}
}

func addSharedFlags(flags *pflag.FlagSet) {
	flags.String("data-dir", "", "data directory (git working tree)")
	flags.String("pools-api-url", "", "pools API URL")
	flags.String("pools-api-token", "", "pools API bearer token")
	flags.Duration("http-timeout", 0, "HTTP timeout (0 uses the default)")
	flags.String("timezone", "", "timezone for day slots and month boundaries (default local)")
	flags.String("github-repo", "", "target repository owner/name")
	flags.String("github-branch", "", "target branch")
	flags.String("pg-dsn", "", "optional Postgres DSN for mirroring rollups")
	flags.String("pushgateway-url", "", "optional Prometheus Pushgateway URL")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
