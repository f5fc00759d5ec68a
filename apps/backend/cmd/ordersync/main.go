package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"whitelabel/apps/backend/internal/bootstrap"
	"whitelabel/apps/backend/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ordersync",
		Short:         "Operate the blockchain order id reconciler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Int("batch-size", 0, "Orders per pass (overrides ORDER_SYNC_BATCH_SIZE)")
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	root.AddCommand(runCmd())
	root.AddCommand(onceCmd())
	root.AddCommand(forceCmd())
	root.AddCommand(statsCmd())
	return root
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reconciler in the foreground until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOrderSync(cmd, func(ctx context.Context, o *bootstrap.OrderSync, cfg *config.Config) error {
				interval, _ := cmd.Flags().GetInt("interval")
				if interval <= 0 {
					interval = cfg.OrderSyncInterval
				}

				o.Updater.Start(interval)
				<-ctx.Done()
				return nil
			})
		},
	}
	cmd.Flags().Int("interval", 0, "Seconds between passes (overrides ORDER_SYNC_INTERVAL_SECONDS)")
	return cmd
}

func onceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single reconciliation pass and print its result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOrderSync(cmd, func(ctx context.Context, o *bootstrap.OrderSync, _ *config.Config) error {
				return printJSON(cmd.OutOrStdout(), o.Updater.RunOnce(ctx))
			})
		},
	}
}

func forceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force",
		Short: "Run passes until the backlog stops shrinking and print the totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOrderSync(cmd, func(ctx context.Context, o *bootstrap.OrderSync, _ *config.Config) error {
				return printJSON(cmd.OutOrStdout(), o.Updater.ForceUpdateAll(ctx))
			})
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print order counts and the unresolved backlog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOrderSync(cmd, func(ctx context.Context, o *bootstrap.OrderSync, _ *config.Config) error {
				stats, err := o.Updater.GetStats(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
}

// withOrderSync loads configuration, wires the reconciler and runs fn with a
// context cancelled on SIGINT or SIGTERM.
func withOrderSync(cmd *cobra.Command, fn func(context.Context, *bootstrap.OrderSync, *config.Config) error) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	if batchSize, _ := cmd.Flags().GetInt("batch-size"); batchSize > 0 {
		cfg.OrderSyncBatchSize = batchSize
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// CLI metrics are not scraped
	o, err := bootstrap.NewOrderSync(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer o.Close()

	return fn(ctx, o, cfg)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if !verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
