package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"NewsroomStats/internal/app"
	"NewsroomStats/internal/config"
	"NewsroomStats/internal/logging"
)

var (
	flagConfig string
	flagWatch  bool
	reportOpts app.ReportOptions
)

var rootCmd = &cobra.Command{
	Use:           "newsroomstats",
	Short:         "Weekly and monthly article view statistics by department and reporter",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard and JSON API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApplication(cmd.Context(), func(ctx context.Context, a *app.Application) error {
			return a.Serve(ctx)
		})
	},
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Snapshot the view counters of recent articles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApplication(cmd.Context(), func(ctx context.Context, a *app.Application) error {
			return a.Collect(ctx, flagWatch)
		})
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print one ranking table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApplication(cmd.Context(), func(ctx context.Context, a *app.Application) error {
			return a.Report(ctx, reportOpts, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")

	collectCmd.Flags().BoolVar(&flagWatch, "watch", false, "keep collecting on the scheduler interval")

	reportCmd.Flags().StringVar(&reportOpts.Granularity, "granularity", "week", "week or month")
	reportCmd.Flags().StringVar(&reportOpts.GroupBy, "by", "department", "department or reporter")
	reportCmd.Flags().StringVar(&reportOpts.Period, "period", "", "period key (YYYY-MM-DD); latest when empty")
	reportCmd.Flags().StringVar(&reportOpts.Department, "department", "", "limit rows to one department")
	reportCmd.Flags().StringVar(&reportOpts.Sort, "sort", "totalViews", "sort column")
	reportCmd.Flags().StringVar(&reportOpts.Direction, "dir", "desc", "asc or desc")
	reportCmd.Flags().StringVar(&reportOpts.Format, "format", "table", "table or csv")
	reportCmd.Flags().BoolVar(&reportOpts.Notify, "notify", false, "also send the weekly digest to Telegram")

	rootCmd.AddCommand(serveCmd, collectCmd, reportCmd)
}

var logger = logging.New("info")

func withApplication(ctx context.Context, run func(context.Context, *app.Application) error) error {
	cfg := config.Load(flagConfig)
	logger = logging.New(cfg.Logging.Level)

	application := app.New(cfg, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := application.Close(closeCtx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}()

	return run(ctx, application)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		stop()
		os.Exit(1)
	}
}
