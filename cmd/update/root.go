package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"foodsecurity-charts/internal/config"
	"foodsecurity-charts/internal/observability/logging"
	"foodsecurity-charts/internal/observability/metrics"
	pkgconfig "foodsecurity-charts/internal/pkg/config"
	"foodsecurity-charts/internal/usecase/chart"
)

// runFlags are shared by the root command and "run".
type runFlags struct {
	charts     []string
	configPath string
	outputDir  string
}

func newRootCmd() *cobra.Command {
	var flags runFlags

	runE := func(cmd *cobra.Command, _ []string) error {
		return runUpdate(cmd.Context(), flags)
	}

	root := &cobra.Command{
		Use:          "update",
		Short:        "Update the food-security chart data",
		SilenceUsage: true,
		RunE:         runE,
	}
	root.PersistentFlags().StringArrayVar(&flags.charts, "chart", nil, "chart to build (repeatable; default: catalogue or built-in set)")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML chart catalogue (overrides CHART_CONFIG)")
	root.PersistentFlags().StringVar(&flags.outputDir, "output-dir", "", "output directory (overrides OUTPUT_DIR)")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Build the selected charts (default command)",
			Args:  cobra.NoArgs,
			RunE:  runE,
		},
		newChartsCmd(),
	)
	return root
}

func newChartsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "charts",
		Short: "List the available charts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printCharts(cmd, chart.DefaultRegistry())
		},
	}
}

func printCharts(cmd *cobra.Command, registry *chart.Registry) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tDEFAULT\tDESCRIPTION")
	for _, def := range registry.All() {
		marker := ""
		if def.Default {
			marker = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Name, marker, def.Description)
	}
	return tw.Flush()
}

// runUpdate performs one pipeline run.
func runUpdate(parent context.Context, flags runFlags) error {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = logging.ContextWithRunID(ctx, uuid.NewString())
	logger := logging.WithRunID(ctx, logging.NewLogger())
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	cfg := config.LoadPipelineConfig(logger, pkgconfig.NewConfigMetrics("foodsec_pipeline", nil))
	applyFlags(cfg, flags)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		return err
	}
	logger.Info("pipeline configuration loaded",
		slog.String("output_dir", cfg.OutputDir),
		slog.String("raw_data_dir", cfg.RawDataDir),
		slog.String("chart_config", cfg.ChartCatalogPath),
		slog.Bool("publish", cfg.Publish.Enabled),
		slog.Bool("slack", cfg.Slack.Enabled))

	svc, err := setupService(ctx, cfg)
	if err != nil {
		logger.Error("failed to set up pipeline", slog.String("error", logging.SanitizeError(err)))
		return err
	}

	_, runErr := svc.Run(ctx, flags.charts)

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("failed to write metrics textfile",
				slog.String("path", cfg.MetricsTextfile),
				slog.Any("error", err))
		}
	}
	return runErr
}

// applyFlags lets command-line flags override environment settings.
func applyFlags(cfg *config.PipelineConfig, flags runFlags) {
	if flags.outputDir != "" {
		cfg.OutputDir = flags.outputDir
	}
	if flags.configPath != "" {
		cfg.ChartCatalogPath = flags.configPath
	}
}
