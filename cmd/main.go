package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	app "github.com/okian/kpibonus/internal/app"
	"github.com/okian/kpibonus/internal/config"
	"github.com/okian/kpibonus/pkg/logger"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kpibonus",
		Short:         "KPI scoring and bonus engine",
		Long:          "Imports KPI workbooks, scores employees against weighted team KPIs and reports bonuses.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newExportCmd(), newSummaryCmd())
	return root
}

// setup loads configuration and initializes the global logger. Logs go to
// stderr so command output on stdout stays clean.
func setup(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
		return nil, nil, err
	}
	log := logger.Get()
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(cmd.Context(), "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, log, nil
}

// newService builds a service from cfg.
func newService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	seq, err := cfg.PeriodSequence()
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithLogger(log),
		app.WithPeriods(seq),
		app.WithDefaultStatus(cfg.DefaultStatus),
		app.WithNotesDSN(cfg.NotesDSN),
	), nil
}
