package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	app "github.com/okian/kpibonus/internal/app"
)

type exportOptions struct {
	input  string
	team   string
	period string
	status string
	output string
}

func newExportCmd() *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a team report CSV from a workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			svc, err := newService(cfg, log)
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), svc, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.input, "input", "", "workbook to import (.xlsx, .xlsm, .xls) (required)")
	cmd.Flags().StringVar(&opts.team, "team", "", "team to export (required)")
	cmd.Flags().StringVar(&opts.period, "period", "", "period label (default: current period)")
	cmd.Flags().StringVar(&opts.status, "status", "", "status filter: All, Great, Average, Needs attention")
	cmd.Flags().StringVar(&opts.output, "output", "", "output directory; stdout when empty")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}

// runExport imports opts.input and writes the team report. With an output
// directory the file takes the report's canonical name.
func runExport(ctx context.Context, svc *app.Service, opts exportOptions, stdout io.Writer) error {
	if err := importFile(ctx, svc, opts.input); err != nil {
		return err
	}
	defer svc.Stop()

	exp, err := svc.Export(ctx, opts.team, opts.period, opts.status)
	if err != nil {
		return err
	}
	if opts.output == "" {
		_, err = stdout.Write(exp.Data)
		return err
	}
	if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(opts.output, exp.FileName)
	if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	_, err = fmt.Fprintf(stdout, "wrote %d rows to %s\n", exp.Rows, path)
	return err
}

func newSummaryCmd() *cobra.Command {
	var input, period string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print per-team bonus summaries for a workbook as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			svc, err := newService(cfg, log)
			if err != nil {
				return err
			}
			return runSummary(cmd.Context(), svc, input, period, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "workbook to import (.xlsx, .xlsm, .xls) (required)")
	cmd.Flags().StringVar(&period, "period", "", "period label (default: current period)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runSummary(ctx context.Context, svc *app.Service, input, period string, stdout io.Writer) error {
	if err := importFile(ctx, svc, input); err != nil {
		return err
	}
	defer svc.Stop()

	all, err := svc.Overview(ctx, period)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(all)
}

// importFile starts svc and imports the workbook at path. The caller stops
// svc on success.
func importFile(ctx context.Context, svc *app.Service, path string) error {
	if err := svc.Start(ctx); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		svc.Stop()
		return fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := svc.Import(ctx, filepath.Base(path), f); err != nil {
		svc.Stop()
		return err
	}
	return nil
}
