package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"payslipgen/internal/app/bootstrap"
	"payslipgen/internal/domain/payslip"
	"payslipgen/internal/platform/tabular"
)

type generateOutput struct {
	Command      string             `json:"command"`
	DurationMS   int64              `json:"duration_ms"`
	BatchID      string             `json:"batch_id"`
	Output       string             `json:"output"`
	SuccessCount int                `json:"success_count"`
	ErrorCount   int                `json:"error_count"`
	Errors       []payslip.RowError `json:"errors,omitempty"`
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	var (
		input  string
		out    string
		format string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a ZIP of payslips from a CSV or XLSX sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read --input: %w", err)
			}
			parsed, err := tabular.Parse(data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", input, err)
			}
			rows := make([]payslip.RawRow, len(parsed))
			for i, row := range parsed {
				rows[i] = payslip.FromText(row)
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			components, err := bootstrap.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer components.Close()

			start := time.Now()
			result, err := components.Orchestrator.Run(cmd.Context(), payslip.BatchRequest{Rows: rows, Format: payslip.PageFormat(format)})
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, result.Archive, 0o644); err != nil {
				return fmt.Errorf("write --out: %w", err)
			}

			if err := writeJSON(cmd.OutOrStdout(), generateOutput{
				Command:      "generate",
				DurationMS:   time.Since(start).Milliseconds(),
				BatchID:      result.Run.ID,
				Output:       out,
				SuccessCount: result.SuccessCount(),
				ErrorCount:   result.ErrorCount(),
				Errors:       result.Errors,
			}); err != nil {
				return err
			}
			if strict && result.ErrorCount() > 0 {
				return fmt.Errorf("%d of %d rows failed", result.ErrorCount(), result.Run.TotalRows)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "CSV or XLSX payroll sheet (required)")
	cmd.Flags().StringVar(&out, "out", "payslips.zip", "Path of the ZIP archive to write")
	cmd.Flags().StringVar(&format, "format", string(payslip.FormatA4), "Page format: A4 or Letter")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when any row fails")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
