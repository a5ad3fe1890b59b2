package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"payslipgen/internal/domain/payslip"
)

func newTemplateCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the CSV upload template with sample rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" || out == "-" {
				return payslip.WriteTemplate(cmd.OutOrStdout())
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create --out: %w", err)
			}
			if err := payslip.WriteTemplate(f); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().StringVar(&out, "out", "-", "Destination file, - for stdout")
	return cmd
}
