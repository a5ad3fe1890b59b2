package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"payslipgen/internal/app/bootstrap"
	"payslipgen/internal/platform/jobs"
)

type pruneOutput struct {
	Command    string        `json:"command"`
	DurationMS int64         `json:"duration_ms"`
	Results    []jobs.Result `json:"results"`
}

func newPruneCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Run the retention tasks once: close abandoned batches, prune old batches and audit events",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			results := components.Jobs.RunAll(cmd.Context())
			if err := writeJSON(cmd.OutOrStdout(), pruneOutput{
				Command:    "prune",
				DurationMS: time.Since(start).Milliseconds(),
				Results:    results,
			}); err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.Error != "" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d retention task(s) failed", failed)
			}
			return nil
		},
	}
}
