package main

import (
	"errors"

	"github.com/spf13/cobra"

	"payslipgen/internal/platform/config"
	"payslipgen/internal/platform/db"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	var databaseURL string

	resolveURL := func() (string, error) {
		if databaseURL != "" {
			return databaseURL, nil
		}
		cfg, err := config.Load(root.envFiles...)
		if err != nil {
			return "", err
		}
		if cfg.DatabaseURL == "" {
			return "", errors.New("DATABASE_URL or --database-url is required")
		}
		return cfg.DatabaseURL, nil
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres URL (defaults to DATABASE_URL)")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolveURL()
			if err != nil {
				return err
			}
			return db.Migrate(url)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return errors.New("--steps must be at least 1")
			}
			url, err := resolveURL()
			if err != nil {
				return err
			}
			return db.MigrateDown(url, steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}
