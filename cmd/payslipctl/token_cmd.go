package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"payslipgen/internal/platform/auth"
	"payslipgen/internal/platform/config"
)

func newTokenCmd(root *rootOptions) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API (signed with JWT_SECRET)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.envFiles...)
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := auth.GenerateToken(cfg.JWTSecret, subject, role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Token subject, e.g. the operator name (required)")
	cmd.Flags().StringVar(&role, "role", "operator", "Role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
