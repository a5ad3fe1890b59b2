package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"payslipgen/internal/platform/config"
	"payslipgen/internal/platform/logger"
)

type rootOptions struct {
	envFiles []string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "payslipctl",
		Short:        "Payslip generation tools",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Setup(logger.LogConfig{Level: opts.logLevel, Format: "console", Output: cmd.ErrOrStderr()})
		},
	}
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "Env files to load before reading the environment (default .env, .env.local)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	cmd.AddCommand(newGenerateCmd(opts))
	cmd.AddCommand(newTemplateCmd())
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))
	cmd.AddCommand(newPruneCmd(opts))
	return cmd
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.envFiles...)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
