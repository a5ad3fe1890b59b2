package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"payslipgen/internal/app/server"
	"payslipgen/internal/platform/config"
	"payslipgen/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if err := logger.Setup(logger.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stdout}); err != nil {
		log.Fatal().Err(err).Msg("logger setup failed")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}

	runErr := app.Run(ctx)
	app.Close()
	if runErr != nil {
		log.Error().Err(runErr).Msg("server stopped")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}
