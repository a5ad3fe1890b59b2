// Package bootstrap assembles the payslip pipeline from configuration. It is
// shared by the HTTP server and the command line tool.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"payslipgen/internal/domain/audit"
	"payslipgen/internal/domain/company"
	"payslipgen/internal/domain/employee"
	"payslipgen/internal/domain/payslip"
	"payslipgen/internal/platform/config"
	"payslipgen/internal/platform/crypto"
	"payslipgen/internal/platform/db"
	"payslipgen/internal/platform/jobs"
	"payslipgen/internal/platform/logger"
	"payslipgen/internal/platform/metrics"
	"payslipgen/internal/platform/storage"
	"payslipgen/internal/render"
)

type Components struct {
	DB           *pgxpool.Pool
	Redis        redis.UniversalClient
	Metrics      *metrics.Collector
	Audit        *audit.Service
	Uploads      *storage.Local
	Employees    *employee.Store
	Settings     company.StoreAPI
	Records      *payslip.Store
	Renderer     *render.Renderer
	Orchestrator *payslip.Orchestrator
	Service      *payslip.Service
	Jobs         *jobs.Service
}

// New connects to Postgres (and Redis when configured), optionally applies
// migrations and wires every pipeline component.
func New(ctx context.Context, cfg config.Config) (*Components, error) {
	log := logger.WithComponent("bootstrap")

	if cfg.RunMigrations {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		log.Info().Msg("migrations applied")
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, err
	}
	c := &Components{DB: pool}

	fieldCrypto, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("field encryption: %w", err)
	}
	if !fieldCrypto.Configured() {
		log.Warn().Msg("DATA_ENCRYPTION_KEY not set; bank account and PAN stored in plain text")
	}

	c.Uploads, err = storage.NewLocal(cfg.UploadDir)
	if err != nil {
		c.Close()
		return nil, err
	}

	if cfg.MetricsEnabled {
		c.Metrics = metrics.New()
	}

	c.Audit = audit.New(pool)
	c.Employees = employee.NewStore(pool, fieldCrypto)
	c.Records = payslip.NewStore(pool)
	c.Settings = company.NewStore(pool)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		c.Redis = redis.NewClient(opts)
		c.Settings = company.NewCachedStore(c.Settings, c.Redis, cfg.SettingsCacheTTL, logger.WithComponent("settings_cache"))
	}

	fonts, err := render.LoadFonts(cfg.PDFFontPath, cfg.PDFFontBoldPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("pdf fonts: %w", err)
	}
	c.Renderer = render.New(render.Options{
		MaxSessions: cfg.RenderMaxSessions,
		Assets:      c.Uploads,
		Fonts:       fonts,
		Metrics:     c.Metrics,
		Log:         logger.WithComponent("render"),
	})
	c.Orchestrator = NewOrchestrator(cfg, c.Employees, c.Settings, c.Renderer, c.Records, c.Metrics, logger.WithComponent("batch"))
	c.Service = payslip.NewService(c.Employees, c.Settings, c.Renderer, c.Records)

	c.Jobs = jobs.New(pool, cfg.RetentionInterval, logger.WithComponent("jobs"))
	c.Jobs.Register(jobs.RetentionTasks(jobs.Policy{
		StaleBatchAfter: cfg.StaleBatchAfter,
		BatchRetention:  cfg.BatchRetention,
		AuditRetention:  cfg.AuditRetention,
	}, c.Records, c.Audit, time.Now)...)
	return c, nil
}

// NewOrchestrator builds a batch orchestrator with the configured limits.
func NewOrchestrator(cfg config.Config, employees payslip.EmployeeStore, settings payslip.SettingsSource,
	renderer payslip.Renderer, records payslip.RecordStore, m *metrics.Collector, log zerolog.Logger) *payslip.Orchestrator {
	return payslip.NewOrchestrator(
		payslip.NewReconciler(employees, m),
		settings,
		renderer,
		records,
		m,
		log,
		payslip.Options{
			Workers:      cfg.BatchWorkers,
			BatchTimeout: cfg.BatchTimeout,
			RowTimeout:   cfg.RowRenderTimeout,
		},
	)
}

// Ready reports whether the database answers.
func (c *Components) Ready(ctx context.Context) error {
	return c.DB.Ping(ctx)
}

func (c *Components) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
