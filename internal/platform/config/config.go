package config

import (
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string        `env:"APP_ADDR" envDefault:":8080"`
	Environment       string        `env:"APP_ENV" envDefault:"development"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	DBMaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	RunMigrations     bool          `env:"RUN_MIGRATIONS" envDefault:"true"`
	JWTSecret         string        `env:"JWT_SECRET"`
	DataEncryptionKey string        `env:"DATA_ENCRYPTION_KEY"`
	RedisURL          string        `env:"REDIS_URL"`
	SettingsCacheTTL  time.Duration `env:"SETTINGS_CACHE_TTL" envDefault:"5m"`
	UploadDir         string        `env:"UPLOAD_DIR" envDefault:"uploads"`
	MaxBodyBytes      int64         `env:"MAX_BODY_BYTES" envDefault:"8388608"`
	MaxUploadBytes    int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	BatchWorkers      int           `env:"BATCH_WORKERS" envDefault:"1"`
	BatchTimeout      time.Duration `env:"BATCH_TIMEOUT" envDefault:"10m"`
	RowRenderTimeout  time.Duration `env:"ROW_RENDER_TIMEOUT" envDefault:"30s"`
	RenderMaxSessions int64         `env:"RENDER_MAX_SESSIONS" envDefault:"4"`
	RenderRateLimit   int           `env:"RENDER_RATE_LIMIT" envDefault:"30"`
	PDFFontPath       string        `env:"PDF_FONT_PATH"`
	PDFFontBoldPath   string        `env:"PDF_FONT_BOLD_PATH"`
	TrustedProxies    []string      `env:"TRUSTED_PROXIES"`
	RetentionInterval time.Duration `env:"RETENTION_INTERVAL" envDefault:"24h"`
	StaleBatchAfter   time.Duration `env:"STALE_BATCH_AFTER" envDefault:"1h"`
	BatchRetention    time.Duration `env:"BATCH_RETENTION" envDefault:"2160h"`
	AuditRetention    time.Duration `env:"AUDIT_RETENTION" envDefault:"8760h"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat         string        `env:"LOG_FORMAT" envDefault:"json"`
	MetricsEnabled    bool          `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load reads .env files that exist in the working directory and then parses the environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", ".env.local"}
	}
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return Config{}, fmt.Errorf("load env files: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.MaxUploadBytes < 1024 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be at least 1024")
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1")
	}
	if c.RenderMaxSessions < 1 {
		return fmt.Errorf("RENDER_MAX_SESSIONS must be at least 1")
	}
	if c.BatchTimeout <= 0 || c.RowRenderTimeout <= 0 {
		return fmt.Errorf("BATCH_TIMEOUT and ROW_RENDER_TIMEOUT must be positive")
	}
	if c.RowRenderTimeout > c.BatchTimeout {
		return fmt.Errorf("ROW_RENDER_TIMEOUT must not exceed BATCH_TIMEOUT")
	}
	if c.RetentionInterval < 0 || c.BatchRetention < 0 || c.AuditRetention < 0 || c.StaleBatchAfter < 0 {
		return fmt.Errorf("retention durations must not be negative")
	}
	if c.StaleBatchAfter > 0 && c.StaleBatchAfter <= c.BatchTimeout {
		return fmt.Errorf("STALE_BATCH_AFTER must exceed BATCH_TIMEOUT")
	}
	for _, entry := range c.TrustedProxies {
		if _, err := netip.ParsePrefix(entry); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(entry); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES entry %q is not an address or CIDR", entry)
		}
	}
	return nil
}
