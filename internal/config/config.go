// Package config loads service configuration from the environment with
// flag overrides. Environment values win only when the flag is left at
// its default, matching twelve-factor deployments and local dev runs.
package config

import (
	"flag"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds all server settings.
type Config struct {
	Addr        string `env:"ADDR"`
	DatabaseDSN string `env:"DATABASE_DSN"`
	BaseURL     string `env:"BASE_URL"` // public base for emailed reference links

	AuthSecret string        `env:"AUTH_SECRET"`
	AccessTTL  time.Duration `env:"ACCESS_TTL"`

	// Seed admin, created at startup when absent.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// Contract vault.
	VaultKeyHex string        `env:"VAULT_KEY"` // hex-encoded 32-byte key, required
	UploadDir   string        `env:"UPLOAD_DIR"`
	LockedTTL   time.Duration `env:"CONTRACT_LOCKED_TTL"`
	RejectedTTL time.Duration `env:"CONTRACT_REJECTED_TTL"`

	// Outbound SMTP.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPStartTLS bool   `env:"SMTP_STARTTLS"`
}

// New loads configuration: .env file, then environment, then flags.
func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	flag.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "PostgreSQL DSN")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "public base URL for reference links")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "HS256 signing key (required)")
	flag.DurationVar(&cfg.AccessTTL, "access-ttl", cfg.AccessTTL, "access token TTL")
	flag.StringVar(&cfg.UploadDir, "upload-dir", cfg.UploadDir, "directory for encrypted contract blobs")
	flag.DurationVar(&cfg.LockedTTL, "locked-ttl", cfg.LockedTTL, "retention for never-consented contracts")
	flag.DurationVar(&cfg.RejectedTTL, "rejected-ttl", cfg.RejectedTTL, "retention for rejected contracts")
	flag.Parse()

	// Defaults
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads/contracts"
	}
	if cfg.LockedTTL <= 0 {
		cfg.LockedTTL = 30 * 24 * time.Hour
	}
	if cfg.RejectedTTL <= 0 {
		cfg.RejectedTTL = 30 * 24 * time.Hour
	}
	return cfg
}
