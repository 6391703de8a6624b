package config

import (
	"fmt"
	"time"

	"github.com/wekeepgrowing/billsync/pkg/config"
	"github.com/wekeepgrowing/billsync/pkg/logger"
)

const serviceName = "billsync"

type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      logger.Config  `mapstructure:"log"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Crypto   CryptoConfig   `mapstructure:"crypto"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	PDFText  PDFTextConfig  `mapstructure:"pdftext"`
}

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	ClientURL   string `mapstructure:"client_url"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type CryptoConfig struct {
	// EncryptionKey is 64 hex characters (AES-256)
	EncryptionKey string `mapstructure:"encryption_key"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Channel receives a copy of every progress event
	Channel string `mapstructure:"channel"`
}

type PDFTextConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"service.name":                   serviceName,
		"service.environment":            "dev",
		"server.http.host":               "0.0.0.0",
		"server.http.port":               8080,
		"server.http.shutdown_timeout":   15 * time.Second,
		"database.port":                  5432,
		"database.max_open_conns":        20,
		"database.max_idle_conns":        5,
		"database.conn_max_lifetime":     time.Hour,
		"database.conn_max_idle_time":    10 * time.Minute,
		"database.connect_timeout":       5 * time.Second,
		"database.host":                  "localhost",
		"database.name":                  "billsync",
		"database.user":                  "",
		"database.password":              "",
		"database.sslmode":               "disable",
		"jwt.secret":                     "",
		"crypto.encryption_key":          "",
		"log.level":                      "info",
		"log.format":                     "json",
		"log.output":                     "stdout",
		"sync.max_concurrent_sessions":   3,
		"sync.supplier_dir":              "configs/suppliers",
		"sync.default_currency":          "RON",
		"sync.timeouts.connect":          10 * time.Second,
		"sync.timeouts.read":             30 * time.Second,
		"sync.timeouts.write":            15 * time.Second,
		"sync.timeouts.tls_handshake":    10 * time.Second,
		"sync.timeouts.response_header":  30 * time.Second,
		"sync.timeouts.supplier_ceiling": 3 * time.Minute,
		"storage.bucket":                 "",
		"storage.region":                 "eu-central-1",
		"storage.key_prefix":             "bills",
		"redis.channel":                  "billsync:progress",
		"pdftext.timeout":                60 * time.Second,
	}
}

// LoadConfig reads the service configuration through viper.
func LoadConfig() (*Config, error) {
	loaded, err := config.Load(serviceName, defaults())
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := loaded.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Sync.MaxConcurrentSessions < 1 {
		return fmt.Errorf("sync.max_concurrent_sessions must be at least 1")
	}
	if c.Sync.SupplierDir == "" {
		return fmt.Errorf("sync.supplier_dir is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	return nil
}
