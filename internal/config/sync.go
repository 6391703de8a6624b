package config

import "time"

// SyncConfig tunes the synchronization engine.
type SyncConfig struct {
	// MaxConcurrentSessions caps simultaneous portal sessions per run
	MaxConcurrentSessions int `mapstructure:"max_concurrent_sessions"`
	// SupplierDir holds one YAML file per supplier
	SupplierDir     string         `mapstructure:"supplier_dir"`
	DefaultCurrency string         `mapstructure:"default_currency"`
	Timeouts        TimeoutsConfig `mapstructure:"timeouts"`
}

// TimeoutsConfig are applied independently to every supplier task.
type TimeoutsConfig struct {
	Connect        time.Duration `mapstructure:"connect"`
	Read           time.Duration `mapstructure:"read"`
	Write          time.Duration `mapstructure:"write"`
	TLSHandshake   time.Duration `mapstructure:"tls_handshake"`
	ResponseHeader time.Duration `mapstructure:"response_header"`
	// SupplierCeiling bounds a whole supplier task
	SupplierCeiling time.Duration `mapstructure:"supplier_ceiling"`
}

type StorageConfig struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	KeyPrefix string `mapstructure:"key_prefix"`
	// UsePathStyle is needed for S3-compatible endpoints such as MinIO
	UsePathStyle bool `mapstructure:"use_path_style"`
}
