package config

import (
	"time"

	"github.com/veilbot/veil/internal/quota"
)

// Config represents the main configuration structure
type Config struct {
	Scanner ScannerConfig `yaml:"scanner" mapstructure:"scanner"`
	Quota   QuotaConfig   `yaml:"quota" mapstructure:"quota"`
	Crypto  CryptoConfig  `yaml:"crypto" mapstructure:"crypto"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// ScannerConfig contains detection and masking configuration
type ScannerConfig struct {
	Enabled   bool     `yaml:"enabled" mapstructure:"enabled"`
	Detectors []string `yaml:"detectors" mapstructure:"detectors"`
	Entropy   struct {
		Enabled   bool    `yaml:"enabled" mapstructure:"enabled"`
		Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
	} `yaml:"entropy" mapstructure:"entropy"`
}

// QuotaConfig contains admission budget configuration. A blank Redis URL
// selects the in-process counter store.
type QuotaConfig struct {
	Enabled      bool              `yaml:"enabled" mapstructure:"enabled"`
	Redis        quota.RedisConfig `yaml:"redis" mapstructure:"redis"`
	Global       quota.ScopeConfig `yaml:"global" mapstructure:"global"`
	Actor        quota.ScopeConfig `yaml:"actor" mapstructure:"actor"`
	Destination  quota.ScopeConfig `yaml:"destination" mapstructure:"destination"`
	StoreTimeout time.Duration     `yaml:"store_timeout" mapstructure:"store_timeout"`
}

// CryptoConfig contains the reversible-redaction key. Supply it via the
// VEIL_CRYPTO_KEY environment variable rather than the config file.
type CryptoConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
		Path     string `yaml:"path" mapstructure:"path"`
		MaxSize  int    `yaml:"max_size" mapstructure:"max_size"`
		MaxAge   int    `yaml:"max_age" mapstructure:"max_age"`
		Compress bool   `yaml:"compress" mapstructure:"compress"`
	} `yaml:"file" mapstructure:"file"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Scanner: ScannerConfig{
			Enabled:   true,
			Detectors: []string{"all"},
		},
		Quota: QuotaConfig{
			Enabled:      true,
			Global:       quota.ScopeConfig{Points: 20, Window: time.Second},
			Actor:        quota.ScopeConfig{Points: 5, Window: time.Second},
			Destination:  quota.ScopeConfig{Points: 10, Window: time.Second},
			StoreTimeout: 150 * time.Millisecond,
			Redis: quota.RedisConfig{
				KeyPrefix:      "veil:quota",
				MaxConnections: 10,
				MinIdleConns:   2,
				DialTimeout:    5 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	cfg.Scanner.Entropy.Enabled = true
	cfg.Scanner.Entropy.Threshold = 4.5

	cfg.Logging.File.Path = "logs/veil.log"
	cfg.Logging.File.MaxSize = 100 // MB
	cfg.Logging.File.MaxAge = 30   // days
	cfg.Logging.File.Compress = true

	return cfg
}
