package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/veilbot/veil/internal/cipher"
	"github.com/veilbot/veil/internal/detect"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Set defaults
	config := GetDefaults()

	// Configure viper
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/veil/")
	viper.AddConfigPath("$HOME/.veil/")

	// Environment variable overrides
	viper.SetEnvPrefix("VEIL")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Use specific config file if provided
	if configPath != "" {
		viper.SetConfigFile(configPath)
	}

	// Read configuration
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found is not an error - we'll use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks the loaded configuration. A short encryption key is a
// fatal configuration error: it must stop startup, not surface later.
func Validate(config *Config) error {
	if len(config.Crypto.Key) < cipher.MinKeyLength {
		return fmt.Errorf("crypto key must be at least %d characters (set VEIL_CRYPTO_KEY)", cipher.MinKeyLength)
	}

	if err := validateDetectors(config.Scanner.Detectors); err != nil {
		return err
	}

	if config.Scanner.Entropy.Threshold < 0 {
		return fmt.Errorf("invalid entropy threshold: %f", config.Scanner.Entropy.Threshold)
	}

	for name, scope := range map[string]struct {
		points int
	}{
		"global":      {config.Quota.Global.Points},
		"actor":       {config.Quota.Actor.Points},
		"destination": {config.Quota.Destination.Points},
	} {
		if scope.points < 0 {
			return fmt.Errorf("invalid %s quota budget: %d", name, scope.points)
		}
	}

	if config.Logging.Level != "debug" && config.Logging.Level != "info" && config.Logging.Level != "warn" && config.Logging.Level != "error" {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.Logging.Level)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", config.Logging.Format)
	}

	return nil
}

// validateDetectors rejects names that match neither "all" nor a registry
// rule name nor a rule type.
func validateDetectors(detectors []string) error {
	rules := detect.DefaultRules()

	known := make(map[string]bool, 2*len(rules)+1)
	known["all"] = true
	for _, rule := range rules {
		known[rule.Name] = true
		known[string(rule.Type)] = true
	}

	for _, name := range detectors {
		if !known[name] {
			return fmt.Errorf("unknown detector: %s", name)
		}
	}

	return nil
}

// EnabledTypes resolves the configured detector names into rule types. The
// special value "all" (or an empty list) enables every type.
func (sc ScannerConfig) EnabledTypes() []detect.RuleType {
	if len(sc.Detectors) == 0 {
		return nil
	}

	rules := detect.DefaultRules()
	byName := make(map[string]detect.RuleType, len(rules))
	valid := make(map[detect.RuleType]bool, len(rules))
	for _, rule := range rules {
		byName[rule.Name] = rule.Type
		valid[rule.Type] = true
	}

	seen := make(map[detect.RuleType]bool)
	var types []detect.RuleType
	for _, name := range sc.Detectors {
		if name == "all" {
			return nil
		}
		t, ok := byName[name]
		if !ok {
			if !valid[detect.RuleType(name)] {
				continue
			}
			t = detect.RuleType(name)
		}
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	return types
}

// Watch starts watching the configuration file for changes
func Watch(config *Config, callback func(*Config)) error {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := &Config{}
		if err := viper.Unmarshal(newConfig); err != nil {
			// Log error but don't crash
			return
		}

		if err := Validate(newConfig); err != nil {
			// Log error but don't crash
			return
		}

		callback(newConfig)
	})

	return nil
}
