package config

import (
	"strings"
	"testing"

	"github.com/veilbot/veil/internal/detect"
)

const testKey = "0123456789abcdef0123456789abcdef"

func validConfig() *Config {
	cfg := GetDefaults()
	cfg.Crypto.Key = testKey
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		if err := Validate(validConfig()); err != nil {
			t.Errorf("Default config with a key should validate: %v", err)
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		cfg := validConfig()
		cfg.Crypto.Key = ""
		if err := Validate(cfg); err == nil {
			t.Error("Missing crypto key must fail validation")
		}
	})

	t.Run("KeyOneCharShort", func(t *testing.T) {
		cfg := validConfig()
		cfg.Crypto.Key = strings.Repeat("k", 31)
		if err := Validate(cfg); err == nil {
			t.Error("31-char crypto key must fail validation")
		}
	})

	t.Run("UnknownDetector", func(t *testing.T) {
		cfg := validConfig()
		cfg.Scanner.Detectors = []string{"card", "does-not-exist"}
		if err := Validate(cfg); err == nil {
			t.Error("Unknown detector must fail validation")
		}
	})

	t.Run("DetectorsByRuleNameOrType", func(t *testing.T) {
		cfg := validConfig()
		cfg.Scanner.Detectors = []string{"payment_card", "email", "all"}
		if err := Validate(cfg); err != nil {
			t.Errorf("Rule names and type tags are both valid: %v", err)
		}
	})

	t.Run("BadLogLevel", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Level = "verbose"
		if err := Validate(cfg); err == nil {
			t.Error("Bad log level must fail validation")
		}
	})

	t.Run("BadLogFormat", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Format = "xml"
		if err := Validate(cfg); err == nil {
			t.Error("Bad log format must fail validation")
		}
	})

	t.Run("NegativeEntropyThreshold", func(t *testing.T) {
		cfg := validConfig()
		cfg.Scanner.Entropy.Threshold = -1
		if err := Validate(cfg); err == nil {
			t.Error("Negative entropy threshold must fail validation")
		}
	})
}

func TestEnabledTypes(t *testing.T) {
	t.Run("AllMeansEverything", func(t *testing.T) {
		sc := ScannerConfig{Detectors: []string{"all"}}
		if got := sc.EnabledTypes(); got != nil {
			t.Errorf("\"all\" should resolve to nil (no filter), got %v", got)
		}
	})

	t.Run("EmptyMeansEverything", func(t *testing.T) {
		sc := ScannerConfig{}
		if got := sc.EnabledTypes(); got != nil {
			t.Errorf("Empty detectors should resolve to nil, got %v", got)
		}
	})

	t.Run("TypeTags", func(t *testing.T) {
		sc := ScannerConfig{Detectors: []string{"card", "email"}}
		got := sc.EnabledTypes()
		if len(got) != 2 || got[0] != detect.TypeCard || got[1] != detect.TypeEmail {
			t.Errorf("EnabledTypes = %v", got)
		}
	})

	t.Run("RuleNamesResolveToTypes", func(t *testing.T) {
		sc := ScannerConfig{Detectors: []string{"payment_card", "us_ssn"}}
		got := sc.EnabledTypes()
		if len(got) != 2 || got[0] != detect.TypeCard || got[1] != detect.TypeNationalID {
			t.Errorf("EnabledTypes = %v", got)
		}
	})

	t.Run("DuplicatesCollapsed", func(t *testing.T) {
		sc := ScannerConfig{Detectors: []string{"card", "payment_card"}}
		got := sc.EnabledTypes()
		if len(got) != 1 || got[0] != detect.TypeCard {
			t.Errorf("EnabledTypes = %v", got)
		}
	})
}
