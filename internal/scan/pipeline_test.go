package scan

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/veilbot/veil/internal/config"
	"github.com/veilbot/veil/internal/detect"
	"github.com/veilbot/veil/internal/logger"
	"github.com/veilbot/veil/internal/quota"
)

const testKey = "0123456789abcdef0123456789abcdef"

func testConfig() *config.Config {
	cfg := config.GetDefaults()
	cfg.Crypto.Key = testKey
	cfg.Quota.Enabled = false
	return cfg
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "json"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return log
}

func TestPipelineScan(t *testing.T) {
	ctx := context.Background()

	t.Run("ShortKeyFailsConstruction", func(t *testing.T) {
		cfg := testConfig()
		cfg.Crypto.Key = "short"
		if _, err := New(cfg, nil, testLogger(t)); err == nil {
			t.Fatal("Short key must fail pipeline construction")
		}
	})

	t.Run("CardAndEmailEndToEnd", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scanner.Detectors = []string{"card", "email"}
		cfg.Scanner.Entropy.Enabled = false

		p, err := New(cfg, nil, testLogger(t))
		if err != nil {
			t.Fatalf("Failed to create pipeline: %v", err)
		}

		result, err := p.Scan(ctx, Request{
			Text:          "My card is 4532015112830366 and email me at a@b.com",
			ActorID:       "u1",
			DestinationID: "c1",
		})
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}

		if !result.Allowed {
			t.Fatal("Scan should be admitted")
		}
		if len(result.Matches) != 2 {
			t.Fatalf("Expected 2 matches, got %d", len(result.Matches))
		}
		if !strings.Contains(result.Redacted, "****0366") {
			t.Errorf("Redacted should reveal only the last 4 card digits: %q", result.Redacted)
		}
		if !strings.Contains(result.Redacted, "a***@b.com") {
			t.Errorf("Redacted should reveal only the email's first char and domain: %q", result.Redacted)
		}

		restored, err := p.Restore(result.Redacted, result.Mapping)
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if restored != "My card is 4532015112830366 and email me at a@b.com" {
			t.Errorf("Restore mismatch: %q", restored)
		}
	})

	t.Run("EntropyPass", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scanner.Detectors = []string{"card"}
		cfg.Scanner.Entropy.Enabled = true
		cfg.Scanner.Entropy.Threshold = 4.5

		p, err := New(cfg, nil, testLogger(t))
		if err != nil {
			t.Fatalf("Failed to create pipeline: %v", err)
		}

		result, err := p.Scan(ctx, Request{Text: "deploy q7Zp2Lx9Rt4Vw8Yb3Nc6Km1Jh5Gf0D now", ActorID: "u1", DestinationID: "c1"})
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}

		found := false
		for _, m := range result.Matches {
			if m.Type == detect.TypeHighEntropy {
				found = true
			}
		}
		if !found {
			t.Error("High-entropy token should be reported")
		}
	})

	t.Run("PerRequestOverrides", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scanner.Detectors = []string{"all"}
		cfg.Scanner.Entropy.Enabled = true

		p, err := New(cfg, nil, testLogger(t))
		if err != nil {
			t.Fatalf("Failed to create pipeline: %v", err)
		}

		entropyOff := false
		result, err := p.Scan(ctx, Request{
			Text:          "mail a@b.com token q7Zp2Lx9Rt4Vw8Yb3Nc6Km1Jh5Gf0D",
			ActorID:       "u1",
			DestinationID: "c1",
			Options: &Options{
				Types:   []detect.RuleType{detect.TypeEmail},
				Entropy: &entropyOff,
			},
		})
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if len(result.Matches) != 1 || result.Matches[0].Type != detect.TypeEmail {
			t.Errorf("Overrides should restrict detection to email, got %+v", result.Matches)
		}
	})

	t.Run("ThrottledSkipsDetection", func(t *testing.T) {
		cfg := testConfig()
		cfg.Quota.Enabled = true
		cfg.Quota.Global = quota.ScopeConfig{Points: 1, Window: time.Minute}

		p, err := New(cfg, quota.NewLocalStore(), testLogger(t))
		if err != nil {
			t.Fatalf("Failed to create pipeline: %v", err)
		}

		if _, err := p.Scan(ctx, Request{Text: "a@b.com", ActorID: "u1", DestinationID: "c1"}); err != nil {
			t.Fatalf("First scan failed: %v", err)
		}

		result, err := p.Scan(ctx, Request{Text: "a@b.com", ActorID: "u1", DestinationID: "c1"})
		if err != nil {
			t.Fatalf("Second scan failed: %v", err)
		}
		if result.Allowed {
			t.Fatal("Second scan should be throttled")
		}
		if result.Scope != quota.ScopeGlobal {
			t.Errorf("Rejecting scope should be global, got %s", result.Scope)
		}
		if result.RetryAfter <= 0 {
			t.Error("Throttled result should carry a retry hint")
		}
		if len(result.Matches) != 0 || result.Redacted != "" {
			t.Error("Throttled scans must not run detection")
		}
	})

	t.Run("ScannerDisabledPassesThrough", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scanner.Enabled = false

		p, err := New(cfg, nil, testLogger(t))
		if err != nil {
			t.Fatalf("Failed to create pipeline: %v", err)
		}

		result, err := p.Scan(ctx, Request{Text: "card 4532015112830366", ActorID: "u1", DestinationID: "c1"})
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if result.Redacted != "card 4532015112830366" || len(result.Matches) != 0 {
			t.Errorf("Disabled scanner should pass text through, got %+v", result)
		}
	})

	t.Run("Reconfigure", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scanner.Detectors = []string{"email"}
		cfg.Scanner.Entropy.Enabled = false

		p, err := New(cfg, nil, testLogger(t))
		if err != nil {
			t.Fatalf("Failed to create pipeline: %v", err)
		}

		text := "card 4532015112830366 mail a@b.com"
		result, _ := p.Scan(ctx, Request{Text: text, ActorID: "u1", DestinationID: "c1"})
		if len(result.Matches) != 1 {
			t.Fatalf("Expected only the email before reconfigure, got %d", len(result.Matches))
		}

		updated := testConfig()
		updated.Scanner.Detectors = []string{"card", "email"}
		updated.Scanner.Entropy.Enabled = false
		p.Reconfigure(updated)

		result, _ = p.Scan(ctx, Request{Text: text, ActorID: "u1", DestinationID: "c1"})
		if len(result.Matches) != 2 {
			t.Errorf("Expected card and email after reconfigure, got %d", len(result.Matches))
		}
	})
}
