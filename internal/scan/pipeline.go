// Package scan wires admission, detection and obfuscation into the single
// entry point the surrounding bot layers call.
package scan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veilbot/veil/internal/cipher"
	"github.com/veilbot/veil/internal/config"
	"github.com/veilbot/veil/internal/detect"
	"github.com/veilbot/veil/internal/logger"
	"github.com/veilbot/veil/internal/obfuscate"
	"github.com/veilbot/veil/internal/quota"
)

// Request is one message to scan. Options carries per-destination
// overrides; nil means the pipeline's configured defaults.
type Request struct {
	Text          string
	ActorID       string
	DestinationID string
	Options       *Options
}

// Options overrides scanner settings for a single request.
type Options struct {
	Types            []detect.RuleType
	Entropy          *bool
	EntropyThreshold float64
}

// Result is the outcome of one scan. When Allowed is false the detection
// fields are zero: a throttled message is never scanned.
type Result struct {
	Allowed    bool              `json:"allowed"`
	Scope      quota.Scope       `json:"scope,omitempty"`
	RetryAfter time.Duration     `json:"retryAfter,omitempty"`
	Matches    []detect.Match    `json:"matches,omitempty"`
	Redacted   string            `json:"redacted,omitempty"`
	Mapping    map[string]string `json:"mapping,omitempty"`
}

// Pipeline runs admission, detection and obfuscation in order. All fields
// behind mu can be swapped by Reconfigure for config hot reload; the
// components themselves are stateless and safe for concurrent scans.
type Pipeline struct {
	mu       sync.RWMutex
	detector *detect.Detector
	scanner  config.ScannerConfig
	arbiter  *quota.Arbiter

	obf    *obfuscate.Obfuscator
	logger *logger.Logger
}

// New assembles a pipeline from configuration. A short crypto key fails
// here, before any message is accepted.
func New(cfg *config.Config, store quota.CounterStore, log *logger.Logger) (*Pipeline, error) {
	c, err := cipher.New(cfg.Crypto.Key)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	p := &Pipeline{
		obf:    obfuscate.New(c),
		logger: log,
	}
	p.apply(cfg)

	p.arbiter = quota.NewArbiter(store, quota.Config{
		Enabled:      cfg.Quota.Enabled,
		Global:       cfg.Quota.Global,
		Actor:        cfg.Quota.Actor,
		Destination:  cfg.Quota.Destination,
		StoreTimeout: cfg.Quota.StoreTimeout,
	}, p.loggerOrNop())

	return p, nil
}

func (p *Pipeline) apply(cfg *config.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scanner = cfg.Scanner
	p.detector = detect.New(detect.DefaultRules(), p.loggerOrNop())
}

func (p *Pipeline) loggerOrNop() *zap.Logger {
	if p.logger == nil {
		return zap.NewNop()
	}
	return p.logger.Logger
}

// Reconfigure swaps scanner settings, typically from a config file watch.
// Quota budgets require a restart; only detection settings reload live.
func (p *Pipeline) Reconfigure(cfg *config.Config) {
	p.apply(cfg)
	if p.logger != nil {
		p.logger.Info("Scanner configuration reloaded",
			zap.Strings("detectors", cfg.Scanner.Detectors),
			zap.Bool("entropy", cfg.Scanner.Entropy.Enabled),
		)
	}
}

// Scan admits, detects and obfuscates one message.
func (p *Pipeline) Scan(ctx context.Context, req Request) (*Result, error) {
	decision := p.arbiter.Admit(ctx, req.ActorID, req.DestinationID)
	if !decision.Allowed {
		if p.logger != nil {
			p.logger.LogScan(req.ActorID, req.DestinationID, nil, false)
		}
		return &Result{
			Allowed:    false,
			Scope:      decision.Scope,
			RetryAfter: decision.RetryAfter,
		}, nil
	}

	p.mu.RLock()
	detector := p.detector
	scanner := p.scanner
	p.mu.RUnlock()

	if !scanner.Enabled {
		return &Result{Allowed: true, Redacted: req.Text}, nil
	}

	types := scanner.EnabledTypes()
	entropyOn := scanner.Entropy.Enabled
	threshold := scanner.Entropy.Threshold
	if req.Options != nil {
		if req.Options.Types != nil {
			types = req.Options.Types
		}
		if req.Options.Entropy != nil {
			entropyOn = *req.Options.Entropy
		}
		if req.Options.EntropyThreshold > 0 {
			threshold = req.Options.EntropyThreshold
		}
	}

	matches := detector.Detect(req.Text, types...)
	if entropyOn {
		matches = append(matches, detector.DetectHighEntropy(req.Text, threshold)...)
	}

	obfuscated, err := p.obf.Obfuscate(req.Text, matches)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	if p.logger != nil {
		p.logger.LogScan(req.ActorID, req.DestinationID, matches, true)
	}

	return &Result{
		Allowed:  true,
		Matches:  matches,
		Redacted: obfuscated.Redacted,
		Mapping:  obfuscated.Mapping,
	}, nil
}

// Restore reverses a prior scan's redaction given its mapping.
func (p *Pipeline) Restore(redacted string, mapping map[string]string) (string, error) {
	return p.obf.Restore(redacted, mapping)
}
