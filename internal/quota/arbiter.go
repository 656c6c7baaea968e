// Package quota arbitrates scan admission against three independent
// consumption scopes backed by a shared counter store. Enforcement is
// best-effort: when the store is unreachable the arbiter fails open so a
// counter outage never blocks message scanning.
package quota

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Scope identifies one of the independent quota budgets.
type Scope string

const (
	ScopeGlobal      Scope = "global"
	ScopeActor       Scope = "actor"
	ScopeDestination Scope = "destination"
)

// ScopeConfig is one scope's point budget per fixed window.
type ScopeConfig struct {
	Points int           `yaml:"points" mapstructure:"points"`
	Window time.Duration `yaml:"window" mapstructure:"window"`
}

// Config configures the arbiter. Each scope defaults to a 1-second window.
type Config struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Global       ScopeConfig   `yaml:"global" mapstructure:"global"`
	Actor        ScopeConfig   `yaml:"actor" mapstructure:"actor"`
	Destination  ScopeConfig   `yaml:"destination" mapstructure:"destination"`
	StoreTimeout time.Duration `yaml:"store_timeout" mapstructure:"store_timeout"`
}

// Decision is the outcome of one admission check. RetryAfter is only
// meaningful when Allowed is false; Scope names the rejecting budget.
type Decision struct {
	Allowed    bool          `json:"allowed"`
	Scope      Scope         `json:"scope,omitempty"`
	RetryAfter time.Duration `json:"retryAfter,omitempty"`
}

// Arbiter consumes one point per admission from the global, actor and
// destination scopes in that order, short-circuiting on the first
// rejection. Changing the order would change which scope's wait time is
// reported, so it is fixed.
type Arbiter struct {
	store    CounterStore
	config   Config
	logger   *zap.Logger
	warnRate *rate.Limiter
}

// NewArbiter builds an arbiter over the given store. A nil store is legal
// and makes every admission fail open.
func NewArbiter(store CounterStore, cfg Config, logger *zap.Logger) *Arbiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 150 * time.Millisecond
	}
	applyScopeDefaults(&cfg.Global)
	applyScopeDefaults(&cfg.Actor)
	applyScopeDefaults(&cfg.Destination)

	return &Arbiter{
		store:  store,
		config: cfg,
		logger: logger,
		// One degradation warning per 10s at most; a store outage must
		// not flood the log on every scan.
		warnRate: rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
}

func applyScopeDefaults(sc *ScopeConfig) {
	if sc.Window <= 0 {
		sc.Window = time.Second
	}
	if sc.Points <= 0 {
		sc.Points = 1
	}
}

// Admit attempts to consume one point from each scope in order. The first
// scope over budget rejects the request with that scope's remaining window
// as the retry hint. Store faults degrade to fail-open.
func (a *Arbiter) Admit(ctx context.Context, actorID, destinationID string) Decision {
	if !a.config.Enabled {
		return Decision{Allowed: true}
	}
	if a.store == nil {
		a.warnDegraded("counter store not configured")
		return Decision{Allowed: true}
	}

	checks := []struct {
		scope Scope
		key   string
		cfg   ScopeConfig
	}{
		{ScopeGlobal, "global", a.config.Global},
		{ScopeActor, "actor:" + actorID, a.config.Actor},
		{ScopeDestination, "dest:" + destinationID, a.config.Destination},
	}

	for _, check := range checks {
		callCtx, cancel := context.WithTimeout(ctx, a.config.StoreTimeout)
		count, reset, err := a.store.Incr(callCtx, check.key, check.cfg.Window)
		cancel()

		if err != nil {
			a.warnDegraded(err.Error())
			return Decision{Allowed: true}
		}

		if count > int64(check.cfg.Points) {
			a.logger.Debug("Quota rejected",
				zap.String("scope", string(check.scope)),
				zap.Int64("count", count),
				zap.Int("budget", check.cfg.Points),
				zap.Duration("retry_after", reset),
			)
			return Decision{Allowed: false, Scope: check.scope, RetryAfter: reset}
		}
	}

	return Decision{Allowed: true}
}

func (a *Arbiter) warnDegraded(reason string) {
	if a.warnRate.Allow() {
		a.logger.Warn("Quota enforcement degraded to fail-open",
			zap.String("reason", reason))
	}
}
