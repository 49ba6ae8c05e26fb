package extension

import (
	"time"

	"github.com/xraph/mealledger"
	"github.com/xraph/mealledger/observability"
	"github.com/xraph/mealledger/pending"
	"github.com/xraph/mealledger/plugin"
	"github.com/xraph/mealledger/store"
)

// Option configures the meal ledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a mealledger.Option through to the engine.
func WithEngineOption(opt mealledger.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers an engine plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, mealledger.WithPlugin(p))
	}
}

// WithMetrics registers an observability.MetricsExtension built from factory.
func WithMetrics(factory observability.MetricFactory) Option {
	return WithPlugin(observability.NewMetricsExtension(factory))
}

// WithPendingCache sets the pending-meal cache. It takes precedence over
// a configured Redis address.
func WithPendingCache(c pending.Cache) Option {
	return func(e *Extension) { e.cache = c }
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithPendingCacheTTL sets the pending summary cache duration.
func WithPendingCacheTTL(d time.Duration) Option {
	return func(e *Extension) { e.config.PendingCacheTTL = d }
}

// WithRedis backs the pending cache with the Redis server at addr.
func WithRedis(addr, password string, db int) Option {
	return func(e *Extension) {
		e.config.RedisAddr = addr
		e.config.RedisPassword = password
		e.config.RedisDB = db
	}
}
