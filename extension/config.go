package extension

import "time"

// Config holds the meal ledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.mealledger" or "mealledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// PendingCacheTTL controls how long a customer's pending-meal summary
	// may be served from the cache (default: 30s).
	PendingCacheTTL time.Duration `json:"pending_cache_ttl" mapstructure:"pending_cache_ttl" yaml:"pending_cache_ttl"`

	// RedisAddr, when set and no cache was given programmatically, backs the
	// pending-meal cache with Redis.
	RedisAddr string `json:"redis_addr" mapstructure:"redis_addr" yaml:"redis_addr"`

	// RedisPassword authenticates against RedisAddr.
	RedisPassword string `json:"redis_password" mapstructure:"redis_password" yaml:"redis_password"`

	// RedisDB selects the Redis logical database.
	RedisDB int `json:"redis_db" mapstructure:"redis_db" yaml:"redis_db"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PendingCacheTTL: 30 * time.Second,
	}
}
