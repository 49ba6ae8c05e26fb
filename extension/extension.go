// Package extension provides the Forge extension adapter for mealledger.
//
// It implements the forge.Extension interface to integrate the meal ledger
// engine into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.mealledger" or
// "mealledger" keys.
package extension

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"
	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/mealledger"
	"github.com/xraph/mealledger/cache/redis"
	"github.com/xraph/mealledger/pending"
	"github.com/xraph/mealledger/store"
	"github.com/xraph/mealledger/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "mealledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Prepaid meal membership ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the meal ledger engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *mealledger.Engine
	store      store.Store
	cache      pending.Cache
	redis      *goredis.Client
	engineOpts []mealledger.Option
}

// New creates a new meal ledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *mealledger.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		e.store = memory.New()
	}

	if e.cache == nil && e.config.RedisAddr != "" {
		c, client, err := redis.Dial(context.Background(), e.config.RedisAddr, e.config.RedisPassword, e.config.RedisDB)
		if err != nil {
			return err
		}
		e.cache, e.redis = c, client
	}

	e.engine = mealledger.New(e.store, e.buildEngineOpts()...)

	return vessel.Provide(fapp.Container(), func() (*mealledger.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("mealledger: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	defer e.MarkStopped()

	var errs []error
	if e.engine != nil {
		errs = append(errs, e.engine.Stop())
	}
	if e.redis != nil {
		errs = append(errs, e.redis.Close())
	}
	return errors.Join(errs...)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("mealledger: store not initialized")
	}
	if err := e.store.Ping(ctx); err != nil {
		return err
	}
	if e.redis != nil {
		return e.redis.Ping(ctx).Err()
	}
	return nil
}

// Config returns the resolved configuration.
func (e *Extension) Config() Config { return e.config }

// buildEngineOpts constructs mealledger.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []mealledger.Option {
	opts := make([]mealledger.Option, 0, len(e.engineOpts)+3)

	opts = append(opts,
		mealledger.WithAutoMigrate(!e.config.DisableMigrate),
		mealledger.WithPendingCacheTTL(e.config.PendingCacheTTL),
	)
	if e.cache != nil {
		opts = append(opts, mealledger.WithPendingCache(e.cache))
	}

	// Pass-through options are applied last so they win.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("mealledger: configuration is required but not found in config files; " +
				"ensure 'extensions.mealledger' or 'mealledger' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("mealledger: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("pending_cache_ttl", e.config.PendingCacheTTL),
		forge.F("redis", e.config.RedisAddr != ""),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.mealledger", "mealledger"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("mealledger: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("mealledger: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.PendingCacheTTL == 0 {
		cfg.PendingCacheTTL = defaults.PendingCacheTTL
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	if yamlConfig.RedisAddr == "" && programmaticConfig.RedisAddr != "" {
		yamlConfig.RedisAddr = programmaticConfig.RedisAddr
		yamlConfig.RedisPassword = programmaticConfig.RedisPassword
		yamlConfig.RedisDB = programmaticConfig.RedisDB
	}

	if yamlConfig.PendingCacheTTL == 0 && programmaticConfig.PendingCacheTTL != 0 {
		yamlConfig.PendingCacheTTL = programmaticConfig.PendingCacheTTL
	}

	return mergeWithDefaults(yamlConfig)
}
