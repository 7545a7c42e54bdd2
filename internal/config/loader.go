// Package config provides centralized configuration management for
// VibeCheck. Defaults are registered with viper, user overrides come
// from the discovered config file, and VIBECHECK_* environment
// variables win over both.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// DefaultBaseURL is the analyze endpoint used when nothing else is
// configured. It matches a locally running `vibecheck serve`.
const DefaultBaseURL = "http://localhost:8000"

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// SetDefaults registers default configuration values with viper.
// Every key gets a default so environment overrides resolve even
// without a config file.
func SetDefaults() {
	// Client defaults
	viper.SetDefault("api.base_url", DefaultBaseURL)
	viper.SetDefault("api.timeout", "60s")

	// Server defaults (the original service listened on 8000)
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.shutdown_timeout", "10s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.profile", "structured")

	// Store defaults
	viper.SetDefault("store.driver", "libsql")
	viper.SetDefault("store.path", DefaultStorePath())
	viper.SetDefault("store.url", "")
	viper.SetDefault("store.auth_token", "")

	// Cache defaults
	viper.SetDefault("cache.result_ttl", "24h")
	viper.SetDefault("cache.error_ttl", "30s")
	viper.SetDefault("cache.disabled", false)

	// TMDB defaults
	viper.SetDefault("tmdb.api_key", "")
	viper.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	viper.SetDefault("tmdb.image_base_url", "https://image.tmdb.org/t/p/w500")
	viper.SetDefault("tmdb.review_limit", 5)
	viper.SetDefault("tmdb.timeout", "10s")

	// AI defaults (the original service analyzed with Gemini)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.timeout", "45s")
	viper.SetDefault("ai.gemini.api_key", "")
	viper.SetDefault("ai.gemini.base_url", "")
	viper.SetDefault("ai.gemini.model", "gemini-1.5-flash")
	viper.SetDefault("ai.openai.api_key", "")
	viper.SetDefault("ai.openai.base_url", "")
	viper.SetDefault("ai.openai.model", "gpt-4o-mini")
	viper.SetDefault("ai.image.enabled", false)
	viper.SetDefault("ai.image.model", "dall-e-2")
	viper.SetDefault("ai.image.size", "512x512")

	// Rate limit overrides (optional)
	viper.SetDefault("rate_limits", map[string]int{})
	viper.SetDefault("rate_limit_margin", 0.9)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)

	// Health check defaults
	viper.SetDefault("health.enabled", true)

	// Debug defaults
	viper.SetDefault("debug.enabled", false)
	viper.SetDefault("debug.pprof_enabled", false)
}

// BindEnvAliases binds config keys to their environment surfaces.
// VIBECHECK_API_URL is the one documented client knob; the *_API_KEY
// aliases keep parity with the unprefixed variables the original
// service consumed.
func BindEnvAliases() {
	_ = viper.BindEnv("api.base_url", "VIBECHECK_API_URL")
	_ = viper.BindEnv("tmdb.api_key", "VIBECHECK_TMDB_API_KEY", "TMDB_API_KEY")
	_ = viper.BindEnv("ai.gemini.api_key", "VIBECHECK_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = viper.BindEnv("ai.openai.api_key", "VIBECHECK_OPENAI_API_KEY", "OPENAI_API_KEY")
}

// Load decodes the merged viper settings into a typed Config.
// Safe to call multiple times (e.g. after a SIGHUP reload).
func Load() (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	setConfig(cfg)
	return cfg, nil
}

// GetConfig returns the current application configuration (thread-safe).
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configDir := gfconfig.GetAppConfigDir("vibecheck")
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultDataDir returns the XDG-compliant data directory for the app.
func DefaultDataDir() string {
	return gfconfig.GetAppDataDir("vibecheck")
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath() string {
	dataDir := gfconfig.GetAppDataDir("vibecheck")
	if strings.TrimSpace(dataDir) == "" {
		return "./vibecheck.db"
	}
	return filepath.Join(dataDir, "vibecheck.db")
}
