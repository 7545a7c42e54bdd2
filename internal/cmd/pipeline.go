package cmd

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"

	"github.com/vibecheck/vibecheck/internal/analyzer"
	"github.com/vibecheck/vibecheck/internal/analyzer/driver"
	"github.com/vibecheck/vibecheck/internal/analyzer/driver/gemini"
	"github.com/vibecheck/vibecheck/internal/analyzer/driver/openai"
	"github.com/vibecheck/vibecheck/internal/config"
	"github.com/vibecheck/vibecheck/internal/core/engine"
	"github.com/vibecheck/vibecheck/internal/core/store"
	"github.com/vibecheck/vibecheck/internal/tmdb"
)

// buildAnalyzer assembles the analysis pipeline from configuration:
// TMDB client with store-backed rate limiting, the configured AI
// driver, and the result cache.
func buildAnalyzer(cfg *config.Config, db *store.Store, logger *logging.Logger) (*analyzer.Analyzer, error) {
	if strings.TrimSpace(cfg.TMDB.APIKey) == "" {
		return nil, fmt.Errorf("tmdb api key is required (set %s)", "VIBECHECK_TMDB_API_KEY or TMDB_API_KEY")
	}

	limiter := &engine.RateLimiter{
		Store:  db,
		Limits: engine.DefaultLimits,
		Margin: cfg.RateLimitMargin,
	}
	limiter.ApplyOverrides(cfg.RateLimits)

	tmdbClient := &tmdb.Client{
		APIKey:       cfg.TMDB.APIKey,
		BaseURL:      cfg.TMDB.BaseURL,
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		HTTPClient:   &http.Client{Timeout: timeoutOr(cfg.TMDB.Timeout, 15*time.Second)},
		Limiter:      limiter,
	}

	drv, model, err := buildDriver(cfg)
	if err != nil {
		return nil, err
	}

	a := &analyzer.Analyzer{
		TMDB:        tmdbClient,
		Driver:      drv,
		Store:       db,
		Model:       model,
		ReviewLimit: cfg.TMDB.ReviewLimit,
		ResultTTL:   cfg.Cache.ResultTTL,
		NoCache:     cfg.Cache.Disabled,
		ToolVersion: versionInfo.Version,
		Logger:      logger,
	}

	if cfg.AI.Image.Enabled {
		img, err := buildImageDriver(cfg, drv)
		if err != nil {
			return nil, err
		}
		a.Image = img
		a.ImageModel = cfg.AI.Image.Model
		a.ImageSize = cfg.AI.Image.Size
	}

	return a, nil
}

func buildDriver(cfg *config.Config) (driver.Driver, string, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	switch provider {
	case "", "gemini":
		if strings.TrimSpace(cfg.AI.Gemini.APIKey) == "" {
			return nil, "", fmt.Errorf("gemini api key is required (set VIBECHECK_GEMINI_API_KEY or GEMINI_API_KEY)")
		}
		client := gemini.NewClient(cfg.AI.Gemini.BaseURL, cfg.AI.Gemini.APIKey)
		client.Timeout = cfg.AI.Timeout
		return client, cfg.AI.Gemini.Model, nil
	case "openai":
		if strings.TrimSpace(cfg.AI.OpenAI.APIKey) == "" {
			return nil, "", fmt.Errorf("openai api key is required (set VIBECHECK_OPENAI_API_KEY or OPENAI_API_KEY)")
		}
		client := openai.NewClient(cfg.AI.OpenAI.BaseURL, cfg.AI.OpenAI.APIKey)
		client.Timeout = cfg.AI.Timeout
		return client, cfg.AI.OpenAI.Model, nil
	default:
		return nil, "", fmt.Errorf("unsupported ai provider: %s", cfg.AI.Provider)
	}
}

// buildImageDriver returns an image-capable driver. The active driver
// is used when it supports images; otherwise OpenAI is used as the
// image provider when credentials are present.
func buildImageDriver(cfg *config.Config, active driver.Driver) (driver.ImageDriver, error) {
	if img, ok := active.(driver.ImageDriver); ok && active.Capabilities().SupportsImages {
		return img, nil
	}
	if strings.TrimSpace(cfg.AI.OpenAI.APIKey) != "" {
		client := openai.NewClient(cfg.AI.OpenAI.BaseURL, cfg.AI.OpenAI.APIKey)
		client.Timeout = cfg.AI.Timeout
		return client, nil
	}
	return nil, fmt.Errorf("image generation enabled but no image-capable provider configured")
}

func timeoutOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}
