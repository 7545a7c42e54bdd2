package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vibecheck/vibecheck/internal/analyzer/driver"
	"github.com/vibecheck/vibecheck/internal/core"
	"github.com/vibecheck/vibecheck/internal/core/store"
	"github.com/vibecheck/vibecheck/internal/metrics"
	"github.com/vibecheck/vibecheck/internal/tmdb"
)

// Analyzer runs the full vibe analysis pipeline for a movie title:
// catalog search, review retrieval, AI analysis, and optional mood
// image generation, with results cached in the store.
type Analyzer struct {
	TMDB        *tmdb.Client
	Driver      driver.Driver
	Image       driver.ImageDriver
	Store       *store.Store
	Model       string
	ImageModel  string
	ImageSize   string
	ReviewLimit int
	ResultTTL   time.Duration
	// NoCache skips the cache lookup; fresh results are still written.
	NoCache     bool
	Prompt      *Prompt
	ToolVersion string
	Logger      *logging.Logger
	Clock       func() time.Time
}

// Analyze resolves a title to a cached or freshly computed VibeResult.
func (a *Analyzer) Analyze(ctx context.Context, title string) (*core.VibeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if a.TMDB == nil {
		return nil, fmt.Errorf("tmdb client not configured")
	}
	if a.Driver == nil {
		return nil, fmt.Errorf("ai driver not configured")
	}

	if !a.NoCache {
		if cached := a.cachedResult(ctx, title); cached != nil {
			return cached, nil
		}
	}

	requestedAt := a.now()

	movie, err := a.TMDB.SearchMovie(ctx, title)
	metrics.RecordUpstreamRequest("tmdb", err == nil)
	if err != nil {
		return nil, err
	}

	reviews := a.fetchReviews(ctx, movie)

	analysis, err := a.runAnalysis(ctx, movie.Title, reviews)
	if err != nil {
		return nil, err
	}

	result := &core.VibeResult{
		MovieTitle: movie.Title,
		PosterURL:  a.TMDB.PosterURL(movie),
		Analysis:   *analysis,
		Provenance: &core.Provenance{
			AnalysisID:  uuid.NewString(),
			RequestedAt: requestedAt,
			ResolvedAt:  a.now(),
			Provider:    a.Driver.Name(),
			Model:       a.model(),
			ReviewCount: len(reviews),
			ToolVersion: a.ToolVersion,
		},
	}

	a.generateMoodImage(ctx, result)
	a.cacheResult(ctx, title, result)

	return result, nil
}

func (a *Analyzer) cachedResult(ctx context.Context, title string) *core.VibeResult {
	if a.Store == nil {
		return nil
	}
	cached, err := a.Store.GetCachedAnalysis(ctx, title, a.Driver.Name(), a.model())
	if err != nil {
		a.warn("cache lookup failed", zap.String("title", title), zap.Error(err))
		return nil
	}
	if cached == nil {
		return nil
	}
	return cached.Result
}

func (a *Analyzer) cacheResult(ctx context.Context, title string, result *core.VibeResult) {
	if a.Store == nil || a.ResultTTL <= 0 {
		return
	}
	if err := a.Store.SetCachedAnalysis(ctx, title, a.Driver.Name(), a.model(), result, a.ResultTTL); err != nil {
		a.warn("cache write failed", zap.String("title", title), zap.Error(err))
	}
}

// fetchReviews returns up to ReviewLimit review bodies. When the
// catalog has no reviews, or fetching them fails, the movie overview
// stands in so the model still has material to work with.
func (a *Analyzer) fetchReviews(ctx context.Context, movie *tmdb.Movie) []string {
	limit := a.ReviewLimit
	if limit <= 0 {
		limit = 5
	}

	reviews, err := a.TMDB.Reviews(ctx, movie.ID, limit)
	if err != nil {
		a.warn("fetching reviews failed, using overview",
			zap.String("title", movie.Title), zap.Error(err))
		return []string{movie.Overview}
	}
	if len(reviews) == 0 {
		return []string{movie.Overview}
	}
	return reviews
}

func (a *Analyzer) runAnalysis(ctx context.Context, title string, reviews []string) (*core.Analysis, error) {
	prompt := a.Prompt
	if prompt == nil {
		var err error
		prompt, err = DefaultPrompt()
		if err != nil {
			return nil, err
		}
	}

	system, user, err := prompt.Render(title, reviews)
	if err != nil {
		return nil, err
	}

	messages := make([]driver.Message, 0, 2)
	if system != "" {
		messages = append(messages, driver.Message{Role: "system", Text: system})
	}
	messages = append(messages, driver.Message{Role: "user", Text: user})

	resp, err := a.Driver.Complete(ctx, &driver.Request{
		Model:     a.model(),
		Messages:  messages,
		ForceJSON: a.Driver.Capabilities().SupportsJSONMode,
	})
	metrics.RecordUpstreamRequest(a.Driver.Name(), err == nil)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}

	return decodeAnalysis(resp.Text)
}

// generateMoodImage attaches a generated image URL when an image-capable
// driver is configured. Failures are logged, not propagated; the image
// is a garnish on the analysis.
func (a *Analyzer) generateMoodImage(ctx context.Context, result *core.VibeResult) {
	if a.Image == nil {
		return
	}

	prompt := moodImagePrompt(result)
	resp, err := a.Image.GenerateImage(ctx, &driver.ImageRequest{
		Prompt: prompt,
		Model:  a.ImageModel,
		Size:   a.ImageSize,
	})
	if err != nil {
		a.warn("image generation failed",
			zap.String("title", result.MovieTitle), zap.Error(err))
		return
	}

	url := resp.URL
	if url == "" && resp.B64JSON != "" {
		url = "data:image/png;base64," + resp.B64JSON
	}
	if url != "" {
		result.GeneratedImageURL = &url
	}
}

func moodImagePrompt(result *core.VibeResult) string {
	tags := strings.Join(result.Analysis.VibeTags, ", ")
	if tags == "" {
		return fmt.Sprintf("An abstract poster capturing the mood of the movie %q.", result.MovieTitle)
	}
	return fmt.Sprintf("An abstract poster capturing the mood of the movie %q: %s. No text.", result.MovieTitle, tags)
}

// decodeAnalysis parses a model response into an Analysis, tolerating
// markdown code fences around the JSON body.
func decodeAnalysis(text string) (*core.Analysis, error) {
	cleaned := StripCodeFences(text)
	if cleaned == "" {
		return nil, fmt.Errorf("empty analysis response")
	}

	var analysis core.Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if strings.TrimSpace(analysis.SentimentSummary) == "" && len(analysis.VibeTags) == 0 {
		return nil, fmt.Errorf("analysis response missing expected fields")
	}
	return &analysis, nil
}

// StripCodeFences removes a surrounding markdown code block, with or
// without a language tag, and trims whitespace.
func StripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		// Drop a language tag such as "json" on the opening fence line.
		first := strings.TrimSpace(trimmed[:idx])
		if first != "" && !strings.ContainsAny(first, "{[") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func (a *Analyzer) model() string {
	return strings.TrimSpace(a.Model)
}

func (a *Analyzer) now() time.Time {
	if a.Clock != nil {
		return a.Clock()
	}
	return time.Now().UTC()
}

func (a *Analyzer) warn(msg string, fields ...zap.Field) {
	if a.Logger != nil {
		a.Logger.Warn(msg, fields...)
	}
}
