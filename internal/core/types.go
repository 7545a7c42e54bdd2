package core

import "time"

// Analysis is the AI-derived vibe read for a movie.
type Analysis struct {
	SentimentSummary string   `json:"sentiment_summary"`
	VibeTags         []string `json:"vibe_tags"`
	IntensityScore   float64  `json:"intensity_score"`
}

// VibeResult is the assembled analysis for a single movie title.
//
// PosterURL and GeneratedImageURL are pointers because the upstream
// catalog may have no poster and image generation is optional.
type VibeResult struct {
	MovieTitle        string      `json:"movie_title"`
	PosterURL         *string     `json:"poster_url"`
	GeneratedImageURL *string     `json:"generated_image_url"`
	Analysis          Analysis    `json:"analysis"`
	Provenance        *Provenance `json:"provenance,omitempty"`
}

// Provenance captures metadata about how an analysis was produced.
type Provenance struct {
	AnalysisID     string     `json:"analysis_id"`
	RequestedAt    time.Time  `json:"requested_at"`
	ResolvedAt     time.Time  `json:"resolved_at"`
	Provider       string     `json:"provider,omitempty"`
	Model          string     `json:"model,omitempty"`
	ReviewCount    int        `json:"review_count"`
	FromCache      bool       `json:"from_cache"`
	CacheExpiresAt *time.Time `json:"cache_expires_at,omitempty"`
	ToolVersion    string     `json:"tool_version,omitempty"`
}

// RateLimitState tracks request counts for a rate-limited endpoint.
type RateLimitState struct {
	RequestCount int
	WindowStart  time.Time
	BackoffUntil *time.Time
	Last429At    *time.Time
}
