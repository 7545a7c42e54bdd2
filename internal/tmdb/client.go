// Package tmdb is a minimal client for The Movie Database API, covering
// the two endpoints the analysis pipeline needs: movie search and
// review listing.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vibecheck/vibecheck/internal/core/engine"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

const defaultImageBaseURL = "https://image.tmdb.org/t/p/w500"

// ErrMovieNotFound is returned when the search yields no results.
var ErrMovieNotFound = errors.New("movie not found on TMDB")

// ErrRateLimited is returned when the local limiter or TMDB itself
// refuses the request.
var ErrRateLimited = errors.New("tmdb rate limited")

// Movie is a search hit, reduced to the fields the pipeline consumes.
type Movie struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	Overview   string  `json:"overview"`
	PosterPath *string `json:"poster_path"`
}

// Client performs TMDB API calls.
type Client struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	HTTPClient   *http.Client
	Limiter      *engine.RateLimiter
}

// SearchMovie returns the first search hit for the title.
func (c *Client) SearchMovie(ctx context.Context, title string) (*Movie, error) {
	if c == nil {
		return nil, errors.New("tmdb client is not configured")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("tmdb api key is required")
	}

	value := strings.TrimSpace(title)
	if value == "" {
		return nil, errors.New("movie title is required")
	}

	query := url.Values{}
	query.Set("api_key", c.APIKey)
	query.Set("query", value)

	var payload struct {
		Results []Movie `json:"results"`
	}
	if err := c.getJSON(ctx, "/search/movie", query, &payload); err != nil {
		return nil, err
	}

	if len(payload.Results) == 0 {
		return nil, ErrMovieNotFound
	}

	movie := payload.Results[0]
	return &movie, nil
}

// Reviews returns up to limit review bodies for the movie, in the
// order TMDB lists them.
func (c *Client) Reviews(ctx context.Context, movieID int, limit int) ([]string, error) {
	if c == nil {
		return nil, errors.New("tmdb client is not configured")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("tmdb api key is required")
	}
	if limit <= 0 {
		limit = 5
	}

	query := url.Values{}
	query.Set("api_key", c.APIKey)

	var payload struct {
		Results []struct {
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d/reviews", movieID), query, &payload); err != nil {
		return nil, err
	}

	reviews := make([]string, 0, limit)
	for _, review := range payload.Results {
		if strings.TrimSpace(review.Content) == "" {
			continue
		}
		reviews = append(reviews, review.Content)
		if len(reviews) == limit {
			break
		}
	}

	return reviews, nil
}

// PosterURL resolves a poster path against the image base. Nil when the
// movie has no poster.
func (c *Client) PosterURL(movie *Movie) *string {
	if movie == nil || movie.PosterPath == nil || strings.TrimSpace(*movie.PosterPath) == "" {
		return nil
	}

	base := defaultImageBaseURL
	if c != nil && strings.TrimSpace(c.ImageBaseURL) != "" {
		base = strings.TrimRight(c.ImageBaseURL, "/")
	}

	full := base + *movie.PosterPath
	return &full
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	base := c.BaseURL
	if strings.TrimSpace(base) == "" {
		base = defaultBaseURL
	}

	parsed, err := url.Parse(strings.TrimRight(base, "/") + path)
	if err != nil {
		return fmt.Errorf("invalid tmdb url: %w", err)
	}
	parsed.RawQuery = query.Encode()
	endpoint := parsed.Hostname()

	if c.Limiter != nil && endpoint != "" {
		allowed, wait, err := c.Limiter.Allow(ctx, endpoint)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%w, retry in %s", ErrRateLimited, wait.Round(time.Second))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	if c.Limiter != nil && endpoint != "" {
		if err := c.Limiter.Record(ctx, endpoint); err != nil {
			return err
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if c.Limiter != nil && endpoint != "" {
			if wait := retryAfter(resp); wait > 0 {
				_ = c.Limiter.Record429(ctx, endpoint, wait)
			}
		}
		return ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected tmdb response %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}

	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	if resp == nil || resp.Header == nil {
		return 0
	}

	retry := resp.Header.Get("Retry-After")
	if retry == "" {
		return 0
	}

	if seconds, err := time.ParseDuration(retry + "s"); err == nil {
		return seconds
	}
	if parsed, err := http.ParseTime(retry); err == nil {
		return time.Until(parsed)
	}

	return 0
}
