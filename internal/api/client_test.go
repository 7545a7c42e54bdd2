package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/analyze", r.URL.Path)
		require.Equal(t, "The Matrix", r.URL.Query().Get("title"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"movie_title": "The Matrix",
			"poster_url": "https://image.example/t/p/w500/matrix.jpg",
			"generated_image_url": null,
			"analysis": {
				"sentiment_summary": "A landmark of tense sci-fi action.",
				"vibe_tags": ["iconic", "tense", "stylish"],
				"intensity_score": 9
			}
		}`))
	}))
	t.Cleanup(srv.Close)

	result, err := New(srv.URL).Analyze(context.Background(), "The Matrix")
	require.NoError(t, err)
	require.Equal(t, "The Matrix", result.MovieTitle)
	require.NotNil(t, result.PosterURL)
	require.Equal(t, "https://image.example/t/p/w500/matrix.jpg", *result.PosterURL)
	require.Nil(t, result.GeneratedImageURL)
	require.Equal(t, []string{"iconic", "tense", "stylish"}, result.Analysis.VibeTags)
	require.InDelta(t, 9, result.Analysis.IntensityScore, 0.001)
}

func TestAnalyzeRequiresTitle(t *testing.T) {
	_, err := New("http://localhost:1").Analyze(context.Background(), "  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "title is required")
}

func TestAnalyzeReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"NOT_FOUND","message":"Movie not found"}}`, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	result, err := New(srv.URL).Analyze(context.Background(), "no such movie")
	require.Nil(t, result)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	require.Contains(t, statusErr.Body, "NOT_FOUND")
}

func TestAnalyzeTransportFailureIsNotStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).Analyze(context.Background(), "Inception")
	require.Error(t, err)

	var statusErr *StatusError
	require.False(t, errors.As(err, &statusErr))
}

func TestAnalyzeDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).Analyze(context.Background(), "Inception")
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestAnalyzeHonorsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	client := New(srv.URL)
	client.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := client.Analyze(context.Background(), "Inception")
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestNewDefaultsBaseURL(t *testing.T) {
	require.Equal(t, "http://localhost:8000", New("").BaseURL)
	require.Equal(t, "http://api.example:9000", New("http://api.example:9000/").BaseURL)
}
