package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vibecheck/vibecheck/internal/analyzer"
	"github.com/vibecheck/vibecheck/internal/analyzer/driver"
	"github.com/vibecheck/vibecheck/internal/core"
	"github.com/vibecheck/vibecheck/internal/tmdb"
)

type stubDriver struct {
	text string
	err  error
}

func (d *stubDriver) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if d.err != nil {
		return nil, d.err
	}
	return &driver.Response{Text: d.text}, nil
}

func (d *stubDriver) Name() string { return "stub" }

func (d *stubDriver) Capabilities() driver.Capabilities {
	return driver.Capabilities{SupportsJSONMode: true}
}

func newTMDBServer(t *testing.T, searchBody, reviewsBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	})
	mux.HandleFunc("/movie/603/reviews", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reviewsBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeHandlerReturnsResult(t *testing.T) {
	upstream := newTMDBServer(t,
		`{"results":[{"id":603,"title":"The Matrix","overview":"A hacker learns the truth.","poster_path":"/matrix.jpg"}]}`,
		`{"results":[{"content":"Great."},{"content":"Stunning."}]}`,
	)

	a := &analyzer.Analyzer{
		TMDB: &tmdb.Client{
			APIKey:       "test-key",
			BaseURL:      upstream.URL,
			ImageBaseURL: "https://image.example/t/p/w500",
		},
		Driver: &stubDriver{text: `{"sentiment_summary":"Beloved.","vibe_tags":["iconic","tense"],"intensity_score":9}`},
		Model:  "stub-model",
	}

	req := httptest.NewRequest(http.MethodGet, "/analyze?title=The+Matrix", nil)
	rec := httptest.NewRecorder()

	NewAnalyzeHandler(a)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result core.VibeResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.Equal(t, "The Matrix", result.MovieTitle)
	require.NotNil(t, result.PosterURL)
	require.Equal(t, "https://image.example/t/p/w500/matrix.jpg", *result.PosterURL)
	require.Equal(t, []string{"iconic", "tense"}, result.Analysis.VibeTags)
	require.InDelta(t, 9, result.Analysis.IntensityScore, 0.001)
}

func TestAnalyzeHandlerRequiresTitle(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	rec := httptest.NewRecorder()

	NewAnalyzeHandler(&analyzer.Analyzer{})(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestAnalyzeHandlerReturnsNotFoundForUnknownMovie(t *testing.T) {
	upstream := newTMDBServer(t, `{"results":[]}`, `{"results":[]}`)

	a := &analyzer.Analyzer{
		TMDB:   &tmdb.Client{APIKey: "test-key", BaseURL: upstream.URL},
		Driver: &stubDriver{text: "{}"},
	}

	req := httptest.NewRequest(http.MethodGet, "/analyze?title=nonexistent", nil)
	rec := httptest.NewRecorder()

	NewAnalyzeHandler(a)(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyzeHandlerMapsUpstreamFailure(t *testing.T) {
	upstream := newTMDBServer(t,
		`{"results":[{"id":603,"title":"The Matrix","overview":"A hacker learns the truth."}]}`,
		`{"results":[]}`,
	)

	a := &analyzer.Analyzer{
		TMDB:   &tmdb.Client{APIKey: "test-key", BaseURL: upstream.URL},
		Driver: &stubDriver{err: context.DeadlineExceeded},
	}

	req := httptest.NewRequest(http.MethodGet, "/analyze?title=The+Matrix", nil)
	rec := httptest.NewRecorder()

	NewAnalyzeHandler(a)(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
}
