package query

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vibecheck/vibecheck/internal/api"
	"github.com/vibecheck/vibecheck/internal/core"
)

const inceptionBody = `{"movie_title":"Inception","poster_url":null,"generated_image_url":null,"analysis":{"sentiment_summary":"mind-bending","vibe_tags":["dreamy","tense"],"intensity_score":8}}`

func newAnalyzeServer(t *testing.T, status int, body string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		require.Equal(t, "/analyze", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckVibeIssuesExactlyOneRequest(t *testing.T) {
	var hits atomic.Int64
	var gotTitle string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		gotTitle = r.URL.Query().Get("title")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(inceptionBody))
	}))
	t.Cleanup(srv.Close)

	c := NewController(api.New(srv.URL))
	c.SetQuery("a movie & another")
	c.CheckVibe(context.Background())

	require.Equal(t, int64(1), hits.Load())
	require.Equal(t, "a movie & another", gotTitle)
}

func TestCheckVibeEmptyQueryIsNoOp(t *testing.T) {
	var hits atomic.Int64
	srv := newAnalyzeServer(t, http.StatusOK, inceptionBody, &hits)

	c := NewController(api.New(srv.URL))
	c.SetQuery("   ")
	c.CheckVibe(context.Background())

	require.Equal(t, int64(0), hits.Load())
	require.Equal(t, PhaseIdle, c.State().Phase)
	require.False(t, c.Loading())
	require.Empty(t, c.Err())
	require.Nil(t, c.Result())
}

func TestCheckVibeSuccess(t *testing.T) {
	srv := newAnalyzeServer(t, http.StatusOK, inceptionBody, nil)

	c := NewController(api.New(srv.URL))
	c.SetQuery("Inception")
	c.CheckVibe(context.Background())

	require.False(t, c.Loading())
	require.Empty(t, c.Err())

	result := c.Result()
	require.NotNil(t, result)
	require.Equal(t, "Inception", result.MovieTitle)
	require.Nil(t, result.PosterURL)
	require.Equal(t, []string{"dreamy", "tense"}, result.Analysis.VibeTags)
	require.InDelta(t, 8, result.Analysis.IntensityScore, 0.001)
}

func TestCheckVibeServerRejectionUsesGenericMessage(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		srv := newAnalyzeServer(t, status, `{"error":{"code":"NOT_FOUND"}}`, nil)

		c := NewController(api.New(srv.URL))
		c.SetQuery("unknown movie")
		c.CheckVibe(context.Background())

		require.False(t, c.Loading())
		require.Equal(t, GenericFailureMessage, c.Err())
		require.Nil(t, c.Result())
	}
}

func TestCheckVibeTransportFailureSurfacesErrorMessage(t *testing.T) {
	srv := newAnalyzeServer(t, http.StatusOK, inceptionBody, nil)
	url := srv.URL
	srv.Close()

	c := NewController(api.New(url))
	c.SetQuery("Inception")
	c.CheckVibe(context.Background())

	require.False(t, c.Loading())
	require.NotEmpty(t, c.Err())
	require.NotEqual(t, GenericFailureMessage, c.Err())
	require.Nil(t, c.Result())
}

func TestCheckVibeParseFailureSurfacesErrorMessage(t *testing.T) {
	srv := newAnalyzeServer(t, http.StatusOK, `{"movie_title": `, nil)

	c := NewController(api.New(srv.URL))
	c.SetQuery("Inception")
	c.CheckVibe(context.Background())

	require.False(t, c.Loading())
	require.Contains(t, c.Err(), "decode response")
	require.Nil(t, c.Result())
}

func TestCheckVibeRepeatedCallsRefetch(t *testing.T) {
	var hits atomic.Int64
	srv := newAnalyzeServer(t, http.StatusOK, inceptionBody, &hits)

	c := NewController(api.New(srv.URL))
	c.SetQuery("Inception")

	c.CheckVibe(context.Background())
	first := c.Result()
	c.CheckVibe(context.Background())
	second := c.Result()

	require.Equal(t, int64(2), hits.Load())
	require.NotNil(t, first)
	require.NotNil(t, second)
	require.Equal(t, first.MovieTitle, second.MovieTitle)
	require.Equal(t, first.Analysis, second.Analysis)
}

func TestCheckVibeFailureThenRetry(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(inceptionBody))
	}))
	t.Cleanup(srv.Close)

	c := NewController(api.New(srv.URL))
	c.SetQuery("Inception")

	c.CheckVibe(context.Background())
	require.Equal(t, GenericFailureMessage, c.Err())

	fail.Store(false)
	c.CheckVibe(context.Background())
	require.Empty(t, c.Err())
	require.NotNil(t, c.Result())
}

// slowThenFastClient resolves the first call only after the second has
// committed, simulating overlapping invocations where the stale
// response arrives last.
type slowThenFastClient struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (c *slowThenFastClient) Analyze(ctx context.Context, title string) (*core.VibeResult, error) {
	c.mu.Lock()
	c.calls++
	call := c.calls
	c.mu.Unlock()

	if call == 1 {
		<-c.release
		return &core.VibeResult{MovieTitle: "stale"}, nil
	}
	return &core.VibeResult{MovieTitle: "fresh"}, nil
}

func TestCheckVibeSupersededCallDoesNotClobberState(t *testing.T) {
	client := &slowThenFastClient{release: make(chan struct{})}
	c := NewController(client)
	c.SetQuery("Inception")

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.CheckVibe(context.Background())
	}()

	// Wait until the first call is in flight.
	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.calls == 1
	}, time.Second, time.Millisecond)

	// Second call supersedes the first and resolves immediately.
	c.CheckVibe(context.Background())
	require.Equal(t, "fresh", c.Result().MovieTitle)

	// Let the stale first call resolve; its outcome must be discarded.
	close(client.release)
	<-done

	require.Equal(t, "fresh", c.Result().MovieTitle)
	require.False(t, c.Loading())
}

func TestResetDiscardsInFlightRequest(t *testing.T) {
	client := &slowThenFastClient{release: make(chan struct{})}
	c := NewController(client)
	c.SetQuery("Inception")

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.CheckVibe(context.Background())
	}()

	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.calls == 1
	}, time.Second, time.Millisecond)

	c.Reset()
	close(client.release)
	<-done

	require.Equal(t, PhaseIdle, c.State().Phase)
	require.Nil(t, c.Result())
	require.Equal(t, "Inception", c.Query(), "reset must not clear the query text")
}

func TestSetQueryDoesNotResetState(t *testing.T) {
	srv := newAnalyzeServer(t, http.StatusOK, inceptionBody, nil)

	c := NewController(api.New(srv.URL))
	c.SetQuery("Inception")
	c.CheckVibe(context.Background())
	require.NotNil(t, c.Result())

	c.SetQuery("Interstellar")
	require.NotNil(t, c.Result(), "editing the query must not clear the prior outcome")
}
