package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibecheck/vibecheck/internal/analyzer/driver"
)

func TestCompleteBuildsGenerateContentRequest(t *testing.T) {
	var captured generateContentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, `{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"ok\":true}"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 4, "totalTokenCount": 16}
		}`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "test-key")
	resp, err := client.Complete(context.Background(), &driver.Request{
		Messages: []driver.Message{
			{Role: "system", Text: "You are terse."},
			{Role: "user", Text: "Analyze The Matrix."},
		},
		ForceJSON: true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, resp.Text)
	assert.Equal(t, "STOP", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 16, resp.Usage.TotalTokens)

	require.NotNil(t, captured.SystemInstruction)
	assert.Equal(t, "You are terse.", captured.SystemInstruction.Parts[0].Text)
	require.Len(t, captured.Contents, 1)
	assert.Equal(t, "user", captured.Contents[0].Role)
	require.NotNil(t, captured.GenerationConfig)
	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
}

func TestCompleteReturnsProviderErrorOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "test-key")
	_, err := client.Complete(context.Background(), &driver.Request{
		Messages: []driver.Message{{Role: "user", Text: "hi"}},
	})

	var provErr *driver.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "gemini", provErr.Provider)
	assert.Equal(t, http.StatusTooManyRequests, provErr.StatusCode)
	assert.Contains(t, provErr.Message, "quota exceeded")
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := NewClient("", "")
	_, err := client.Complete(context.Background(), &driver.Request{
		Messages: []driver.Message{{Role: "user", Text: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestCompleteRejectsEmptyRequests(t *testing.T) {
	client := NewClient("http://localhost:1", "test-key")

	_, err := client.Complete(context.Background(), nil)
	require.Error(t, err)

	_, err = client.Complete(context.Background(), &driver.Request{})
	require.Error(t, err)

	_, err = client.Complete(context.Background(), &driver.Request{
		Messages: []driver.Message{{Role: "system", Text: "system only"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-system message")
}

func TestCompleteNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "test-key")
	_, err := client.Complete(context.Background(), &driver.Request{
		Messages: []driver.Message{{Role: "user", Text: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestCapabilities(t *testing.T) {
	caps := NewClient("", "k").Capabilities()
	assert.True(t, caps.SupportsJSONMode)
	assert.False(t, caps.SupportsImages)
}
