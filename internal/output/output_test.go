package output

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibecheck/vibecheck/internal/core"
)

func sampleResult() *core.VibeResult {
	poster := "https://image.tmdb.org/t/p/w500/matrix.jpg"
	mood := "https://images.example/mood.png"
	return &core.VibeResult{
		MovieTitle:        "The Matrix",
		PosterURL:         &poster,
		GeneratedImageURL: &mood,
		Analysis: core.Analysis{
			SentimentSummary: "Tense and iconic.",
			VibeTags:         []string{"iconic", "tense"},
			IntensityScore:   9,
		},
		Provenance: &core.Provenance{
			Provider:    "gemini",
			Model:       "gemini-1.5-flash",
			ReviewCount: 3,
			FromCache:   true,
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" markdown ", FormatMarkdown, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestNewFormatter(t *testing.T) {
	assert.IsType(t, &TableFormatter{}, NewFormatter(FormatTable))
	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON))
	assert.IsType(t, &MarkdownFormatter{}, NewFormatter(FormatMarkdown))
}

func TestTableFormatter(t *testing.T) {
	out, err := (&TableFormatter{}).FormatResult(sampleResult())
	require.NoError(t, err)

	assert.Contains(t, out, "The Matrix")
	assert.Contains(t, out, "Tense and iconic.")
	assert.Contains(t, out, "iconic, tense")
	assert.Contains(t, out, "9.0/10")
	assert.Contains(t, out, "https://image.tmdb.org/t/p/w500/matrix.jpg")
	assert.Contains(t, out, "Source: cached via gemini/gemini-1.5-flash (3 reviews)")

	out, err = (&TableFormatter{}).FormatResult(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTableFormatterOmitsMissingFields(t *testing.T) {
	result := sampleResult()
	result.PosterURL = nil
	result.GeneratedImageURL = nil
	result.Provenance = nil

	out, err := (&TableFormatter{}).FormatResult(result)
	require.NoError(t, err)
	assert.NotContains(t, out, "Mood image")
	assert.NotContains(t, out, "Source:")
	assert.Contains(t, out, " - ")
}

func TestJSONFormatterRoundTrips(t *testing.T) {
	out, err := (&JSONFormatter{Indent: true}).FormatResult(sampleResult())
	require.NoError(t, err)

	var decoded core.VibeResult
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "The Matrix", decoded.MovieTitle)
	assert.InDelta(t, 9, decoded.Analysis.IntensityScore, 0.001)

	compact, err := (&JSONFormatter{}).FormatResult(sampleResult())
	require.NoError(t, err)
	assert.NotContains(t, compact, "\n")
}

func TestMarkdownFormatter(t *testing.T) {
	out, err := (&MarkdownFormatter{}).FormatResult(sampleResult())
	require.NoError(t, err)

	assert.Contains(t, out, "## The Matrix")
	assert.Contains(t, out, "| Sentiment | Tense and iconic. |")
	assert.Contains(t, out, "![poster](https://image.tmdb.org/t/p/w500/matrix.jpg)")
	assert.Contains(t, out, "![mood](https://images.example/mood.png)")
	assert.Contains(t, out, "Source: cached via gemini/gemini-1.5-flash (3 reviews)")
}

func TestMarkdownFormatterEscapesPipes(t *testing.T) {
	result := sampleResult()
	result.Analysis.SentimentSummary = "good | bad"

	out, err := (&MarkdownFormatter{}).FormatResult(result)
	require.NoError(t, err)
	assert.Contains(t, out, `good \| bad`)
}
