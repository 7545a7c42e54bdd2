package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vibecheck/vibecheck/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatResult renders a vibe result as a table.
func (f *TableFormatter) FormatResult(result *core.VibeResult) (string, error) {
	if result == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(result.MovieTitle)
	t.AppendHeader(table.Row{"Field", "Value"})

	t.AppendRow(table.Row{"Sentiment", result.Analysis.SentimentSummary})
	t.AppendRow(table.Row{"Vibe tags", strings.Join(result.Analysis.VibeTags, ", ")})
	t.AppendRow(table.Row{"Intensity", intensityLabel(result.Analysis.IntensityScore)})
	t.AppendRow(table.Row{"Poster", valueOrDash(result.PosterURL)})
	if result.GeneratedImageURL != nil {
		t.AppendRow(table.Row{"Mood image", valueOrDash(result.GeneratedImageURL)})
	}

	rendered := t.Render()
	if prov := provenanceLine(result.Provenance); prov != "" {
		rendered += "\n" + prov
	}
	return rendered, nil
}

func provenanceLine(prov *core.Provenance) string {
	if prov == nil {
		return ""
	}
	source := "fresh"
	if prov.FromCache {
		source = "cached"
	}
	if prov.Provider == "" {
		return fmt.Sprintf("Source: %s", source)
	}
	return fmt.Sprintf("Source: %s via %s/%s (%d reviews)",
		source, prov.Provider, prov.Model, prov.ReviewCount)
}
