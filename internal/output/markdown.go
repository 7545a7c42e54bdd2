package output

import (
	"fmt"
	"strings"

	"github.com/vibecheck/vibecheck/internal/core"
)

// MarkdownFormatter renders results as markdown.
type MarkdownFormatter struct{}

// FormatResult renders a vibe result as Markdown.
func (f *MarkdownFormatter) FormatResult(result *core.VibeResult) (string, error) {
	if result == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(result.MovieTitle)))
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Sentiment | %s |\n", escapeMarkdownCell(result.Analysis.SentimentSummary)))
	sb.WriteString(fmt.Sprintf("| Vibe tags | %s |\n", escapeMarkdownCell(strings.Join(result.Analysis.VibeTags, ", "))))
	sb.WriteString(fmt.Sprintf("| Intensity | %s |\n", intensityLabel(result.Analysis.IntensityScore)))

	if result.PosterURL != nil {
		sb.WriteString(fmt.Sprintf("\n![poster](%s)\n", *result.PosterURL))
	}
	if result.GeneratedImageURL != nil {
		sb.WriteString(fmt.Sprintf("\n![mood](%s)\n", *result.GeneratedImageURL))
	}

	if line := provenanceLine(result.Provenance); line != "" {
		sb.WriteString("\n" + line + "\n")
	}
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
