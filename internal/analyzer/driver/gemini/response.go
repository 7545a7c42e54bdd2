package gemini

import (
	"fmt"
	"strings"

	"github.com/vibecheck/vibecheck/internal/analyzer/driver"
)

type generateContentResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func toDriverResponse(parsed *generateContentResponse) (*driver.Response, error) {
	if parsed == nil || len(parsed.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	candidate := parsed.Candidates[0]

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}

	resp := &driver.Response{
		Text:         sb.String(),
		FinishReason: candidate.FinishReason,
	}

	if parsed.UsageMetadata != nil {
		resp.Usage = &driver.Usage{
			PromptTokens:     parsed.UsageMetadata.PromptTokenCount,
			CompletionTokens: parsed.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      parsed.UsageMetadata.TotalTokenCount,
		}
	}

	return resp, nil
}
