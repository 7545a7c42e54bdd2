package gemini

import (
	"fmt"
	"strings"

	"github.com/vibecheck/vibecheck/internal/analyzer/driver"
)

type generateContentRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  *int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

func buildGenerateRequest(req *driver.Request) (*generateContentRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}

	payload := &generateContentRequest{}

	for _, msg := range req.Messages {
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}

		// Gemini carries system prompts out of band.
		if msg.Role == "system" {
			payload.SystemInstruction = &geminiContent{
				Parts: []geminiPart{{Text: text}},
			}
			continue
		}

		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		payload.Contents = append(payload.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: text}},
		})
	}

	if len(payload.Contents) == 0 {
		return nil, fmt.Errorf("at least one non-system message is required")
	}

	config := &generationConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxTokens,
	}
	if req.ForceJSON {
		config.ResponseMimeType = "application/json"
	}
	if config.Temperature != nil || config.MaxOutputTokens != nil || config.ResponseMimeType != "" {
		payload.GenerationConfig = config
	}

	return payload, nil
}
