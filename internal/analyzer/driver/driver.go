package driver

import "context"

// Driver defines the interface for AI completion providers.
type Driver interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g., "gemini").
	Name() string
	// Capabilities returns what this driver supports.
	Capabilities() Capabilities
}

// ImageDriver is implemented by providers that can generate images.
type ImageDriver interface {
	GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResponse, error)
}

// Capabilities describes driver features.
type Capabilities struct {
	SupportsJSONMode bool
	SupportsImages   bool
	SupportedModels  []string
}

// Message represents a chat message. The drivers here are text-only.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model       string
	Messages    []Message
	Temperature *float64
	MaxTokens   *int
	// ForceJSON asks the provider for a raw JSON object response where
	// supported; drivers without a JSON mode ignore it and callers strip
	// markdown fences instead.
	ForceJSON bool
}

// Response is a provider-agnostic completion response.
type Response struct {
	Text         string
	FinishReason string
	Usage        *Usage
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ImageRequest asks an image-capable provider for generated images.
type ImageRequest struct {
	Prompt string
	Model  string
	Size   string
}

// ImageResponse carries a generated image, either by URL or inline.
type ImageResponse struct {
	URL     string
	B64JSON string
}
