package types

import "errors"

// ErrModelRequired is returned when a request names no model
var ErrModelRequired = errors.New("model is required")

// ChatCompletionRequest represents an OpenAI chat completion request.
// Sampling fields are accepted for compatibility; the upstream ignores them.
type ChatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`

	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`

	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	User        string   `json:"user,omitempty"`
}

// StreamOptions controls streaming behavior.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage,omitempty"` // Include usage in final chunk
}

// Validate checks the fields the gateway cannot do without.
func (r *ChatCompletionRequest) Validate() error {
	if r.Model == "" {
		return ErrModelRequired
	}
	return nil
}

// IsStreaming returns true if this is a streaming request.
func (r *ChatCompletionRequest) IsStreaming() bool {
	return r.Stream
}
