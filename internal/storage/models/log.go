package models

import "time"

// RequestLog records one chat completion handled by the gateway
type RequestLog struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id"`

	// Identity is the masked credential identity of the last attempt
	Identity         string    `json:"identity,omitempty"`
	Model            string    `json:"model"`
	Tier             string    `json:"tier"`
	Attempts         int       `json:"attempts"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	IsStreaming      bool      `json:"is_streaming"`
	StatusCode       int       `json:"status_code"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	DurationMs       int64     `json:"duration_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// LogFilter contains parameters for filtering request logs
type LogFilter struct {
	Model      string
	Tier       string
	StatusCode *int
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}
