package tokenizer

import (
	"errors"
	"testing"

	"github.com/mandalnilabja/grokway/internal/types"
)

func TestNew(t *testing.T) {
	tok := New()
	if tok == nil {
		t.Fatal("New() returned nil")
	}
	if tok.encodings == nil {
		t.Fatal("encodings map is nil")
	}
}

func TestCountTokens(t *testing.T) {
	tok := New()

	tests := []struct {
		name     string
		text     string
		model    string
		minCount int // Token counts may vary slightly
		maxCount int
	}{
		{
			name:     "simple text grok-3",
			text:     "Hello, world!",
			model:    "grok-3",
			minCount: 3,
			maxCount: 5,
		},
		{
			name:     "simple text grok-4",
			text:     "Hello, world!",
			model:    "grok-4",
			minCount: 3,
			maxCount: 5,
		},
		{
			name:     "unknown model defaults to cl100k",
			text:     "Hello, world!",
			model:    "some-other-model",
			minCount: 3,
			maxCount: 5,
		},
		{
			name:     "empty text",
			text:     "",
			model:    "grok-3",
			minCount: 0,
			maxCount: 0,
		},
		{
			name:     "longer text",
			text:     "The quick brown fox jumps over the lazy dog.",
			model:    "grok-2",
			minCount: 8,
			maxCount: 12,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			count, err := tok.CountTokens(tc.text, tc.model)
			if err != nil {
				t.Fatalf("CountTokens() error: %v", err)
			}
			if count < tc.minCount || count > tc.maxCount {
				t.Errorf("CountTokens() = %d, want between %d and %d",
					count, tc.minCount, tc.maxCount)
			}
		})
	}
}

func TestResolveEncoding(t *testing.T) {
	tok := New()

	tests := []struct {
		model    string
		expected string
	}{
		{"grok-2", EncodingCL100kBase},
		{"grok-2-imageGen", EncodingCL100kBase},
		{"grok-3", EncodingCL100kBase},
		{"grok-3-deepersearch", EncodingCL100kBase},
		{"grok-4", EncodingO200kBase},
		{"Grok-4-Reasoning", EncodingO200kBase},
		{"unknown-model", EncodingCL100kBase},
	}

	for _, tc := range tests {
		t.Run(tc.model, func(t *testing.T) {
			result := tok.resolveEncoding(tc.model)
			if result != tc.expected {
				t.Errorf("resolveEncoding(%q) = %q, want %q",
					tc.model, result, tc.expected)
			}
		})
	}
}

func TestEncodingCaching(t *testing.T) {
	tok := New()

	if _, err := tok.CountTokens("hello", "grok-3"); err != nil {
		t.Fatalf("first CountTokens() error: %v", err)
	}
	if _, err := tok.CountTokens("world", "grok-2"); err != nil {
		t.Fatalf("second CountTokens() error: %v", err)
	}

	tok.mu.RLock()
	defer tok.mu.RUnlock()
	if len(tok.encodings) != 1 {
		t.Errorf("expected 1 cached encoding, got %d", len(tok.encodings))
	}
}

type failingTokenizer struct{}

func (failingTokenizer) CountTokens(string, string) (int, error) {
	return 0, errors.New("boom")
}

func (failingTokenizer) CountMessages([]types.Message, string) (int, error) {
	return 0, errors.New("boom")
}

func (failingTokenizer) CountRequest(*types.ChatCompletionRequest) (int, error) {
	return 0, errors.New("boom")
}

func TestUsage(t *testing.T) {
	req := &types.ChatCompletionRequest{
		Model:    "grok-3",
		Messages: []types.Message{types.NewTextMessage(types.RoleUser, "Hello!")},
	}

	u := Usage(New(), req, "Hi there, how can I help?")
	if u.PromptTokens == 0 || u.CompletionTokens == 0 {
		t.Fatalf("Usage() = %+v, want non-zero counts", u)
	}
	if u.TotalTokens != u.PromptTokens+u.CompletionTokens {
		t.Errorf("TotalTokens = %d, want %d", u.TotalTokens, u.PromptTokens+u.CompletionTokens)
	}

	if got := Usage(failingTokenizer{}, req, "x"); got != (types.Usage{}) {
		t.Errorf("Usage() with failing tokenizer = %+v, want zero", got)
	}
	if got := Usage(nil, req, "x"); got != (types.Usage{}) {
		t.Errorf("Usage() with nil tokenizer = %+v, want zero", got)
	}
}
