// Package types provides OpenAI-compatible type definitions for chat completions.
package types

import (
	"encoding/json"
	"strings"
)

// Role constants for message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
	Name    string  `json:"name,omitempty"`
}

// Content holds message content sent as a string, a single typed part
// object, or an array of typed parts.
type Content struct {
	Text  string        // Simple string content
	Parts []ContentPart // Multimodal content parts
}

// MarshalJSON outputs an array when Parts is set, a string otherwise.
func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.Parts) > 0 {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts a string, an object, or an array of objects.
func (c *Content) UnmarshalJSON(data []byte) error {
	c.Text = ""
	c.Parts = nil

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		c.Text = text
		return nil
	}

	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err == nil {
		c.Parts = parts
		return nil
	}

	var part ContentPart
	if err := json.Unmarshal(data, &part); err == nil && part.Type != "" {
		c.Parts = []ContentPart{part}
		return nil
	}

	return nil // Allow null/empty content
}

// String returns the text content, joining text parts with newlines.
func (c Content) String() string {
	if c.Text != "" {
		return c.Text
	}
	texts := make([]string, 0, len(c.Parts))
	for _, part := range c.Parts {
		if part.Type == ContentTypeText {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// ContentPart represents a single part of multimodal content.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// Content type constants
const (
	ContentTypeText     = "text"
	ContentTypeImageURL = "image_url"
)

// ImageURL represents an image reference in multimodal content.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// NewTextMessage creates a simple text message.
func NewTextMessage(role, content string) Message {
	return Message{
		Role:    role,
		Content: Content{Text: content},
	}
}

// NewImageMessage creates a message with text and image content.
func NewImageMessage(role, text, imageURL string) Message {
	return Message{
		Role: role,
		Content: Content{
			Parts: []ContentPart{
				{Type: ContentTypeText, Text: text},
				{Type: ContentTypeImageURL, ImageURL: &ImageURL{URL: imageURL}},
			},
		},
	}
}
