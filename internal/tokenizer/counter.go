package tokenizer

import (
	"strings"

	"github.com/mandalnilabja/grokway/internal/types"
)

// Message token overhead follows the chat-markup accounting used by
// tiktoken-based estimators.
const (
	// Per-message overhead tokens
	messageOverhead = 3 // <|start|>role<|end|>

	// Reply priming tokens (assistant response start)
	replyPrimingTokens = 3

	// Name field overhead (if present)
	nameOverhead = 1

	// Image token constants
	imageBaseTokens     = 85  // Base cost for any image
	imageTileTokens     = 170 // Cost per 512x512 tile
	imageLowDetailTiles = 1   // Low detail uses 1 tile
	imageHighDetailMax  = 4   // High detail max tiles (simplified)
)

// CountMessages counts tokens for a slice of messages.
func (t *TiktokenTokenizer) CountMessages(messages []types.Message, model string) (int, error) {
	total := 0
	for _, msg := range messages {
		tokens, err := t.countMessage(msg, model)
		if err != nil {
			return 0, err
		}
		total += tokens + messageOverhead
	}
	return total + replyPrimingTokens, nil
}

// CountRequest counts total prompt tokens for a full request.
func (t *TiktokenTokenizer) CountRequest(req *types.ChatCompletionRequest) (int, error) {
	return t.CountMessages(req.Messages, req.Model)
}

func (t *TiktokenTokenizer) countMessage(msg types.Message, model string) (int, error) {
	total, err := t.CountTokens(msg.Role, model)
	if err != nil {
		return 0, err
	}

	contentTokens, err := t.countContent(msg.Content, model)
	if err != nil {
		return 0, err
	}
	total += contentTokens

	if msg.Name != "" {
		nameTokens, err := t.CountTokens(msg.Name, model)
		if err != nil {
			return 0, err
		}
		total += nameTokens + nameOverhead
	}
	return total, nil
}

// countContent counts tokens for message content (text or multimodal).
func (t *TiktokenTokenizer) countContent(content types.Content, model string) (int, error) {
	if content.Text != "" {
		return t.CountTokens(content.Text, model)
	}

	total := 0
	for _, part := range content.Parts {
		switch part.Type {
		case types.ContentTypeText:
			tokens, err := t.CountTokens(part.Text, model)
			if err != nil {
				return 0, err
			}
			total += tokens
		case types.ContentTypeImageURL:
			total += t.countImageTokens(part.ImageURL)
		}
	}
	return total, nil
}

// countImageTokens estimates the cost of an attached image from its detail hint.
func (t *TiktokenTokenizer) countImageTokens(img *types.ImageURL) int {
	if img == nil {
		return 0
	}
	if strings.EqualFold(img.Detail, "low") {
		return imageBaseTokens + (imageLowDetailTiles * imageTileTokens)
	}
	// "high", "auto" or unspecified
	return imageBaseTokens + (imageHighDetailMax * imageTileTokens)
}
