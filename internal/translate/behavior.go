package translate

import (
	"encoding/json"

	"github.com/mandalnilabja/grokway/internal/catalog"
)

// Thinking segment markers.
const (
	ThinkOpen  = "<think>"
	ThinkClose = "</think>"
)

// extract applies the model's behavior to one response event and returns
// the text to emit, possibly empty.
func (t *Translator) extract(ev *responseEvent) string {
	switch t.model.Behavior {
	case catalog.BehaviorSearch:
		return t.extractSearch(ev)
	case catalog.BehaviorDeepSearch:
		return t.extractDeepSearch(ev)
	case catalog.BehaviorReasoning:
		return t.extractReasoning(ev)
	default:
		return t.extractPlain(ev)
	}
}

func (t *Translator) extractPlain(ev *responseEvent) string {
	tok, _ := tokenText(ev.Token)
	return tok
}

func (t *Translator) extractSearch(ev *responseEvent) string {
	if t.opts.ShowSearchResults && truthy(ev.WebSearchResults) {
		return "\r\n" + ThinkOpen + formatSearchResults(ev.WebSearchResults) + ThinkClose + "\r\n"
	}
	return t.extractPlain(ev)
}

func (t *Translator) extractDeepSearch(ev *responseEvent) string {
	step := truthy(ev.MessageStepID)
	tag := stringField(ev.MessageTag)
	if step && !t.opts.ShowThinking {
		return ""
	}

	switch {
	case step && !t.thinking:
		tok, ok := tokenText(ev.Token)
		if !ok {
			return ""
		}
		t.thinking = true
		return ThinkOpen + tok
	case !step && t.thinking && tag == "final":
		tok, ok := tokenText(ev.Token)
		if !ok {
			return ""
		}
		t.thinking = false
		return ThinkClose + tok
	case (step && t.thinking && tag == "assistant") || tag == "final":
		tok, _ := tokenText(ev.Token)
		return tok
	case t.thinking:
		var action searchAction
		if err := json.Unmarshal(ev.Token, &action); err != nil {
			return ""
		}
		if action.Action == "webSearch" {
			if action.ActionInput == nil {
				return ""
			}
			return action.ActionInput.Query
		}
		return formatSearchResults(ev.WebSearchResults)
	}
	return ""
}

func (t *Translator) extractReasoning(ev *responseEvent) string {
	thinking := truthy(ev.IsThinking)
	if thinking && !t.opts.ShowThinking {
		return ""
	}

	tok, ok := tokenText(ev.Token)
	if !ok {
		return ""
	}
	switch {
	case thinking && !t.thinking:
		t.thinking = true
		return ThinkOpen + tok
	case !thinking && t.thinking:
		t.thinking = false
		return ThinkClose + tok
	default:
		return tok
	}
}
