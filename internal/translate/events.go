package translate

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// envelope is one line of the upstream event stream.
type envelope struct {
	Result *struct {
		Response json.RawMessage `json:"response"`
	} `json:"result"`
	Error json.RawMessage `json:"error"`
}

// responseEvent is the nested response payload of an envelope.
type responseEvent struct {
	Token                         json.RawMessage `json:"token"`
	MessageStepID                 json.RawMessage `json:"messageStepId"`
	MessageTag                    json.RawMessage `json:"messageTag"`
	IsThinking                    json.RawMessage `json:"isThinking"`
	WebSearchResults              json.RawMessage `json:"webSearchResults"`
	DoImgGen                      json.RawMessage `json:"doImgGen"`
	ImageAttachmentInfo           json.RawMessage `json:"imageAttachmentInfo"`
	CachedImageGenerationResponse json.RawMessage `json:"cachedImageGenerationResponse"`
}

// searchAction is the object token deep search emits for a web lookup.
type searchAction struct {
	Action      string `json:"action"`
	ActionInput *struct {
		Query string `json:"query"`
	} `json:"action_input"`
}

type searchResults struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Preview string `json:"preview"`
}

type cachedImage struct {
	ImageURL string `json:"imageUrl"`
}

// truthy reports whether a JSON value is present and not an empty or zero
// value: null, false, 0, "", {} and [] are all false.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'n', 'f':
		return false
	case 't':
		return true
	case '"':
		var s string
		return json.Unmarshal(raw, &s) == nil && s != ""
	case '{':
		var m map[string]json.RawMessage
		return json.Unmarshal(raw, &m) == nil && len(m) > 0
	case '[':
		var a []json.RawMessage
		return json.Unmarshal(raw, &a) == nil && len(a) > 0
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		return err == nil && f != 0
	}
}

// tokenText returns a string token. An absent token is the empty string;
// null, objects and other non-strings report false.
func tokenText(raw json.RawMessage) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// stringField decodes raw as a string, or "" when it is not one.
func stringField(raw json.RawMessage) string {
	var s string
	_ = json.Unmarshal(raw, &s)
	return s
}
