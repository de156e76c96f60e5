package prepare

import (
	"regexp"
	"strings"

	"github.com/mandalnilabja/grokway/internal/types"
)

// ImagePlaceholder replaces inline images in outbound text.
const ImagePlaceholder = "[image]"

var (
	thinkBlockPattern  = regexp.MustCompile(`<think>[\s\S]*?</think>`)
	inlineImagePattern = regexp.MustCompile(`!\[image\]\(data:.*?base64,.*?\)`)
)

// stripText removes reasoning blocks and inline base64 images.
func stripText(text string) string {
	text = strings.TrimSpace(thinkBlockPattern.ReplaceAllString(text, ""))
	return inlineImagePattern.ReplaceAllString(text, ImagePlaceholder)
}

// renderContent flattens message content into one text block. Image parts
// render as the placeholder.
func renderContent(c types.Content) string {
	if len(c.Parts) == 0 {
		return stripText(c.Text)
	}

	var sb strings.Builder
	for _, part := range c.Parts {
		var piece string
		switch part.Type {
		case types.ContentTypeImageURL:
			piece = ImagePlaceholder
		case types.ContentTypeText:
			piece = stripText(part.Text)
		default:
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(piece)
	}
	return sb.String()
}

// imageURIs returns the data URIs of the image parts in c.
func imageURIs(c types.Content) []string {
	var out []string
	for _, part := range c.Parts {
		if part.Type != types.ContentTypeImageURL || part.ImageURL == nil {
			continue
		}
		if strings.HasPrefix(part.ImageURL.URL, "data:") {
			out = append(out, part.ImageURL.URL)
		}
	}
	return out
}

// roleLabel maps a chat role to its serialized header.
func roleLabel(role string) string {
	if role == types.RoleAssistant {
		return "ASSISTANT"
	}
	return "USER"
}
