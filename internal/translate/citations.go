package translate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// formatSearchResults renders web search results as collapsible citation
// blocks joined by blank lines.
func formatSearchResults(raw json.RawMessage) string {
	if !truthy(raw) {
		return ""
	}
	var sr searchResults
	if err := json.Unmarshal(raw, &sr); err != nil {
		return ""
	}

	blocks := make([]string, 0, len(sr.Results))
	for i, r := range sr.Results {
		title := r.Title
		if title == "" {
			title = "Untitled"
		}
		url := r.URL
		if url == "" {
			url = "#"
		}
		preview := r.Preview
		if preview == "" {
			preview = "No preview"
		}
		preview = strings.ReplaceAll(preview, "\n", "<br>")
		blocks = append(blocks, fmt.Sprintf(
			"\r\n<details><summary>Source[%d]: %s</summary>\r\n%s\r\n\n[Link](%s)\r\n</details>",
			i, title, preview, url))
	}
	return strings.Join(blocks, "\n\n")
}
