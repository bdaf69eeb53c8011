package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON decodes an LLM reply into v. Markdown code fences and any
// prose around the outermost JSON object are ignored.
func DecodeJSON(text string, v any) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("empty response")
	}

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		endIdx := len(lines)
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				endIdx = i
				break
			}
		}
		text = strings.Join(lines[1:endIdx], "\n")
	}

	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}

	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("parsing LLM response as JSON: %w", err)
	}
	return nil
}
