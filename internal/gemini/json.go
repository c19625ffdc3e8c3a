package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON strips a fenced code block (```json or bare ```) from a model
// reply. Text without fences is returned trimmed.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if _, after, ok := strings.Cut(text, "```json"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	if _, after, ok := strings.Cut(text, "```"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	return text
}

// DecodeJSON extracts and decodes a JSON reply into v.
func DecodeJSON(text string, v any) error {
	body := ExtractJSON(text)
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("model reply is not valid JSON: %w", err)
	}
	return nil
}
