package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// CleanJSONBlock strips markdown code fences a model may wrap around JSON
// output, and trims anything before the first brace or after the last one.
func CleanJSONBlock(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Models sometimes prepend prose. Keep the outermost JSON object only.
	start := strings.IndexAny(s, "{[")
	if start > 0 {
		s = s[start:]
	}
	end := strings.LastIndexAny(s, "}]")
	if end >= 0 && end < len(s)-1 {
		s = s[:end+1]
	}

	return s
}

// ParseJSON validates a raw model reply against a JSON schema and unmarshals
// it into out. Any failure (malformed JSON, schema mismatch) is returned as
// an error so the cascade executor treats the attempt as retryable.
func ParseJSON(raw, schema string, out interface{}) error {
	cleaned := CleanJSONBlock(raw)

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(cleaned),
	)
	if err != nil {
		return fmt.Errorf("parse reply: %w", err)
	}

	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("reply schema violation: %s", strings.Join(msgs, "; "))
	}

	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("unmarshal reply: %w", err)
	}
	return nil
}
