package copilot

import (
	"encoding/json"
	"strings"
)

// decodeJSONArgs parses a provider's JSON-encoded tool arguments,
// returning nil for anything unparseable.
func decodeJSONArgs(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil
	}
	return args
}
