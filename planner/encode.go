package planner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodePlan turns raw model output into a validated Plan, keeping the
// failure branches distinct: output that is not JSON at all wraps
// ErrNotJSON; well-formed JSON that fails schema validation wraps
// ErrPlanInvalid.
func decodePlan(raw string) (*Plan, error) {
	clean := sanitizeJSON(raw)
	var p Plan
	if err := json.Unmarshal([]byte(clean), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// sanitizeJSON strips markdown code fences that models wrap around JSON.
func sanitizeJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = trimmed[3:]
		trimmed = strings.TrimPrefix(trimmed, "json")
		trimmed = strings.TrimPrefix(trimmed, "JSON")
		if idx := strings.Index(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
	}
	return strings.TrimSpace(trimmed)
}
