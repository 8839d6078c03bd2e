// Package generation implements the generation client: provider invocation,
// structured-output recovery, output validation, and the bounded retry
// controller around one participant's generation.
package generation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// The two textual repairs below are deliberately narrow. They target the only
// malformations observed in provider output and must not grow into a general
// "fix anything" parser:
//
//   - splitListPattern heals a single list emitted as two adjacent bracketed
//     lists ("...","] , ["...") — an artifact of the model "continuing" a
//     field mid-array.
//   - trailingCommaPattern removes a trailing comma immediately before a
//     closing brace or bracket.
var (
	splitListPattern     = regexp.MustCompile(`\]\s*,\s*\[`)
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// StripCodeFence removes a leading/trailing markdown code fence if present.
func StripCodeFence(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	return strings.TrimSpace(cleaned)
}

// RepairJSON applies both textual repairs together. The malformations
// co-occur in practice, so the repairs are not re-attempted incrementally.
func RepairJSON(text string) string {
	repaired := splitListPattern.ReplaceAllString(text, ",")
	repaired = trailingCommaPattern.ReplaceAllString(repaired, "$1")

	return repaired
}

// ParseStructured recovers a single JSON object from raw model output.
// Recovery proceeds in strict order: strip a code fence, attempt a direct
// parse, and only if that fails apply the textual repairs and reparse.
// Repairing before the first parse failure risks corrupting valid output.
func ParseStructured(raw string) (map[string]any, error) {
	cleaned := StripCodeFence(raw)

	var parsed map[string]any

	err := json.Unmarshal([]byte(cleaned), &parsed)
	if err == nil {
		return parsed, nil
	}

	parsed = nil

	err = json.Unmarshal([]byte(RepairJSON(cleaned)), &parsed)
	if err != nil {
		return nil, fmt.Errorf("structured output is unrecoverable: %w", err)
	}

	return parsed, nil
}
