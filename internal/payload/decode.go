package payload

import (
	"encoding/json"
	"fmt"
	"strings"

	"loom/internal/types"
)

// Parse decodes a raw event payload into a generic object. Server payloads
// are untrusted and may be truncated mid-stream; anything that is not a JSON
// object yields nil rather than an error so dispatch never aborts.
func Parse(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func String(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	return asString(payload[key])
}

func Bool(payload map[string]any, key string) bool {
	if payload == nil {
		return false
	}
	value, _ := payload[key].(bool)
	return value
}

func Int64(payload map[string]any, key string) int64 {
	if payload == nil {
		return 0
	}
	switch v := payload[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func Float64(payload map[string]any, key string) float64 {
	if payload == nil {
		return 0
	}
	switch v := payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func Object(payload map[string]any, key string) map[string]any {
	if payload == nil {
		return nil
	}
	value, _ := payload[key].(map[string]any)
	return value
}

func List(payload map[string]any, key string) []any {
	if payload == nil {
		return nil
	}
	value, _ := payload[key].([]any)
	return value
}

// StringList accepts only array input, keeps string elements, trims them and
// drops entries that are empty after trimming. Any other shape yields an
// empty sequence.
func StringList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, entry := range items {
		text := strings.TrimSpace(asString(entry))
		if text == "" {
			continue
		}
		out = append(out, text)
	}
	return out
}

func AsGapClassification(value any) types.GapClassification {
	switch types.GapClassification(asString(value)) {
	case types.GapClassificationGap:
		return types.GapClassificationGap
	case types.GapClassificationPartial:
		return types.GapClassificationPartial
	case types.GapClassificationCovered:
		return types.GapClassificationCovered
	default:
		return types.GapClassificationGap
	}
}

func AsPriorityTier(value any) types.PriorityTier {
	switch types.PriorityTier(asString(value)) {
	case types.PriorityTierLow:
		return types.PriorityTierLow
	case types.PriorityTierMedium:
		return types.PriorityTierMedium
	case types.PriorityTierHigh:
		return types.PriorityTierHigh
	case types.PriorityTierCritical:
		return types.PriorityTierCritical
	default:
		return types.PriorityTierLow
	}
}

// AsSuggestionIntent validates against the closed intent set. Unknown intents
// report ok=false so callers drop the whole suggestion instead of defaulting.
func AsSuggestionIntent(value any) (types.SuggestionIntent, bool) {
	switch types.SuggestionIntent(asString(value)) {
	case types.SuggestionIntentAddBullet:
		return types.SuggestionIntentAddBullet, true
	case types.SuggestionIntentReviseBullet:
		return types.SuggestionIntentReviseBullet, true
	case types.SuggestionIntentAddSkill:
		return types.SuggestionIntentAddSkill, true
	case types.SuggestionIntentReorder:
		return types.SuggestionIntentReorder, true
	case types.SuggestionIntentClarify:
		return types.SuggestionIntentClarify, true
	default:
		return "", false
	}
}

func asString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}
