package payload

import (
	"fmt"
	"strings"
	"time"

	"loom/internal/types"
)

const maxSectionSuggestions = 5

var timeNow = time.Now

// SanitizeSectionContext builds a sanitized section context from a decoded
// payload. Returns nil when the required section name is missing.
func SanitizeSectionContext(payload map[string]any) *types.SectionContext {
	section := strings.TrimSpace(String(payload, "section"))
	if section == "" {
		return nil
	}

	out := &types.SectionContext{
		Section:     section,
		Evidence:    sanitizeEvidence(List(payload, "evidence")),
		Keywords:    sanitizeKeywords(List(payload, "keywords")),
		GapMappings: sanitizeGapMappings(List(payload, "gap_mappings")),
		Suggestions: sanitizeSuggestions(List(payload, "suggestions")),
	}

	if version := Int64(payload, "context_version"); version > 0 {
		out.ContextVersion = int(version)
	}

	out.GeneratedAt = timeNow().UTC()
	if raw := strings.TrimSpace(String(payload, "generated_at")); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			out.GeneratedAt = ts.UTC()
		}
	}
	return out
}

func sanitizeEvidence(items []any) []types.EvidenceItem {
	out := make([]types.EvidenceItem, 0, len(items))
	for i, entry := range items {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id := strings.TrimSpace(String(m, "id"))
		if id == "" {
			id = fmt.Sprintf("evidence_%d", i)
		}
		out = append(out, types.EvidenceItem{
			ID:     id,
			Text:   strings.TrimSpace(String(m, "text")),
			Source: strings.TrimSpace(String(m, "source")),
		})
	}
	return out
}

func sanitizeKeywords(items []any) []types.KeywordEntry {
	out := make([]types.KeywordEntry, 0, len(items))
	for _, entry := range items {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		keyword := strings.TrimSpace(String(m, "keyword"))
		if keyword == "" {
			continue
		}
		out = append(out, types.KeywordEntry{
			Keyword:  keyword,
			Priority: AsPriorityTier(m["priority"]),
		})
	}
	return out
}

func sanitizeGapMappings(items []any) []types.GapMapping {
	out := make([]types.GapMapping, 0, len(items))
	for _, entry := range items {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		requirement := strings.TrimSpace(String(m, "requirement"))
		if requirement == "" {
			continue
		}
		out = append(out, types.GapMapping{
			Requirement:    requirement,
			Classification: AsGapClassification(m["classification"]),
			Note:           strings.TrimSpace(String(m, "note")),
		})
	}
	return out
}

func sanitizeSuggestions(items []any) []types.SectionSuggestion {
	out := make([]types.SectionSuggestion, 0, len(items))
	for _, entry := range items {
		if len(out) >= maxSectionSuggestions {
			break
		}
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		intent, ok := AsSuggestionIntent(m["intent"])
		if !ok {
			continue
		}
		out = append(out, types.SectionSuggestion{
			Intent: intent,
			Text:   strings.TrimSpace(String(m, "text")),
		})
	}
	return out
}
