package payload

import (
	"testing"
	"time"
)

func TestSanitizeSectionContextRequiresSection(t *testing.T) {
	if got := SanitizeSectionContext(nil); got != nil {
		t.Fatalf("expected nil for nil payload, got %#v", got)
	}
	if got := SanitizeSectionContext(map[string]any{"section": "  "}); got != nil {
		t.Fatalf("expected nil for blank section, got %#v", got)
	}
}

func TestSanitizeSectionContextSynthesizesEvidenceIDs(t *testing.T) {
	ctx := SanitizeSectionContext(map[string]any{
		"section": "experience",
		"evidence": []any{
			map[string]any{"text": "led migration"},
			map[string]any{"id": "ev_7", "text": "cut latency"},
			"not an object",
		},
	})
	if ctx == nil {
		t.Fatal("expected context")
	}
	if len(ctx.Evidence) != 2 {
		t.Fatalf("unexpected evidence: %#v", ctx.Evidence)
	}
	if ctx.Evidence[0].ID != "evidence_0" {
		t.Fatalf("expected synthesized id, got %q", ctx.Evidence[0].ID)
	}
	if ctx.Evidence[1].ID != "ev_7" {
		t.Fatalf("expected provided id kept, got %q", ctx.Evidence[1].ID)
	}
}

func TestSanitizeSectionContextDropsIncompleteEntries(t *testing.T) {
	ctx := SanitizeSectionContext(map[string]any{
		"section": "skills",
		"keywords": []any{
			map[string]any{"keyword": "", "priority": "high"},
			map[string]any{"keyword": " kubernetes ", "priority": "high"},
		},
		"gap_mappings": []any{
			map[string]any{"requirement": ""},
			map[string]any{"requirement": "5y Go", "classification": "partial"},
		},
	})
	if ctx == nil {
		t.Fatal("expected context")
	}
	if len(ctx.Keywords) != 1 || ctx.Keywords[0].Keyword != "kubernetes" {
		t.Fatalf("unexpected keywords: %#v", ctx.Keywords)
	}
	if len(ctx.GapMappings) != 1 || ctx.GapMappings[0].Requirement != "5y Go" {
		t.Fatalf("unexpected gap mappings: %#v", ctx.GapMappings)
	}
}

func TestSanitizeSectionContextCapsSuggestions(t *testing.T) {
	suggestions := make([]any, 0, 10)
	for i := 0; i < 10; i++ {
		suggestions = append(suggestions, map[string]any{"intent": "add_bullet", "text": "more impact"})
	}
	ctx := SanitizeSectionContext(map[string]any{"section": "summary", "suggestions": suggestions})
	if ctx == nil {
		t.Fatal("expected context")
	}
	if len(ctx.Suggestions) != maxSectionSuggestions {
		t.Fatalf("expected %d suggestions, got %d", maxSectionSuggestions, len(ctx.Suggestions))
	}
}

func TestSanitizeSectionContextDropsUnknownIntents(t *testing.T) {
	ctx := SanitizeSectionContext(map[string]any{
		"section": "summary",
		"suggestions": []any{
			map[string]any{"intent": "fabricate", "text": "invent a job"},
			map[string]any{"intent": "clarify", "text": "name the team size"},
		},
	})
	if ctx == nil {
		t.Fatal("expected context")
	}
	if len(ctx.Suggestions) != 1 || ctx.Suggestions[0].Intent != "clarify" {
		t.Fatalf("unexpected suggestions: %#v", ctx.Suggestions)
	}
}

func TestSanitizeSectionContextVersionAndTimestampDefaults(t *testing.T) {
	restore := timeNow
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return fixed }
	defer func() { timeNow = restore }()

	ctx := SanitizeSectionContext(map[string]any{"section": "summary", "context_version": float64(-4)})
	if ctx == nil {
		t.Fatal("expected context")
	}
	if ctx.ContextVersion != 0 {
		t.Fatalf("expected version clamped to 0, got %d", ctx.ContextVersion)
	}
	if !ctx.GeneratedAt.Equal(fixed) {
		t.Fatalf("expected defaulted timestamp, got %v", ctx.GeneratedAt)
	}

	ctx = SanitizeSectionContext(map[string]any{
		"section":         "summary",
		"context_version": float64(3),
		"generated_at":    "2025-02-01T09:30:00Z",
	})
	if ctx.ContextVersion != 3 {
		t.Fatalf("expected version 3, got %d", ctx.ContextVersion)
	}
	want := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)
	if !ctx.GeneratedAt.Equal(want) {
		t.Fatalf("expected parsed timestamp, got %v", ctx.GeneratedAt)
	}
}
