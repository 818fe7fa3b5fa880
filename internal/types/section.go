package types

import "time"

type GapClassification string

const (
	GapClassificationGap     GapClassification = "gap"
	GapClassificationPartial GapClassification = "partial"
	GapClassificationCovered GapClassification = "covered"
)

type PriorityTier string

const (
	PriorityTierLow      PriorityTier = "low"
	PriorityTierMedium   PriorityTier = "medium"
	PriorityTierHigh     PriorityTier = "high"
	PriorityTierCritical PriorityTier = "critical"
)

type SuggestionIntent string

const (
	SuggestionIntentAddBullet    SuggestionIntent = "add_bullet"
	SuggestionIntentReviseBullet SuggestionIntent = "revise_bullet"
	SuggestionIntentAddSkill     SuggestionIntent = "add_skill"
	SuggestionIntentReorder      SuggestionIntent = "reorder"
	SuggestionIntentClarify      SuggestionIntent = "clarify"
)

type EvidenceItem struct {
	ID     string `json:"id"`
	Text   string `json:"text,omitempty"`
	Source string `json:"source,omitempty"`
}

type KeywordEntry struct {
	Keyword  string       `json:"keyword"`
	Priority PriorityTier `json:"priority"`
}

type GapMapping struct {
	Requirement    string            `json:"requirement"`
	Classification GapClassification `json:"classification"`
	Note           string            `json:"note,omitempty"`
}

type SectionSuggestion struct {
	Intent SuggestionIntent `json:"intent"`
	Text   string           `json:"text,omitempty"`
}

type SectionContext struct {
	Section        string              `json:"section"`
	Evidence       []EvidenceItem      `json:"evidence,omitempty"`
	Keywords       []KeywordEntry      `json:"keywords,omitempty"`
	GapMappings    []GapMapping        `json:"gap_mappings,omitempty"`
	Suggestions    []SectionSuggestion `json:"suggestions,omitempty"`
	ContextVersion int                 `json:"context_version"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

type SectionDraft struct {
	Section string          `json:"section"`
	Content string          `json:"content"`
	Context *SectionContext `json:"context,omitempty"`
}

type PositioningQuestion struct {
	ID       string   `json:"id,omitempty"`
	Question string   `json:"question"`
	Context  []string `json:"context,omitempty"`
	Options  []string `json:"options,omitempty"`
}
