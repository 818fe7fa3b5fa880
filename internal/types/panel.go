package types

type PanelType string

const (
	PanelTypeNone              PanelType = ""
	PanelTypeOnboardingSummary PanelType = "onboarding_summary"
	PanelTypeLiveResume        PanelType = "live_resume"
	PanelTypePositioning       PanelType = "positioning"
	PanelTypeSectionDraft      PanelType = "section_draft"
	PanelTypeQualityDashboard  PanelType = "quality_dashboard"
	PanelTypeCompletion        PanelType = "completion"
	PanelTypeWorkflowReplan    PanelType = "workflow_replan"
)

type QualityScores struct {
	Overall    float64            `json:"overall"`
	Dimensions map[string]float64 `json:"dimensions,omitempty"`
	Summary    string             `json:"summary,omitempty"`
}

type DraftReadiness struct {
	Ready           bool     `json:"ready"`
	MissingSections []string `json:"missing_sections,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

type WorkflowReplan struct {
	Reason string   `json:"reason,omitempty"`
	Stages []string `json:"stages,omitempty"`
}

type Resume struct {
	Headline string            `json:"headline,omitempty"`
	Sections map[string]string `json:"sections,omitempty"`
}
