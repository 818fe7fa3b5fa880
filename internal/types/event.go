package types

type PipelineEvent struct {
	Type    string `json:"type"`
	Payload string `json:"payload,omitempty"`
	TS      string `json:"ts,omitempty"`
}

const (
	EventConnected           = "connected"
	EventSessionRestore      = "session_restore"
	EventTextDelta           = "text_delta"
	EventTextComplete        = "text_complete"
	EventToolStart           = "tool_start"
	EventToolComplete        = "tool_complete"
	EventAskUser             = "ask_user"
	EventPhaseGate           = "phase_gate"
	EventRightPanelUpdate    = "right_panel_update"
	EventPhaseChange         = "phase_change"
	EventStageStart          = "stage_start"
	EventStageComplete       = "stage_complete"
	EventPositioningQuestion = "positioning_question"
	EventSectionDraft        = "section_draft"
	EventSectionApproved     = "section_approved"
	EventSectionStatus       = "section_status"
	EventSectionError        = "section_error"
	EventPipelineComplete    = "pipeline_complete"
	EventPipelineError       = "pipeline_error"
	EventError               = "error"
	EventHeartbeat           = "heartbeat"
	EventSystemMessage       = "system_message"
	EventQualityScores       = "quality_scores"
)
