package types

import "time"

type ProcessingState string

const (
	ProcessingStateIdle       ProcessingState = "idle"
	ProcessingStateProcessing ProcessingState = "processing"
	ProcessingStateWaiting    ProcessingState = "waiting_for_input"
	ProcessingStateComplete   ProcessingState = "complete"
	ProcessingStateError      ProcessingState = "error"
)

type ActivityMeta struct {
	ProcessingState       ProcessingState `json:"processing_state"`
	Stage                 string          `json:"stage,omitempty"`
	StageStartedAt        *time.Time      `json:"stage_started_at,omitempty"`
	LastProgressAt        *time.Time      `json:"last_progress_at,omitempty"`
	LastHeartbeatAt       *time.Time      `json:"last_heartbeat_at,omitempty"`
	LastBackendActivityAt *time.Time      `json:"last_backend_activity_at,omitempty"`
	LastStageDurationMS   int64           `json:"last_stage_duration_ms,omitempty"`
	CurrentActivity       string          `json:"current_activity_message,omitempty"`
	CurrentActivitySource string          `json:"current_activity_source,omitempty"`
	ExpectedNextAction    string          `json:"expected_next_action,omitempty"`
}
