package types

import "time"

type PipelineStatus string

const (
	PipelineStatusCreated  PipelineStatus = "created"
	PipelineStatusRunning  PipelineStatus = "running"
	PipelineStatusComplete PipelineStatus = "complete"
	PipelineStatusFailed   PipelineStatus = "failed"
)

type PipelineSession struct {
	ID           string         `json:"id"`
	Title        string         `json:"title,omitempty"`
	Status       PipelineStatus `json:"status"`
	CurrentPhase string         `json:"current_phase,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt *time.Time     `json:"last_active_at,omitempty"`
}
