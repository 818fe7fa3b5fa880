package client

import "loom/internal/types"

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version,omitempty"`
}

type SessionsResponse struct {
	Sessions []*types.PipelineSession `json:"sessions"`
}

type StartPipelineRequest struct {
	Title      string `json:"title,omitempty"`
	JobPosting string `json:"job_posting,omitempty"`
	ResumeText string `json:"resume_text,omitempty"`
}

type SendMessageRequest struct {
	Message string `json:"message"`
}

type GateResponseResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}
