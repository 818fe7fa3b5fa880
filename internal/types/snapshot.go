package types

import "time"

// SessionSnapshot is the locally cached view of a pipeline session,
// enough to list and resume sessions while the server is unreachable.
type SessionSnapshot struct {
	SessionID        string         `json:"session_id"`
	Title            string         `json:"title,omitempty"`
	Status           PipelineStatus `json:"status,omitempty"`
	Stage            string         `json:"stage,omitempty"`
	Phase            string         `json:"phase,omitempty"`
	LastMessage      string         `json:"last_message,omitempty"`
	DraftedSections  []string       `json:"drafted_sections,omitempty"`
	ApprovedSections []string       `json:"approved_sections,omitempty"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func CloneSessionSnapshot(snapshot *SessionSnapshot) *SessionSnapshot {
	if snapshot == nil {
		return nil
	}
	out := *snapshot
	out.DraftedSections = append([]string(nil), snapshot.DraftedSections...)
	out.ApprovedSections = append([]string(nil), snapshot.ApprovedSections...)
	return &out
}
