package types

type AskPrompt struct {
	ToolCallID  string   `json:"tool_call_id"`
	Question    string   `json:"question"`
	Context     []string `json:"context,omitempty"`
	InputType   string   `json:"input_type,omitempty"`
	Choices     []string `json:"choices,omitempty"`
	SkipAllowed bool     `json:"skip_allowed,omitempty"`
}

type PhaseGate struct {
	GateID    string   `json:"gate_id"`
	FromPhase string   `json:"from_phase,omitempty"`
	ToPhase   string   `json:"to_phase,omitempty"`
	Title     string   `json:"title,omitempty"`
	Message   string   `json:"message,omitempty"`
	Options   []string `json:"options,omitempty"`
}

type GateResponse struct {
	GateID   string `json:"gate_id"`
	Response string `json:"response"`
	Skipped  bool   `json:"skipped,omitempty"`
}
