package app

import (
	"testing"

	"loom/internal/pipeline"
	"loom/internal/types"
)

func newViewModel() *Model {
	return NewModel(Deps{SessionID: "s1"})
}

func TestCurrentGateFoldsAskPrompt(t *testing.T) {
	m := newViewModel()
	m.state.SetAskPrompt(&types.AskPrompt{
		ToolCallID:  "call-1",
		Question:    "Which role?",
		Choices:     []string{"Backend", "Platform"},
		SkipAllowed: true,
	})

	gate := m.currentGate()
	if gate == nil {
		t.Fatalf("expected a gate")
	}
	if gate.gateID != "call-1" || len(gate.choices) != 2 || !gate.skippable {
		t.Fatalf("unexpected gate: %#v", gate)
	}
	if gate.freeText {
		t.Fatalf("choice prompt should not default to free text")
	}
}

func TestCurrentGatePhaseGateDefaultsChoices(t *testing.T) {
	m := newViewModel()
	m.state.SetPhaseGate(&types.PhaseGate{GateID: "gate-1", ToPhase: "drafting"})

	gate := m.currentGate()
	if gate == nil {
		t.Fatalf("expected a gate")
	}
	if gate.title != "Continue to drafting?" {
		t.Fatalf("unexpected title %q", gate.title)
	}
	if len(gate.choices) != 2 || gate.choices[0] != "approve" {
		t.Fatalf("unexpected default choices: %#v", gate.choices)
	}
}

func TestCurrentGateSectionDraftOffersApproveRevise(t *testing.T) {
	m := newViewModel()
	m.state.SetSectionDraft(&types.SectionDraft{Section: "summary", Content: "text"})

	gate := m.currentGate()
	if gate == nil || gate.gateID != "summary" {
		t.Fatalf("unexpected gate: %#v", gate)
	}
	if len(gate.choices) != 2 {
		t.Fatalf("unexpected choices: %#v", gate.choices)
	}
}

func TestCurrentGateNilWhenInactive(t *testing.T) {
	m := newViewModel()
	if gate := m.currentGate(); gate != nil {
		t.Fatalf("no gate expected, got %#v", gate)
	}
}

func TestGateResponseForSubmitUsesSelectedChoice(t *testing.T) {
	m := newViewModel()
	m.state.SetPhaseGate(&types.PhaseGate{GateID: "gate-1", Options: []string{"approve", "revise"}})
	m.gateChoice = 1

	response := m.gateResponseForSubmit()
	if response == nil || response.Response != "revise" || response.GateID != "gate-1" {
		t.Fatalf("unexpected response: %#v", response)
	}
}

func TestGateResponseForSubmitUsesTypedText(t *testing.T) {
	m := newViewModel()
	m.state.SetAskPrompt(&types.AskPrompt{ToolCallID: "call-1", Question: "Anything to add?"})
	m.input.SetValue("  lead with the platform work  ")

	response := m.gateResponseForSubmit()
	if response == nil || response.Response != "lead with the platform work" {
		t.Fatalf("unexpected response: %#v", response)
	}
}

func TestGateResponseForSubmitEmptyTextIsNil(t *testing.T) {
	m := newViewModel()
	m.state.SetAskPrompt(&types.AskPrompt{ToolCallID: "call-1", Question: "Anything to add?"})

	if response := m.gateResponseForSubmit(); response != nil {
		t.Fatalf("expected nil for empty input, got %#v", response)
	}
}

var _ pipeline.GateSender = (*recordingGateSender)(nil)
