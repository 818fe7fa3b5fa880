package app

import (
	"strings"

	"loom/internal/types"
)

// activeGate folds the four gate shapes into one prompt the view and key
// handler share. Section drafts gate on approve/revise; positioning
// questions reuse the ask_user input modes.
type activeGate struct {
	gateID    string
	title     string
	question  string
	context   []string
	choices   []string
	freeText  bool
	skippable bool
}

func (m *Model) currentGate() *activeGate {
	if !m.state.GateActive() {
		return nil
	}
	if prompt := m.state.AskPrompt(); prompt != nil {
		gate := &activeGate{
			gateID:    prompt.ToolCallID,
			title:     "Input needed",
			question:  prompt.Question,
			context:   prompt.Context,
			choices:   prompt.Choices,
			skippable: prompt.SkipAllowed,
		}
		gate.freeText = len(gate.choices) == 0 || prompt.InputType == "text"
		return gate
	}
	if gate := m.state.PhaseGate(); gate != nil {
		title := gate.Title
		if title == "" {
			title = "Continue to " + gate.ToPhase + "?"
		}
		choices := gate.Options
		if len(choices) == 0 {
			choices = []string{"approve", "revise"}
		}
		return &activeGate{
			gateID:   gate.GateID,
			title:    title,
			question: gate.Message,
			choices:  choices,
		}
	}
	if question := m.state.PositioningQuestion(); question != nil {
		gate := &activeGate{
			gateID:   question.ID,
			title:    "Positioning",
			question: question.Question,
			context:  question.Context,
			choices:  question.Options,
		}
		gate.freeText = len(gate.choices) == 0
		return gate
	}
	if draft := m.state.SectionDraft(); draft != nil {
		return &activeGate{
			gateID:   draft.Section,
			title:    "Review the " + draft.Section + " section",
			question: "Approve this draft or describe a revision.",
			choices:  []string{"approve", "revise"},
		}
	}
	return nil
}

func (m *Model) renderGatePrompt(width int) string {
	gate := m.currentGate()
	if gate == nil || width <= 4 {
		return ""
	}
	inner := width - 4

	var b strings.Builder
	b.WriteString(gateTitleStyle.Render(gate.title))
	if gate.question != "" {
		b.WriteString("\n")
		b.WriteString(wrapText(gate.question, inner))
	}
	for _, line := range gate.context {
		b.WriteString("\n")
		b.WriteString(panelFaintStyle.Render(line))
	}
	for i, choice := range gate.choices {
		b.WriteString("\n")
		label := choice
		if i == m.gateChoice {
			b.WriteString(gateActiveStyle.Render("▸ " + label))
		} else {
			b.WriteString(gateChoiceStyle.Render("  " + label))
		}
	}
	if gate.freeText {
		b.WriteString("\n")
		b.WriteString(m.input.View())
	}
	hints := []string{"enter submit"}
	if len(gate.choices) > 0 {
		hints = append([]string{"↑/↓ choose"}, hints...)
	}
	if gate.skippable {
		hints = append(hints, "esc skip")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(strings.Join(hints, " · ")))
	return gateFrameStyle.Width(width - 2).Render(b.String())
}

// gateResponseForSubmit builds the response for the current selection, or
// nil when there is nothing to submit yet.
func (m *Model) gateResponseForSubmit() *types.GateResponse {
	gate := m.currentGate()
	if gate == nil {
		return nil
	}
	if len(gate.choices) > 0 && !gate.freeText {
		if m.gateChoice < 0 || m.gateChoice >= len(gate.choices) {
			return nil
		}
		return &types.GateResponse{GateID: gate.gateID, Response: gate.choices[m.gateChoice]}
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		if len(gate.choices) > 0 && m.gateChoice >= 0 && m.gateChoice < len(gate.choices) {
			return &types.GateResponse{GateID: gate.gateID, Response: gate.choices[m.gateChoice]}
		}
		return nil
	}
	return &types.GateResponse{GateID: gate.gateID, Response: text}
}
