package pipeline

import (
	"fmt"
	"strings"

	"loom/internal/logging"
	"loom/internal/payload"
	"loom/internal/types"
)

// userFacingError keeps raw backend internals out of the transcript. A blank
// message, or one that carries serialized structure, degrades to the
// fallback.
func userFacingError(message, fallback string) string {
	message = strings.TrimSpace(message)
	if message == "" || strings.Contains(message, "{") {
		return fallback
	}
	return message
}

func handleConnected(r *Router, fields map[string]any) {
	r.state.SetConnected(true)
	if session := payload.String(fields, "session_id"); session != "" {
		r.state.AdoptSessionID(session)
	}
	r.progress("connected", types.EventConnected, nil)
}

// handleSessionRestore rebuilds local state from a server snapshot after a
// reconnect. The ask prompt is always dropped: a restored snapshot carries
// the pending gate authoritatively, or not at all.
func handleSessionRestore(r *Router, fields map[string]any) {
	status := payload.String(fields, "pipeline_status")
	stage := payload.String(fields, "pipeline_stage")
	phase := payload.String(fields, "current_phase")

	if stage != "" {
		r.state.SetStage(stage)
	}
	if phase != "" {
		r.state.SetPhase(phase)
	}

	if rawMessages := payload.List(fields, "messages"); rawMessages != nil {
		messages := make([]types.ChatMessage, 0, len(rawMessages))
		for _, entry := range rawMessages {
			obj, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			content := payload.String(obj, "content")
			if content == "" {
				continue
			}
			role := types.ChatRole(payload.String(obj, "role"))
			switch role {
			case types.ChatRoleUser, types.ChatRoleAssistant, types.ChatRoleSystem:
			default:
				role = types.ChatRoleAssistant
			}
			messages = append(messages, types.ChatMessage{
				ID:      payload.String(obj, "id"),
				Role:    role,
				Content: content,
			})
		}
		r.state.ReplaceMessages(messages)
	}

	r.state.SetAskPrompt(nil)
	pending := payload.Object(fields, "pending_gate")
	if status == "running" && pending != nil {
		r.state.SetPhaseGate(decodePhaseGate(pending))
	} else {
		r.state.ClearGates()
		r.state.SetProcessing(status == "running")
	}
	r.progress("session restored", types.EventSessionRestore, map[string]any{"stage": stage})
}

func handleTextDelta(r *Router, fields map[string]any) {
	text := payload.String(fields, "text")
	if text == "" {
		text = payload.String(fields, "content")
	}
	if text == "" {
		return
	}
	if r.delta != nil {
		r.delta.Append(text)
	} else {
		r.state.AppendStreamingText(text)
	}
	r.progress("", types.EventTextDelta, nil)
}

func handleTextComplete(r *Router, fields map[string]any) {
	content := payload.String(fields, "content")
	var seq *int64
	if fields != nil {
		if _, present := fields["seq"]; present {
			value := payload.Int64(fields, "seq")
			seq = &value
		}
	}
	// The completion supersedes any fragments still waiting on a frame
	// timer. Dropping them before applying keeps a late flush from
	// appending stale text after the message lands.
	if r.delta != nil {
		r.delta.Discard()
	}
	if !r.state.CompleteText(seq, content) {
		r.log.Debug("duplicate text_complete dropped")
		return
	}
	r.progress("", types.EventTextComplete, nil)
}

func handleToolStart(r *Router, fields map[string]any) {
	name := payload.String(fields, "name")
	if name == "" {
		name = payload.String(fields, "tool")
	}
	r.state.StartTool(name, payload.String(fields, "description"))
	r.state.SetProcessing(true)
	r.progress(name, types.EventToolStart, nil)
}

func handleToolComplete(r *Router, fields map[string]any) {
	name := payload.String(fields, "name")
	if name == "" {
		name = payload.String(fields, "tool")
	}
	r.state.CompleteTool(name, payload.String(fields, "summary"))
	r.progress(name, types.EventToolComplete, nil)
}

func handleAskUser(r *Router, fields map[string]any) {
	question := payload.String(fields, "question")
	if question == "" {
		return
	}
	r.state.SetAskPrompt(&types.AskPrompt{
		ToolCallID:  payload.String(fields, "tool_call_id"),
		Question:    question,
		Context:     payload.StringList(fields["context"]),
		InputType:   payload.String(fields, "input_type"),
		Choices:     payload.StringList(fields["choices"]),
		SkipAllowed: payload.Bool(fields, "skip_allowed"),
	})
	r.progress(question, types.EventAskUser, nil)
}

func decodePhaseGate(fields map[string]any) *types.PhaseGate {
	gateID := payload.String(fields, "gate_id")
	if gateID == "" {
		return nil
	}
	return &types.PhaseGate{
		GateID:    gateID,
		FromPhase: payload.String(fields, "from_phase"),
		ToPhase:   payload.String(fields, "to_phase"),
		Title:     payload.String(fields, "title"),
		Message:   payload.String(fields, "message"),
		Options:   payload.StringList(fields["options"]),
	}
}

func handlePhaseGate(r *Router, fields map[string]any) {
	gate := decodePhaseGate(fields)
	if gate == nil {
		r.log.Warn("phase_gate without gate_id dropped")
		return
	}
	r.state.SetPhaseGate(gate)
	r.progress(gate.Title, types.EventPhaseGate, map[string]any{"gate_id": gate.GateID})
}

func handleRightPanelUpdate(r *Router, fields map[string]any) {
	kind := types.PanelType(payload.String(fields, "panel_type"))
	if kind == types.PanelTypeNone {
		return
	}
	data := payload.Object(fields, "data")
	// Replan notices ride the panel channel but are an auxiliary signal,
	// not a displayed panel kind.
	if kind == types.PanelTypeWorkflowReplan {
		r.state.SetWorkflowReplan(&types.WorkflowReplan{
			Reason: payload.String(data, "reason"),
			Stages: payload.StringList(data["stages"]),
		})
		r.progress("", types.EventRightPanelUpdate, nil)
		return
	}
	r.state.ApplyPanelUpdate(kind, data)
	r.progress("", types.EventRightPanelUpdate, nil)
}

func handlePhaseChange(r *Router, fields map[string]any) {
	toPhase := payload.String(fields, "to_phase")
	if toPhase == "" {
		toPhase = payload.String(fields, "phase")
	}
	if toPhase == "" {
		return
	}
	r.state.ChangePhase(toPhase)
	r.progress(toPhase, types.EventPhaseChange, nil)
}

func handleStageStart(r *Router, fields map[string]any) {
	stage := payload.String(fields, "stage")
	if stage == "" {
		return
	}
	message := payload.String(fields, "message")
	r.state.BeginStage(stage, payload.String(fields, "phase"), message)
	r.progress(message, types.EventStageStart, map[string]any{"stage": stage})
}

func handleStageComplete(r *Router, fields map[string]any) {
	stage := payload.String(fields, "stage")
	if stage == "" {
		return
	}
	r.state.CompleteStage(stage, payload.Int64(fields, "duration_ms"))
	r.progress("", types.EventStageComplete, map[string]any{"stage": stage})
}

func handlePositioningQuestion(r *Router, fields map[string]any) {
	question := payload.String(fields, "question")
	if question == "" {
		return
	}
	r.state.SetPositioningQuestion(&types.PositioningQuestion{
		ID:       payload.String(fields, "id"),
		Question: question,
		Context:  payload.StringList(fields["context"]),
		Options:  payload.StringList(fields["options"]),
	})
	r.progress(question, types.EventPositioningQuestion, nil)
}

func handleSectionDraft(r *Router, fields map[string]any) {
	section := payload.String(fields, "section")
	if section == "" {
		return
	}
	draft := &types.SectionDraft{
		Section: section,
		Content: payload.String(fields, "content"),
		Context: payload.SanitizeSectionContext(payload.Object(fields, "context")),
	}
	r.state.SetSectionDraft(draft)
	r.progress(section, types.EventSectionDraft, map[string]any{"section": section})
}

func handleSectionApproved(r *Router, fields map[string]any) {
	section := payload.String(fields, "section")
	if section == "" {
		return
	}
	if !r.state.ApproveSection(section) {
		r.log.Warn("approval for undrafted section dropped", logging.F("section", section))
		return
	}
	r.progress(section, types.EventSectionApproved, map[string]any{"section": section})
}

// handleSectionError surfaces a failed section as a system message. A single
// section failing does not end the pipeline, so it never touches the global
// error or processing state.
func handleSectionError(r *Router, fields map[string]any) {
	section := payload.String(fields, "section")
	fallback := "Drafting failed"
	if section != "" {
		fallback = fmt.Sprintf("Drafting failed for the %s section", section)
	}
	r.state.AppendMessage(types.ChatRoleSystem, userFacingError(payload.String(fields, "message"), fallback))
}

func handlePipelineComplete(r *Router, fields map[string]any) {
	var resume *types.Resume
	if obj := payload.Object(fields, "resume"); obj != nil {
		resume = &types.Resume{
			Headline: payload.String(obj, "headline"),
			Sections: map[string]string{},
		}
		for key, value := range payload.Object(obj, "sections") {
			if text, ok := value.(string); ok && strings.TrimSpace(text) != "" {
				resume.Sections[key] = text
			}
		}
	}
	r.state.CompletePipeline(resume)
	r.progress("pipeline complete", types.EventPipelineComplete, nil)
}

func handlePipelineError(r *Router, fields map[string]any) {
	r.state.SetError(userFacingError(payload.String(fields, "message"), "Pipeline error"))
}

func handleError(r *Router, fields map[string]any) {
	r.state.SetError(userFacingError(payload.String(fields, "message"), "Something went wrong. Please try again."))
}

func handleHeartbeat(r *Router, fields map[string]any) {
	r.state.Heartbeat(
		payload.String(fields, "stage"),
		payload.String(fields, "message"),
		payload.String(fields, "source"),
		payload.String(fields, "expected_next_action"),
	)
}

func handleSystemMessage(r *Router, fields map[string]any) {
	message := strings.TrimSpace(payload.String(fields, "message"))
	if message == "" {
		return
	}
	r.state.AppendMessage(types.ChatRoleSystem, message)
}

func handleQualityScores(r *Router, fields map[string]any) {
	scores := &types.QualityScores{
		Overall: payload.Float64(fields, "overall"),
		Summary: payload.String(fields, "summary"),
	}
	if dims := payload.Object(fields, "dimensions"); len(dims) > 0 {
		scores.Dimensions = make(map[string]float64, len(dims))
		for key, value := range dims {
			if f, ok := value.(float64); ok {
				scores.Dimensions[key] = f
			}
		}
	}
	r.state.SetQualityScores(scores)
	if readiness := payload.Object(fields, "readiness"); readiness != nil {
		r.state.SetDraftReadiness(&types.DraftReadiness{
			Ready:           payload.Bool(readiness, "ready"),
			MissingSections: payload.StringList(readiness["missing_sections"]),
			Notes:           payload.String(readiness, "notes"),
		})
	}
	r.progress("", types.EventQualityScores, nil)
}
