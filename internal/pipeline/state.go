package pipeline

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"loom/internal/types"
)

const maxToolActivities = 20

// State is the single mutable aggregate for one pipeline session. All
// mutation goes through the named operations below so the invariants (tool
// cap, seq dedup, single in-flight gate response) stay centrally checkable.
// The router and the two background monitors are the only writers.
type State struct {
	mu sync.Mutex

	sessionID string

	connected       bool
	errMessage      string
	isProcessing    bool
	sessionComplete bool
	currentPhase    string
	pipelineStage   string
	gateActive      bool
	stalled         bool

	lastBackendActivityAt *time.Time
	activity              types.ActivityMeta

	messages      []types.ChatMessage
	streamingText string
	tools         []types.ToolActivity

	askPrompt   *types.AskPrompt
	phaseGate   *types.PhaseGate
	positioning *types.PositioningQuestion

	panelType types.PanelType
	panelData map[string]any

	resume          *types.Resume
	sectionDraft    *types.SectionDraft
	sectionContent  map[string]string
	sectionContexts map[string]*types.SectionContext
	approved        map[string]string

	qualityScores  *types.QualityScores
	draftReadiness *types.DraftReadiness
	workflowReplan *types.WorkflowReplan

	// Out-of-band counters and locks. lastSeq/lastTextComplete are written
	// only by CompleteText; isResponding only by the gate responder (and the
	// force reset on gate activation); lastProgress by MarkProgress and the
	// stage handlers.
	lastSeq           int64
	lastTextComplete  string
	reconnectAttempts int
	isResponding      bool
	staleNoticeActive bool
	lastProgress      time.Time

	mounted bool
	version int

	now   func() time.Time
	newID func() string
}

func NewState(sessionID string) *State {
	return &State{
		sessionID:       strings.TrimSpace(sessionID),
		sectionContent:  map[string]string{},
		sectionContexts: map[string]*types.SectionContext{},
		approved:        map[string]string{},
		activity:        types.ActivityMeta{ProcessingState: types.ProcessingStateIdle},
		mounted:         true,
		now:             time.Now,
		newID:           func() string { return uuid.NewString() },
	}
}

func (s *State) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Close marks the aggregate torn down. Mutations after Close are no-ops so
// late timer callbacks cannot write to a disposed session.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = false
}

func (s *State) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

func (s *State) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// AdoptSessionID records the server-assigned id for a session started
// without one. An id already in place wins.
func (s *State) AdoptSessionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id = strings.TrimSpace(id)
	if !s.mounted || id == "" || s.sessionID != "" {
		return
	}
	s.sessionID = id
	s.version++
}

func (s *State) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.connected = connected
	if connected {
		s.errMessage = ""
		s.reconnectAttempts = 0
		s.activity.CurrentActivitySource = "system"
	}
	s.version++
}

func (s *State) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.errMessage = message
	s.isProcessing = false
	s.gateActive = false
	s.activity.ProcessingState = types.ProcessingStateError
	s.version++
}

func (s *State) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMessage
}

func (s *State) SetProcessing(processing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.setProcessingLocked(processing)
	s.version++
}

func (s *State) setProcessingLocked(processing bool) {
	s.isProcessing = processing
	if processing {
		s.activity.ProcessingState = types.ProcessingStateProcessing
	} else if s.activity.ProcessingState == types.ProcessingStateProcessing {
		s.activity.ProcessingState = types.ProcessingStateIdle
	}
}

func (s *State) IsProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isProcessing
}

func (s *State) SetPhase(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.currentPhase = strings.TrimSpace(phase)
	s.version++
}

func (s *State) BeginStage(stage, phase, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	now := s.now().UTC()
	s.pipelineStage = strings.TrimSpace(stage)
	if phase = strings.TrimSpace(phase); phase != "" {
		s.currentPhase = phase
	}
	s.setProcessingLocked(true)
	s.gateActive = false
	s.activity.Stage = s.pipelineStage
	s.activity.StageStartedAt = &now
	s.activity.CurrentActivity = message
	if message = strings.TrimSpace(message); message != "" {
		s.appendMessageLocked(types.ChatRoleSystem, message)
	}
	s.markProgressLocked(now)
	s.version++
}

func (s *State) CompleteStage(stage string, durationMS int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.setProcessingLocked(false)
	if stage = strings.TrimSpace(stage); stage != "" {
		s.pipelineStage = stage
		s.activity.Stage = stage
	}
	if durationMS > 0 {
		s.activity.LastStageDurationMS = durationMS
	}
	s.version++
}

func (s *State) Stage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipelineStage
}

func (s *State) SetStage(stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.pipelineStage = strings.TrimSpace(stage)
	s.activity.Stage = s.pipelineStage
	s.version++
}

func (s *State) Phase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPhase
}

// ChangePhase applies a phase transition: gates and tool activity from the
// previous phase no longer apply.
func (s *State) ChangePhase(toPhase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.currentPhase = strings.TrimSpace(toPhase)
	s.phaseGate = nil
	s.askPrompt = nil
	s.tools = nil
	if s.currentPhase == "complete" {
		s.activity.ProcessingState = types.ProcessingStateComplete
	}
	s.version++
}

func (s *State) AppendMessage(role types.ChatRole, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.appendMessageLocked(role, content)
	s.version++
}

func (s *State) appendMessageLocked(role types.ChatRole, content string) {
	s.messages = append(s.messages, types.ChatMessage{
		ID:        s.newID(),
		Role:      role,
		Content:   content,
		Timestamp: s.now().UTC(),
	})
}

func (s *State) ReplaceMessages(messages []types.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.messages = append([]types.ChatMessage(nil), messages...)
	s.version++
}

func (s *State) Messages() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ChatMessage(nil), s.messages...)
}

// AppendStreamingText is the delta-buffer flush target: one call per display
// frame regardless of how many fragments arrived.
func (s *State) AppendStreamingText(chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || chunk == "" {
		return
	}
	s.streamingText += chunk
	s.version++
}

func (s *State) StreamingText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamingText
}

// CompleteText applies a text_complete event. Completion events may arrive
// duplicated or out of order across reconnects: an event is applied only if
// its sequence is strictly newer, or, with no sequence, if the content
// differs from the previous completion. Reports whether state changed.
func (s *State) CompleteText(seq *int64, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return false
	}
	if seq != nil {
		if *seq <= s.lastSeq {
			return false
		}
		s.lastSeq = *seq
	} else if content == s.lastTextComplete {
		return false
	}
	s.lastTextComplete = content
	if strings.TrimSpace(content) != "" {
		s.appendMessageLocked(types.ChatRoleAssistant, content)
	}
	s.streamingText = ""
	s.setProcessingLocked(false)
	s.version++
	return true
}

func (s *State) StartTool(name, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || strings.TrimSpace(name) == "" {
		return
	}
	s.tools = append(s.tools, types.ToolActivity{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Status:      types.ToolStatusRunning,
	})
	if len(s.tools) > maxToolActivities {
		s.tools = s.tools[len(s.tools)-maxToolActivities:]
	}
	s.version++
}

func (s *State) CompleteTool(name, summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	name = strings.TrimSpace(name)
	for i := len(s.tools) - 1; i >= 0; i-- {
		if s.tools[i].Name == name && s.tools[i].Status == types.ToolStatusRunning {
			s.tools[i].Status = types.ToolStatusComplete
			s.tools[i].Summary = strings.TrimSpace(summary)
			s.version++
			return
		}
	}
}

func (s *State) Tools() []types.ToolActivity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ToolActivity(nil), s.tools...)
}

func (s *State) ClearTools() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.tools = nil
	s.version++
}

// SetAskPrompt activates an ask_user gate. Activation force-releases a wedged
// response lock left over from a previous stage.
func (s *State) SetAskPrompt(prompt *types.AskPrompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.askPrompt = prompt
	if prompt != nil {
		s.gateActive = true
		s.isResponding = false
		s.setProcessingLocked(false)
		s.activity.ProcessingState = types.ProcessingStateWaiting
	}
	s.version++
}

func (s *State) AskPrompt() *types.AskPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.askPrompt
}

func (s *State) SetPhaseGate(gate *types.PhaseGate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.phaseGate = gate
	if gate != nil {
		s.gateActive = true
		s.isResponding = false
		s.setProcessingLocked(false)
		s.activity.ProcessingState = types.ProcessingStateWaiting
	}
	s.version++
}

func (s *State) PhaseGate() *types.PhaseGate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phaseGate
}

func (s *State) SetGateActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.gateActive = active
	s.version++
}

func (s *State) GateActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gateActive
}

func (s *State) ClearGates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.askPrompt = nil
	s.phaseGate = nil
	s.positioning = nil
	s.gateActive = false
	s.version++
}

// TryBeginResponse acquires the single-flight lock for a gate response.
func (s *State) TryBeginResponse() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || s.isResponding {
		return false
	}
	s.isResponding = true
	return true
}

func (s *State) EndResponse() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isResponding = false
}

func (s *State) IsResponding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isResponding
}

func (s *State) SetPositioningQuestion(question *types.PositioningQuestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.positioning = question
	if question != nil {
		s.gateActive = true
		s.isResponding = false
		s.setProcessingLocked(false)
		s.panelType = types.PanelTypePositioning
		s.activity.ProcessingState = types.ProcessingStateWaiting
	}
	s.version++
}

func (s *State) PositioningQuestion() *types.PositioningQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positioning
}

// ApplyPanelUpdate applies the panel merge policy: onboarding_summary and
// live_resume updates merge into a previous panel of the same kind (and
// live_resume concatenates the changes list); every other kind replaces the
// panel wholesale.
func (s *State) ApplyPanelUpdate(kind types.PanelType, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || kind == types.PanelTypeNone {
		return
	}
	merge := kind == types.PanelTypeOnboardingSummary || kind == types.PanelTypeLiveResume
	if merge && s.panelType == kind && s.panelData != nil {
		merged := make(map[string]any, len(s.panelData)+len(data))
		for key, value := range s.panelData {
			merged[key] = value
		}
		for key, value := range data {
			merged[key] = value
		}
		if kind == types.PanelTypeLiveResume {
			previous, _ := s.panelData["changes"].([]any)
			next, _ := data["changes"].([]any)
			if len(previous) > 0 || len(next) > 0 {
				merged["changes"] = append(append([]any(nil), previous...), next...)
			}
		}
		s.panelData = merged
	} else {
		s.panelType = kind
		s.panelData = data
	}
	s.version++
}

func (s *State) SetPanel(kind types.PanelType, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.panelType = kind
	s.panelData = data
	s.version++
}

func (s *State) Panel() (types.PanelType, map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelType, s.panelData
}

func (s *State) SetSectionDraft(draft *types.SectionDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || draft == nil || strings.TrimSpace(draft.Section) == "" {
		return
	}
	s.sectionDraft = draft
	s.sectionContent[draft.Section] = draft.Content
	if draft.Context != nil {
		s.sectionContexts[draft.Section] = draft.Context
	}
	s.panelType = types.PanelTypeSectionDraft
	s.gateActive = true
	s.isResponding = false
	s.setProcessingLocked(false)
	s.activity.ProcessingState = types.ProcessingStateWaiting
	s.version++
}

func (s *State) SectionDraft() *types.SectionDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sectionDraft
}

func (s *State) SectionContext(section string) *types.SectionContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sectionContexts[section]
}

// ApproveSection moves drafted content into the approved set. A section that
// was never drafted cannot be approved.
func (s *State) ApproveSection(section string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return false
	}
	section = strings.TrimSpace(section)
	content, ok := s.sectionContent[section]
	if !ok {
		return false
	}
	s.approved[section] = content
	s.gateActive = false
	s.version++
	return true
}

func (s *State) ApprovedSections() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.approved))
	for section, content := range s.approved {
		out[section] = content
	}
	return out
}

func (s *State) SectionContent() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.sectionContent))
	for section, content := range s.sectionContent {
		out[section] = content
	}
	return out
}

func (s *State) CompletePipeline(resume *types.Resume) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.sessionComplete = true
	s.pipelineStage = "complete"
	s.activity.Stage = "complete"
	s.activity.ProcessingState = types.ProcessingStateComplete
	s.gateActive = false
	s.setProcessingLocked(false)
	s.panelType = types.PanelTypeCompletion
	if resume != nil {
		s.resume = resume
	} else {
		sections := make(map[string]string, len(s.sectionContent))
		for section, content := range s.sectionContent {
			sections[section] = content
		}
		s.resume = &types.Resume{Sections: sections}
	}
	s.version++
}

func (s *State) SessionComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionComplete
}

func (s *State) Resume() *types.Resume {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resume
}

func (s *State) SetQualityScores(scores *types.QualityScores) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || scores == nil {
		return
	}
	s.qualityScores = scores
	s.panelType = types.PanelTypeQualityDashboard
	s.version++
}

func (s *State) QualityScores() *types.QualityScores {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qualityScores
}

func (s *State) SetDraftReadiness(readiness *types.DraftReadiness) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.draftReadiness = readiness
	s.version++
}

func (s *State) DraftReadiness() *types.DraftReadiness {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftReadiness
}

func (s *State) SetWorkflowReplan(replan *types.WorkflowReplan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.workflowReplan = replan
	s.version++
}

func (s *State) WorkflowReplan() *types.WorkflowReplan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflowReplan
}

// Heartbeat merges backend liveness metadata. Heartbeats that arrive while
// the pipeline is idle are discarded.
func (s *State) Heartbeat(stage, message, source, nextAction string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || !s.isProcessing {
		return
	}
	now := s.now().UTC()
	s.activity.LastHeartbeatAt = &now
	s.activity.LastBackendActivityAt = &now
	s.lastBackendActivityAt = &now
	if stage = strings.TrimSpace(stage); stage != "" {
		s.activity.Stage = stage
	}
	if message = strings.TrimSpace(message); message != "" {
		s.activity.CurrentActivity = message
	}
	if source = strings.TrimSpace(source); source != "" {
		s.activity.CurrentActivitySource = source
	}
	if nextAction = strings.TrimSpace(nextAction); nextAction != "" {
		s.activity.ExpectedNextAction = nextAction
	}
	s.version++
}

func (s *State) Activity() types.ActivityMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activity
}

// MarkProgress records a confirmed progress signal and rearms the one-shot
// stale notice.
func (s *State) MarkProgress(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.markProgressLocked(at)
	s.version++
}

func (s *State) markProgressLocked(at time.Time) {
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()
	s.lastProgress = at
	s.activity.LastProgressAt = &at
	s.activity.LastBackendActivityAt = &at
	s.lastBackendActivityAt = &at
	s.staleNoticeActive = false
	s.stalled = false
}

func (s *State) LastProgress() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastProgress
}

// MarkStalled fires the one-shot stale notice. Returns false when the notice
// already fired since the last progress signal.
func (s *State) MarkStalled(notice string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || s.staleNoticeActive {
		return false
	}
	s.staleNoticeActive = true
	s.stalled = true
	s.activity.CurrentActivity = notice
	s.activity.CurrentActivitySource = "system"
	s.appendMessageLocked(types.ChatRoleSystem, notice)
	s.version++
	return true
}

func (s *State) StalledSuspected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stalled
}

func (s *State) StaleNoticeActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staleNoticeActive
}

func (s *State) ReconnectAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnectAttempts
}

func (s *State) IncReconnectAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return s.reconnectAttempts
	}
	s.reconnectAttempts++
	return s.reconnectAttempts
}

func (s *State) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Snapshot captures the session for the local cache. It is safe to call at
// any point, including after Close.
func (s *State) Snapshot() *types.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := types.PipelineStatusRunning
	switch {
	case s.sessionComplete:
		status = types.PipelineStatusComplete
	case s.errMessage != "":
		status = types.PipelineStatusFailed
	}

	snap := &types.SessionSnapshot{
		SessionID: s.sessionID,
		Status:    status,
		Stage:     s.pipelineStage,
		Phase:     s.currentPhase,
	}
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == types.ChatRoleAssistant {
			snap.LastMessage = s.messages[i].Content
			break
		}
	}
	for section := range s.sectionContent {
		snap.DraftedSections = append(snap.DraftedSections, section)
	}
	sort.Strings(snap.DraftedSections)
	for section := range s.approved {
		snap.ApprovedSections = append(snap.ApprovedSections, section)
	}
	sort.Strings(snap.ApprovedSections)
	return snap
}
