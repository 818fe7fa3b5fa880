package app

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"loom/internal/logging"
	"loom/internal/pipeline"
	"loom/internal/types"
)

const (
	defaultTickInterval = 100 * time.Millisecond
	panelWidthFraction  = 3
	minPanelWidth       = 28
)

// Deps carries the model's collaborators. Stream and Sender are interfaces
// so tests can drive the model without a server.
type Deps struct {
	SessionID    string
	Stream       StreamOpener
	Sender       MessageSender
	Gates        pipeline.GateSender
	Snapshots    SnapshotWriter
	Reconnect    pipeline.ReconnectPolicy
	Log          logging.Logger
	TickInterval time.Duration
}

// SnapshotWriter persists session snapshots to the local cache. Saves are
// best effort and never block the UI on failure.
type SnapshotWriter interface {
	Put(snapshot *types.SessionSnapshot) error
}

type Model struct {
	state    *pipeline.State
	router   *pipeline.Router
	delta    *pipeline.DeltaBuffer
	watchdog *pipeline.Watchdog
	gates    *pipeline.GateResponder

	stream    StreamOpener
	sender    MessageSender
	snapshots SnapshotWriter
	policy    pipeline.ReconnectPolicy
	log       logging.Logger

	events       <-chan types.PipelineEvent
	cancelStream func()

	viewport viewport.Model
	input    textinput.Model
	width    int
	height   int
	ready    bool

	gateChoice         int
	renderedVersion    int
	renderedGateActive bool
	tick               time.Duration
	now                func() time.Time
	quitting           bool

	toastText  string
	toastLevel toastLevel
	toastUntil time.Time
}

func NewModel(deps Deps) *Model {
	log := deps.Log
	if log == nil {
		log = logging.Nop()
	}
	state := pipeline.NewState(deps.SessionID)
	delta := pipeline.NewDeltaBuffer(0, state.AppendStreamingText)
	router := pipeline.NewRouter(state, delta, pipeline.WithLogger(log))
	policy := deps.Reconnect
	if policy == nil {
		policy = pipeline.DefaultReconnectPolicy()
	}
	tick := deps.TickInterval
	if tick <= 0 {
		tick = defaultTickInterval
	}

	input := textinput.New()
	input.Placeholder = "Type a response"
	input.CharLimit = 4000

	m := &Model{
		state:     state,
		router:    router,
		delta:     delta,
		watchdog:  pipeline.NewWatchdog(state, 0),
		gates:     pipeline.NewGateResponder(state, deps.Gates, log),
		stream:    deps.Stream,
		sender:    deps.Sender,
		snapshots: deps.Snapshots,
		policy:    policy,
		log:       log,
		input:     input,
		tick:      tick,
		now:       time.Now,
	}
	m.renderedVersion = -1
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.openStreamCmd(), tickCmd(m.tick))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if fired := m.watchdog.Evaluate(time.Time(msg)); fired {
			m.showToast(toastLevelWarning, "No backend progress for a while; the pipeline may be stalled.")
		}
		m.syncViewport()
		return m, tickCmd(m.tick)

	case streamOpenedMsg:
		if m.cancelStream != nil {
			m.cancelStream()
		}
		m.events = msg.events
		m.cancelStream = msg.cancel
		return m, waitForEventCmd(m.events)

	case streamEventMsg:
		m.router.Dispatch(msg.event.Type, msg.event.Payload)
		if m.state.SessionComplete() {
			m.persistSnapshot()
		}
		m.syncViewport()
		return m, waitForEventCmd(m.events)

	case streamClosedMsg:
		return m.handleStreamDown(nil)

	case streamFailedMsg:
		return m.handleStreamDown(msg.err)

	case reconnectMsg:
		return m, m.openStreamCmd()

	case gateSubmittedMsg:
		if msg.err != nil {
			m.showToast(toastLevelError, "Gate response failed: "+msg.err.Error())
		} else {
			m.input.Reset()
			m.input.Blur()
		}
		m.syncViewport()
		return m, nil

	case messageSentMsg:
		if msg.err != nil {
			m.showToast(toastLevelError, "Send failed: "+msg.err.Error())
		}
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.showToast(toastLevelError, msg.err.Error())
		} else {
			m.showToast(toastLevelInfo, "Copied to clipboard")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResize(msg tea.WindowSizeMsg) *Model {
	m.width = msg.Width
	m.height = msg.Height
	chatWidth := m.chatWidth()
	viewportHeight := m.viewportHeight()
	if !m.ready {
		m.viewport = viewport.New(chatWidth, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = chatWidth
		m.viewport.Height = viewportHeight
	}
	m.input.Width = chatWidth - 4
	m.renderedVersion = -1
	m.syncViewport()
	return m
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	gate := m.currentGate()
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "q":
		if !m.input.Focused() {
			return m.quit()
		}
	case "up":
		if gate != nil && len(gate.choices) > 0 {
			m.gateChoice--
			if m.gateChoice < 0 {
				m.gateChoice = len(gate.choices) - 1
			}
			return m, nil
		}
	case "down":
		if gate != nil && len(gate.choices) > 0 {
			m.gateChoice = (m.gateChoice + 1) % len(gate.choices)
			return m, nil
		}
	case "enter":
		if gate != nil {
			if response := m.gateResponseForSubmit(); response != nil {
				return m, m.submitGateCmd(*response)
			}
			return m, nil
		}
		if text := strings.TrimSpace(m.input.Value()); text != "" && m.sender != nil {
			m.state.AppendMessage(types.ChatRoleUser, text)
			m.input.Reset()
			m.syncViewport()
			return m, m.sendMessageCmd(text)
		}
		return m, nil
	case "esc":
		if gate != nil && gate.skippable {
			return m, m.submitGateCmd(types.GateResponse{GateID: gate.gateID, Skipped: true})
		}
		if m.input.Focused() {
			m.input.Blur()
			return m, nil
		}
	case "tab":
		if m.input.Focused() {
			m.input.Blur()
		} else {
			m.input.Focus()
		}
		return m, nil
	case "ctrl+y":
		if text := m.lastAssistantMessage(); text != "" {
			return m, copyCmd(text)
		}
		m.showToast(toastLevelInfo, "Nothing to copy yet")
		return m, nil
	}

	if m.input.Focused() || (gate != nil && gate.freeText) {
		if !m.input.Focused() {
			m.input.Focus()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.persistSnapshot()
	if m.cancelStream != nil {
		m.cancelStream()
	}
	m.delta.Close()
	m.state.Close()
	return m, tea.Quit
}

func (m *Model) handleStreamDown(err error) (tea.Model, tea.Cmd) {
	if m.quitting || m.state.SessionComplete() {
		return m, nil
	}
	m.state.SetConnected(false)
	m.persistSnapshot()
	attempt := m.state.IncReconnectAttempts()
	delay, ok := m.policy.NextDelay(attempt)
	if !ok {
		m.state.SetError("Connection lost. Restart loom to resume this session.")
		m.syncViewport()
		return m, nil
	}
	if err != nil {
		m.log.Warn("stream down", logging.F("attempt", attempt), logging.F("err", err))
	}
	m.showToast(toastLevelWarning, "Connection lost; reconnecting")
	return m, reconnectCmd(delay)
}

func (m *Model) persistSnapshot() {
	if m.snapshots == nil {
		return
	}
	snap := m.state.Snapshot()
	if snap.SessionID == "" {
		return
	}
	if err := m.snapshots.Put(snap); err != nil {
		m.log.Warn("snapshot save failed", logging.F("err", err))
	}
}

// syncViewport re-renders the transcript only when state changed since the
// last render. Follows the tail unless the user scrolled away.
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	gateOn := m.state.GateActive()
	if gateOn && !m.renderedGateActive {
		m.gateChoice = 0
		if gate := m.currentGate(); gate != nil && gate.freeText {
			m.input.Focus()
		}
	}
	m.renderedGateActive = gateOn

	version := m.state.Version()
	if version == m.renderedVersion {
		return
	}
	wasAtBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript(m.chatWidth()))
	if wasAtBottom {
		m.viewport.GotoBottom()
	}
	m.renderedVersion = version
}

func (m *Model) chatWidth() int {
	panel := m.panelWidth()
	width := m.width - panel
	if panel > 0 {
		width--
	}
	if width < 20 {
		width = max(m.width, 20)
	}
	return width
}

func (m *Model) panelWidth() int {
	if m.width < 80 {
		return 0
	}
	width := m.width / panelWidthFraction
	if width < minPanelWidth {
		width = minPanelWidth
	}
	return width
}

func (m *Model) viewportHeight() int {
	// Header, status line and toast row stay outside the viewport; the gate
	// prompt overlays the bottom of the chat column when active.
	height := m.height - 4
	if height < 3 {
		height = 3
	}
	return height
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "starting loom..."
	}

	chat := m.viewport.View()
	if prompt := m.renderGatePrompt(m.chatWidth()); prompt != "" {
		chat = lipgloss.JoinVertical(lipgloss.Left, chat, prompt)
	} else if m.input.Focused() {
		chat = lipgloss.JoinVertical(lipgloss.Left, chat, m.input.View())
	}

	main := chat
	if panelWidth := m.panelWidth(); panelWidth > 0 {
		if panel := m.renderPanel(panelWidth); panel != "" {
			main = lipgloss.JoinHorizontal(lipgloss.Top, chat, " ", panel)
		}
	}

	sections := []string{m.headerLine(), main, m.statusLine()}
	if toast := m.toastLine(m.width); toast != "" {
		sections = append(sections, toast)
	}
	return strings.Join(sections, "\n")
}

func (m *Model) headerLine() string {
	title := headerStyle.Render("loom")
	stage := m.state.Stage()
	if stage != "" {
		title += dividerStyle.Render(" · ") + activityStyle.Render(stage)
	}
	if phase := m.state.Phase(); phase != "" && phase != stage {
		title += dividerStyle.Render(" / ") + statusStyle.Render(phase)
	}
	return title
}

func (m *Model) statusLine() string {
	if errMessage := m.state.Error(); errMessage != "" {
		return errorStyle.Render(errMessage)
	}
	var parts []string
	if m.state.Connected() {
		parts = append(parts, connectedStyle.Render("connected"))
	} else if attempts := m.state.ReconnectAttempts(); attempts > 0 {
		parts = append(parts, reconnectStyle.Render("reconnecting"))
	} else {
		parts = append(parts, statusStyle.Render("offline"))
	}
	activity := m.state.Activity()
	if activity.CurrentActivity != "" {
		parts = append(parts, statusStyle.Render(activity.CurrentActivity))
	}
	if m.state.StalledSuspected() {
		parts = append(parts, reconnectStyle.Render("stalled?"))
	}
	if replan := m.state.WorkflowReplan(); replan != nil && replan.Reason != "" {
		parts = append(parts, statusStyle.Render("replanned: "+replan.Reason))
	}
	parts = append(parts, helpStyle.Render("tab input · ctrl+y copy · q quit"))
	return strings.Join(parts, dividerStyle.Render("  │  "))
}
