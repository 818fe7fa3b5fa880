package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"loom/internal/types"
)

// StreamOpener is the transport dependency of the model. Satisfied by
// *client.Client; swapped for fakes in tests.
type StreamOpener interface {
	EventStream(ctx context.Context, id string) (<-chan types.PipelineEvent, func(), error)
}

// MessageSender delivers free-form user input outside of gates.
type MessageSender interface {
	SendMessage(ctx context.Context, id, message string) error
}

func (m *Model) openStreamCmd() tea.Cmd {
	opener := m.stream
	sessionID := m.state.SessionID()
	return func() tea.Msg {
		events, cancel, err := opener.EventStream(context.Background(), sessionID)
		if err != nil {
			return streamFailedMsg{err: err}
		}
		return streamOpenedMsg{events: events, cancel: cancel}
	}
}

func waitForEventCmd(events <-chan types.PipelineEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return streamEventMsg{event: event}
	}
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func reconnectCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return reconnectMsg{}
	})
}

func (m *Model) submitGateCmd(response types.GateResponse) tea.Cmd {
	gates := m.gates
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return gateSubmittedMsg{err: gates.Respond(ctx, response)}
	}
}

func (m *Model) sendMessageCmd(message string) tea.Cmd {
	sender := m.sender
	sessionID := m.state.SessionID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return messageSentMsg{err: sender.SendMessage(ctx, sessionID, message)}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copyResultMsg{err: copyTextToClipboard(text)}
	}
}
