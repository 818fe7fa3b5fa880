package pipeline

import (
	"context"
	"errors"

	"loom/internal/logging"
	"loom/internal/types"
)

var (
	ErrNoSession    = errors.New("no active session")
	ErrNoActiveGate = errors.New("no active gate")
)

// GateSender is the remote call that delivers a user's answer to a pending
// pipeline checkpoint. A false result means the server rejected the
// response, not that transport failed.
type GateSender interface {
	RespondToGate(ctx context.Context, sessionID string, response types.GateResponse) (bool, error)
}

// GateResponder serializes gate responses with a single-flight lock: while a
// response is in flight, further calls are silent no-ops. The lock is
// force-reset whenever a new gate activates (see State.SetAskPrompt and
// friends), so a wedged lock from a previous stage cannot block the next
// gate.
type GateResponder struct {
	state  *State
	sender GateSender
	log    logging.Logger
}

func NewGateResponder(state *State, sender GateSender, log logging.Logger) *GateResponder {
	if log == nil {
		log = logging.Nop()
	}
	return &GateResponder{state: state, sender: sender, log: log}
}

// Respond submits the user's answer to the currently active gate. The gate
// is cleared optimistically and reactivated when the server rejects the
// response or the call fails, so the user can retry. The lock is released on
// success, rejection and error alike; transport errors propagate to the
// caller.
func (g *GateResponder) Respond(ctx context.Context, response types.GateResponse) error {
	if g == nil || g.state == nil || g.sender == nil {
		return nil
	}
	sessionID := g.state.SessionID()
	if sessionID == "" {
		return ErrNoSession
	}
	if !g.state.GateActive() {
		return ErrNoActiveGate
	}
	if !g.state.TryBeginResponse() {
		// Another response is in flight; drop this one silently.
		return nil
	}
	defer g.state.EndResponse()

	g.state.SetGateActive(false)

	accepted, err := g.sender.RespondToGate(ctx, sessionID, response)
	if err != nil {
		g.state.SetGateActive(true)
		g.log.Warn("gate response failed", logging.F("gate_id", response.GateID), logging.F("err", err.Error()))
		return err
	}
	if !accepted {
		g.state.SetGateActive(true)
		g.log.Info("gate response rejected", logging.F("gate_id", response.GateID))
		return nil
	}
	g.state.ClearGates()
	return nil
}
