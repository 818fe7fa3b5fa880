package pipeline

import (
	"context"
	"errors"
	"testing"

	"loom/internal/types"
)

type stubGateSender struct {
	calls    int
	accepted bool
	err      error
	last     types.GateResponse
}

func (s *stubGateSender) RespondToGate(_ context.Context, _ string, response types.GateResponse) (bool, error) {
	s.calls++
	s.last = response
	return s.accepted, s.err
}

func TestGateResponderAcceptedClearsGates(t *testing.T) {
	state := newTestState()
	state.SetPhaseGate(&types.PhaseGate{GateID: "gate-1"})
	sender := &stubGateSender{accepted: true}
	responder := NewGateResponder(state, sender, nil)

	err := responder.Respond(context.Background(), types.GateResponse{GateID: "gate-1", Response: "approve"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.calls != 1 || sender.last.Response != "approve" {
		t.Fatalf("unexpected outward call: calls=%d last=%#v", sender.calls, sender.last)
	}
	if state.GateActive() || state.PhaseGate() != nil {
		t.Fatalf("accepted response should clear gate state")
	}
	if state.IsResponding() {
		t.Fatalf("response lock not released")
	}
}

func TestGateResponderRejectionReactivatesGate(t *testing.T) {
	state := newTestState()
	state.SetPhaseGate(&types.PhaseGate{GateID: "gate-1"})
	sender := &stubGateSender{accepted: false}
	responder := NewGateResponder(state, sender, nil)

	if err := responder.Respond(context.Background(), types.GateResponse{GateID: "gate-1", Response: "approve"}); err != nil {
		t.Fatalf("rejection is not a transport error: %v", err)
	}
	if !state.GateActive() {
		t.Fatalf("rejected response should reactivate the gate")
	}
	if state.PhaseGate() == nil {
		t.Fatalf("gate payload should survive a rejection")
	}
}

func TestGateResponderTransportErrorPropagatesAndReactivates(t *testing.T) {
	state := newTestState()
	state.SetPhaseGate(&types.PhaseGate{GateID: "gate-1"})
	wantErr := errors.New("connection reset")
	sender := &stubGateSender{err: wantErr}
	responder := NewGateResponder(state, sender, nil)

	err := responder.Respond(context.Background(), types.GateResponse{GateID: "gate-1", Response: "approve"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !state.GateActive() {
		t.Fatalf("failed response should reactivate the gate")
	}
	if state.IsResponding() {
		t.Fatalf("lock must be released after an error")
	}
}

type blockingGateSender struct {
	entered chan struct{}
	release chan struct{}
	calls   int
}

func (s *blockingGateSender) RespondToGate(context.Context, string, types.GateResponse) (bool, error) {
	s.calls++
	close(s.entered)
	<-s.release
	return true, nil
}

func TestGateResponderSingleFlight(t *testing.T) {
	state := newTestState()
	state.SetPhaseGate(&types.PhaseGate{GateID: "gate-1"})
	sender := &blockingGateSender{entered: make(chan struct{}), release: make(chan struct{})}
	responder := NewGateResponder(state, sender, nil)

	done := make(chan error, 1)
	go func() {
		done <- responder.Respond(context.Background(), types.GateResponse{GateID: "gate-1", Response: "approve"})
	}()
	<-sender.entered

	// The optimistic deactivation already shields most duplicates.
	if err := responder.Respond(context.Background(), types.GateResponse{GateID: "gate-1", Response: "reject"}); !errors.Is(err, ErrNoActiveGate) {
		t.Fatalf("expected ErrNoActiveGate for duplicate, got %v", err)
	}

	// Even if the gate flips active again mid-flight, the response lock
	// keeps a second outward call from racing the first.
	state.SetGateActive(true)
	if err := responder.Respond(context.Background(), types.GateResponse{GateID: "gate-1", Response: "reject"}); err != nil {
		t.Fatalf("in-flight duplicate should be a silent no-op, got %v", err)
	}

	close(sender.release)
	if err := <-done; err != nil {
		t.Fatalf("first response failed: %v", err)
	}
	if sender.calls != 1 {
		t.Fatalf("expected exactly one outward call, got %d", sender.calls)
	}
}

func TestGateResponderGuards(t *testing.T) {
	sender := &stubGateSender{accepted: true}

	noSession := NewGateResponder(NewState(""), sender, nil)
	if err := noSession.Respond(context.Background(), types.GateResponse{GateID: "g"}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	idle := NewGateResponder(newTestState(), sender, nil)
	if err := idle.Respond(context.Background(), types.GateResponse{GateID: "g"}); !errors.Is(err, ErrNoActiveGate) {
		t.Fatalf("expected ErrNoActiveGate, got %v", err)
	}
	if sender.calls != 0 {
		t.Fatalf("guards must not reach the sender: %d calls", sender.calls)
	}
}
