package pipeline

import (
	"testing"
	"time"
)

func TestWatchdogFiresOnlyStrictlyPastThreshold(t *testing.T) {
	state := newTestState()
	state.SetProcessing(true)
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	state.MarkProgress(start)

	watchdog := NewWatchdog(state, 2*time.Minute)

	if watchdog.Evaluate(start.Add(2 * time.Minute)) {
		t.Fatalf("exactly at the threshold must not fire")
	}
	if !watchdog.Evaluate(start.Add(2*time.Minute + time.Millisecond)) {
		t.Fatalf("past the threshold should fire")
	}
	if !state.StalledSuspected() {
		t.Fatalf("stall flag not set")
	}
}

func TestWatchdogNoticeIsOneShot(t *testing.T) {
	state := newTestState()
	state.SetProcessing(true)
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	state.MarkProgress(start)

	watchdog := NewWatchdog(state, 2*time.Minute)
	late := start.Add(5 * time.Minute)

	if !watchdog.Evaluate(late) {
		t.Fatalf("first evaluation should fire")
	}
	if watchdog.Evaluate(late.Add(time.Minute)) {
		t.Fatalf("notice must not repeat while stale")
	}

	messages := state.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected one stale notice, got %#v", messages)
	}

	state.MarkProgress(late.Add(2 * time.Minute))
	if !watchdog.Evaluate(late.Add(10 * time.Minute)) {
		t.Fatalf("fresh progress should rearm the notice")
	}
}

func TestWatchdogRequiresProcessingAndProgressBaseline(t *testing.T) {
	state := newTestState()
	watchdog := NewWatchdog(state, 2*time.Minute)
	late := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	if watchdog.Evaluate(late) {
		t.Fatalf("idle pipeline must not fire")
	}

	state.SetProcessing(true)
	if watchdog.Evaluate(late) {
		t.Fatalf("no progress baseline yet, must not fire")
	}

	state.MarkProgress(late.Add(-3 * time.Minute))
	state.Close()
	if watchdog.Evaluate(late) {
		t.Fatalf("closed state must not fire")
	}
}
