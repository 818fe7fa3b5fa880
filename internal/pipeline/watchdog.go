package pipeline

import (
	"fmt"
	"time"
)

const defaultStaleThreshold = 2 * time.Minute

// Watchdog raises a one-shot user-visible notice when backend progress
// appears to have stopped while the pipeline is still nominally processing.
// Non-fatal: the pipeline keeps running. The owner drives it by calling
// Evaluate on its own tick cadence.
type Watchdog struct {
	state     *State
	threshold time.Duration
	now       func() time.Time
}

func NewWatchdog(state *State, threshold time.Duration) *Watchdog {
	if threshold <= 0 {
		threshold = defaultStaleThreshold
	}
	return &Watchdog{
		state:     state,
		threshold: threshold,
		now:       time.Now,
	}
}

// Evaluate runs one watchdog tick. Fires only when elapsed time since the
// last confirmed progress is strictly greater than the threshold; at or
// below the threshold never fires. The one-shot notice flag suppresses
// re-notification until a fresh progress signal rearms it.
func (w *Watchdog) Evaluate(at time.Time) bool {
	if w == nil || w.state == nil || !w.state.Mounted() {
		return false
	}
	if !w.state.IsProcessing() {
		return false
	}
	last := w.state.LastProgress()
	if last.IsZero() {
		return false
	}
	if at.IsZero() {
		at = w.now()
	}
	if at.Sub(last) <= w.threshold {
		return false
	}
	notice := fmt.Sprintf(
		"No backend progress for over %s. The pipeline may be stalled; try reconnecting or refreshing the session.",
		w.threshold,
	)
	return w.state.MarkStalled(notice)
}
