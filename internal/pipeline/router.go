package pipeline

import (
	"loom/internal/logging"
	"loom/internal/payload"
	"loom/internal/types"
)

// ProgressFunc is the outward freshness signal fed to collaborators (and,
// through State.MarkProgress, to the watchdog's clock).
type ProgressFunc func(message, kind string, metadata map[string]any)

type handlerFunc func(r *Router, fields map[string]any)

// Router dispatches decoded pipeline events to exactly one handler per event
// type. Unknown event types are ignored for forward compatibility, and a
// payload that fails to decode still reaches the handler as nil so each
// handler applies its own defaults.
type Router struct {
	state        *State
	delta        *DeltaBuffer
	markProgress ProgressFunc
	log          logging.Logger
	handlers     map[string]handlerFunc
}

type RouterOption func(*Router)

func WithProgressFunc(fn ProgressFunc) RouterOption {
	return func(r *Router) { r.markProgress = fn }
}

func WithLogger(log logging.Logger) RouterOption {
	return func(r *Router) { r.log = log }
}

func NewRouter(state *State, delta *DeltaBuffer, opts ...RouterOption) *Router {
	r := &Router{
		state: state,
		delta: delta,
		log:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.handlers = map[string]handlerFunc{
		types.EventConnected:           handleConnected,
		types.EventSessionRestore:      handleSessionRestore,
		types.EventTextDelta:           handleTextDelta,
		types.EventTextComplete:        handleTextComplete,
		types.EventToolStart:           handleToolStart,
		types.EventToolComplete:        handleToolComplete,
		types.EventAskUser:             handleAskUser,
		types.EventPhaseGate:           handlePhaseGate,
		types.EventRightPanelUpdate:    handleRightPanelUpdate,
		types.EventPhaseChange:         handlePhaseChange,
		types.EventStageStart:          handleStageStart,
		types.EventStageComplete:       handleStageComplete,
		types.EventPositioningQuestion: handlePositioningQuestion,
		types.EventSectionDraft:        handleSectionDraft,
		types.EventSectionApproved:     handleSectionApproved,
		types.EventSectionError:        handleSectionError,
		types.EventPipelineComplete:    handlePipelineComplete,
		types.EventPipelineError:       handlePipelineError,
		types.EventError:               handleError,
		types.EventHeartbeat:           handleHeartbeat,
		types.EventSystemMessage:       handleSystemMessage,
		types.EventQualityScores:       handleQualityScores,
		// Reserved by the server for future use; dropping it here is
		// deliberate rather than falling through to the unknown-type path.
		types.EventSectionStatus: handleIgnored,
	}
	return r
}

// Dispatch decodes the raw payload and runs the handler registered for the
// event type. Never returns an error and never panics out: a hostile or
// truncated payload degrades to nil fields.
func (r *Router) Dispatch(eventType, rawPayload string) {
	if r == nil || r.state == nil {
		return
	}
	handler, ok := r.handlers[eventType]
	if !ok {
		r.log.Debug("ignoring unknown event", logging.F("type", eventType))
		return
	}
	fields := payload.Parse(rawPayload)
	if fields == nil && rawPayload != "" {
		r.log.Debug("malformed payload", logging.F("type", eventType))
	}
	handler(r, fields)
}

func (r *Router) progress(message, kind string, metadata map[string]any) {
	r.state.MarkProgress(r.state.now())
	if r.markProgress != nil {
		r.markProgress(message, kind, metadata)
	}
}

func handleIgnored(*Router, map[string]any) {}
