package app

import (
	"time"

	"loom/internal/types"
)

type tickMsg time.Time

type streamOpenedMsg struct {
	events <-chan types.PipelineEvent
	cancel func()
}

type streamEventMsg struct {
	event types.PipelineEvent
}

type streamClosedMsg struct{}

type streamFailedMsg struct {
	err error
}

type reconnectMsg struct{}

type gateSubmittedMsg struct {
	err error
}

type messageSentMsg struct {
	err error
}

type copyResultMsg struct {
	err error
}
