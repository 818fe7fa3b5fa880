package pipeline

import "time"

// ReconnectPolicy shapes the delay between reconnection attempts. The shape
// is configuration, not protocol: the server only requires that the attempt
// counter resets once a connection is confirmed.
type ReconnectPolicy interface {
	NextDelay(attempt int) (delay time.Duration, ok bool)
}

type BoundedExponentialReconnectPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

func (p BoundedExponentialReconnectPolicy) NextDelay(attempt int) (time.Duration, bool) {
	if attempt <= 0 {
		attempt = 1
	}
	if p.MaxAttempts > 0 && attempt > p.MaxAttempts {
		return 0, false
	}
	initial := p.InitialDelay
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	delay := initial
	for i := 1; i < attempt; i++ {
		if delay >= maxDelay {
			return maxDelay, true
		}
		delay *= 2
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay, true
}

func DefaultReconnectPolicy() ReconnectPolicy {
	return BoundedExponentialReconnectPolicy{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
	}
}
