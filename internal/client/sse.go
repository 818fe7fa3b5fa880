package client

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"loom/internal/logging"
	"loom/internal/types"
)

// streamLog is the SSE trace sink, a no-op unless stream debugging is
// enabled through SetStreamLogger.
var streamLog logging.Logger = logging.Nop()

func SetStreamLogger(log logging.Logger) {
	if log == nil {
		log = logging.Nop()
	}
	streamLog = log
}

// EventStream opens the server-sent event feed for a pipeline session and
// decodes frames onto the returned channel. An `event:` line names the event
// type; `data:` lines accumulate the payload; a blank line terminates the
// frame. Frames without an event name fall back to the generic "message"
// type only when the payload is non-empty. The channel closes when the
// stream ends; call the cancel func to tear the stream down.
func (c *Client) EventStream(ctx context.Context, id string) (<-chan types.PipelineEvent, func(), error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil, fmt.Errorf("session id is required")
	}
	if err := c.ensureToken(); err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	url := fmt.Sprintf("%s/v1/pipeline/sessions/%s/events", c.baseURL, id)
	streamLog.Debug("stream open", logging.F("session", id), logging.F("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "text/event-stream")

	// The stream outlives any request timeout, so it gets its own client
	// and relies on ctx for cancellation.
	httpClient := &http.Client{Transport: c.http.Transport}
	resp, err := httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		cancel()
		streamLog.Warn("stream rejected", logging.F("session", id), logging.F("status", resp.StatusCode))
		return nil, nil, decodeAPIError(resp)
	}

	ch := make(chan types.PipelineEvent, 256)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		start := time.Now()
		count := 0
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		eventType := ""
		var dataLines []string

		flush := func() {
			payload := strings.Join(dataLines, "\n")
			dataLines = dataLines[:0]
			name := eventType
			eventType = ""
			if name == "" {
				if strings.TrimSpace(payload) == "" {
					return
				}
				name = "message"
			}
			event := types.PipelineEvent{Type: name, Payload: payload}
			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}
			count++
			if count == 1 {
				streamLog.Debug("stream first event", logging.F("session", id), logging.F("type", name))
			}
		}

		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				flush()
			case strings.HasPrefix(line, ":"):
				// SSE comment, typically a keepalive.
			case strings.HasPrefix(line, "event:"):
				eventType = strings.TrimSpace(line[len("event:"):])
			case strings.HasPrefix(line, "data:"):
				dataLines = append(dataLines, strings.TrimSpace(line[len("data:"):]))
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			streamLog.Warn("stream read error", logging.F("session", id), logging.F("err", err))
		}
		streamLog.Debug("stream closed",
			logging.F("session", id),
			logging.F("events", count),
			logging.F("dur", time.Since(start)),
		)
	}()

	return ch, cancel, nil
}
