package pipeline

import (
	"sync"
	"testing"
	"time"
)

type flushRecorder struct {
	mu     sync.Mutex
	chunks []string
}

func (f *flushRecorder) flush(chunk string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, chunk)
}

func (f *flushRecorder) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.chunks...)
}

func TestDeltaBufferCoalescesFragmentsIntoOneFlush(t *testing.T) {
	recorder := &flushRecorder{}
	buffer := NewDeltaBuffer(10*time.Millisecond, recorder.flush)
	defer buffer.Close()

	buffer.Append("The ")
	buffer.Append("quick ")
	buffer.Append("fox")

	if !buffer.PendingFlush() {
		t.Fatalf("a flush should be scheduled")
	}

	deadline := time.Now().Add(time.Second)
	for buffer.PendingFlush() {
		if time.Now().After(deadline) {
			t.Fatalf("flush never fired")
		}
		time.Sleep(time.Millisecond)
	}

	chunks := recorder.snapshot()
	if len(chunks) != 1 || chunks[0] != "The quick fox" {
		t.Fatalf("expected one coalesced chunk, got %#v", chunks)
	}
}

func TestDeltaBufferFlushDeliversImmediately(t *testing.T) {
	recorder := &flushRecorder{}
	buffer := NewDeltaBuffer(time.Hour, recorder.flush)
	defer buffer.Close()

	buffer.Append("pending text")
	buffer.Flush()

	chunks := recorder.snapshot()
	if len(chunks) != 1 || chunks[0] != "pending text" {
		t.Fatalf("unexpected chunks %#v", chunks)
	}
	if buffer.PendingFlush() {
		t.Fatalf("flush should cancel the timer")
	}
}

func TestDeltaBufferDiscardDropsBufferedText(t *testing.T) {
	recorder := &flushRecorder{}
	buffer := NewDeltaBuffer(time.Hour, recorder.flush)
	defer buffer.Close()

	buffer.Append("superseded text")
	buffer.Discard()

	if buffer.PendingFlush() {
		t.Fatalf("discard should cancel the timer")
	}
	buffer.Flush()
	if chunks := recorder.snapshot(); len(chunks) != 0 {
		t.Fatalf("discarded text leaked: %#v", chunks)
	}

	buffer.Append("fresh text")
	buffer.Flush()
	if chunks := recorder.snapshot(); len(chunks) != 1 || chunks[0] != "fresh text" {
		t.Fatalf("buffer should keep working after discard: %#v", chunks)
	}
}

func TestDeltaBufferCloseSilencesLateAppends(t *testing.T) {
	recorder := &flushRecorder{}
	buffer := NewDeltaBuffer(time.Hour, recorder.flush)

	buffer.Append("in flight")
	buffer.Close()
	buffer.Append("after close")
	buffer.Flush()

	if chunks := recorder.snapshot(); len(chunks) != 0 {
		t.Fatalf("closed buffer flushed: %#v", chunks)
	}
}
