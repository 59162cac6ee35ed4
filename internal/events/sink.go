package events

import (
	"context"
	"time"
)

// SinkDepth is the bounded capacity of a Sink's underlying channel.
const SinkDepth = 64

// KeepAliveInterval is how often a KeepAlive event is injected while
// a search is in progress, so intermediary proxies buffering the SSE
// response do not close the connection for inactivity.
const KeepAliveInterval = 15 * time.Second

// Sink is a bounded channel of Events, fed by the search goroutine
// and by RunKeepAlive. Progress
// events are dropped, never blocked on, when the channel is full;
// every other event type blocks the producer until there is room or
// the context is done, since losing a Start/PathFound/Complete/Error
// event would make the stream unintelligible.
type Sink struct {
	ch chan Event
}

// NewSink allocates a Sink with the standard bounded depth.
func NewSink() *Sink {
	return &Sink{ch: make(chan Event, SinkDepth)}
}

// Events returns the receive-only view of the sink, handed to the
// transport layer.
func (s *Sink) Events() <-chan Event {
	return s.ch
}

// Emit sends ev to the sink. Progress events are dropped silently if
// the channel is full. All other event types block until the
// channel has room or ctx is done.
func (s *Sink) Emit(ctx context.Context, ev Event) {
	if _, ok := ev.(Progress); ok {
		select {
		case s.ch <- ev:
		default:
		}
		return
	}

	select {
	case s.ch <- ev:
	case <-ctx.Done():
	}
}

// Close closes the underlying channel. Callers must not call Emit
// after Close.
func (s *Sink) Close() {
	close(s.ch)
}

// RunKeepAlive emits a KeepAlive event on KeepAliveInterval until ctx
// is done. Intended to run in its own goroutine alongside a search.
func RunKeepAlive(ctx context.Context, s *Sink) {
	ticker := time.NewTicker(KeepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Emit(ctx, KeepAlive{})
		}
	}
}
