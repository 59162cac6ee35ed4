// Package events defines the discriminated union of messages the search
// engine emits over the course of one streamed request, and the bounded
// channel (Sink) used to carry them to the transport layer.
package events

import (
	"encoding/json"

	"github.com/rangulvers/wikigraph/internal/apperr"
	"github.com/rangulvers/wikigraph/internal/wikigraph"
)

// Event is any message the engine can emit. Type identifies which of
// the concrete event structs this is, and is written as the envelope's
// "type" field so the transport needs no type switch.
type Event interface {
	Type() string
}

// Envelope is the wire shape every event is marshaled into:
// {"type": "...", "data": {...}}.
type Envelope struct {
	Type string `json:"type"`
	Data Event  `json:"data"`
}

// Marshal wraps ev in its envelope and encodes it to JSON.
func Marshal(ev Event) ([]byte, error) {
	return json.Marshal(Envelope{Type: ev.Type(), Data: ev})
}

// Start announces that a search has begun for a validated request.
type Start struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (Start) Type() string { return "start" }

// Resolving announces that one of the endpoints is being resolved
// against the upstream title index. It is emitted for each endpoint
// before its resolution call.
type Resolving struct {
	Requested string `json:"requested"`
}

func (Resolving) Type() string { return "resolving" }

// Resolved reports the outcome of a title resolution.
type Resolved struct {
	Requested string `json:"requested"`
	Resolved  string `json:"resolved"`
}

func (Resolved) Type() string { return "resolved" }

// Progress reports frontier growth. It is the only event type the
// Sink is allowed to drop under backpressure.
type Progress struct {
	Depth           int     `json:"depth"`
	Direction       string  `json:"direction"`
	FrontierSize    int     `json:"frontier_size"`
	PagesChecked    int     `json:"pages_checked"`
	VisitedTotal    int     `json:"visited_total"`
	CurrentlyOnPage string  `json:"currently_on_page,omitempty"`
	ForwardDepth    int     `json:"forward_depth"`
	BackwardDepth   int     `json:"backward_depth"`
	PagesPerSecond  float64 `json:"pages_per_second"`
	ElapsedMS       int64   `json:"elapsed_ms"`
}

func (Progress) Type() string { return "progress" }

// PathFound is emitted every time the diversity extractor accepts a
// new path into the result set, in order of acceptance.
type PathFound struct {
	Index int      `json:"index"`
	Path  []string `json:"path"`
	Hops  int      `json:"hops"`
}

func (PathFound) Type() string { return "path_found" }

// Complete terminates a successful search with the full accepted
// path set and whatever merged-graph view the transport wants to hand
// the client.
type Complete struct {
	Paths        [][]string            `json:"paths"`
	MergedGraph  wikigraph.MergedGraph `json:"merged_graph"`
	PagesChecked int                   `json:"pages_checked"`
	ElapsedMS    int64                 `json:"elapsed_ms"`
}

func (Complete) Type() string { return "complete" }

// Error terminates a search that could not produce a result.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (Error) Type() string { return "error" }

// ErrorFromErr classifies err through apperr and builds the
// corresponding terminal event.
func ErrorFromErr(err error) Error {
	kind := apperr.KindOf(err)
	return Error{Kind: string(kind), Message: err.Error()}
}

// KeepAlive is emitted on a fixed interval while a search is between
// other events, so intermediary proxies do not time out the
// connection.
type KeepAlive struct{}

func (KeepAlive) Type() string { return "keepalive" }
