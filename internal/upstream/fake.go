package upstream

import (
	"context"
	"sync"

	"github.com/rangulvers/wikigraph/internal/title"
)

// Fake is an in-memory Client for tests. Forward and Backward are
// adjacency maps keyed by normalized title; Redirects maps a
// requested title to its canonical form for Resolve.
type Fake struct {
	mu        sync.Mutex
	Forward   map[title.Title][]title.Title
	Backward  map[title.Title][]title.Title
	Redirects map[title.Title]title.Title
	Calls     int
}

// NewFake builds an empty Fake ready for its maps to be populated.
func NewFake() *Fake {
	return &Fake{
		Forward:   make(map[title.Title][]title.Title),
		Backward:  make(map[title.Title][]title.Title),
		Redirects: make(map[title.Title]title.Title),
	}
}

func (f *Fake) Resolve(_ context.Context, requested title.Title) (title.Title, bool, error) {
	f.mu.Lock()
	f.Calls++
	f.mu.Unlock()

	if resolved, ok := f.Redirects[requested]; ok {
		return resolved, true, nil
	}
	if _, ok := f.Forward[requested]; ok {
		return requested, true, nil
	}
	if _, ok := f.Backward[requested]; ok {
		return requested, true, nil
	}
	return "", false, nil
}

func (f *Fake) Neighbors(_ context.Context, t title.Title, dir Direction, perTitleCap int) ([]title.Title, error) {
	f.mu.Lock()
	f.Calls++
	f.mu.Unlock()

	var all []title.Title
	if dir == Forward {
		all = f.Forward[t]
	} else {
		all = f.Backward[t]
	}
	if perTitleCap > 0 && len(all) > perTitleCap {
		return all[:perTitleCap], nil
	}
	return all, nil
}
