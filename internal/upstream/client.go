// Package upstream implements the client that talks to the MediaWiki
// action API: resolving titles, and fetching forward and back links
// for one article at a time, with retry, backoff, and a bounded
// concurrency cap shared across a whole search.
package upstream

import (
	"context"

	"github.com/rangulvers/wikigraph/internal/title"
)

// Client is the interface the search engine depends on. The HTTP
// implementation lives in this package; tests use an in-memory fake.
type Client interface {
	// Resolve maps a user-supplied title to its canonical form,
	// following redirects, and reports whether the article exists.
	Resolve(ctx context.Context, requested title.Title) (resolved title.Title, exists bool, err error)

	// Neighbors returns the forward links (dir == Forward) or
	// backlinks (dir == Backward) of t, restricted to namespace 0,
	// capped at perTitleCap entries.
	Neighbors(ctx context.Context, t title.Title, dir Direction, perTitleCap int) ([]title.Title, error)
}

// Direction selects which edge direction to fetch.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}
