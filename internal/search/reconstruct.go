package search

import (
	"github.com/rangulvers/wikigraph/internal/title"
	"github.com/rangulvers/wikigraph/internal/wikigraph"
)

// reconstruct builds the full path through meeting point m by walking
// the forward parent chain back to the start and the backward parent
// chain forward to the end. It reports ok=false if either chain is
// broken, which should not happen for an m returned by expandLayer
// but is checked defensively since a corrupted frontier map would
// otherwise silently produce a wrong path.
func reconstruct(state *searchState, m title.Title) (wikigraph.Path, bool) {
	fwdChain, ok := walkChain(state.forward.parent, m)
	if !ok {
		return nil, false
	}
	bwdChain, ok := walkChain(state.backward.parent, m)
	if !ok {
		return nil, false
	}
	// bwdChain starts with m itself; the forward half already ends
	// with m, so drop the duplicate.
	bwdChain = bwdChain[1:]

	path := make(wikigraph.Path, 0, len(fwdChain)+len(bwdChain))
	for i := len(fwdChain) - 1; i >= 0; i-- {
		path = append(path, fwdChain[i])
	}
	path = append(path, bwdChain...)
	return path, true
}

// walkChain walks parent[cur] from start until it reaches the root
// (the node whose parent is the empty sentinel), returning the nodes
// in start->root order, start included, for either direction. The
// caller drops start from the backward chain, since the forward chain
// already ends with it.
func walkChain(parent map[title.Title]title.Title, start title.Title) ([]title.Title, bool) {
	var chain []title.Title
	cur := start
	for {
		p, ok := parent[cur]
		if !ok {
			return nil, false
		}
		chain = append(chain, cur)
		if p == "" {
			return chain, true
		}
		cur = p
	}
}
