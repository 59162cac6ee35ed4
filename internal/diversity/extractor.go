// Package diversity implements the multi-path extractor: accepting
// candidate paths into a bounded, diverse result set using Jaccard
// distance over intermediate-title sets.
package diversity

import (
	"github.com/rangulvers/wikigraph/internal/title"
	"github.com/rangulvers/wikigraph/internal/wikigraph"
)

// Options configures the extractor's acceptance policy.
type Options struct {
	// K is the maximum number of paths to accept.
	K int
	// MinDistance is the minimum Jaccard distance a candidate's
	// intermediate-title set must have from every already-accepted
	// path for it to be accepted. 0 accepts duplicates; callers
	// asking for K > 1 with MinDistance 0 get the first K distinct
	// paths offered, in offer order, with no diversity filtering.
	MinDistance float64
}

// DefaultOptions matches the values chosen for this service:
// up to 5 diverse paths, at least 30% dissimilar from every
// previously accepted path.
var DefaultOptions = Options{K: 5, MinDistance: 0.3}

// Extractor accumulates a diverse PathSet one candidate at a time.
// It is not safe for concurrent use; the search engine offers
// candidates from a single goroutine as they are reconstructed.
type Extractor struct {
	opts     Options
	accepted []wikigraph.Path
	sets     []map[title.Title]struct{}
}

// New builds an Extractor with the given options.
func New(opts Options) *Extractor {
	if opts.K <= 0 {
		opts.K = DefaultOptions.K
	}
	return &Extractor{opts: opts}
}

// Offer evaluates a candidate path. accepted reports whether it was
// added to the result set. done reports whether the extractor has
// reached its K limit and will accept nothing further.
func (e *Extractor) Offer(p wikigraph.Path) (accepted bool, done bool) {
	if len(e.accepted) >= e.opts.K {
		return false, true
	}

	for _, prev := range e.accepted {
		if p.Equal(prev) {
			return false, len(e.accepted) >= e.opts.K
		}
	}

	candidateSet := intermediateSet(p)
	for _, existing := range e.sets {
		if jaccardDistance(candidateSet, existing) < e.opts.MinDistance {
			return false, len(e.accepted) >= e.opts.K
		}
	}

	e.accepted = append(e.accepted, p.Clone())
	e.sets = append(e.sets, candidateSet)
	return true, len(e.accepted) >= e.opts.K
}

// Result returns the accepted path set, first element always the
// first path offered (the shortest, by construction of the search
// engine's offer order).
func (e *Extractor) Result() wikigraph.PathSet {
	return wikigraph.PathSet{Paths: e.accepted}
}

// Len reports how many paths have been accepted so far.
func (e *Extractor) Len() int {
	return len(e.accepted)
}

func intermediateSet(p wikigraph.Path) map[title.Title]struct{} {
	inter := p.Intermediates()
	set := make(map[title.Title]struct{}, len(inter))
	for _, t := range inter {
		set[t] = struct{}{}
	}
	return set
}

// jaccardDistance returns 1 - |A∩B|/|A∪B|. Two empty sets (both
// direct edges with no intermediates) are treated as maximally
// similar, distance 0.
func jaccardDistance(a, b map[title.Title]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return 1 - float64(intersection)/float64(union)
}
