package search

import (
	"github.com/rangulvers/wikigraph/internal/title"
)

// Request is one bidirectional path search between two resolved
// titles.
type Request struct {
	Start title.Title
	End   title.Title

	// K is the maximum number of diverse paths to return.
	K int
	// MaxDepth caps the combined depth of the two frontiers (forward
	// layers plus backward layers), so no path longer than MaxDepth
	// hops is ever found. Once it is reached the search stops, with
	// NoPath if nothing has been accepted yet.
	MaxDepth int
	// DiversitySlack is how many hops beyond the first found shortest
	// path length the search keeps expanding, looking for additional
	// diverse paths: once a shortest path of length L is found,
	// expansion continues only while the combined frontier depth is at
	// most L+DiversitySlack.
	DiversitySlack int
	// PagesCheckedCeiling stops the search once this many distinct
	// titles have been fetched from upstream, regardless of whether a
	// path has been found, to bound worst-case cost against a
	// disconnected or very distant pair.
	PagesCheckedCeiling int
	// PerTitleNeighborCap bounds how many neighbors are fetched for
	// any single title.
	PerTitleNeighborCap int
}

// DefaultRequest fills in every tunable Request omits.
func DefaultRequest(start, end title.Title) Request {
	return Request{
		Start:               start,
		End:                 end,
		K:                   5,
		MaxDepth:            6,
		DiversitySlack:      2,
		PagesCheckedCeiling: 20000,
		PerTitleNeighborCap: 500,
	}
}

func (r Request) withDefaults() Request {
	d := DefaultRequest(r.Start, r.End)
	if r.K <= 0 {
		r.K = d.K
	}
	if r.MaxDepth <= 0 {
		r.MaxDepth = d.MaxDepth
	}
	if r.DiversitySlack < 0 {
		r.DiversitySlack = d.DiversitySlack
	}
	if r.PagesCheckedCeiling <= 0 {
		r.PagesCheckedCeiling = d.PagesCheckedCeiling
	}
	if r.PerTitleNeighborCap <= 0 {
		r.PerTitleNeighborCap = d.PerTitleNeighborCap
	}
	return r
}
