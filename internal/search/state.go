package search

import "github.com/rangulvers/wikigraph/internal/title"

// frontierState tracks one direction's BFS frontier: the titles
// reached and the parent each was reached from, plus the titles
// awaiting expansion in the next layer.
type frontierState struct {
	parent   map[title.Title]title.Title
	frontier []title.Title
	depth    int
}

func newFrontierState() *frontierState {
	return &frontierState{parent: make(map[title.Title]title.Title)}
}

// searchState is the mutable state threaded through one Find call.
type searchState struct {
	forward  *frontierState
	backward *frontierState

	pagesChecked int
	pagesCeiling int
	perTitleCap  int

	// shortestLen is the hop count of the first accepted path, or -1
	// if none has been found yet.
	shortestLen int

	// requestedStart and requestedEnd are the titles as given, before
	// title resolution. resolvedStart and resolvedEnd are filled in
	// once resolution succeeds, and stay empty if the search fails
	// before or during resolution. All four are carried through to the
	// persisted search record.
	requestedStart title.Title
	requestedEnd   title.Title
	resolvedStart  title.Title
	resolvedEnd    title.Title
}

func newSearchState(req Request) *searchState {
	return &searchState{
		forward:        newFrontierState(),
		backward:       newFrontierState(),
		pagesCeiling:   req.PagesCheckedCeiling,
		perTitleCap:    req.PerTitleNeighborCap,
		shortestLen:    -1,
		requestedStart: req.Start,
		requestedEnd:   req.End,
	}
}

func (s *searchState) sideState(side expandSide) *frontierState {
	if side == sideForward {
		return s.forward
	}
	return s.backward
}

func (s *searchState) opposite(side expandSide) *frontierState {
	if side == sideForward {
		return s.backward
	}
	return s.forward
}
