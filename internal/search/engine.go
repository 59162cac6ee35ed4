// Package search implements the cache-aware bidirectional BFS path
// search engine: given a validated start and end title, it streams
// search progress and up to K diverse paths over an events.Sink.
package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rangulvers/wikigraph/internal/apperr"
	"github.com/rangulvers/wikigraph/internal/diversity"
	"github.com/rangulvers/wikigraph/internal/events"
	"github.com/rangulvers/wikigraph/internal/persistence"
	"github.com/rangulvers/wikigraph/internal/segcache"
	"github.com/rangulvers/wikigraph/internal/title"
	"github.com/rangulvers/wikigraph/internal/upstream"
	"github.com/rangulvers/wikigraph/internal/wikigraph"
	"github.com/rangulvers/wikigraph/pkg/logger"
)

// Engine runs cache-aware bidirectional searches.
type Engine struct {
	Upstream upstream.Client
	Cache    *segcache.Facade
	Persist  persistence.Adapter

	// ExpandConcurrency caps how many titles in one frontier layer are
	// expanded against upstream at once. The upstream client itself
	// enforces a process-wide concurrency cap on top of this.
	ExpandConcurrency int

	DiversityOptions diversity.Options
}

// Find runs req and returns a channel of events. The channel is
// closed when the search terminates, successfully or not; the last
// event is always either a Complete or an Error.
func (e *Engine) Find(ctx context.Context, req Request) (<-chan events.Event, error) {
	req = req.withDefaults()

	sink := events.NewSink()
	keepAliveCtx, cancelKeepAlive := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		events.RunKeepAlive(keepAliveCtx, sink)
	}()

	go func() {
		defer sink.Close()
		defer func() {
			cancelKeepAlive()
			wg.Wait()
		}()
		e.run(ctx, sink, req)
	}()

	return sink.Events(), nil
}

func (e *Engine) run(ctx context.Context, sink *events.Sink, req Request) {
	started := time.Now()
	sink.Emit(ctx, events.Start{Start: req.Start.String(), End: req.End.String()})

	state := newSearchState(req)

	// start == end never reaches upstream: it is satisfied by the
	// single-node path before any title resolution happens.
	if req.Start == req.End {
		e.finishSameTitle(ctx, sink, state, req.Start, started)
		return
	}

	resolvedStart, err := e.resolveTitle(ctx, sink, req.Start)
	if err != nil {
		sink.Emit(ctx, events.ErrorFromErr(err))
		e.recordFailure(ctx, state, err)
		return
	}
	resolvedEnd, err := e.resolveTitle(ctx, sink, req.End)
	if err != nil {
		sink.Emit(ctx, events.ErrorFromErr(err))
		e.recordFailure(ctx, state, err)
		return
	}
	state.resolvedStart = resolvedStart
	state.resolvedEnd = resolvedEnd
	req.Start = resolvedStart
	req.End = resolvedEnd

	if req.Start == req.End {
		e.finishSameTitle(ctx, sink, state, req.Start, started)
		return
	}

	extractor := diversity.New(e.pickDiversityOptions(req))

	if e.Cache != nil {
		e.offerCachedPath(ctx, sink, req, extractor, state)
	}

	err = e.expandUntilDone(ctx, sink, req, extractor, state, started)

	if err != nil {
		sink.Emit(ctx, events.ErrorFromErr(err))
		e.recordFailure(ctx, state, err)
		return
	}

	result := extractor.Result()
	if len(result.Paths) == 0 {
		noPath := apperr.New(apperr.NoPath, "no path found between the requested titles")
		sink.Emit(ctx, events.ErrorFromErr(noPath))
		e.recordFailure(ctx, state, noPath)
		return
	}

	for _, p := range result.Paths {
		if e.Cache != nil {
			e.Cache.CachePath(p)
		}
	}

	sink.Emit(ctx, events.Complete{
		Paths:        toStringPaths(result.Paths),
		MergedGraph:  wikigraph.Merge(result),
		PagesChecked: state.pagesChecked,
		ElapsedMS:    time.Since(started).Milliseconds(),
	})

	e.recordSuccess(ctx, state, result, time.Since(started))
}

// resolveTitle maps requested to its canonical form through Upstream,
// emitting Resolving/Resolved around the call. It fails with
// apperr.TitleUnknown if the title does not exist.
func (e *Engine) resolveTitle(ctx context.Context, sink *events.Sink, requested title.Title) (title.Title, error) {
	sink.Emit(ctx, events.Resolving{Requested: requested.String()})

	resolved, exists, err := e.Upstream.Resolve(ctx, requested)
	if err != nil {
		return "", apperr.Wrap(apperr.UpstreamUnavailable, "resolving title", err)
	}
	if !exists {
		return "", apperr.New(apperr.TitleUnknown, fmt.Sprintf("%q does not match a known article", requested))
	}

	sink.Emit(ctx, events.Resolved{Requested: requested.String(), Resolved: resolved.String()})
	return resolved, nil
}

// finishSameTitle completes a search whose endpoints coincide, either
// before resolution (the requested titles match verbatim) or after it
// (two different requested titles resolved to the same article). The
// result is the single-node path with no search performed.
func (e *Engine) finishSameTitle(ctx context.Context, sink *events.Sink, state *searchState, same title.Title, started time.Time) {
	path := wikigraph.Path{same}
	result := wikigraph.PathSet{Paths: []wikigraph.Path{path}}

	sink.Emit(ctx, events.PathFound{Index: 0, Path: toStringSlice(path), Hops: path.Len()})
	sink.Emit(ctx, events.Complete{
		Paths:        toStringPaths(result.Paths),
		MergedGraph:  wikigraph.Merge(result),
		PagesChecked: state.pagesChecked,
		ElapsedMS:    time.Since(started).Milliseconds(),
	})

	state.resolvedStart = same
	state.resolvedEnd = same
	e.recordSuccess(ctx, state, result, time.Since(started))
}

func (e *Engine) pickDiversityOptions(req Request) diversity.Options {
	opts := e.DiversityOptions
	if opts.K <= 0 {
		opts = diversity.DefaultOptions
	}
	opts.K = req.K
	return opts
}

// offerCachedPath checks the segment cache for a direct hit on the
// full (start, end) pair and, if found, revalidates every edge
// against upstream before offering it to the diversity extractor.
// A stale or broken cached path is discarded silently; the regular
// BFS below will re-derive a fresh one.
func (e *Engine) offerCachedPath(ctx context.Context, sink *events.Sink, req Request, extractor *diversity.Extractor, state *searchState) {
	seg, ok := e.Cache.Get(ctx, req.Start, req.End)
	if !ok {
		return
	}

	if !e.revalidate(ctx, seg.Titles, state) {
		logger.Debug("discarding stale cached path", "start", req.Start.String(), "end", req.End.String())
		return
	}

	if accepted, _ := extractor.Offer(seg.Titles); accepted {
		sink.Emit(ctx, events.PathFound{
			Index: extractor.Len() - 1,
			Path:  toStringSlice(seg.Titles),
			Hops:  seg.Titles.Len(),
		})
		if state.shortestLen < 0 {
			state.shortestLen = seg.Titles.Len()
		}
	}
}

// revalidate confirms every hop in p is still a real edge by asking
// upstream for the forward neighbors of each node and checking that
// the next title in p is among them. It counts each checked title
// toward the page budget.
func (e *Engine) revalidate(ctx context.Context, p wikigraph.Path, state *searchState) bool {
	for i := 0; i+1 < len(p); i++ {
		if state.pagesChecked >= state.pagesCeiling {
			return false
		}
		neighbors, err := e.Upstream.Neighbors(ctx, p[i], upstream.Forward, state.perTitleCap)
		state.pagesChecked++
		if err != nil {
			return false
		}
		if !containsTitle(neighbors, p[i+1]) {
			return false
		}
	}
	return true
}

// expandUntilDone runs the bidirectional BFS, offering every meeting
// point it discovers to the extractor, until the extractor is full,
// the depth budget derived from the first shortest path plus the
// configured diversity slack is exhausted, the page-check ceiling is
// hit, or ctx is canceled.
func (e *Engine) expandUntilDone(ctx context.Context, sink *events.Sink, req Request, extractor *diversity.Extractor, state *searchState, started time.Time) error {
	state.forward.parent[req.Start] = ""
	state.backward.parent[req.End] = ""
	state.forward.frontier = []title.Title{req.Start}
	state.backward.frontier = []title.Title{req.End}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if extractor.Len() >= req.K {
			return nil
		}
		if state.pagesChecked >= state.pagesCeiling {
			if extractor.Len() > 0 {
				return nil
			}
			return apperr.New(apperr.TimedOut, "page-check ceiling reached before finding a path")
		}
		if state.shortestLen >= 0 && state.forward.depth+state.backward.depth > state.shortestLen+req.DiversitySlack {
			return nil
		}
		if state.forward.depth+state.backward.depth >= req.MaxDepth {
			if extractor.Len() > 0 {
				return nil
			}
			return apperr.New(apperr.NoPath, "max depth reached")
		}
		if len(state.forward.frontier) == 0 && len(state.backward.frontier) == 0 {
			if extractor.Len() > 0 {
				return nil
			}
			return apperr.New(apperr.NoPath, "both frontiers exhausted")
		}

		side := e.pickSide(state)
		meetings, err := e.expandLayer(ctx, side, state, req)
		if err != nil {
			return err
		}

		for _, m := range meetings {
			path, ok := reconstruct(state, m)
			if !ok || path.HasRepeats() {
				continue
			}
			accepted, _ := extractor.Offer(path)
			if accepted {
				if state.shortestLen < 0 {
					state.shortestLen = path.Len()
				}
				sink.Emit(ctx, events.PathFound{
					Index: extractor.Len() - 1,
					Path:  toStringSlice(path),
					Hops:  path.Len(),
				})
			}
			if extractor.Len() >= req.K {
				return nil
			}
		}

		elapsed := time.Since(started)
		pagesPerSecond := 0.0
		if elapsed > 0 {
			pagesPerSecond = float64(state.pagesChecked) / elapsed.Seconds()
		}
		sink.Emit(ctx, events.Progress{
			Depth:          max(state.forward.depth, state.backward.depth),
			Direction:      side.String(),
			FrontierSize:   len(side.frontier(state)),
			PagesChecked:   state.pagesChecked,
			VisitedTotal:   len(state.forward.parent) + len(state.backward.parent),
			ForwardDepth:   state.forward.depth,
			BackwardDepth:  state.backward.depth,
			PagesPerSecond: pagesPerSecond,
			ElapsedMS:      elapsed.Milliseconds(),
		})
	}
}

type expandSide int

const (
	sideForward expandSide = iota
	sideBackward
)

func (s expandSide) String() string {
	if s == sideForward {
		return "forward"
	}
	return "backward"
}

func (s expandSide) frontier(state *searchState) []title.Title {
	if s == sideForward {
		return state.forward.frontier
	}
	return state.backward.frontier
}

// pickSide expands the smaller non-empty frontier, breaking ties
// toward forward. A side with an empty frontier is never picked over
// a side that still has one, since expanding nothing makes no
// progress and would otherwise starve the other side forever.
func (e *Engine) pickSide(state *searchState) expandSide {
	fLen, bLen := len(state.forward.frontier), len(state.backward.frontier)
	if fLen == 0 {
		return sideBackward
	}
	if bLen == 0 {
		return sideForward
	}
	if bLen < fLen {
		return sideBackward
	}
	return sideForward
}

// expandLayer fetches neighbors for every title in the chosen
// frontier concurrently (bounded by ExpandConcurrency), updates parent
// pointers and the next frontier, and returns every title discovered
// that is already known to the opposite side.
func (e *Engine) expandLayer(ctx context.Context, side expandSide, state *searchState, req Request) ([]title.Title, error) {
	frontierSet := state.sideState(side)
	current := frontierSet.frontier
	frontierSet.frontier = nil
	frontierSet.depth++

	dir := upstream.Forward
	if side == sideBackward {
		dir = upstream.Backward
	}

	type result struct {
		from      title.Title
		neighbors []title.Title
		err       error
	}
	results := make([]result, len(current))

	limit := e.ExpandConcurrency
	if limit <= 0 {
		limit = 8
	}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, t := range current {
		i, t := i, t
		g.Go(func() error {
			neighbors, err := e.Upstream.Neighbors(gCtx, t, dir, req.PerTitleNeighborCap)
			results[i] = result{from: t, neighbors: neighbors, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	opposite := state.opposite(side)
	var meetings []title.Title
	var firstErr error

	for _, r := range results {
		state.pagesChecked++
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		for _, n := range r.neighbors {
			if _, known := frontierSet.parent[n]; known {
				continue
			}
			frontierSet.parent[n] = r.from
			frontierSet.frontier = append(frontierSet.frontier, n)
			if _, met := opposite.parent[n]; met {
				meetings = append(meetings, n)
			}
		}
	}

	if len(meetings) == 0 && len(frontierSet.frontier) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return meetings, nil
}

func (e *Engine) recordSuccess(ctx context.Context, state *searchState, result wikigraph.PathSet, elapsed time.Duration) {
	if e.Persist == nil {
		return
	}
	rec := persistence.SearchRecord{
		Start:         state.requestedStart,
		End:           state.requestedEnd,
		ResolvedStart: state.resolvedStart,
		ResolvedEnd:   state.resolvedEnd,
		PathCount:     len(result.Paths),
		ShortestHops:  result.Paths[0].Len(),
		PagesChecked:  state.pagesChecked,
		ElapsedMS:     elapsed.Milliseconds(),
		Status:        "ok",
	}
	if err := e.Persist.SaveSearchRecord(ctx, rec); err != nil {
		logger.Error("failed to record search result", "error", err.Error())
	}
}

func (e *Engine) recordFailure(ctx context.Context, state *searchState, cause error) {
	if e.Persist == nil {
		return
	}
	rec := persistence.SearchRecord{
		Start:         state.requestedStart,
		End:           state.requestedEnd,
		ResolvedStart: state.resolvedStart,
		ResolvedEnd:   state.resolvedEnd,
		PagesChecked:  state.pagesChecked,
		Status:        string(apperr.KindOf(cause)),
	}
	if err := e.Persist.SaveSearchRecord(ctx, rec); err != nil {
		logger.Error("failed to record search failure", "error", err.Error())
	}
}

func containsTitle(haystack []title.Title, needle title.Title) bool {
	for _, t := range haystack {
		if t == needle {
			return true
		}
	}
	return false
}

func toStringSlice(p wikigraph.Path) []string {
	out := make([]string, len(p))
	for i, t := range p {
		out[i] = t.String()
	}
	return out
}

func toStringPaths(paths []wikigraph.Path) [][]string {
	out := make([][]string, len(paths))
	for i, p := range paths {
		out[i] = toStringSlice(p)
	}
	return out
}
