// Package segcache implements the two-tier segment cache: an
// in-memory LRU of recently used path segments backed by a durable
// tier the search engine warms from and periodically flushes to.
package segcache

import (
	"context"
	"sync"
	"time"

	"github.com/rangulvers/wikigraph/internal/title"
	"github.com/rangulvers/wikigraph/internal/wikigraph"
	"github.com/rangulvers/wikigraph/pkg/logger"
)

// DurableTier is the persistence-side half of the cache, implemented
// by internal/pgadapter. The facade never assumes anything about how
// the durable tier stores segments; it batches writes, asks for a
// bounded warm-up set at startup, and looks up single segments on an
// in-memory miss.
type DurableTier interface {
	SaveSegments(ctx context.Context, segments []wikigraph.Segment) error
	RecentSegments(ctx context.Context, limit int) ([]wikigraph.Segment, error)
	GetSegment(ctx context.Context, start, end title.Title) (wikigraph.Segment, bool, error)
}

// key uniquely identifies a segment by its endpoints.
type key struct {
	start title.Title
	end   title.Title
}

// Facade is the cache-aware lookup the search engine calls through.
// It is safe for concurrent use; writes to the in-memory tier are
// synchronous, writes to the durable tier are batched and flushed
// asynchronously so a slow database never blocks path reconstruction.
type Facade struct {
	mu      sync.Mutex
	mem     *lru[key, wikigraph.Segment]
	durable DurableTier

	pending     []wikigraph.Segment
	flushSignal chan struct{}

	hits   int
	misses int
}

const (
	// flushBatchSize is the number of pending segment writes that
	// triggers an immediate asynchronous flush to the durable tier.
	flushBatchSize = 256
	// flushInterval is the maximum time a write waits in the pending
	// batch before being flushed even if the batch is not full.
	flushInterval = 500 * time.Millisecond
	// maxSegmentSpan caps how many titles any one cached sub-path may
	// hold, mirroring the bound the original path-derived segment
	// extraction used to avoid caching an unbounded number of
	// overlapping windows from one long path.
	maxSegmentSpan = 10
)

// NewFacade builds a Facade with an in-memory tier of the given
// capacity and an optional durable tier (nil disables durable reads
// and writes, leaving a pure in-memory cache).
func NewFacade(memCapacity int, durable DurableTier) *Facade {
	f := &Facade{
		mem:         newLRU[key, wikigraph.Segment](memCapacity),
		durable:     durable,
		flushSignal: make(chan struct{}, 1),
	}
	return f
}

// Get looks up a cached segment for the given endpoints. On an
// in-memory miss it falls through to the durable tier, populating the
// in-memory tier on a durable hit so the next lookup for the same
// pair is served from memory.
func (f *Facade) Get(ctx context.Context, start, end title.Title) (wikigraph.Segment, bool) {
	f.mu.Lock()
	seg, ok := f.mem.get(key{start: start, end: end})
	if ok {
		f.hits++
		seg.UseCount++
		seg.LastUsed = time.Now()
		f.mem.put(key{start: start, end: end}, seg)
	} else {
		f.misses++
	}
	f.mu.Unlock()
	if ok {
		return seg, true
	}

	if f.durable == nil {
		return wikigraph.Segment{}, false
	}
	seg, ok, err := f.durable.GetSegment(ctx, start, end)
	if err != nil {
		logger.Error("durable segment lookup failed", "error", err.Error(), "start", start.String(), "end", end.String())
		return wikigraph.Segment{}, false
	}
	if !ok {
		return wikigraph.Segment{}, false
	}

	f.mu.Lock()
	f.mem.put(key{start: start, end: end}, seg)
	f.mu.Unlock()
	return seg, true
}

// Put inserts or refreshes a single segment in the in-memory tier and
// queues it for an asynchronous durable-tier write. An existing
// cached entry for the same endpoints is replaced only if seg is no
// longer than it, so a later, less direct rediscovery of the same
// pair never displaces a shorter already-cached path.
func (f *Facade) Put(seg wikigraph.Segment) {
	f.mu.Lock()
	k := key{start: seg.Start, end: seg.End}
	if existing, ok := f.mem.get(k); ok && len(seg.Titles) > len(existing.Titles) {
		f.mu.Unlock()
		return
	}
	seg.UseCount++
	seg.LastUsed = time.Now()
	f.mem.put(k, seg)
	f.pending = append(f.pending, seg)
	shouldSignal := len(f.pending) >= flushBatchSize
	f.mu.Unlock()

	if shouldSignal {
		select {
		case f.flushSignal <- struct{}{}:
		default:
		}
	}
}

// CachePath derives every sub-path of length 2..maxSegmentSpan from a
// found path and caches each as its own segment, so a later search
// between any two titles on this path can skip straight to a cached
// hop instead of re-deriving it hop by hop.
func (f *Facade) CachePath(p wikigraph.Path) {
	for _, seg := range ExtractSegments(p) {
		f.Put(seg)
	}
}

// ExtractSegments returns every contiguous sub-path of p with length
// between 2 and maxSegmentSpan nodes, as candidate cache entries.
func ExtractSegments(p wikigraph.Path) []wikigraph.Segment {
	var out []wikigraph.Segment
	n := len(p)
	for i := 0; i < n; i++ {
		maxJ := i + maxSegmentSpan - 1
		if maxJ > n-1 {
			maxJ = n - 1
		}
		for j := i + 1; j <= maxJ; j++ {
			sub := p[i : j+1]
			if len(sub) < 2 {
				continue
			}
			out = append(out, wikigraph.Segment{
				Start:  sub[0],
				End:    sub[len(sub)-1],
				Titles: sub.Clone(),
			})
		}
	}
	return out
}

// Warm loads up to limit of the most recently used segments from the
// durable tier into the in-memory tier. Call once at startup.
func (f *Facade) Warm(ctx context.Context, limit int) error {
	if f.durable == nil {
		return nil
	}
	segs, err := f.durable.RecentSegments(ctx, limit)
	if err != nil {
		return err
	}

	f.mu.Lock()
	for _, seg := range segs {
		f.mem.put(key{start: seg.Start, end: seg.End}, seg)
	}
	f.mu.Unlock()

	logger.Info("warmed segment cache from durable tier", "count", len(segs))
	return nil
}

// RunFlusher drains the pending batch to the durable tier whenever it
// fills up or flushInterval elapses, until ctx is done. Intended to
// run in its own goroutine for the lifetime of the process.
func (f *Facade) RunFlusher(ctx context.Context) {
	if f.durable == nil {
		return
	}
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.flush(context.Background())
			return
		case <-ticker.C:
			f.flush(ctx)
		case <-f.flushSignal:
			f.flush(ctx)
		}
	}
}

func (f *Facade) flush(ctx context.Context) {
	f.mu.Lock()
	if len(f.pending) == 0 {
		f.mu.Unlock()
		return
	}
	batch := f.pending
	f.pending = nil
	f.mu.Unlock()

	if err := f.durable.SaveSegments(ctx, batch); err != nil {
		logger.Error("failed to flush segment cache batch", "error", err.Error(), "count", len(batch))
	}
}

// Stats reports point-in-time counters for observability.
type Stats struct {
	Hits    int
	Misses  int
	MemSize int
	Pending int
}

func (f *Facade) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		Hits:    f.hits,
		Misses:  f.misses,
		MemSize: f.mem.len(),
		Pending: len(f.pending),
	}
}
