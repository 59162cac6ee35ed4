// Package persistence defines the Adapter interface the search
// engine and the HTTP layer depend on for durable storage of search
// records and path segments, independent of which database backs it.
package persistence

import (
	"context"
	"time"

	"github.com/rangulvers/wikigraph/internal/title"
	"github.com/rangulvers/wikigraph/internal/wikigraph"
)

// SearchRecord is one completed or failed search, as returned by the
// history and stats read paths.
type SearchRecord struct {
	PublicID string
	Start    title.Title
	End      title.Title

	// ResolvedStart and ResolvedEnd are the canonical titles Start and
	// End resolved to, following redirects. They are empty if the
	// search failed before resolution completed.
	ResolvedStart title.Title
	ResolvedEnd   title.Title

	PathCount    int
	ShortestHops int
	PagesChecked int
	ElapsedMS    int64
	Status       string
	CreatedAt    time.Time
}

// Stats summarizes the durable tier's contents for an operator-facing
// endpoint.
type Stats struct {
	TotalSearches  int64
	TotalSegments  int64
	SuccessRate    float64
	AverageHops    float64
	MostRecentSync time.Time
}

// Adapter is the durable persistence boundary. pgadapter.Adapter is
// the only production implementation; tests use an in-memory fake.
type Adapter interface {
	SaveSearchRecord(ctx context.Context, rec SearchRecord) error
	SaveSegments(ctx context.Context, segments []wikigraph.Segment) error

	RecentSegments(ctx context.Context, limit int) ([]wikigraph.Segment, error)
	RecentSearches(ctx context.Context, limit int) ([]SearchRecord, error)
	SearchByID(ctx context.Context, publicID string) (SearchRecord, bool, error)

	Stats(ctx context.Context) (Stats, error)
}
