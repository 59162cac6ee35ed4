// Package pgadapter is the pgx-backed implementation of
// persistence.Adapter, storing search records and path segments in
// Postgres.
package pgadapter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/rangulvers/wikigraph/internal/apperr"
	"github.com/rangulvers/wikigraph/internal/persistence"
	"github.com/rangulvers/wikigraph/internal/title"
	"github.com/rangulvers/wikigraph/internal/wikigraph"
)

// Adapter implements persistence.Adapter against a pgxpool.Pool.
type Adapter struct {
	pool *pgxpool.Pool
}

// New wraps an already-connected pool.
func New(pool *pgxpool.Pool) *Adapter {
	return &Adapter{pool: pool}
}

func (a *Adapter) SaveSearchRecord(ctx context.Context, rec persistence.SearchRecord) error {
	publicID := rec.PublicID
	if publicID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return apperr.Wrap(apperr.Internal, "generating search record id", err)
		}
		publicID = id
	}

	_, err := a.pool.Exec(ctx, insertSearchRecordSQL,
		publicID, rec.Start.String(), rec.End.String(),
		nullableTitle(rec.ResolvedStart), nullableTitle(rec.ResolvedEnd),
		rec.PathCount, rec.ShortestHops, rec.PagesChecked, rec.ElapsedMS, rec.Status,
	)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "saving search record", err)
	}
	return nil
}

func (a *Adapter) SaveSegments(ctx context.Context, segments []wikigraph.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, seg := range segments {
		titlesJSON, err := marshalTitles(seg.Titles)
		if err != nil {
			return apperr.Wrap(apperr.Internal, "marshaling segment titles", err)
		}
		batch.Queue(upsertSegmentSQL, seg.Start.String(), seg.End.String(), titlesJSON, seg.UseCount)
	}

	br := a.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range segments {
		if _, err := br.Exec(); err != nil {
			return apperr.Wrap(apperr.Internal, "saving path segment batch", err)
		}
	}
	return nil
}

func (a *Adapter) RecentSegments(ctx context.Context, limit int) ([]wikigraph.Segment, error) {
	rows, err := a.pool.Query(ctx, recentSegmentsSQL, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "querying recent segments", err)
	}
	defer rows.Close()

	var out []wikigraph.Segment
	for rows.Next() {
		var start, end string
		var titlesJSON []byte
		var useCount int
		var lastUsed time.Time
		if err := rows.Scan(&start, &end, &titlesJSON, &useCount, &lastUsed); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "scanning segment row", err)
		}
		titles, err := unmarshalTitles(titlesJSON)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "unmarshaling segment titles", err)
		}
		out = append(out, wikigraph.Segment{
			Start:    title.Title(start),
			End:      title.Title(end),
			Titles:   titles,
			UseCount: useCount,
			LastUsed: lastUsed,
		})
	}
	return out, rows.Err()
}

// GetSegment looks up a single cached segment by its endpoints,
// serving segcache.Facade's durable-tier fallback on an in-memory
// miss.
func (a *Adapter) GetSegment(ctx context.Context, start, end title.Title) (wikigraph.Segment, bool, error) {
	var titlesJSON []byte
	var useCount int
	var lastUsed time.Time
	err := a.pool.QueryRow(ctx, getSegmentSQL, start.String(), end.String()).Scan(&titlesJSON, &useCount, &lastUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		return wikigraph.Segment{}, false, nil
	}
	if err != nil {
		return wikigraph.Segment{}, false, apperr.Wrap(apperr.Internal, "querying segment", err)
	}
	titles, err := unmarshalTitles(titlesJSON)
	if err != nil {
		return wikigraph.Segment{}, false, apperr.Wrap(apperr.Internal, "unmarshaling segment titles", err)
	}
	return wikigraph.Segment{
		Start:    start,
		End:      end,
		Titles:   titles,
		UseCount: useCount,
		LastUsed: lastUsed,
	}, true, nil
}

func (a *Adapter) RecentSearches(ctx context.Context, limit int) ([]persistence.SearchRecord, error) {
	rows, err := a.pool.Query(ctx, recentSearchesSQL, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "querying recent searches", err)
	}
	defer rows.Close()

	var out []persistence.SearchRecord
	for rows.Next() {
		rec, err := scanSearchRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (a *Adapter) SearchByID(ctx context.Context, publicID string) (persistence.SearchRecord, bool, error) {
	rows, err := a.pool.Query(ctx, searchByIDSQL, publicID)
	if err != nil {
		return persistence.SearchRecord{}, false, apperr.Wrap(apperr.Internal, "querying search record", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return persistence.SearchRecord{}, false, rows.Err()
	}
	rec, err := scanSearchRecord(rows)
	if err != nil {
		return persistence.SearchRecord{}, false, err
	}
	return rec, true, nil
}

func (a *Adapter) Stats(ctx context.Context) (persistence.Stats, error) {
	var stats persistence.Stats
	var successRate, avgHops *float64
	var mostRecent *time.Time

	err := a.pool.QueryRow(ctx, statsSQL).Scan(
		&stats.TotalSearches, &stats.TotalSegments, &successRate, &avgHops, &mostRecent,
	)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return persistence.Stats{}, apperr.Wrap(apperr.Internal, "querying stats", err)
	}
	if successRate != nil {
		stats.SuccessRate = *successRate
	}
	if avgHops != nil {
		stats.AverageHops = *avgHops
	}
	if mostRecent != nil {
		stats.MostRecentSync = *mostRecent
	}
	return stats, nil
}

func scanSearchRecord(rows pgx.Rows) (persistence.SearchRecord, error) {
	var rec persistence.SearchRecord
	var start, end string
	var resolvedStart, resolvedEnd *string
	var shortestHops *int
	if err := rows.Scan(
		&rec.PublicID, &start, &end, &resolvedStart, &resolvedEnd, &rec.PathCount, &shortestHops,
		&rec.PagesChecked, &rec.ElapsedMS, &rec.Status, &rec.CreatedAt,
	); err != nil {
		return persistence.SearchRecord{}, apperr.Wrap(apperr.Internal, "scanning search record row", err)
	}
	rec.Start = title.Title(start)
	rec.End = title.Title(end)
	if resolvedStart != nil {
		rec.ResolvedStart = title.Title(*resolvedStart)
	}
	if resolvedEnd != nil {
		rec.ResolvedEnd = title.Title(*resolvedEnd)
	}
	if shortestHops != nil {
		rec.ShortestHops = *shortestHops
	}
	return rec, nil
}

// nullableTitle returns nil for an empty title so it is stored as SQL
// NULL rather than an empty string, distinguishing "never resolved"
// from a (nonsensical) empty resolved title.
func nullableTitle(t title.Title) *string {
	if t == "" {
		return nil
	}
	s := t.String()
	return &s
}

// marshalTitles returns the JSON-encoded title list as a string, not
// []byte: pgx binds a string parameter to a jsonb column through
// Postgres's text->jsonb assignment cast, whereas a []byte parameter
// binds as bytea and has no cast path to jsonb.
func marshalTitles(p wikigraph.Path) (string, error) {
	strs := make([]string, len(p))
	for i, t := range p {
		strs[i] = t.String()
	}
	data, err := json.Marshal(strs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalTitles(data []byte) (wikigraph.Path, error) {
	var strs []string
	if err := json.Unmarshal(data, &strs); err != nil {
		return nil, err
	}
	p := make(wikigraph.Path, len(strs))
	for i, s := range strs {
		p[i] = title.Title(s)
	}
	return p, nil
}

const insertSearchRecordSQL = `
INSERT INTO search_records (public_id, start_title, end_title, resolved_start, resolved_end, path_count, shortest_hops, pages_checked, elapsed_ms, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

const upsertSegmentSQL = `
INSERT INTO path_segments (start_title, end_title, titles, use_count, last_used)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (start_title, end_title, (titles::text)) DO UPDATE
SET use_count = path_segments.use_count + EXCLUDED.use_count,
    last_used = now()
`

const getSegmentSQL = `
SELECT titles, use_count, last_used
FROM path_segments
WHERE start_title = $1 AND end_title = $2
ORDER BY jsonb_array_length(titles) ASC
LIMIT 1
`

const recentSegmentsSQL = `
SELECT start_title, end_title, titles, use_count, last_used
FROM path_segments
ORDER BY last_used DESC
LIMIT $1
`

const recentSearchesSQL = `
SELECT public_id, start_title, end_title, resolved_start, resolved_end, path_count, shortest_hops, pages_checked, elapsed_ms, status, created_at
FROM search_records
ORDER BY created_at DESC
LIMIT $1
`

const searchByIDSQL = `
SELECT public_id, start_title, end_title, resolved_start, resolved_end, path_count, shortest_hops, pages_checked, elapsed_ms, status, created_at
FROM search_records
WHERE public_id = $1
`

const statsSQL = `
SELECT
    (SELECT count(*) FROM search_records) AS total_searches,
    (SELECT count(*) FROM path_segments) AS total_segments,
    (SELECT avg((status = 'ok')::int::float) FROM search_records) AS success_rate,
    (SELECT avg(shortest_hops) FROM search_records WHERE shortest_hops IS NOT NULL) AS avg_hops,
    (SELECT max(last_used) FROM path_segments) AS most_recent_sync
`
