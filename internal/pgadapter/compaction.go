package pgadapter

import (
	"context"
	"time"

	"github.com/rangulvers/wikigraph/internal/apperr"
	"github.com/rangulvers/wikigraph/pkg/leaselock"
	"github.com/rangulvers/wikigraph/pkg/logger"
)

const compactionLockKey = "segment-cache-compaction"

// CompactionOptions configures how aggressively the durable segment
// tier is trimmed.
type CompactionOptions struct {
	// MaxAge evicts segments not used within this window.
	MaxAge time.Duration
	// MaxRows caps the table size, evicting the least recently used
	// rows beyond this count.
	MaxRows int64
	// Interval is how often compaction runs.
	Interval time.Duration
}

// DefaultCompactionOptions matches the eviction policy named in the
// service's tunables: unused segments older than 30 days are
// dropped, and the table is capped at 10000 rows.
var DefaultCompactionOptions = CompactionOptions{
	MaxAge:   30 * 24 * time.Hour,
	MaxRows:  10000,
	Interval: time.Hour,
}

// RunCompaction periodically compacts the path_segments table, using
// a leased lock so that only one replica of the service performs
// compaction at a time. It blocks until ctx is done.
func (a *Adapter) RunCompaction(ctx context.Context, lock *leaselock.Client, opts CompactionOptions) {
	if opts.Interval <= 0 {
		opts.Interval = DefaultCompactionOptions.Interval
	}
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.compactOnce(ctx, lock, opts)
		}
	}
}

func (a *Adapter) compactOnce(ctx context.Context, lock *leaselock.Client, opts CompactionOptions) {
	err := lock.WithLease(ctx, compactionLockKey, leaselock.Options{TTL: 2 * time.Minute}, func(leaseCtx context.Context) error {
		return a.compact(leaseCtx, opts)
	})
	if err != nil {
		logger.Debug("skipped segment cache compaction", "reason", err.Error())
	}
}

func (a *Adapter) compact(ctx context.Context, opts CompactionOptions) error {
	tag, err := a.pool.Exec(ctx, deleteStaleSegmentsSQL, opts.MaxAge.Seconds())
	if err != nil {
		return apperr.Wrap(apperr.Internal, "evicting stale segments", err)
	}
	removedByAge := tag.RowsAffected()

	tag, err = a.pool.Exec(ctx, capSegmentTableSQL, opts.MaxRows)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "capping segment table", err)
	}
	removedByCap := tag.RowsAffected()

	if removedByAge+removedByCap > 0 {
		logger.Info("compacted segment cache", "removed_by_age", removedByAge, "removed_by_cap", removedByCap)
	}
	return nil
}

const deleteStaleSegmentsSQL = `
DELETE FROM path_segments
WHERE last_used < now() - ($1::double precision * interval '1 second')
`

const capSegmentTableSQL = `
DELETE FROM path_segments
WHERE id IN (
    SELECT id FROM path_segments
    ORDER BY last_used DESC
    OFFSET $1
)
`
