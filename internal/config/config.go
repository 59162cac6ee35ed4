// Package config loads every tunable this service exposes from the
// environment, the way kiwi's cmd/server does with its own flat set
// of GetEnv* calls, but collected into one struct so the rest of the
// program depends on a value instead of on package-level globals.
package config

import (
	"github.com/rangulvers/wikigraph/internal/util"
)

// Config holds every environment-driven setting for the service.
type Config struct {
	// HTTP transport
	ListenAddr string

	// Postgres
	DatabaseURL   string
	MigrationsDir string
	RunMigrations bool

	// Upstream MediaWiki client
	UpstreamBaseURL     string
	UpstreamConcurrency int
	PerTitleNeighborCap int

	// Search engine tunables
	DefaultK             int
	DefaultMaxDepth      int
	DiversitySlack       int
	DiversityMinDistance float64
	PagesCheckedCeiling  int

	// Segment cache
	MemCacheCapacity int
	CacheWarmLimit   int
	CacheFreshWindow int // hours

	// Compaction
	CompactionMaxAgeDays int
	CompactionMaxRows    int
	CompactionInterval   int // minutes

	// Logging
	LogLevel string
}

// Load reads every setting from the environment (and .env, if
// present), applying the defaults named in this package when a
// variable is unset.
func Load() Config {
	util.LoadEnv()

	return Config{
		ListenAddr: util.GetEnvString("LISTEN_ADDR", ":8080"),

		DatabaseURL:   util.GetEnvString("DATABASE_URL", ""),
		MigrationsDir: util.GetEnvString("MIGRATIONS_DIR", "internal/pgadapter/migrations"),
		RunMigrations: util.GetEnvBool("RUN_MIGRATIONS", true),

		UpstreamBaseURL:     util.GetEnvString("UPSTREAM_BASE_URL", ""),
		UpstreamConcurrency: util.GetEnvInt("UPSTREAM_CONCURRENCY_CAP", 50),
		PerTitleNeighborCap: util.GetEnvInt("PER_TITLE_NEIGHBOR_CAP", 500),

		DefaultK:             util.GetEnvInt("DEFAULT_K", 5),
		DefaultMaxDepth:      util.GetEnvInt("DEFAULT_MAX_DEPTH", 6),
		DiversitySlack:       util.GetEnvInt("DIVERSITY_SLACK", 2),
		DiversityMinDistance: diversityMinDistance(),
		PagesCheckedCeiling:  util.GetEnvInt("PAGES_CHECKED_CEILING", 20000),

		MemCacheCapacity: util.GetEnvInt("MEM_CACHE_CAPACITY", 50000),
		CacheWarmLimit:   util.GetEnvInt("CACHE_WARM_LIMIT", 1000),
		CacheFreshWindow: util.GetEnvInt("CACHE_FRESH_WINDOW_HOURS", 24),

		CompactionMaxAgeDays: util.GetEnvInt("COMPACTION_MAX_AGE_DAYS", 30),
		CompactionMaxRows:    util.GetEnvInt("COMPACTION_MAX_ROWS", 10000),
		CompactionInterval:   util.GetEnvInt("COMPACTION_INTERVAL_MINUTES", 60),

		LogLevel: util.GetEnvString("LOG_LEVEL", "info"),
	}
}

// diversityMinDistance reads DIVERSITY_MIN_DISTANCE as a float. It
// is split out from the GetEnvInt calls above because GetEnvNumeric's
// default value is typed int, which cannot express this setting's
// fractional default.
func diversityMinDistance() float64 {
	v := util.GetEnvNumeric("DIVERSITY_MIN_DISTANCE", 0)
	if v == 0 {
		return 0.3
	}
	return v
}
