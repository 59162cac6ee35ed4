package pgadapter

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/rangulvers/wikigraph/internal/apperr"
)

// Migrate applies every pending migration under dir (a "file://"-style
// path, e.g. "internal/pgadapter/migrations") to the database at
// databaseURL. It is idempotent: running it against an up-to-date
// schema is a no-op.
func Migrate(dir, databaseURL string) error {
	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "initializing migrator", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperr.Wrap(apperr.Internal, "applying migrations", err)
	}
	return nil
}
