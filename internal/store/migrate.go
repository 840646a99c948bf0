package store

import (
	"embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations
var migrations embed.FS

// RunMigrations applies the embedded migrations for the backend selected by the DSN scheme.
// memory:// needs no schema and is a no-op.
func RunMigrations(dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}

	var dir string
	switch u.Scheme {
	case "postgres", "postgresql":
		dir = "migrations/postgres"
	case "sqlite3":
		dir = "migrations/sqlite"
	case "memory":
		return nil
	default:
		return fmt.Errorf("unsupported database scheme %q", u.Scheme)
	}

	src, err := iofs.New(migrations, dir)
	if err != nil {
		return fmt.Errorf("iofs.New: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("migrate.New: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate.Up: %w", err)
	}
	return nil
}
