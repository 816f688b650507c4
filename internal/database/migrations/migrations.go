// Package migrations owns the schema of the sync run ledger. SQL files are
// embedded and applied with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Table records the applied schema version.
const Table = "schema_migrations"

//go:embed files/*.sql
var files embed.FS

var (
	// ErrNoSchema indicates a ledger that was never migrated.
	ErrNoSchema = errors.New("ledger has no schema version")

	// ErrDirty indicates a migration failed halfway and needs manual repair.
	ErrDirty = errors.New("ledger schema is dirty")
)

// MismatchError reports a ledger whose schema differs from the embedded one.
type MismatchError struct {
	Current uint
	Latest  uint
}

func (e *MismatchError) Error() string {
	if e.Current > e.Latest {
		return fmt.Sprintf("ledger schema version %d is newer than this binary (%d)", e.Current, e.Latest)
	}
	return fmt.Sprintf("ledger schema version %d is behind latest %d", e.Current, e.Latest)
}

// Up applies every pending migration. An up-to-date ledger is not an error.
// The caller keeps ownership of db.
func Up(db *sql.DB) error {
	m, err := open(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating ledger: %w", err)
	}
	return nil
}

// Check returns nil when db is at the embedded schema version.
func Check(db *sql.DB) error {
	m, err := open(db)
	if err != nil {
		return err
	}

	current, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return ErrNoSchema
	}
	if err != nil {
		return fmt.Errorf("reading ledger schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("%w at version %d", ErrDirty, current)
	}

	latest, err := Latest()
	if err != nil {
		return err
	}
	if current != latest {
		return &MismatchError{Current: current, Latest: latest}
	}
	return nil
}

// Latest returns the highest embedded migration version.
func Latest() (uint, error) {
	src, err := iofs.New(files, "files")
	if err != nil {
		return 0, fmt.Errorf("reading embedded migrations: %w", err)
	}
	defer src.Close()
	return last(src)
}

// open does not close the returned instance since that would close db.
func open(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(files, "files")
	if err != nil {
		return nil, fmt.Errorf("reading embedded migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: Table})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("preparing ledger for migration: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("preparing ledger for migration: %w", err)
	}
	return m, nil
}

func last(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, err
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			return v, nil
		}
		v = next
	}
}
