// Package db owns the local sqlite file and its schema.
package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/gabrielrodrigueslb/lintra/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationStatus holds information about database migration state
type MigrationStatus struct {
	CurrentVersion uint
	LatestVersion  uint
	Dirty          bool
	Pending        bool
}

// Open opens the sqlite file under the lintra directory. The caller closes it.
func Open() (*sql.DB, error) {
	if err := config.EnsureDirectories(); err != nil {
		return nil, err
	}
	path, err := config.DatabasePath()
	if err != nil {
		return nil, err
	}
	return OpenFile(path)
}

// OpenFile opens a sqlite database at path.
func OpenFile(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return conn, nil
}

// OpenAndMigrate opens the lintra database and brings its schema up to date.
func OpenAndMigrate() (*sql.DB, error) {
	conn, err := Open()
	if err != nil {
		return nil, err
	}
	if err := Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Status reports the migration state of conn.
func Status(conn *sql.DB) (*MigrationStatus, error) {
	m, err := migrator(conn)
	if err != nil {
		return nil, err
	}

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, err
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	latest := latestVersion(src)

	return &MigrationStatus{
		CurrentVersion: current,
		LatestVersion:  latest,
		Dirty:          dirty,
		Pending:        current < latest,
	}, nil
}

// latestVersion walks the source to its last migration; 0 when it is empty.
func latestVersion(src source.Driver) uint {
	v, err := src.First()
	if err != nil {
		return 0
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			return v
		}
		v = next
	}
}

// Migrate applies all pending migrations to conn.
func Migrate(conn *sql.DB) error {
	m, err := migrator(conn)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func migrator(conn *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite3.WithInstance(conn, &sqlite3.Config{})
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", src, "sqlite3", driver)
}
