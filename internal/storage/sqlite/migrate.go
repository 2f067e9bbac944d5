package sqlite

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationFiles embed.FS

func embeddedMigrations() (fs.FS, error) {
	fsys, err := fs.Sub(migrationFiles, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	return fsys, nil
}

// newMigrator builds a goose provider over the NNNN_name.sql files in fsys.
// Applied versions are tracked in goose_db_version.
func (s *Store) newMigrator(fsys fs.FS) (*goose.Provider, error) {
	migrator, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys,
		goose.WithDisableGlobalRegistry(true),
	)
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return migrator, nil
}

// migrate applies every embedded migration that has not been applied yet.
func (s *Store) migrate(ctx context.Context) error {
	fsys, err := embeddedMigrations()
	if err != nil {
		return err
	}
	return s.applyMigrations(ctx, fsys)
}

// applyMigrations runs the pending migrations in fsys in version order. Each
// one runs in its own transaction, so a failing migration leaves no trace.
func (s *Store) applyMigrations(ctx context.Context, fsys fs.FS) error {
	migrator, err := s.newMigrator(fsys)
	if err != nil {
		return err
	}

	results, err := migrator.Up(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	for _, r := range results {
		s.logger.Info("applied migration",
			"version", r.Source.Version,
			"name", path.Base(r.Source.Path),
			"duration", r.Duration,
		)
	}
	return nil
}

func (s *Store) schemaVersion(ctx context.Context) (int64, error) {
	fsys, err := embeddedMigrations()
	if err != nil {
		return 0, err
	}
	migrator, err := s.newMigrator(fsys)
	if err != nil {
		return 0, err
	}
	version, err := migrator.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}
