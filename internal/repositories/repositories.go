// Package repositories wires the SQLite-backed stores over one database
// handle and runs schema migrations.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/inqbatorchris/fieldsync/internal/migrations"
	"github.com/inqbatorchris/fieldsync/internal/repositories/entities"
	"github.com/inqbatorchris/fieldsync/internal/repositories/photos"
	"github.com/inqbatorchris/fieldsync/internal/repositories/queue"

	_ "modernc.org/sqlite"
)

// Repositories bundles the three durable collections: entities, photo blobs
// and the sync queue. All share one *sql.DB so cross-store writes can run in
// a single transaction via dbx.WithTx.
type Repositories struct {
	DB       *sql.DB
	Entities entities.Repository
	Photos   photos.Repository
	Queue    queue.Repository
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (or creates) the local database, migrates the schema
// and returns the repository set. The caller owns closing DB.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// the local store is single-writer; one connection sidesteps
	// SQLITE_BUSY under concurrent test access
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	return &Repositories{
		DB:       db,
		Entities: entities.NewSQLiteRepository(db),
		Photos:   photos.NewSQLiteRepository(db),
		Queue:    queue.NewSQLiteRepository(db),
	}, nil
}
