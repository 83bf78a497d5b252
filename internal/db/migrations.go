package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStep is one forward-only change to the forum schema. Steps run in
// order inside their own transaction and are recorded in schema_version.
type schemaStep struct {
	version int
	name    string
	sql     string
}

var migrations = []schemaStep{
	{version: 1, name: "users_content_search", sql: initialSchemaV1},
	{version: 2, name: "mention_notifications", sql: notificationsSchemaV2},
}

const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
	version     INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	applied_at  INTEGER NOT NULL
);`

// ApplyMigrations runs every step newer than the recorded schema version.
// Running it again on an up-to-date database is a no-op.
func ApplyMigrations(database *sql.DB) error {
	return ApplyMigrationsContext(context.Background(), database)
}

func ApplyMigrationsContext(ctx context.Context, database *sql.DB) error {
	if _, err := database.ExecContext(ctx, schemaVersionTable); err != nil {
		return fmt.Errorf("ensure schema_version table: %w", err)
	}

	current, err := SchemaVersion(ctx, database)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, step := range migrations {
		if step.version <= current {
			continue
		}
		if err := runStep(ctx, database, step); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", step.version, step.name, err)
		}
		current = step.version
	}
	return nil
}

// SchemaVersion returns the newest applied step, or 0 for a fresh database.
func SchemaVersion(ctx context.Context, database *sql.DB) (int, error) {
	var version int
	err := database.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_version`,
	).Scan(&version)
	return version, err
}

func runStep(ctx context.Context, database *sql.DB, step schemaStep) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, step.sql); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)`,
		step.version, step.name, nowNanos(),
	); err != nil {
		return err
	}
	return tx.Commit()
}
