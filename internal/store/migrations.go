package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// schemaStep is one numbered SQL file under migrations/.
type schemaStep struct {
	version int
	name    string
	body    string
}

func (s schemaStep) String() string {
	return fmt.Sprintf("%03d_%s", s.version, s.name)
}

// migrate applies the schema steps not yet recorded in schema_migrations and
// then checks that the snapshots table has every column the backend reads.
func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	steps, err := schemaSteps()
	if err != nil {
		return err
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	for _, step := range steps {
		if applied[step.version] {
			continue
		}
		if err := applyStep(ctx, db, step); err != nil {
			return err
		}
	}

	return checkSnapshotSchema(ctx, db)
}

// schemaSteps returns the embedded steps ordered by version.
func schemaSteps() ([]schemaStep, error) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list schema steps: %w", err)
	}

	steps := make([]schemaStep, 0, len(names))
	for _, name := range names {
		version, label, err := parseStepName(path.Base(name))
		if err != nil {
			return nil, err
		}
		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read schema step %s: %w", name, err)
		}
		steps = append(steps, schemaStep{version: version, name: label, body: string(body)})
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].version < steps[j].version })
	for i := 1; i < len(steps); i++ {
		if steps[i].version == steps[i-1].version {
			return nil, fmt.Errorf("schema steps %s and %s share version %d", steps[i-1], steps[i], steps[i].version)
		}
	}
	return steps, nil
}

// parseStepName splits "002_add_snapshot_size.sql" into 2 and "add_snapshot_size".
func parseStepName(filename string) (int, string, error) {
	base := strings.TrimSuffix(filename, path.Ext(filename))
	num, label, ok := strings.Cut(base, "_")
	if !ok || label == "" {
		return 0, "", fmt.Errorf("schema step %q: want <version>_<name>.sql", filename)
	}
	version, err := strconv.Atoi(num)
	if err != nil || version <= 0 {
		return 0, "", fmt.Errorf("schema step %q: version must be a positive number", filename)
	}
	return version, label, nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan schema version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func applyStep(ctx context.Context, db *sql.DB, step schemaStep) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("schema step %s: %w", step, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, step.body); err != nil {
		return fmt.Errorf("schema step %s: %w", step, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, step.version, step.name); err != nil {
		return fmt.Errorf("record schema step %s: %w", step, err)
	}
	return tx.Commit()
}

// checkSnapshotSchema fails when the snapshots table lacks a column that
// Load, Save or SavedAt use.
func checkSnapshotSchema(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `SELECT id, body, saved_at, size_bytes FROM snapshots LIMIT 0`)
	if err != nil {
		return fmt.Errorf("snapshots table is not usable: %w", err)
	}
	return rows.Close()
}
