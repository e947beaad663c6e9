package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed migrations/*.up.sql
var embeddedMigrations embed.FS

// Migrations returns the schema migrations shipped with the binary.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

const (
	ensureMigrationsSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	isMigratedSQL      = `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`
	recordMigrationSQL = `INSERT INTO schema_migrations(version) VALUES($1)`
)

// ApplyMigrations runs every `.up.sql` file of fsys in name order, each in
// its own transaction, skipping versions already recorded.
func ApplyMigrations(ctx context.Context, db *sql.DB, fsys fs.FS) (applied int, err error) {
	if _, err := db.ExecContext(ctx, ensureMigrationsSQL); err != nil {
		return 0, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	files, err := migrationFiles(fsys)
	if err != nil {
		return 0, err
	}

	for _, version := range files {
		var migrated bool
		if err := db.QueryRowContext(ctx, isMigratedSQL, version).Scan(&migrated); err != nil {
			return applied, fmt.Errorf("check migration %s: %w", version, err)
		}
		if migrated {
			continue
		}

		contents, err := fs.ReadFile(fsys, path.Clean(version))
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", version, err)
		}

		if err := applyOne(ctx, db, version, string(contents)); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func applyOne(ctx context.Context, db *sql.DB, version, contents string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, contents); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("execute migration %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, recordMigrationSQL, version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}


// migrationFiles lists the `.up.sql` files of fsys in apply order.
func migrationFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}
