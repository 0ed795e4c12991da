// internal/catalog/sqlite.go
//
// SQLite storage for the catalog.
// Responsibilities:
//   - Opening a writable SQLite database with safe defaults (WAL, busy timeout).
//   - Applying the embedded migrations (idempotent, recorded in _migrations).
//   - Importing a Document into catalog_items (used by cmd/seed).
//   - SQLSource: reading catalog_items back as a Document.

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/recycle-sort/assets"
)

/**
 * OpenDB opens (and creates if missing) a SQLite database file.
 *
 * - Ensures the parent directory exists for relative paths (e.g. ./data/catalog.db).
 * - Configures busy timeout and WAL journaling.
 */
func OpenDB(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

/**
 * Migrate applies the embedded sql/*.sql migrations in lexical order.
 *
 * - Uses a _migrations table to track applied files.
 * - Each file runs inside its own transaction.
 */
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	dir, err := assets.Migrations()
	if err != nil {
		return err
	}
	files, err := fs.Glob(dir, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		body, err := fs.ReadFile(dir, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// Import replaces the contents of catalog_items with doc.
// doc is validated with FromDocument first, so a bad document leaves the table untouched.
func Import(ctx context.Context, db *sql.DB, doc Document) (int, error) {
	if _, err := FromDocument(doc); err != nil {
		return 0, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_items`); err != nil {
		return 0, fmt.Errorf("clear catalog_items: %w", err)
	}
	n := 0
	for _, id := range Categories {
		for pos, e := range doc[string(id)] {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO catalog_items (item, category, path, position) VALUES (?,?,?,?)`,
				e.Item, string(id), e.Path, pos,
			); err != nil {
				return 0, fmt.Errorf("insert %q: %w", e.Item, err)
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// SQLSource reads the catalog from the catalog_items table of a SQLite file.
// The file must already exist; Fetch never creates it.
type SQLSource struct {
	Path string
}

func (s *SQLSource) Fetch(ctx context.Context) (Document, error) {
	db, err := sql.Open("sqlite3", "file:"+s.Path+"?mode=rw&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT category, item, path FROM catalog_items ORDER BY category, position, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query catalog_items: %w", err)
	}
	defer rows.Close()

	doc := Document{}
	for rows.Next() {
		var cat string
		var e Entry
		if err := rows.Scan(&cat, &e.Item, &e.Path); err != nil {
			return nil, err
		}
		doc[cat] = append(doc[cat], e)
	}
	return doc, rows.Err()
}

func (s *SQLSource) String() string { return "sqlite " + s.Path }
