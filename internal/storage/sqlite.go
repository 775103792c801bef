package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentSchemaVersion = 2

// SQLiteLedger implements Ledger using a SQLite database.
type SQLiteLedger struct {
	db   *sql.DB
	path string
}

// NewSQLiteLedger opens or creates the ledger database at path.
func NewSQLiteLedger(path string) (*SQLiteLedger, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	l := &SQLiteLedger{db: db, path: path}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return l, nil
}

// Path returns the database file path.
func (l *SQLiteLedger) Path() string {
	return l.path
}

// Close closes the database connection.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// SchemaVersion returns the applied migration version.
func (l *SQLiteLedger) SchemaVersion() (int, error) {
	var version int
	err := l.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	return version, err
}

// migrate runs database migrations.
func (l *SQLiteLedger) migrate() error {
	version, err := l.SchemaVersion()
	if err != nil {
		// Table doesn't exist or is empty, start fresh
		version = 0
	}

	if version < 1 {
		if err := l.migrateV1(); err != nil {
			return err
		}
	}

	if version < 2 {
		if err := l.migrateV2(); err != nil {
			return err
		}
	}

	return nil
}

// migrateV1 creates the initial schema.
func (l *SQLiteLedger) migrateV1() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS imports (
			raindrop_id INTEGER PRIMARY KEY NOT NULL,
			path TEXT NOT NULL,
			last_update TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			run_id TEXT NOT NULL DEFAULT '',
			imported_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_imports_imported_at ON imports(imported_at);

		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := l.db.Exec(schema)
	return err
}

// migrateV2 adds the title column shown by the history listing.
func (l *SQLiteLedger) migrateV2() error {
	migration := `
		ALTER TABLE imports ADD COLUMN title TEXT NOT NULL DEFAULT '';
		UPDATE schema_version SET version = 2;
	`
	_, err := l.db.Exec(migration)
	return err
}

// Has reports whether raindropID was imported before.
func (l *SQLiteLedger) Has(ctx context.Context, raindropID int64) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx, "SELECT 1 FROM imports WHERE raindrop_id = ?", raindropID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Record inserts or replaces the entry for e.RaindropID.
func (l *SQLiteLedger) Record(ctx context.Context, e Entry) error {
	if e.ImportedAt.IsZero() {
		e.ImportedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO imports (raindrop_id, title, path, last_update, outcome, run_id, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.RaindropID, e.Title, e.Path, e.LastUpdate, e.Outcome, e.RunID, e.ImportedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// List returns entries, newest first.
func (l *SQLiteLedger) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT raindrop_id, title, path, last_update, outcome, run_id, imported_at
		FROM imports
		ORDER BY imported_at DESC, raindrop_id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var importedAt string
		if err := rows.Scan(&e.RaindropID, &e.Title, &e.Path, &e.LastUpdate, &e.Outcome, &e.RunID, &importedAt); err != nil {
			return nil, err
		}
		e.ImportedAt, _ = time.Parse(time.RFC3339Nano, importedAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
