// Package contentstore provides SQLite-backed persistence for content
// records: seeded templates under the system seed bucket and live
// records scoped to real books.
package contentstore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/getlost/portal/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS content_records (
	id               TEXT PRIMARY KEY,
	kind             TEXT NOT NULL,
	book_id          TEXT NOT NULL,
	title            TEXT NOT NULL DEFAULT '',
	slug             TEXT NOT NULL DEFAULT '',
	html             TEXT NOT NULL DEFAULT '',
	metadata         TEXT NOT NULL DEFAULT '{}',
	status           TEXT NOT NULL DEFAULT 'ready',
	images_embedded  INTEGER NOT NULL DEFAULT 0,
	videos_rewritten INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_content_book_kind ON content_records(book_id, kind);
`

// DB wraps a sql.DB with content-record operations.
type DB struct {
	conn *sql.DB
}

// Store is the interface over content-record persistence. Consumers
// depend on this rather than *DB so tests can substitute fakes.
type Store interface {
	Insert(rec *models.Record) error
	Get(id string) (*models.Record, error)
	ListByBook(bookID string, kind models.Kind) ([]models.Record, error)
	ListSeeded(kind models.Kind) ([]models.Record, error)
	LinkToBook(rec *models.Record, bookID string) (string, error)
	Delete(id string) error
	Close() error
}

var _ Store = (*DB)(nil)

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("contentstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("contentstore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("contentstore: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
