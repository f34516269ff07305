package contentstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/getlost/portal/internal/apperr"
	"github.com/getlost/portal/internal/models"
)

const recordColumns = `id, kind, book_id, title, slug, html, metadata, status,
	images_embedded, videos_rewritten, created_at, updated_at`

// Insert stores a new record. An empty ID gets a fresh UUID; zero
// timestamps get the current time.
func (db *DB) Insert(rec *models.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	if rec.Status == "" {
		rec.Status = "ready"
	}
	_, err := db.conn.Exec(`
		INSERT INTO content_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, string(rec.Kind), rec.BookID, rec.Title, rec.Slug, rec.HTML,
		rec.Metadata, rec.Status, rec.ImagesEmbedded, rec.VideosRewritten,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("contentstore: insert %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns a record by ID.
func (db *DB) Get(id string) (*models.Record, error) {
	row := db.conn.QueryRow(`SELECT `+recordColumns+` FROM content_records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("contentstore: get %s: %w", id, err)
	}
	return rec, nil
}

// ListByBook returns the records scoped to a book, newest first. A zero
// kind returns all kinds.
func (db *DB) ListByBook(bookID string, kind models.Kind) ([]models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM content_records WHERE book_id = ?`
	args := []any{bookID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	return db.list(query, args...)
}

// ListSeeded returns the seeded records of the given kind in insertion
// order. A zero kind returns all kinds. Insertion order is the matcher's
// tie-break, so it is part of the contract here.
func (db *DB) ListSeeded(kind models.Kind) ([]models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM content_records WHERE book_id = ?`
	args := []any{models.SeedBucketID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY rowid ASC`
	return db.list(query, args...)
}

// LinkToBook copies a seeded record into a brand-new record owned by
// bookID: same content fields, fresh UUID, current timestamps. The
// seeded original is left untouched; it is a read-only template reused
// across many books. Calling this twice creates two independent copies —
// deduplication is the caller's job.
func (db *DB) LinkToBook(rec *models.Record, bookID string) (string, error) {
	meta := models.DecodeMetadata(rec.Metadata)
	meta.SeededFrom = rec.ID

	linked := models.Record{
		ID:              uuid.NewString(),
		Kind:            rec.Kind,
		BookID:          bookID,
		Title:           rec.Title,
		Slug:            rec.Slug,
		HTML:            rec.HTML,
		Metadata:        meta.Encode(),
		Status:          rec.Status,
		ImagesEmbedded:  rec.ImagesEmbedded,
		VideosRewritten: rec.VideosRewritten,
	}
	if err := db.Insert(&linked); err != nil {
		return "", fmt.Errorf("contentstore: link %s to %s: %w", rec.ID, bookID, err)
	}
	return linked.ID, nil
}

// Delete removes a record by ID.
func (db *DB) Delete(id string) error {
	res, err := db.conn.Exec(`DELETE FROM content_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("contentstore: delete %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (db *DB) list(query string, args ...any) ([]models.Record, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("contentstore: list: %w", err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("contentstore: scan: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var rec models.Record
	var kind string
	err := row.Scan(&rec.ID, &kind, &rec.BookID, &rec.Title, &rec.Slug,
		&rec.HTML, &rec.Metadata, &rec.Status, &rec.ImagesEmbedded,
		&rec.VideosRewritten, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.Kind = models.Kind(kind)
	return &rec, nil
}
