package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/foamlinks/internal/apperr"
	"github.com/starford/foamlinks/internal/models"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path       string
	Title      string
	Slug       string
	Checksum   string
	References int
	UpdatedAt  time.Time
}

// Sort orders accepted by ListNotes.
const (
	SortPath    = "path"
	SortTitle   = "title"
	SortUpdated = "updated"
)

// UpsertNote inserts or replaces a note and its reference definitions within
// a transaction. refs are stored in the given order.
func (db *DB) UpsertNote(n NoteRow, refs []models.Reference) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO notes (path, title, slug, checksum, refs_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			slug       = excluded.slug,
			checksum   = excluded.checksum,
			refs_count = excluded.refs_count,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Slug, n.Checksum, len(refs), n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// Replace refs: delete old then bulk insert.
	if _, err := tx.Exec(`DELETE FROM refs WHERE source = ?`, n.Path); err != nil {
		return fmt.Errorf("index: clear refs: %w", err)
	}
	if len(refs) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO refs (source, position, label, kind, destination, title, document, resolved)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare ref insert: %w", err)
		}
		defer stmt.Close()
		for i, r := range refs {
			if _, err := stmt.Exec(n.Path, i, r.Label, r.Kind, r.Destination, r.Title, r.Document, r.Resolved); err != nil {
				return fmt.Errorf("index: insert ref: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note and its outgoing references.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM refs WHERE source = ?`, path); err != nil {
		return fmt.Errorf("index: delete refs: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrNotFound
	}

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetNote returns the row for path or apperr.ErrNotFound.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	var n NoteRow
	err := db.conn.QueryRow(`
		SELECT path, title, slug, checksum, refs_count, updated_at
		FROM notes WHERE path = ?`, path).
		Scan(&n.Path, &n.Title, &n.Slug, &n.Checksum, &n.References, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	return &n, nil
}

// ListNotes returns a page of notes and the total number of notes.
// A non-positive limit returns every note from offset.
func (db *DB) ListNotes(limit, offset int, sort string) ([]NoteRow, int, error) {
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	order := "path ASC"
	switch sort {
	case SortTitle:
		order = "title COLLATE NOCASE ASC, path ASC"
	case SortUpdated:
		order = "updated_at DESC, path ASC"
	}
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.Query(`
		SELECT path, title, slug, checksum, refs_count, updated_at
		FROM notes ORDER BY `+order+` LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		var n NoteRow
		if err := rows.Scan(&n.Path, &n.Title, &n.Slug, &n.Checksum, &n.References, &n.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// References returns the definitions recorded for source in emission order.
func (db *DB) References(source string) ([]models.Reference, error) {
	return db.queryRefs(`
		SELECT source, label, kind, destination, title, document, resolved
		FROM refs WHERE source = ? ORDER BY position`, source)
}

// Unresolved returns every placeholder definition across all notes.
func (db *DB) Unresolved() ([]models.Reference, error) {
	return db.queryRefs(`
		SELECT source, label, kind, destination, title, document, resolved
		FROM refs WHERE resolved = 0 AND kind IN ('wikilink', 'embed')
		ORDER BY source, position`)
}

// Backlinks returns the paths of notes whose wikilinks or embeds resolved to
// path.
func (db *DB) Backlinks(path string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT source FROM refs WHERE document = ? ORDER BY source`, path)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AllChecksums returns the stored checksum of every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

func (db *DB) queryRefs(query string, args ...any) ([]models.Reference, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query refs: %w", err)
	}
	defer rows.Close()

	var out []models.Reference
	for rows.Next() {
		var r models.Reference
		if err := rows.Scan(&r.Source, &r.Label, &r.Kind, &r.Destination, &r.Title, &r.Document, &r.Resolved); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
