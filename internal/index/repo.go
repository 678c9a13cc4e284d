package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// ClipRow represents a row in the clips table.
type ClipRow struct {
	Path      string
	Title     string
	URL       string
	Category  models.Category
	Captured  time.Time
	Checksum  string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Title   string
	Snippet string
}

// UpsertClip inserts or replaces a clip row and its FTS entry within a transaction.
func (db *DB) UpsertClip(row ClipRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO clips (path, title, url, category, captured, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			url        = excluded.url,
			category   = excluded.category,
			captured   = excluded.captured,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, row.Path, row.Title, row.URL, string(row.Category), row.Captured, row.Checksum, body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert clip: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, row.Path, row.Title, body, row.URL); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteClip removes a clip row and its FTS entry.
func (db *DB) DeleteClip(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM clips WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a clip, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM clips WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// GetClip returns the indexed row for one clip.
func (db *DB) GetClip(path string) (*ClipRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, title, url, category, captured, checksum, updated_at
		FROM clips WHERE path = ?`, path)
	c, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: clip %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get clip: %w", err)
	}
	return c, nil
}

// ListClips returns one page of clips, newest capture first, plus the total
// count for the same filter. An empty category lists every clip.
func (db *DB) ListClips(category string, limit, offset int) ([]ClipRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	args := []interface{}{}
	if category != "" {
		where = "WHERE category = ?"
		args = append(args, category)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM clips `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count clips: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, title, url, category, captured, checksum, updated_at
		FROM clips `+where+`
		ORDER BY captured DESC, path
		LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list clips: %w", err)
	}
	defer rows.Close()

	var out []ClipRow
	for rows.Next() {
		c, err := scanClip(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

// AllChecksums returns path → checksum for every indexed clip.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM clips`)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClip(r rowScanner) (*ClipRow, error) {
	var c ClipRow
	var category string
	var captured sql.NullTime
	if err := r.Scan(&c.Path, &c.Title, &c.URL, &category, &captured, &c.Checksum, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Category = models.Category(category)
	if captured.Valid {
		c.Captured = captured.Time
	}
	return &c, nil
}
