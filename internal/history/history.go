// Package history stores visited URLs in a local sqlite database.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/graphitebrowser/graphite/schema"
	"pkt.systems/pslog"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS visits (
	url        TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	visits     INTEGER NOT NULL DEFAULT 0,
	last_visit INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS visits_last_visit ON visits (last_visit DESC);
`

// Store is a sqlite-backed visit log implementing core.History.
type Store struct {
	db  *sql.DB
	log pslog.Logger
	now func() time.Time
}

// Open creates or opens the history database under dir.
func Open(dir string, logger pslog.Logger) (*Store, error) {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "history.db"))
	if err != nil {
		return nil, err
	}
	// The modernc driver serializes writes; one connection avoids busy errors.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, log: logger, now: time.Now}, nil
}

// Append records a visit, creating the entry or bumping its count. An empty
// title never overwrites a stored one.
func (s *Store) Append(ctx context.Context, url, title string) error {
	if url == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO visits (url, title, visits, last_visit) VALUES (?, ?, 1, ?)
ON CONFLICT(url) DO UPDATE SET
	visits = visits + 1,
	last_visit = excluded.last_visit,
	title = CASE WHEN excluded.title != '' THEN excluded.title ELSE visits.title END
`, url, title, s.now().Unix())
	return err
}

// SetTitle updates the stored title for url, if the entry exists.
func (s *Store) SetTitle(ctx context.Context, url, title string) error {
	if url == "" || title == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `UPDATE visits SET title = ? WHERE url = ?`, title, url)
	return err
}

// Search returns entries whose URL or title contains query, most recently
// visited first. An empty query returns the most recent entries.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]schema.HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
SELECT url, title, visits, last_visit FROM visits
WHERE ? = '' OR url LIKE ? OR title LIKE ?
ORDER BY last_visit DESC
LIMIT ?
`, query, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []schema.HistoryEntry
	for rows.Next() {
		var entry schema.HistoryEntry
		if err := rows.Scan(&entry.URL, &entry.Title, &entry.Visits, &entry.LastVisit); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
