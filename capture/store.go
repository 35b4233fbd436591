package capture

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store persists raw captures as one JSON file per url+hash under a
// directory, with a SQLite index for latest-capture lookups and content-hash
// deduplication.
type Store struct {
	dir string
	db  *sql.DB
}

// NewStore opens (creating if needed) a capture store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, "captures.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open capture index: %w", err)
	}

	store := &Store{dir: dir, db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize capture index: %w", err)
	}

	return store, nil
}

// initSchema creates the index table if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS captures (
		capture_id   TEXT PRIMARY KEY,
		url          TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		fetched_at   TEXT NOT NULL,
		filename     TEXT NOT NULL,
		UNIQUE(url, content_hash)
	);

	CREATE INDEX IF NOT EXISTS idx_captures_url ON captures(url, fetched_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the index database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores content fetched from url. If a capture with the same url and
// content hash already exists, the existing capture is returned unchanged and
// nothing is written.
func (s *Store) Put(url, content string) (*RawCapture, error) {
	hash := Hash(content)

	existing, err := s.lookup(url, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	c := &RawCapture{
		ID:          uuid.New(),
		URL:         url,
		FetchedAt:   time.Now().UTC(),
		ContentHash: hash,
		Content:     content,
	}

	filename := captureFilename(url, hash)
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal capture: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write capture: %w", err)
	}

	query := `
		INSERT INTO captures (capture_id, url, content_hash, fetched_at, filename)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(query,
		c.ID.String(),
		c.URL,
		c.ContentHash,
		c.FetchedAt.Format(time.RFC3339Nano),
		filename,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to index capture: %w", err)
	}

	return c, nil
}

// Get returns the most recent capture for url, or nil if the URL has never
// been captured.
func (s *Store) Get(url string) (*RawCapture, error) {
	// rowid breaks ties between captures sharing a fetched_at timestamp:
	// later insert wins.
	query := `
		SELECT filename FROM captures
		WHERE url = ?
		ORDER BY fetched_at DESC, rowid DESC
		LIMIT 1
	`

	var filename string
	err := s.db.QueryRow(query, url).Scan(&filename)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query capture index: %w", err)
	}

	return s.read(filename)
}

// lookup returns the capture for an exact url+hash pair, or nil.
func (s *Store) lookup(url, hash string) (*RawCapture, error) {
	query := "SELECT filename FROM captures WHERE url = ? AND content_hash = ?"

	var filename string
	err := s.db.QueryRow(query, url, hash).Scan(&filename)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query capture index: %w", err)
	}

	return s.read(filename)
}

// read loads a capture file back into memory.
func (s *Store) read(filename string) (*RawCapture, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read capture %s: %w", filename, err)
	}

	var c RawCapture
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal capture %s: %w", filename, err)
	}

	return &c, nil
}

// Count returns the number of stored captures.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM captures").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count captures: %w", err)
	}
	return n, nil
}
