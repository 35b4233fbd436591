package record

import (
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store persists structured records as one JSON file per id under a
// directory. Records are a derived cache, so Put always overwrites.
type Store struct {
	dir string
}

// NewStore opens (creating if needed) a processed-record store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create record directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Put writes a record, replacing any existing record with the same id.
func (s *Store) Put(rec StructuredRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record has empty id")
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	filename := filepath.Join(s.dir, rec.ID+".json")
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	return nil
}

// Get returns the record with the given id, or nil if it doesn't exist.
func (s *Store) Get(id string) (*StructuredRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", id, err)
	}

	var rec StructuredRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", id, err)
	}

	return &rec, nil
}

// List yields all records ordered by id. The sequence is lazy -- each record
// is read from disk as the consumer reaches it -- and can be ranged over more
// than once.
func (s *Store) List() iter.Seq2[StructuredRecord, error] {
	return func(yield func(StructuredRecord, error) bool) {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			yield(StructuredRecord{}, fmt.Errorf("failed to read record directory: %w", err))
			return
		}

		// Sort ids, not filenames: the ".json" suffix would make "post-1"
		// sort before "post".
		ids := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
				continue
			}
			ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
		}
		sort.Strings(ids)

		for _, id := range ids {
			rec, err := s.Get(id)
			if err != nil {
				if !yield(StructuredRecord{}, err) {
					return
				}
				continue
			}
			if rec == nil {
				continue
			}
			if !yield(*rec, nil) {
				return
			}
		}
	}
}
