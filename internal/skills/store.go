package skills

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"
)

var skillsBucket = []byte("skills")

// ErrNotFound is returned when no record exists for a skill name.
var ErrNotFound = errors.New("skill not found")

// Store persists skill records to a BoltDB file so installed skills survive
// restarts.
type Store struct {
	db *bolt.DB
}

// OpenStore opens (or creates) the skill database at path.
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open skill store: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(skillsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init skill store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error { return s.db.Close() }

// Get loads one record by skill name.
func (s *Store) Get(name string) (*Record, error) {
	var rec Record
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(skillsBucket).Get([]byte(name))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Put writes a record, keyed by its manifest name.
func (s *Store) Put(rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(skillsBucket).Put([]byte(rec.Manifest.Name), raw)
	})
}

// Delete removes a record. Deleting a missing name is not an error.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(skillsBucket).Delete([]byte(name))
	})
}

// List returns all records sorted by name.
func (s *Store) List() ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(skillsBucket).ForEach(func(_, raw []byte) error {
			var rec Record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Manifest.Name < records[j].Manifest.Name
	})
	return records, nil
}
