package buffer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const defaultBucket = "outbox"

// Store persists unpublished events in a BoltDB file. Keys sort by priority and
// enqueue time, so a cursor walk yields the drain order directly. A second
// bucket maps item IDs to their current key.
type Store struct {
	db      *bolt.DB
	items   []byte
	indexes []byte
}

// Open initializes the BoltDB file and ensures both buckets exist.
func Open(path string, bucket string) (*Store, error) {
	if path == "" {
		return nil, errors.New("buffer: path is required")
	}
	if bucket == "" {
		bucket = defaultBucket
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("buffer: create directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("buffer: open %s: %w", path, err)
	}

	s := &Store{
		db:      db,
		items:   []byte(bucket),
		indexes: []byte(bucket + "_ids"),
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(s.items); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(s.indexes)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("buffer: create buckets: %w", err)
	}
	return s, nil
}

// Enqueue stores item. Enqueueing an ID that is already buffered replaces it.
func (s *Store) Enqueue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	item.normalize()
	return s.db.Update(func(tx *bolt.Tx) error {
		return s.put(tx, item)
	})
}

// GetBatch returns up to limit items in drain order without removing them.
func (s *Store) GetBatch(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.items).Cursor()
		for k, v := c.First(); k != nil && len(items) < limit; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// Remove deletes item, typically after it was published.
func (s *Store) Remove(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return s.delete(tx, item.ID)
	})
}

// Requeue records a failed publish attempt and moves the item behind its peers
// of equal priority.
func (s *Store) Requeue(item Item, cause error) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	item.Retries++
	if cause != nil {
		item.LastError = cause.Error()
	}
	item.Timestamp = time.Now().UTC()
	return s.db.Update(func(tx *bolt.Tx) error {
		return s.put(tx, item)
	})
}

// Size returns the number of buffered items.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.items).Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup removes items first buffered before olderThan and reports how many
// were removed.
func (s *Store) Cleanup(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var removed int
	err := s.db.Update(func(tx *bolt.Tx) error {
		var expired []string
		err := tx.Bucket(s.items).ForEach(func(_, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return nil
			}
			if item.OccurredAt.Before(olderThan) {
				expired = append(expired, item.ID)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range expired {
			if err := s.delete(tx, id); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	return removed, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats exposes Bolt statistics for the health endpoint.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}

func (s *Store) put(tx *bolt.Tx, item Item) error {
	if err := s.delete(tx, item.ID); err != nil {
		return err
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	key := buildKey(item)
	if err := tx.Bucket(s.items).Put(key, payload); err != nil {
		return err
	}
	return tx.Bucket(s.indexes).Put([]byte(item.ID), key)
}

func (s *Store) delete(tx *bolt.Tx, id string) error {
	if id == "" {
		return nil
	}
	index := tx.Bucket(s.indexes)
	stored := index.Get([]byte(id))
	if stored == nil {
		return nil
	}
	key := append([]byte(nil), stored...)
	if err := tx.Bucket(s.items).Delete(key); err != nil {
		return err
	}
	return index.Delete([]byte(id))
}

func buildKey(item Item) []byte {
	return []byte(fmt.Sprintf("%d_%020d_%s", item.Priority, item.Timestamp.UnixNano(), item.ID))
}
