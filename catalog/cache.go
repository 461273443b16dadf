package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// SnapshotCache persists the last fetched Schema snapshot in an embedded
// Badger KV so a planner process (or the CLI) can start from a warm catalog
// without re-fetching from the (out-of-scope) catalog service on every run.
// The planner itself never touches this cache directly — it only ever reads
// a *Schema passed in by the caller (spec.md §3.5, §5) — this is purely a
// caller-side convenience, grounded on the teacher's BadgerStore.
type SnapshotCache struct {
	db *badger.DB
}

// OpenSnapshotCache opens (creating if necessary) a Badger database at path.
func OpenSnapshotCache(path string) (*SnapshotCache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to open snapshot cache: %w", err)
	}
	return &SnapshotCache{db: db}, nil
}

// Close releases the underlying Badger handles.
func (c *SnapshotCache) Close() error {
	return c.db.Close()
}

func snapshotKey(version uint64) []byte {
	return []byte(fmt.Sprintf("schema:%020d", version))
}

// Put stores a snapshot keyed by its version.
func (c *SnapshotCache) Put(s *Schema) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("catalog: failed to encode snapshot: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(s.Version), payload)
	})
}

// Get retrieves the snapshot stored for the given version, if present.
func (c *SnapshotCache) Get(version uint64) (*Schema, bool, error) {
	var s Schema
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(version))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &s)
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("catalog: failed to read snapshot: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return &s, true, nil
}

// Latest scans stored versions and returns the highest one found, the way a
// planner warming up from a cold start wants "whatever we last saw" rather
// than a specific pinned version.
func (c *SnapshotCache) Latest() (*Schema, bool, error) {
	var best *Schema
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("schema:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var s Schema
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &s)
			}); err != nil {
				return err
			}
			if best == nil || s.Version > best.Version {
				copied := s
				best = &copied
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("catalog: failed to scan snapshots: %w", err)
	}
	return best, best != nil, nil
}
