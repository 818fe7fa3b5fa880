// Package store is the local session snapshot cache. Snapshots are a
// best-effort convenience for fast resume rendering; the server stream stays
// the source of truth.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"loom/internal/types"
)

const maxCachedSessions = 20

var (
	bucketSnapshots = []byte("session_snapshots")

	ErrSnapshotNotFound = errors.New("snapshot not found")
)

type SnapshotStore struct {
	db  *bolt.DB
	now func() time.Time
}

func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("snapshot db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SnapshotStore{db: db, now: time.Now}, nil
}

func (s *SnapshotStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores the snapshot and prunes the cache to the most recently touched
// sessions. The write stamps UpdatedAt; callers do not manage it.
func (s *SnapshotStore) Put(snapshot *types.SessionSnapshot) error {
	if s == nil || s.db == nil {
		return errors.New("snapshot store is closed")
	}
	if snapshot == nil || strings.TrimSpace(snapshot.SessionID) == "" {
		return errors.New("snapshot session id is required")
	}
	record := types.CloneSessionSnapshot(snapshot)
	record.SessionID = strings.TrimSpace(record.SessionID)
	record.UpdatedAt = s.now().UTC()

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSnapshots)
		if bucket == nil {
			return errors.New("snapshot bucket missing")
		}
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if err := bucket.Put([]byte(record.SessionID), data); err != nil {
			return err
		}
		return pruneLocked(bucket, maxCachedSessions)
	})
}

func (s *SnapshotStore) Get(sessionID string) (*types.SessionSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("snapshot store is closed")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	var snapshot *types.SessionSnapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSnapshots)
		if bucket == nil {
			return ErrSnapshotNotFound
		}
		data := bucket.Get([]byte(sessionID))
		if data == nil {
			return ErrSnapshotNotFound
		}
		var record types.SessionSnapshot
		if err := json.Unmarshal(data, &record); err != nil {
			return err
		}
		snapshot = &record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *SnapshotStore) Delete(sessionID string) error {
	if s == nil || s.db == nil {
		return errors.New("snapshot store is closed")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return errors.New("session id is required")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSnapshots)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(sessionID))
	})
}

// List returns cached snapshots ordered most recently updated first.
func (s *SnapshotStore) List() ([]*types.SessionSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("snapshot store is closed")
	}
	var snapshots []*types.SessionSnapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSnapshots)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, value []byte) error {
			var record types.SessionSnapshot
			if err := json.Unmarshal(value, &record); err != nil {
				return nil
			}
			snapshots = append(snapshots, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].UpdatedAt.After(snapshots[j].UpdatedAt)
	})
	return snapshots, nil
}

func pruneLocked(bucket *bolt.Bucket, limit int) error {
	type entry struct {
		key       string
		updatedAt time.Time
	}
	var entries []entry
	err := bucket.ForEach(func(key, value []byte) error {
		var record types.SessionSnapshot
		if err := json.Unmarshal(value, &record); err != nil {
			// Unreadable records are first in line for pruning.
			entries = append(entries, entry{key: string(key)})
			return nil
		}
		entries = append(entries, entry{key: string(key), updatedAt: record.UpdatedAt})
		return nil
	})
	if err != nil {
		return err
	}
	if len(entries) <= limit {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].updatedAt.Before(entries[j].updatedAt)
	})
	for _, stale := range entries[:len(entries)-limit] {
		if err := bucket.Delete([]byte(stale.key)); err != nil {
			return err
		}
	}
	return nil
}
