// Package snapshot persists the cache mapping across process restarts.
//
// The snapshot lives in a single bbolt file at a well-known path. A
// dump replaces the stored mapping wholesale inside one write
// transaction, so readers never observe a partial snapshot. The
// mapping is gob-encoded as one envelope blob, so values come back
// with the concrete Go types they were dumped with. A missing
// snapshot is a normal outcome, not an error: restore reports it and
// returns an empty mapping.
package snapshot

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mindloop/cortex/logger"
)

// SchemaVersion tags the snapshot envelope so the format can evolve.
const SchemaVersion = 1

var (
	bucketCache = []byte("cache")
	bucketMeta  = []byte("meta")
	keyState    = []byte("state")
	keyVersion  = []byte("schema_version")
)

// ErrVersion is returned when a snapshot was written by a newer
// schema than this reader understands.
var ErrVersion = errors.New("snapshot: unsupported schema version")

// Store dumps and restores the cache mapping. The underlying file is
// opened per operation; snapshots are infrequent and holding the file
// open would lock out external inspection tools.
type Store struct {
	path string
	log  *logger.Logger
}

// New creates a store for the snapshot at path. The file is not
// created until the first Dump.
func New(path string, log *logger.Logger) *Store {
	return &Store{path: path, log: log}
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.path
}

// Dump serializes the entire cache mapping to the snapshot file,
// replacing any prior contents. Values must be gob-encodable; the
// basic scalar and slice types are, without registration. Failures
// are logged and returned; callers are expected to continue running.
func (s *Store) Dump(cache map[string]any) error {
	s.log.Infof("[SNAPSHOT] dumping cache (%d entries) to %s", len(cache), s.path)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cache); err != nil {
		s.log.Errorf("[SNAPSHOT] dump failed: %v", err)
		return fmt.Errorf("encode cache: %w", err)
	}

	db, err := s.open()
	if err != nil {
		s.log.Errorf("[SNAPSHOT] dump failed: %v", err)
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		// Replace, never merge: delete the old bucket inside the same
		// transaction that writes the new one.
		if tx.Bucket(bucketCache) != nil {
			if err := tx.DeleteBucket(bucketCache); err != nil {
				return fmt.Errorf("clear cache bucket: %w", err)
			}
		}
		b, err := tx.CreateBucket(bucketCache)
		if err != nil {
			return fmt.Errorf("create cache bucket: %w", err)
		}
		if err := b.Put(keyState, buf.Bytes()); err != nil {
			return fmt.Errorf("put state: %w", err)
		}

		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		return meta.Put(keyVersion, []byte(strconv.Itoa(SchemaVersion)))
	})
	if err != nil {
		s.log.Errorf("[SNAPSHOT] dump failed: %v", err)
		return err
	}
	return nil
}

// Restore returns the stored cache mapping. When no snapshot exists it
// logs a warning and returns an empty mapping with a nil error.
func (s *Store) Restore() (map[string]any, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		s.log.Warnf("[SNAPSHOT] no snapshot found at %s, starting fresh", s.path)
		return map[string]any{}, nil
	}

	db, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()

	cache := map[string]any{}
	err = db.View(func(tx *bolt.Tx) error {
		if meta := tx.Bucket(bucketMeta); meta != nil {
			if raw := meta.Get(keyVersion); raw != nil {
				version, err := strconv.Atoi(string(raw))
				if err != nil {
					return fmt.Errorf("parse schema version %q: %w", raw, err)
				}
				if version > SchemaVersion {
					return fmt.Errorf("%w: snapshot is v%d, reader understands v%d",
						ErrVersion, version, SchemaVersion)
				}
			}
		}

		b := tx.Bucket(bucketCache)
		if b == nil {
			// File exists but nothing was ever dumped.
			return nil
		}
		raw := b.Get(keyState)
		if raw == nil {
			return nil
		}
		if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&cache); err != nil {
			return fmt.Errorf("decode cache: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("[SNAPSHOT] restored %d entries from %s", len(cache), s.path)
	return cache, nil
}

func (s *Store) open() (*bolt.DB, error) {
	return bolt.Open(s.path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
}
