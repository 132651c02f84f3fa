package cachestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore keeps every cache version in its own bbolt bucket.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the bbolt file at path.
func OpenBolt(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache dir: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Open implements Store.
func (s *BoltStore) Open(version string) (Cache, error) {
	if version == "" {
		return nil, errors.New("cache version must not be empty")
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(version))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", version, err)
	}
	return &boltCache{db: s.db, name: version}, nil
}

// Versions implements Store.
func (s *BoltStore) Versions() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cache versions: %w", err)
	}
	return names, nil
}

// Delete implements Store.
func (s *BoltStore) Delete(version string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(version)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(version))
	})
	if err != nil {
		return fmt.Errorf("failed to delete cache %s: %w", version, err)
	}
	return nil
}

// Close implements Store.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

type boltCache struct {
	db   *bolt.DB
	name string
}

func (c *boltCache) Name() string { return c.name }

func (c *boltCache) Match(key string) (*Entry, error) {
	var entry *Entry
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(c.name))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		entry = &Entry{}
		return json.Unmarshal(v, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to match %s in %s: %w", key, c.name, err)
	}
	return entry, nil
}

func (c *boltCache) Put(key string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(c.name))
		if b == nil {
			return ErrVersionDeleted
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to put %s in %s: %w", key, c.name, err)
	}
	return nil
}

func (c *boltCache) Keys() ([]string, error) {
	var keys []string
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(c.name))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}
