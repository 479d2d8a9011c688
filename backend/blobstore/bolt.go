package blobstore

import (
	"context"
	"time"

	bolt "go.etcd.io/bbolt"
)

// blobsBucket is the single bbolt bucket blobs are stored under, keyed
// by raw sha256 digest.
var blobsBucket = []byte("blobs")

// BoltStore persists blobs in a bbolt database file, grounded on
// buppyio-bpy's cstore/cache/cache.go use of github.com/boltdb/bolt for
// its on-disk blob cache.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if necessary) a bbolt-backed blob store
// at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blobsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) Get(ctx context.Context, h Hash) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(blobsBucket).Get(h[:])
		if v == nil {
			return ErrNotFound
		}
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BoltStore) Put(ctx context.Context, data []byte) (Hash, error) {
	h := SumHash(data)
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(blobsBucket)
		if existing := b.Get(h[:]); existing != nil {
			return nil
		}
		return b.Put(h[:], data)
	})
	if err != nil {
		return Hash{}, err
	}
	return h, nil
}
