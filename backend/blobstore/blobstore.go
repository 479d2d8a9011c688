// Package blobstore implements optional content-addressed file-blob
// storage (sha256 → bytes) for deduplicating regular-file writes, used
// by a backend at the interface boundary only.
//
// Grounded on buppyio-bpy's cstore package: Store mirrors bpy.CStore's
// Get/Put-by-hash shape, and Cached mirrors cstore/memcached.go's
// MemCachedCStore — an in-memory LRU (container/list, as buppyio-bpy
// itself uses) in front of a persistent store. BoltStore is the
// persistent layer, grounded on cstore/cache/cache.go's use of
// github.com/boltdb/bolt, using that library's actively maintained
// successor go.etcd.io/bbolt.
package blobstore

import (
	"container/list"
	"context"
	"crypto/sha256"
	"sync"

	"github.com/pkg/errors"
)

// Hash is a sha256 content digest, the key space for Store.
type Hash [sha256.Size]byte

// String renders the hash as hex, for logging.
func (h Hash) String() string {
	const hex = "0123456789abcdef"
	buf := make([]byte, 2*len(h))
	for i, b := range h {
		buf[2*i] = hex[b>>4]
		buf[2*i+1] = hex[b&0xf]
	}
	return string(buf)
}

// SumHash computes the content hash of data.
func SumHash(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// ErrNotFound is returned by Store.Get for an unknown hash.
var ErrNotFound = errors.New("blobstore: blob not found")

// Store is a content-addressed blob store: Put is idempotent by content,
// Get retrieves by the hash Put returned.
type Store interface {
	Get(ctx context.Context, h Hash) ([]byte, error)
	Put(ctx context.Context, data []byte) (Hash, error)
}

// memEnt is one in-memory LRU entry, mirroring buppyio-bpy's
// cstore/memcached.go memCacheEnt.
type memEnt struct {
	hash    Hash
	val     []byte
	listEnt *list.Element
}

// Cached wraps a backing Store with an in-memory LRU, grounded on
// buppyio-bpy's MemCachedCStore.
type Cached struct {
	mu      sync.Mutex
	size    uint64
	maxSize uint64
	lru     *list.List
	cache   map[Hash]*memEnt
	backing Store
}

// NewCached wraps backing with an LRU cache capped at maxSize bytes.
func NewCached(backing Store, maxSize uint64) *Cached {
	return &Cached{
		maxSize: maxSize,
		lru:     list.New(),
		cache:   make(map[Hash]*memEnt),
		backing: backing,
	}
}

func (c *Cached) Get(ctx context.Context, h Hash) ([]byte, error) {
	c.mu.Lock()
	if ent, ok := c.cache[h]; ok {
		c.lru.MoveToFront(ent.listEnt)
		val := ent.val
		c.mu.Unlock()
		return val, nil
	}
	c.mu.Unlock()

	val, err := c.backing.Get(ctx, h)
	if err != nil {
		return nil, err
	}
	c.insert(h, val)
	return val, nil
}

func (c *Cached) Put(ctx context.Context, data []byte) (Hash, error) {
	h := SumHash(data)
	if _, err := c.backing.Put(ctx, data); err != nil {
		return Hash{}, err
	}
	c.insert(h, data)
	return h, nil
}

func (c *Cached) insert(h Hash, val []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ent, ok := c.cache[h]; ok {
		c.lru.MoveToFront(ent.listEnt)
		return
	}
	ent := &memEnt{hash: h, val: val}
	ent.listEnt = c.lru.PushFront(ent)
	c.cache[h] = ent
	c.size += uint64(len(val))

	for c.size > c.maxSize && c.lru.Len() > 0 {
		back := c.lru.Back()
		evict := back.Value.(*memEnt)
		c.lru.Remove(back)
		delete(c.cache, evict.hash)
		c.size -= uint64(len(evict.val))
	}
}
