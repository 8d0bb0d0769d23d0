package geodoc

import (
	"bytes"
	"errors"
	"maps"
	"slices"
	"sync"
)

var (
	errStorageClosed = errors.New("storage closed")
	errTxReadOnly    = errors.New("tx not writable")
)

// memStorage keeps buckets in memory. Committed buckets are immutable: a
// write tx copies a bucket the first time it changes it, and Commit swaps in
// the new bucket map. Read txs just hold on to the map current at BeginTx.
type memStorage struct {
	writer sync.Mutex // held for the lifetime of the write tx

	mu      sync.Mutex
	buckets map[string]*memBucket
	closed  bool
}

// newMemStorage returns a transient in-memory storage intended for tests.
func newMemStorage() storage {
	return &memStorage{buckets: make(map[string]*memBucket)}
}

func (s *memStorage) BeginTx(writable bool) (storageTx, error) {
	if writable {
		s.writer.Lock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		if writable {
			s.writer.Unlock()
		}
		return nil, errStorageClosed
	}
	tx := &memTx{base: s, buckets: s.buckets}
	if writable {
		tx.writable = true
		tx.buckets = maps.Clone(s.buckets)
		tx.copied = make(map[string]bool)
	}
	return tx, nil
}

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buckets = nil
	return nil
}

type memTx struct {
	base     *memStorage
	writable bool
	buckets  map[string]*memBucket
	copied   map[string]bool // buckets this tx owns and may modify
	closed   bool
}

func (tx *memTx) ensureOpen() {
	if tx.closed {
		panic("tx is closed")
	}
}

func (tx *memTx) Bucket(name string) storageBucket {
	tx.ensureOpen()
	if tx.buckets[name] == nil {
		return nil
	}
	return memBucketHandle{tx: tx, name: name}
}

func (tx *memTx) CreateBucket(name string) (storageBucket, error) {
	tx.ensureOpen()
	if !tx.writable {
		return nil, errTxReadOnly
	}
	if tx.buckets[name] == nil {
		tx.buckets[name] = &memBucket{values: make(map[string][]byte)}
		tx.copied[name] = true
	}
	return memBucketHandle{tx: tx, name: name}, nil
}

func (tx *memTx) DeleteBucket(name string) error {
	tx.ensureOpen()
	if !tx.writable {
		return errTxReadOnly
	}
	if tx.buckets[name] == nil {
		return ErrBucketNotFound
	}
	delete(tx.buckets, name)
	delete(tx.copied, name)
	return nil
}

func (tx *memTx) BucketNames() []string {
	tx.ensureOpen()
	return slices.Sorted(maps.Keys(tx.buckets))
}

// modifiable returns the tx's own copy of the named bucket.
func (tx *memTx) modifiable(name string) (*memBucket, error) {
	tx.ensureOpen()
	if !tx.writable {
		return nil, errTxReadOnly
	}
	b := tx.buckets[name]
	if b == nil {
		return nil, ErrBucketNotFound
	}
	if !tx.copied[name] {
		b = &memBucket{values: maps.Clone(b.values)}
		tx.buckets[name] = b
		tx.copied[name] = true
	}
	return b, nil
}

func (tx *memTx) Commit() error {
	if tx.closed {
		return nil
	}
	if !tx.writable {
		return errTxReadOnly
	}
	defer tx.end()

	s := tx.base
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStorageClosed
	}
	s.buckets = tx.buckets
	return nil
}

func (tx *memTx) Rollback() error {
	tx.end()
	return nil
}

func (tx *memTx) end() {
	if tx.closed {
		return
	}
	tx.closed = true
	tx.buckets, tx.copied = nil, nil
	if tx.writable {
		tx.base.writer.Unlock()
	}
}

type memBucket struct {
	values map[string][]byte
}

// memBucketHandle looks the bucket up on every call, because a write tx
// replaces a committed bucket with its copy on the first change.
type memBucketHandle struct {
	tx   *memTx
	name string
}

func (h memBucketHandle) bucket() *memBucket {
	h.tx.ensureOpen()
	return h.tx.buckets[h.name]
}

func (h memBucketHandle) Get(key []byte) []byte {
	b := h.bucket()
	if b == nil {
		return nil
	}
	return b.values[string(key)]
}

func (h memBucketHandle) Put(key, value []byte) error {
	b, err := h.tx.modifiable(h.name)
	if err != nil {
		return err
	}
	b.values[string(key)] = bytes.Clone(value)
	return nil
}

func (h memBucketHandle) Delete(key []byte) error {
	b, err := h.tx.modifiable(h.name)
	if err != nil {
		return err
	}
	delete(b.values, string(key))
	return nil
}

func (h memBucketHandle) Cursor() storageCursor {
	b := h.bucket()
	if b == nil {
		return &memCursor{pos: -1}
	}
	return &memCursor{b: b, keys: slices.Sorted(maps.Keys(b.values)), pos: -1}
}

func (h memBucketHandle) Stats() BucketStats {
	var st BucketStats
	b := h.bucket()
	if b == nil {
		return st
	}
	for k, v := range b.values {
		st.Values++
		st.DataSize += len(k) + len(v)
		st.DataAlloc += len(k) + cap(v)
	}
	return st
}

// memCursor walks the keys sorted when it was created.
type memCursor struct {
	b    *memBucket
	keys []string
	pos  int
}

func (c *memCursor) First() ([]byte, []byte) {
	c.pos = 0
	return c.current()
}

func (c *memCursor) Next() ([]byte, []byte) {
	c.pos++
	return c.current()
}

func (c *memCursor) current() ([]byte, []byte) {
	if c.pos >= len(c.keys) {
		return nil, nil
	}
	k := c.keys[c.pos]
	return []byte(k), c.b.values[k]
}
