package geodoc

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/andreyvit/geodoc/kvo"
	"go.etcd.io/bbolt"
)

const (
	storeValueEncoding = MsgPack
	valueHeaderSize    = 8
)

// Store keeps adapted values under string keys. Values of each adapter live
// in a bucket named after the adapter.
//
// A stored value is the xxhash fingerprint of the document (8 bytes, big
// endian) followed by the MessagePack encoding of the document. The
// fingerprint lets Put skip rewriting unchanged values, and lets Get detect
// corrupted data.
type Store struct {
	st      storage
	reg     *Registry
	logger  *slog.Logger
	verbose bool

	ReadCount  atomic.Uint64
	WriteCount atomic.Uint64
	SkipCount  atomic.Uint64
}

type StoreOptions struct {
	Logger    *slog.Logger
	Verbose   bool
	IsTesting bool
	MmapSize  int
	Timeout   time.Duration
}

// OpenStore opens or creates a Bolt database file at path.
func OpenStore(path string, reg *Registry, opt StoreOptions) (*Store, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.Timeout != 0 {
		bopt.Timeout = opt.Timeout
	}
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("geodoc: %w", err)
	}
	return newStore(newBoltStorage(bdb), reg, opt), nil
}

// OpenMemStore returns a store that keeps everything in memory.
func OpenMemStore(reg *Registry, opt StoreOptions) *Store {
	return newStore(newMemStorage(), reg, opt)
}

func newStore(st storage, reg *Registry, opt StoreOptions) *Store {
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		st:      st,
		reg:     reg,
		logger:  logger,
		verbose: opt.Verbose,
	}
}

func (s *Store) Close() error {
	return s.st.Close()
}

func (s *Store) update(f func(tx storageTx) error) error {
	tx, err := s.st.BeginTx(true)
	if err != nil {
		return fmt.Errorf("geodoc: %w", err)
	}
	defer tx.Rollback()
	if err := f(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) view(f func(tx storageTx) error) error {
	tx, err := s.st.BeginTx(false)
	if err != nil {
		return fmt.Errorf("geodoc: %w", err)
	}
	defer tx.Rollback()
	return f(tx)
}

// Put stores v under key, using the adapter registered for v's type. It
// reports whether anything was written; storing a value equal to the current
// one is a no-op.
func (s *Store) Put(key string, v any) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("geodoc: empty key")
	}
	a, err := s.reg.adapterForValue(v)
	if err != nil {
		return false, err
	}
	n, err := a.EncodeAny(v)
	if err != nil {
		return false, err
	}
	fp := kvo.Fingerprint(n)
	var bb bytesBuilder
	bb.AppendFixedUint64(fp)
	value, err := storeValueEncoding.AppendMarshal(bb.Buf, n)
	if err != nil {
		return false, err
	}

	var changed bool
	err = s.update(func(tx storageTx) error {
		b, err := tx.CreateBucket(a.Name())
		if err != nil {
			return err
		}
		k := []byte(key)
		if old := b.Get(k); old != nil && bytes.Equal(old, value) {
			return nil
		}
		changed = true
		return b.Put(k, value)
	})
	if err != nil {
		return false, fmt.Errorf("geodoc: put %s %q: %w", a.Name(), key, err)
	}

	if changed {
		s.WriteCount.Add(1)
	} else {
		s.SkipCount.Add(1)
	}
	if s.verbose {
		s.logger.Debug("geodoc: put", "adapter", a.Name(), "key", key, "changed", changed, "fingerprint", fp)
	}
	return changed, nil
}

// Get loads the value stored under key into *ptr, using the adapter
// registered for ptr's element type. It returns false if there is no such
// value.
func (s *Store) Get(key string, ptr any) (bool, error) {
	a, ptrVal, err := s.reg.adapterForPtr(ptr)
	if err != nil {
		return false, err
	}
	n, err := s.loadDocument(a.Name(), key)
	if err != nil || n == nil {
		return false, err
	}
	v, err := a.DecodeAny(n)
	if err != nil {
		return true, fmt.Errorf("geodoc: stored %s %q: %w", a.Name(), key, err)
	}
	ptrVal.Elem().Set(reflect.ValueOf(v))
	return true, nil
}

// Document returns the raw document stored under key in the bucket of the
// named adapter, or nil.
func (s *Store) Document(adapterName, key string) (*kvo.Node, error) {
	return s.loadDocument(adapterName, key)
}

func (s *Store) loadDocument(bucket, key string) (*kvo.Node, error) {
	var n *kvo.Node
	err := s.view(func(tx storageTx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		raw := b.Get(unsafeBytesFromString(key))
		if raw == nil {
			return nil
		}
		var err error
		n, err = decodeStoredValue(raw)
		if err != nil {
			s.logger.LogAttrs(context.Background(), slog.LevelWarn, "geodoc: corrupted value", slog.String("bucket", bucket), slog.String("key", key), hexAttr("value", raw[:min(len(raw), 32)]))
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("geodoc: get %s %q: %w", bucket, key, err)
	}
	s.ReadCount.Add(1)
	return n, nil
}

// decodeStoredValue never retains raw, which may point into the database
// mmap and is only valid inside its transaction.
func decodeStoredValue(raw []byte) (*kvo.Node, error) {
	if len(raw) < valueHeaderSize+1 {
		return nil, dataErrf(bytes.Clone(raw), 0, nil, "invalid stored value: at least %d bytes required", valueHeaderSize+1)
	}
	fp := binary.BigEndian.Uint64(raw)
	n, err := storeValueEncoding.Unmarshal(raw[valueHeaderSize:])
	if err != nil {
		var de *DataError
		if errors.As(err, &de) {
			de.Data = bytes.Clone(de.Data)
		}
		return nil, err
	}
	if actual := kvo.Fingerprint(n); actual != fp {
		return nil, dataErrf(bytes.Clone(raw), 0, nil, "invalid stored value: fingerprint %016x, expected %016x", actual, fp)
	}
	return n, nil
}

// Delete removes the value stored under key in the bucket of the named
// adapter, and reports whether it existed.
func (s *Store) Delete(adapterName, key string) (bool, error) {
	var found bool
	err := s.update(func(tx storageTx) error {
		b := tx.Bucket(adapterName)
		if b == nil {
			return nil
		}
		k := []byte(key)
		if b.Get(k) == nil {
			return nil
		}
		found = true
		return b.Delete(k)
	})
	if err != nil {
		return false, fmt.Errorf("geodoc: delete %s %q: %w", adapterName, key, err)
	}
	if found {
		s.WriteCount.Add(1)
	}
	return found, nil
}

// Keys lists, in sorted order, the keys stored for the named adapter.
func (s *Store) Keys(adapterName string) ([]string, error) {
	var keys []string
	err := s.view(func(tx storageTx) error {
		b := tx.Bucket(adapterName)
		if b == nil {
			return nil
		}
		keys = make([]string, 0, b.Stats().Values)
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("geodoc: keys %s: %w", adapterName, err)
	}
	return keys, nil
}

// Drop deletes every value stored for the named adapter.
func (s *Store) Drop(adapterName string) error {
	err := s.update(func(tx storageTx) error {
		return tx.DeleteBucket(adapterName)
	})
	if err != nil && !errors.Is(err, ErrBucketNotFound) {
		return fmt.Errorf("geodoc: drop %s: %w", adapterName, err)
	}
	return nil
}
