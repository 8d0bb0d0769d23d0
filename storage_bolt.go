package geodoc

import (
	"go.etcd.io/bbolt"
)

// boltStorage keeps each bucket as a root Bolt bucket.
type boltStorage struct {
	bdb *bbolt.DB
}

func newBoltStorage(bdb *bbolt.DB) storage {
	return &boltStorage{bdb: bdb}
}

func (s *boltStorage) BeginTx(writable bool) (storageTx, error) {
	btx, err := s.bdb.Begin(writable)
	if err != nil {
		return nil, err
	}
	return &boltStorageTx{btx: btx}, nil
}

func (s *boltStorage) Close() error {
	return s.bdb.Close()
}

type boltStorageTx struct {
	btx *bbolt.Tx
}

func (tx *boltStorageTx) Bucket(name string) storageBucket {
	b := tx.btx.Bucket(unsafeBytesFromString(name))
	if b == nil {
		return nil
	}
	return boltBucket{b: b}
}

func (tx *boltStorageTx) CreateBucket(name string) (storageBucket, error) {
	b, err := tx.btx.CreateBucketIfNotExists([]byte(name))
	if err != nil {
		return nil, err
	}
	return boltBucket{b: b}, nil
}

func (tx *boltStorageTx) DeleteBucket(name string) error {
	err := tx.btx.DeleteBucket(unsafeBytesFromString(name))
	if err == bbolt.ErrBucketNotFound {
		return ErrBucketNotFound
	}
	return err
}

func (tx *boltStorageTx) BucketNames() []string {
	var names []string
	c := tx.btx.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		names = append(names, string(k))
	}
	return names
}

func (tx *boltStorageTx) Commit() error { return tx.btx.Commit() }

func (tx *boltStorageTx) Rollback() error {
	err := tx.btx.Rollback()
	if err == bbolt.ErrTxClosed {
		return nil
	}
	return err
}

type boltBucket struct {
	b *bbolt.Bucket
}

func (b boltBucket) Get(key []byte) []byte { return b.b.Get(key) }

func (b boltBucket) Put(key, value []byte) error { return b.b.Put(key, value) }

func (b boltBucket) Delete(key []byte) error { return b.b.Delete(key) }

func (b boltBucket) Cursor() storageCursor { return boltCursor{c: b.b.Cursor()} }

func (b boltBucket) Stats() BucketStats {
	bs := b.b.Stats()
	return BucketStats{
		Values:    bs.KeyN,
		DataSize:  bs.LeafInuse + bs.InlineBucketInuse,
		DataAlloc: bs.BranchAlloc + bs.LeafAlloc,
	}
}

type boltCursor struct {
	c *bbolt.Cursor
}

func (c boltCursor) First() ([]byte, []byte) { return c.c.First() }

func (c boltCursor) Next() ([]byte, []byte) { return c.c.Next() }
