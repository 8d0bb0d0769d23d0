package geodoc

import "errors"

// ErrBucketNotFound is returned by storageTx.DeleteBucket when the bucket doesn't exist.
var ErrBucketNotFound = errors.New("bucket not found")

// storage is the sorted key/value backend of a Store: Bolt on disk, or
// memStorage in tests. Each adapter gets one bucket.
type storage interface {
	BeginTx(writable bool) (storageTx, error)
	Close() error
}

// storageTx sees a consistent snapshot of all buckets. At most one writable
// tx is open at a time; others wait in BeginTx.
type storageTx interface {
	// Bucket returns nil if there is no such bucket.
	Bucket(name string) storageBucket
	CreateBucket(name string) (storageBucket, error)
	DeleteBucket(name string) error

	// BucketNames lists buckets in sorted order.
	BucketNames() []string

	Commit() error

	// Rollback is safe to call multiple times, including after Commit.
	Rollback() error
}

// storageBucket maps keys to stored values. Returned slices are only valid
// until the tx ends and must not be modified.
type storageBucket interface {
	// Get returns nil if the key is absent.
	Get(key []byte) []byte
	Put(key, value []byte) error
	Delete(key []byte) error

	// Cursor iterates in key order.
	Cursor() storageCursor

	Stats() BucketStats
}

type storageCursor interface {
	First() (key, value []byte)
	Next() (key, value []byte)
}
