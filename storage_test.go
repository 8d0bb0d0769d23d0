package geodoc

import (
	"errors"
	"testing"
)

func collectKeys(b storageBucket) []string {
	var keys []string
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, string(k))
	}
	return keys
}

func TestStorage_Isolation(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *Store) {
		wtx := must(s.st.BeginTx(true))
		b := must(wtx.CreateBucket("vec3"))
		success(t, b.Put([]byte("b"), []byte("2")))
		success(t, b.Put([]byte("a"), []byte("1")))
		success(t, wtx.Commit())
		success(t, wtx.Rollback())

		rtx := must(s.st.BeginTx(false))
		defer rtx.Rollback()

		wtx = must(s.st.BeginTx(true))
		b = wtx.Bucket("vec3")
		success(t, b.Put([]byte("a"), []byte("changed")))
		success(t, b.Delete([]byte("b")))
		success(t, b.Put([]byte("c"), []byte("3")))
		deepEqual(t, collectKeys(b), []string{"a", "c"})
		eq(t, string(b.Get([]byte("a"))), "changed")

		old := rtx.Bucket("vec3")
		deepEqual(t, collectKeys(old), []string{"a", "b"})
		eq(t, string(old.Get([]byte("a"))), "1")
		eq(t, old.Stats().Values, 2)

		success(t, wtx.Commit())
		eq(t, string(old.Get([]byte("a"))), "1")

		rtx2 := must(s.st.BeginTx(false))
		defer rtx2.Rollback()
		deepEqual(t, collectKeys(rtx2.Bucket("vec3")), []string{"a", "c"})
		eq(t, string(rtx2.Bucket("vec3").Get([]byte("a"))), "changed")
	})
}

func TestStorage_RollbackDiscardsChanges(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *Store) {
		wtx := must(s.st.BeginTx(true))
		success(t, must(wtx.CreateBucket("quat")).Put([]byte("k"), []byte("v")))
		success(t, wtx.Commit())

		wtx = must(s.st.BeginTx(true))
		success(t, wtx.Bucket("quat").Put([]byte("k"), []byte("other")))
		success(t, wtx.DeleteBucket("quat"))
		_ = must(wtx.CreateBucket("pose"))
		success(t, wtx.Rollback())

		rtx := must(s.st.BeginTx(false))
		defer rtx.Rollback()
		deepEqual(t, rtx.BucketNames(), []string{"quat"})
		eq(t, string(rtx.Bucket("quat").Get([]byte("k"))), "v")
		eq(t, rtx.Bucket("pose") == nil, true)
	})
}

func TestStorage_ReadOnlyTx(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *Store) {
		wtx := must(s.st.BeginTx(true))
		_ = must(wtx.CreateBucket("vec3"))
		success(t, wtx.Commit())

		rtx := must(s.st.BeginTx(false))
		defer rtx.Rollback()
		if _, err := rtx.CreateBucket("pose"); err == nil {
			t.Fatalf("CreateBucket in read tx succeeded")
		}
		if err := rtx.Bucket("vec3").Put([]byte("k"), []byte("v")); err == nil {
			t.Fatalf("Put in read tx succeeded")
		}
	})
}

func TestStorage_DeleteMissingBucket(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *Store) {
		wtx := must(s.st.BeginTx(true))
		defer wtx.Rollback()
		err := wtx.DeleteBucket("nope")
		if !errors.Is(err, ErrBucketNotFound) {
			t.Fatalf("** got %v, wanted %v", err, ErrBucketNotFound)
		}
	})
}

func TestMemStorage_Closed(t *testing.T) {
	st := newMemStorage()
	wtx := must(st.BeginTx(true))
	success(t, st.Close())
	if err := wtx.Commit(); !errors.Is(err, errStorageClosed) {
		t.Fatalf("** got %v, wanted %v", err, errStorageClosed)
	}
	if _, err := st.BeginTx(false); !errors.Is(err, errStorageClosed) {
		t.Fatalf("** got %v, wanted %v", err, errStorageClosed)
	}
	if _, err := st.BeginTx(true); !errors.Is(err, errStorageClosed) {
		t.Fatalf("** got %v, wanted %v", err, errStorageClosed)
	}
}
