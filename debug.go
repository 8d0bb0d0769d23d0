package geodoc

import (
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpBucketHeaders = DumpFlags(1 << iota)
	DumpValues
	DumpStats

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the contents of the store for debugging, one bucket after
// another in name order.
func (s *Store) Dump(f DumpFlags) (string, error) {
	var buf strings.Builder
	err := s.view(func(tx storageTx) error {
		for _, name := range tx.BucketNames() {
			s.dumpBucket(&buf, f, tx, name)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Store) dumpBucket(w *strings.Builder, f DumpFlags, tx storageTx, name string) {
	b := tx.Bucket(name)
	st := b.Stats()

	if f.Contains(DumpBucketHeaders) {
		fmt.Fprintln(w, dumpSep1)
		if s.reg.AdapterNamed(name) == nil {
			fmt.Fprintf(w, "%s (%d values) UNKNOWN ADAPTER\n", name, st.Values)
		} else {
			fmt.Fprintf(w, "%s (%d values)\n", name, st.Values)
		}
	}
	if f.Contains(DumpStats) {
		fmt.Fprintf(w, "%s.stats: data_size = %d, data_alloc = %d\n", name, st.DataSize, st.DataAlloc)
	}
	if f.Contains(DumpValues) {
		if f.Contains(DumpStats) {
			fmt.Fprintln(w, dumpSep2)
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			dumpValue(w, name, k, v)
		}
	}
}

func dumpValue(w *strings.Builder, bucket string, k, v []byte) {
	n, err := decodeStoredValue(v)
	if err != nil {
		fmt.Fprintf(w, "%s.%s ** ERROR: %v\n", bucket, k, err)
		return
	}
	fmt.Fprintf(w, "%s.%s = %s\n", bucket, k, n.Dump())
}
