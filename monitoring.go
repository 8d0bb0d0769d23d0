package geodoc

// BucketStats describes the values stored for one adapter.
type BucketStats struct {
	Values    int
	DataSize  int
	DataAlloc int
}

type StoreStats struct {
	Buckets map[string]BucketStats

	Reads  uint64
	Writes uint64
	Skips  uint64
}

func (ss *StoreStats) TotalValues() int {
	var n int
	for _, bs := range ss.Buckets {
		n += bs.Values
	}
	return n
}

func (ss *StoreStats) TotalSize() int {
	var n int
	for _, bs := range ss.Buckets {
		n += bs.DataSize
	}
	return n
}

// Stats reports per-bucket storage usage and the operation counters of this
// Store instance.
func (s *Store) Stats() (StoreStats, error) {
	result := StoreStats{
		Buckets: make(map[string]BucketStats),
		Reads:   s.ReadCount.Load(),
		Writes:  s.WriteCount.Load(),
		Skips:   s.SkipCount.Load(),
	}
	err := s.view(func(tx storageTx) error {
		for _, name := range tx.BucketNames() {
			result.Buckets[name] = tx.Bucket(name).Stats()
		}
		return nil
	})
	return result, err
}
