package repository

// MemOption applies a configuration option to the MemStore.
type MemOption func(*MemStore)

// WithShardCount sets the number of user shards. Must be a power of two.
func WithShardCount(count int) MemOption {
	return func(s *MemStore) {
		if count > 0 && count&(count-1) == 0 {
			s.shardCount = count
		}
	}
}
