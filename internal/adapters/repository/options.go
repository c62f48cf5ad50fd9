package repository

import "time"

// Option applies a configuration option to the GraphStore.
type Option func(*GraphStore)

// WithClock overrides the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *GraphStore) {
		if now != nil {
			s.now = now
		}
	}
}
