package history

import "go.uber.org/zap"

// Option configures a Store.
type Option func(*Store)

// WithMaxEntries caps the number of snapshots kept. When the cap is exceeded
// the oldest snapshots are dropped. Zero or less means unbounded.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n < 0 {
			n = 0
		}
		s.maxEntries = n
	}
}

// WithLogger sets the logger used for store diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}
