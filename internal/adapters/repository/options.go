package repository

import (
	"time"

	"github.com/pedra/atlas/pkg/logger"
)

// Option configures a PostgresStore.
type Option func(*PostgresStore)

// WithQueryTimeout bounds every statement issued by the store.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *PostgresStore) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

// WithLogger replaces the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *PostgresStore) {
		if l != nil {
			s.logger = l
		}
	}
}
