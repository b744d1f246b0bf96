package repository

import "time"

// Option applies a configuration option to a store.
type Option func(*settings)

type settings struct {
	metricsUpdateInterval time.Duration
	retention             time.Duration
}

func defaults() settings {
	return settings{
		metricsUpdateInterval: 5 * time.Second,
		retention:             time.Hour,
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *settings) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithRetention sets how long finished jobs are kept before they are pruned.
func WithRetention(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.retention = d
		}
	}
}
