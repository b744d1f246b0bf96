package grid

// Option configures a sampling run.
type Option func(*settings)

type settings struct {
	parallelism int
	maxPoints   int
	source      string
}

// WithParallelism bounds the number of points analyzed at once. One or less
// analyzes the lattice sequentially.
func WithParallelism(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithSource names the terrain source reported in the heatmap metadata.
func WithSource(name string) Option {
	return func(s *settings) {
		s.source = name
	}
}

// WithMaxPoints caps the lattice size; larger runs fail with ErrTooLarge.
func WithMaxPoints(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxPoints = n
		}
	}
}
