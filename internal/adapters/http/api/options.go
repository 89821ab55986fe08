package api

import "github.com/okian/rankd/pkg/logger"

const defaultMaxRangeLimit = 1_000

// Option configures a Server.
type Option func(*Server)

// WithMaxRangeLimit caps the number of entries one range query may return.
func WithMaxRangeLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxRange = n
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
