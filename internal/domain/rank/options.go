package rank

import "github.com/okian/rankd/pkg/logger"

type options struct {
	log logger.Logger
}

// Option configures a Registry.
type Option func(*options)

// WithLogger sets the logger used for registration, removal and move events.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
