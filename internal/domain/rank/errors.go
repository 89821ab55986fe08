package rank

import "errors"

var (
	// ErrInvalidArgument is returned for blank leaderboard names, NaN scores,
	// out-of-range timestamps and malformed composite member ids.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnsupported is returned when a caller asks a variant for an operation
	// outside its capability set.
	ErrUnsupported = errors.New("unsupported for this variant")
	// ErrNotRegistered is returned by callers that require an existing
	// leaderboard. The registry itself never returns it.
	ErrNotRegistered = errors.New("leaderboard not registered")
)
