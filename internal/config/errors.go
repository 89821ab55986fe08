package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marks a value that failed validation.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks a file or env source that could not be read.
	ErrLoadConfig = errors.New("load config failed")
	// ErrUnknownBackend is returned for a store_backend other than redis or memory.
	ErrUnknownBackend = fmt.Errorf("%w: unknown store backend", ErrInvalidConfig)
)
