// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped with this package's sentinels.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Store backends.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBackend selects the ordered score store: redis or memory.
	StoreBackend string `koanf:"store_backend"`

	// RedisAddrs is a comma separated list of host:port. More than one
	// address means cluster mode unless RedisMasterName is set.
	RedisAddrs string `koanf:"redis_addrs"`
	// RedisMasterName enables sentinel mode.
	RedisMasterName string `koanf:"redis_master_name"`
	RedisUsername   string `koanf:"redis_username"`
	RedisPassword   string `koanf:"redis_password"`
	RedisDB         int    `koanf:"redis_db"`
	RedisPoolSize   int    `koanf:"redis_pool_size"`

	RedisDialTimeoutMS  int `koanf:"redis_dial_timeout_ms"`
	RedisReadTimeoutMS  int `koanf:"redis_read_timeout_ms"`
	RedisWriteTimeoutMS int `koanf:"redis_write_timeout_ms"`

	// EventQueueSize bounds the in-memory score event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the event id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxRangeLimit caps the window of a range query.
	MaxRangeLimit int `koanf:"max_range_limit"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		StoreBackend:        BackendRedis,
		RedisAddrs:          "localhost:6379",
		RedisPoolSize:       runtime.NumCPU() * 10,
		RedisDialTimeoutMS:  5_000,
		RedisReadTimeoutMS:  3_000,
		RedisWriteTimeoutMS: 3_000,
		EventQueueSize:      100_000,
		WorkerCount:         runtime.NumCPU() * 4,
		DedupeSize:          500_000,
		MaxRangeLimit:       1_000,
	}
}

// Addrs splits RedisAddrs into trimmed, non-empty host:port entries.
func (c *Config) Addrs() []string {
	var out []string
	for _, a := range strings.Split(c.RedisAddrs, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// DialTimeout returns the Redis dial timeout.
func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.RedisDialTimeoutMS) * time.Millisecond
}

// ReadTimeout returns the Redis read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.RedisReadTimeoutMS) * time.Millisecond
}

// WriteTimeout returns the Redis write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.RedisWriteTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreBackend != BackendRedis && c.StoreBackend != BackendMemory:
		return fmt.Errorf("%w: want %q or %q, got %q", ErrUnknownBackend, BackendRedis, BackendMemory, c.StoreBackend)
	case c.StoreBackend == BackendRedis && len(c.Addrs()) == 0:
		return fmt.Errorf("%w: redis_addrs must not be empty", ErrInvalidConfig)
	case c.RedisDB < 0:
		return fmt.Errorf("%w: redis_db must not be negative", ErrInvalidConfig)
	case c.RedisPoolSize < 0:
		return fmt.Errorf("%w: redis_pool_size must not be negative", ErrInvalidConfig)
	case c.RedisDialTimeoutMS < 0 || c.RedisReadTimeoutMS < 0 || c.RedisWriteTimeoutMS < 0:
		return fmt.Errorf("%w: redis timeouts must not be negative", ErrInvalidConfig)
	case c.EventQueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MaxRangeLimit <= 0:
		return fmt.Errorf("%w: max_range_limit must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
