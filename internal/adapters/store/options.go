package store

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOption applies a configuration option to the Redis client options.
type RedisOption func(*redis.UniversalOptions)

// WithAddrs sets the Redis endpoints. More than one address selects a
// cluster client unless a sentinel master name is set.
func WithAddrs(addrs ...string) RedisOption {
	return func(o *redis.UniversalOptions) {
		if len(addrs) > 0 {
			o.Addrs = addrs
		}
	}
}

// WithMasterName enables sentinel mode for the named master.
func WithMasterName(name string) RedisOption {
	return func(o *redis.UniversalOptions) {
		o.MasterName = name
	}
}

// WithCredentials sets the ACL username and password.
func WithCredentials(username, password string) RedisOption {
	return func(o *redis.UniversalOptions) {
		o.Username = username
		o.Password = password
	}
}

// WithDB selects the logical database. Ignored by cluster clients.
func WithDB(db int) RedisOption {
	return func(o *redis.UniversalOptions) {
		if db >= 0 {
			o.DB = db
		}
	}
}

// WithPoolSize sets the connection pool size per node.
func WithPoolSize(size int) RedisOption {
	return func(o *redis.UniversalOptions) {
		if size > 0 {
			o.PoolSize = size
		}
	}
}

// WithTimeouts sets dial, read and write timeouts. Zero values keep the
// client defaults.
func WithTimeouts(dial, read, write time.Duration) RedisOption {
	return func(o *redis.UniversalOptions) {
		if dial > 0 {
			o.DialTimeout = dial
		}
		if read > 0 {
			o.ReadTimeout = read
		}
		if write > 0 {
			o.WriteTimeout = write
		}
	}
}
