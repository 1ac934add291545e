package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewSessionStore picks a backend by name. redisClient is only used for
// the "redis" backend.
func NewSessionStore(backend string, redisClient *redis.Client, ttl time.Duration, logger *slog.Logger) (SessionStore, error) {
	switch backend {
	case "", "memory":
		return NewMemorySessionStore(), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis session backend requires a redis client")
		}
		return NewRedisSessionStore(redisClient, ttl, logger), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}
}
