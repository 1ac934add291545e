package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/intake/internal/model"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "intake:session:"

// RedisSessionStore keeps each session as a JSON value with a sliding TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisSessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisSessionStore{
		client: client,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *RedisSessionStore) GetOrCreate(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return model.NewSession(id, s.now().UTC()), nil
	}
	return session, err
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if session.Record == nil {
		session.Record = model.Record{}
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *model.Session) error {
	stored := *session
	stored.UpdatedAt = s.now().UTC()

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}

	if err := s.client.Set(ctx, sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.logger.DebugContext(ctx, "session saved", "turns", len(session.History), "ttl", s.ttl)
	return nil
}

func (s *RedisSessionStore) Evict(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("evict session: %w", err)
	}
	return n > 0, nil
}
