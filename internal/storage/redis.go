package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/quest-weaver/pkg/session"
	"github.com/jwebster45206/quest-weaver/pkg/storage"
)

const (
	sessionKeyPrefix = "session:"
	lockKeyPrefix    = "session-lock:"

	DefaultSessionTTL = 24 * time.Hour
)

// releaseScript deletes a lock only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisStorage implements storage.Storage with sessions stored as JSON
// under an expiring key.
type RedisStorage struct {
	client     *redis.Client
	logger     *slog.Logger
	sessionTTL time.Duration
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage accepts either a redis:// URL or a bare host:port address.
func NewRedisStorage(redisURL string, sessionTTL time.Duration, logger *slog.Logger) (*RedisStorage, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		opts = parsed
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}

	return &RedisStorage{
		client:     redis.NewClient(opts),
		logger:     logger,
		sessionTTL: sessionTTL,
	}, nil
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context, attempts int, delay time.Duration) error {
	for i := 0; i < attempts; i++ {
		err := r.Ping(ctx)
		if err == nil {
			r.logger.Info("Redis connection established")
			return nil
		}
		r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("redis did not become available after %d attempts", attempts)
}

func (r *RedisStorage) SaveSession(ctx context.Context, s *session.Session) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKeyPrefix+s.ID.String(), data, r.sessionTTL).Err(); err != nil {
		r.logger.Error("Failed to save session", "session_id", s.ID, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrSessionNotFound
		}
		r.logger.Error("Failed to load session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		r.logger.Error("Failed to unmarshal session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+id.String()).Err(); err != nil {
		r.logger.Error("Failed to delete session", "session_id", id, "error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// AcquireLock sets the lock key if absent. It returns false when another owner holds it.
func (r *RedisStorage) AcquireLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, lockKeyPrefix+id.String(), owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	return ok, nil
}

func (r *RedisStorage) ReleaseLock(ctx context.Context, id uuid.UUID, owner string) error {
	if err := releaseScript.Run(ctx, r.client, []string{lockKeyPrefix + id.String()}, owner).Err(); err != nil {
		return fmt.Errorf("failed to release session lock: %w", err)
	}
	return nil
}
