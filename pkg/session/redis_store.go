package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "polimata:session"
	defaultSessionTTL  = 24 * time.Hour
	redisOpTimeout     = 3 * time.Second
)

type RedisConfig struct {
	Addr     string
	Password string
	Prefix   string
	TTL      time.Duration
}

// RedisStore keeps one credential record per browser session id, with TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("session redis addr is required")
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Password,
		}),
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

// NewSessionID returns an opaque id suitable for a session cookie.
func NewSessionID() string {
	return uuid.NewString()
}

func (s *RedisStore) TTL() time.Duration { return s.ttl }

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Bind returns the Store view of a single session.
func (s *RedisStore) Bind(sessionID string) *RedisSession {
	return &RedisSession{parent: s, key: s.prefix + ":" + strings.TrimSpace(sessionID)}
}

// RedisSession is a Store scoped to one session id.
type RedisSession struct {
	parent *RedisStore
	key    string
}

func (r *RedisSession) Load(ctx context.Context) (Credentials, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	val, err := r.parent.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Credentials{}, false, nil
	}
	if err != nil {
		return Credentials{}, false, fmt.Errorf("load session: %w: %w", ErrStoreUnavailable, err)
	}
	var creds Credentials
	if err := json.Unmarshal(val, &creds); err != nil {
		return Credentials{}, false, fmt.Errorf("decode session: %w", err)
	}
	if creds.empty() {
		return Credentials{}, false, nil
	}
	return creds, true, nil
}

func (r *RedisSession) Save(ctx context.Context, creds Credentials) error {
	if creds.empty() {
		return errors.New("access token required")
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := r.parent.client.Set(ctx, r.key, data, r.parent.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *RedisSession) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := r.parent.client.Del(ctx, r.key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("clear session: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *RedisSession) AccessToken(ctx context.Context) (string, error) { return tokenFrom(ctx, r) }
func (r *RedisSession) Discard(ctx context.Context) error               { return r.Clear(ctx) }
