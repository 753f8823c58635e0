package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis so several server replicas share them.
// The session document lives at session:<id>; the submission claim is a
// separate SETNX key so claiming is a single atomic command.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

type redisSession struct {
	ID          string    `json:"id"`
	StudentName string    `json:"student_name"`
	Institution string    `json:"institution,omitempty"`
	CaptchaA    int       `json:"captcha_a"`
	CaptchaB    int       `json:"captcha_b"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("session store connected", "backend", "redis", "addr", addr, "db", db)
	return &RedisStore{rdb: rdb, ttl: ttl, logger: logger}, nil
}

func sessionKey(id string) string { return fmt.Sprintf("session:%s", id) }
func claimKey(id string) string   { return fmt.Sprintf("session:%s:submitted", id) }

func (r *RedisStore) Create(ctx context.Context, studentName, institution string) (*Session, error) {
	s := newSession(uuid.NewString(), studentName, institution)
	if err := r.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var rs redisSession
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	n, err := r.rdb.Exists(ctx, claimKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get session claim: %w", err)
	}
	return &Session{
		ID:          rs.ID,
		StudentName: rs.StudentName,
		Institution: rs.Institution,
		Submitted:   n > 0,
		CaptchaA:    rs.CaptchaA,
		CaptchaB:    rs.CaptchaB,
		CreatedAt:   rs.CreatedAt,
	}, nil
}

func (r *RedisStore) RefreshCaptcha(ctx context.Context, id string) (*Session, error) {
	s, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.CaptchaA, s.CaptchaB = NewChallenge()
	if err := r.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *RedisStore) ClaimSubmission(ctx context.Context, id string) error {
	n, err := r.rdb.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if n == 0 {
		return errNotFound(id)
	}
	ok, err := r.rdb.SetNX(ctx, claimKey(id), 1, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("claim submission: %w", err)
	}
	if !ok {
		return errAlreadySubmitted()
	}
	return nil
}

func (r *RedisStore) ReleaseSubmission(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, claimKey(id)).Err(); err != nil {
		return fmt.Errorf("release submission: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}

func (r *RedisStore) save(ctx context.Context, s *Session) error {
	b, err := json.Marshal(redisSession{
		ID:          s.ID,
		StudentName: s.StudentName,
		Institution: s.Institution,
		CaptchaA:    s.CaptchaA,
		CaptchaB:    s.CaptchaB,
		CreatedAt:   s.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKey(s.ID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
