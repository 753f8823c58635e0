package session

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/assignment-verifier/internal/common"
)

// Open returns a Redis-backed store when cfg.RedisAddr is set, otherwise an
// in-memory one.
func Open(ctx context.Context, cfg common.SessionConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RedisAddr == "" {
		logger.Info("session store ready", "backend", "memory", "ttl", cfg.TTL)
		return NewMemoryStore(cfg.TTL), nil
	}
	return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL, logger)
}
