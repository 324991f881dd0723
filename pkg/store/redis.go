package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// unseenCountTTL bounds staleness of cached unseen counts between
// invalidations from other instances.
const unseenCountTTL = 30 * time.Second

func InitRedis(url string, logger *slog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		logger.Error("Failed to parse Redis URL", "error", err)
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	opt.PoolSize = 100
	opt.MinIdleConns = 10
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second

	return redis.NewClient(opt), nil
}

// Unseen counts are keyed by the receiving user first so one user's keys
// group together.
func unseenCountKey(senderID, receiverID string) string {
	return fmt.Sprintf("unseen:%s:%s", receiverID, senderID)
}

func (s *Store) cachedUnseenCount(ctx context.Context, senderID, receiverID string) (int, bool) {
	if s.RDB == nil {
		return 0, false
	}
	n, err := s.RDB.Get(ctx, unseenCountKey(senderID, receiverID)).Int()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("Failed to read unseen-count cache", "error", err)
		}
		return 0, false
	}
	return n, true
}

func (s *Store) cacheUnseenCount(ctx context.Context, senderID, receiverID string, count int) {
	if s.RDB == nil {
		return
	}
	if err := s.RDB.Set(ctx, unseenCountKey(senderID, receiverID), count, unseenCountTTL).Err(); err != nil {
		s.logger.Warn("Failed to cache unseen count", "error", err)
	}
}

// invalidateUnseenCount drops both directions of the pair; a flag update can
// change either side's view.
func (s *Store) invalidateUnseenCount(ctx context.Context, userA, userB string) {
	if s.RDB == nil {
		return
	}
	err := s.RDB.Del(ctx,
		unseenCountKey(userA, userB),
		unseenCountKey(userB, userA),
	).Err()
	if err != nil {
		s.logger.Warn("Failed to invalidate unseen-count cache", "error", err)
	}
}
