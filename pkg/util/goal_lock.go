package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// GoalLock serializes adjustment runs per goal across processes. Two sweepers
// (or a sweeper plus an API call) must never adjust the same goal concurrently.
type GoalLock struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewGoalLock(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *GoalLock {
	return &GoalLock{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// TryAcquire attempts to take the per-goal lock. Returns true when acquired.
// When redis is unavailable the lock degrades to always-acquired; a missed
// serialization is preferable to blocking every adjustment pass.
func (l *GoalLock) TryAcquire(ctx context.Context, goalID int) bool {
	key := fmt.Sprintf("lock:goal-adjust:%d", goalID)

	ok, err := l.rdb.SetNX(ctx, key, 1, l.ttl).Result()
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("Redis goal lock failed, proceeding unlocked",
				zap.Int("goal_id", goalID),
				zap.Error(err),
			)
		}
		return true
	}
	return ok
}

// Release frees the per-goal lock.
func (l *GoalLock) Release(ctx context.Context, goalID int) {
	key := fmt.Sprintf("lock:goal-adjust:%d", goalID)
	if err := l.rdb.Del(ctx, key).Err(); err != nil && l.logger != nil {
		l.logger.Warn("Failed to release goal lock",
			zap.Int("goal_id", goalID),
			zap.Error(err),
		)
	}
}
