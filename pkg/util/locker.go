package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker 基于 Redis SetNX 的短期互斥锁，用于同一 (user, week) 的周报串行化
type Locker struct {
	rdb    *redis.Client
	ttl    time.Duration
	owner  string
	logger *zap.Logger
}

func NewLocker(rdb *redis.Client, ttl time.Duration, owner string, logger *zap.Logger) *Locker {
	return &Locker{
		rdb:    rdb,
		ttl:    ttl,
		owner:  owner,
		logger: logger,
	}
}

// LockKey 生成周报锁的 key
func LockKey(userID int64, weekStart time.Time) string {
	return fmt.Sprintf("report:lock:%d:%s", userID, weekStart.Format("2006-01-02"))
}

// Acquire 尝试获取锁
// returns true if the caller now holds the lock
// returns false if another run is already working on the same key
func (l *Locker) Acquire(ctx context.Context, userID int64, weekStart time.Time) bool {
	key := LockKey(userID, weekStart)

	ok, err := l.rdb.SetNX(ctx, key, l.owner, l.ttl).Result()
	if err != nil {
		// Redis 不可用时不阻止处理，数据库 claim 仍然保证去重
		l.logger.Warn("Redis lock failed, allowing processing",
			zap.Int64("user_id", userID),
			zap.String("lock_key", key),
			zap.Error(err),
		)
		return true
	}

	if !ok {
		l.logger.Info("Skipped report already in progress",
			zap.Int64("user_id", userID),
			zap.String("lock_key", key),
		)
	}
	return ok
}

// Release 释放锁，忽略已过期或被他人持有的情况
func (l *Locker) Release(ctx context.Context, userID int64, weekStart time.Time) {
	key := LockKey(userID, weekStart)
	if err := releaseScript.Run(ctx, l.rdb, []string{key}, l.owner).Err(); err != nil && err != redis.Nil {
		l.logger.Warn("Failed to release report lock",
			zap.String("lock_key", key),
			zap.Error(err),
		)
	}
}
