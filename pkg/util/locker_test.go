package util

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLockKey(t *testing.T) {
	week := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "report:lock:42:2026-10-12", LockKey(42, week))
}

func TestLocker_FailsOpenWhenRedisUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	locker := NewLocker(rdb, time.Minute, "test", zap.NewNop())
	week := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)

	assert.True(t, locker.Acquire(context.Background(), 1, week))
	// Release 失败只记录日志
	locker.Release(context.Background(), 1, week)
}
