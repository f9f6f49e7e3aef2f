package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// schemaStatements 启动时建表，没有独立的迁移系统
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		created    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_email ON users (email)`,
	`CREATE TABLE IF NOT EXISTS habits (
		id          BIGSERIAL PRIMARY KEY,
		user_id     BIGINT NOT NULL REFERENCES users (id),
		title       TEXT NOT NULL,
		description TEXT,
		frequency   TEXT NOT NULL CHECK (frequency IN ('daily', 'weekly')),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_habits_user_id ON habits (user_id)`,
	`CREATE TABLE IF NOT EXISTS check_ins (
		id       BIGSERIAL PRIMARY KEY,
		habit_id BIGINT NOT NULL REFERENCES habits (id),
		date     DATE NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_check_ins_habit_date ON check_ins (habit_id, date)`,
	`CREATE TABLE IF NOT EXISTS report_logs (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users (id),
		week_start   DATE NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		status       TEXT NOT NULL CHECK (status IN ('pending', 'sent', 'failed'))
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_report_logs_user_week ON report_logs (user_id, week_start)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id             BIGSERIAL PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id   BIGINT,
		routing_key    TEXT NOT NULL,
		payload        JSONB NOT NULL,
		status         TEXT NOT NULL DEFAULT 'pending',
		retry_count    INT NOT NULL DEFAULT 0,
		next_retry_at  TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_events_pending ON outbox_events (status, next_retry_at)`,
}

// EnsureSchema 创建缺失的表和索引
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	logger.Info("Database schema ensured", zap.Int("statements", len(schemaStatements)))
	return nil
}
