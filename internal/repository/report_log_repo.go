package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	mqcontracts "habit-tracker/contracts/mq"
	"habit-tracker/internal/model"
	"habit-tracker/pkg/outbox"
)

type ReportLogRepository struct {
	db         *pgxpool.Pool
	outboxRepo *outbox.Repository
	logger     *zap.Logger
}

func NewReportLogRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *ReportLogRepository {
	return &ReportLogRepository{
		db:         db,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Exists 不论状态，只要 (user, week) 有记录就返回 true
func (r *ReportLogRepository) Exists(ctx context.Context, userID int64, weekStart model.Date) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM report_logs WHERE user_id = $1 AND week_start = $2)`,
		userID, weekStart.Time,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check report log: %w", err)
	}
	return exists, nil
}

// Claim 以 pending 状态插入周报记录；唯一索引冲突时返回 ErrDuplicate
func (r *ReportLogRepository) Claim(ctx context.Context, userID int64, weekStart model.Date, at time.Time) (*model.ReportLog, error) {
	query := `
        INSERT INTO report_logs (user_id, week_start, generated_at, status)
        VALUES ($1, $2, $3, 'pending')
        ON CONFLICT (user_id, week_start) DO NOTHING
        RETURNING id
    `
	l := model.ReportLog{
		UserID:      userID,
		WeekStart:   weekStart,
		GeneratedAt: at,
		Status:      model.ReportStatusPending,
	}
	err := r.db.QueryRow(ctx, query, userID, weekStart.Time, at).Scan(&l.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("claim report log: %w", err)
	}
	return &l, nil
}

// Finalize 把 pending 记录改为终态，并在同一事务里写入 outbox 事件
func (r *ReportLogRepository) Finalize(ctx context.Context, l *model.ReportLog, status model.ReportStatus, ev mqcontracts.Event) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE report_logs SET status = $2 WHERE id = $1 AND status = 'pending'`,
			l.ID, string(status),
		)
		if err != nil {
			return fmt.Errorf("update report log: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotPending
		}

		return outbox.AppendInTx(ctx, tx, r.outboxRepo, ev)
	})
	if err != nil {
		r.logger.Error("Failed to finalize report log",
			zap.Int64("report_log_id", l.ID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return err
	}

	l.Status = status
	return nil
}

// Abandon 删除尚未发送的 pending 记录，下次运行可重新生成
func (r *ReportLogRepository) Abandon(ctx context.Context, l *model.ReportLog) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM report_logs WHERE id = $1 AND status = 'pending'`,
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("abandon report log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}
