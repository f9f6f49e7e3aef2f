package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	mqcontracts "habit-tracker/contracts/mq"
	"habit-tracker/internal/model"
	"habit-tracker/pkg/outbox"
	"habit-tracker/pkg/trace"
	"habit-tracker/pkg/util"
)

type CheckInRepository struct {
	db         *pgxpool.Pool
	outboxRepo *outbox.Repository
	logger     *zap.Logger
}

func NewCheckInRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *CheckInRepository {
	return &CheckInRepository{
		db:         db,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Create 在一个事务里完成：确认习惯存在、检查当天是否已打卡、写入打卡和 outbox 事件
// habit 不存在返回 ErrNotFound，当天已打卡返回 ErrDuplicate
func (r *CheckInRepository) Create(ctx context.Context, habitID int64, date model.Date) (*model.CheckIn, error) {
	var checkIn *model.CheckIn

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM habits WHERE id = $1`, habitID).Scan(&id)
		if err != nil {
			return notFound(err)
		}

		var exists bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM check_ins WHERE habit_id = $1 AND date = $2)`,
			habitID, date.Time,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check existing check-in: %w", err)
		}
		if exists {
			return ErrDuplicate
		}

		c := model.CheckIn{HabitID: habitID, Date: date}
		err = tx.QueryRow(ctx,
			`INSERT INTO check_ins (habit_id, date) VALUES ($1, $2) RETURNING id`,
			habitID, date.Time,
		).Scan(&c.ID)
		if err != nil {
			// 并发请求同时通过 EXISTS 检查时由唯一索引兜底
			if util.IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert check-in: %w", err)
		}

		payload := mqcontracts.CheckInCreatedPayload{
			CheckInID: c.ID,
			HabitID:   habitID,
			Date:      date.String(),
			TraceID:   trace.FromContext(ctx),
		}
		if err := outbox.AppendInTx(ctx, tx, r.outboxRepo, payload); err != nil {
			return err
		}

		checkIn = &c
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Check-in inserted successfully",
		zap.Int64("id", checkIn.ID),
		zap.Int64("habit_id", habitID),
		zap.String("date", date.String()),
	)
	return checkIn, nil
}

// ListDatesInRange 返回 [from, to] 闭区间内的打卡日期，按日期升序
func (r *CheckInRepository) ListDatesInRange(ctx context.Context, habitID int64, from, to model.Date) ([]model.Date, error) {
	query := `
        SELECT date
        FROM check_ins
        WHERE habit_id = $1 AND date >= $2 AND date <= $3
        ORDER BY date ASC
    `
	rows, err := r.db.Query(ctx, query, habitID, from.Time, to.Time)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	var dates []model.Date
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan check-in date: %w", err)
		}
		dates = append(dates, model.NewDate(d))
	}
	return dates, rows.Err()
}

// Stats 汇总某个习惯的打卡次数和首末日期
func (r *CheckInRepository) Stats(ctx context.Context, habitID int64) (total int, first, last *model.Date, err error) {
	query := `
        SELECT COUNT(*), MIN(date), MAX(date)
        FROM check_ins
        WHERE habit_id = $1
    `
	var minDate, maxDate *time.Time
	if err := r.db.QueryRow(ctx, query, habitID).Scan(&total, &minDate, &maxDate); err != nil {
		return 0, nil, nil, fmt.Errorf("check-in stats: %w", err)
	}
	if minDate != nil {
		d := model.NewDate(*minDate)
		first = &d
	}
	if maxDate != nil {
		d := model.NewDate(*maxDate)
		last = &d
	}
	return total, first, last, nil
}
