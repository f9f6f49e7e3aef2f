package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"habit-tracker/internal/model"
)

type HabitRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewHabitRepository(db *pgxpool.Pool, logger *zap.Logger) *HabitRepository {
	return &HabitRepository{
		db:     db,
		logger: logger,
	}
}

// Insert 创建习惯，user 不存在时返回 ErrNotFound
func (r *HabitRepository) Insert(ctx context.Context, h *model.Habit) error {
	r.logger.Debug("Inserting habit",
		zap.Int64("user_id", h.UserID),
		zap.String("title", h.Title),
		zap.String("frequency", string(h.Frequency)),
	)

	query := `
        INSERT INTO habits (user_id, title, description, frequency)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		h.UserID,
		h.Title,
		h.Description,
		string(h.Frequency),
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// 外键约束：用户不存在
			return ErrNotFound
		}
		r.logger.Error("Failed to insert habit", zap.Error(err))
		return fmt.Errorf("insert habit: %w", err)
	}

	r.logger.Info("Habit inserted successfully",
		zap.Int64("id", h.ID),
		zap.Int64("user_id", h.UserID),
	)
	return nil
}

func (r *HabitRepository) GetByID(ctx context.Context, id int64) (*model.Habit, error) {
	query := `
        SELECT id, user_id, title, description, frequency, created_at
        FROM habits
        WHERE id = $1
    `
	var h model.Habit
	var freq string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&h.ID, &h.UserID, &h.Title, &h.Description, &freq, &h.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	h.Frequency = model.Frequency(freq)
	return &h, nil
}

// ListByUser 按 id 升序返回，周报里的习惯顺序依赖这个排序
func (r *HabitRepository) ListByUser(ctx context.Context, userID int64) ([]model.Habit, error) {
	query := `
        SELECT id, user_id, title, description, frequency, created_at
        FROM habits
        WHERE user_id = $1
        ORDER BY id ASC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list habits", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		var h model.Habit
		var freq string
		if err := rows.Scan(
			&h.ID,
			&h.UserID,
			&h.Title,
			&h.Description,
			&freq,
			&h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		h.Frequency = model.Frequency(freq)
		habits = append(habits, h)
	}

	r.logger.Debug("Listed habits",
		zap.Int64("user_id", userID),
		zap.Int("count", len(habits)),
	)
	return habits, rows.Err()
}
