package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"habit-tracker/internal/model"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, name, email string) (*model.User, error) {
	query := `
        INSERT INTO users (name, email)
        VALUES ($1, $2)
        RETURNING id, name, email, created, updated
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, name, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.Created, &u.Updated,
	)
	if err != nil {
		r.logger.Error("Failed to insert user", zap.Error(err))
		return nil, fmt.Errorf("insert user: %w", err)
	}

	r.logger.Info("User inserted successfully", zap.Int64("id", u.ID))
	return &u, nil
}

// GetByID returns ErrNotFound when the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
        SELECT id, name, email, created, updated
        FROM users
        WHERE id = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.Created, &u.Updated,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// ListAll returns every user ordered by id.
func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	query := `
        SELECT id, name, email, created, updated
        FROM users
        ORDER BY id ASC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Created, &u.Updated); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}

	r.logger.Debug("Listed users", zap.Int("count", len(users)))
	return users, rows.Err()
}
