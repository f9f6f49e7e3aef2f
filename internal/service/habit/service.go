package habit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/pkg/logger"
	"habit-tracker/pkg/metrics"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

type UserStore interface {
	Create(ctx context.Context, name, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

type HabitStore interface {
	Insert(ctx context.Context, h *model.Habit) error
	GetByID(ctx context.Context, id int64) (*model.Habit, error)
}

type CheckInStore interface {
	Create(ctx context.Context, habitID int64, date model.Date) (*model.CheckIn, error)
	Stats(ctx context.Context, habitID int64) (total int, first, last *model.Date, err error)
}

// Service 用户、习惯和打卡的业务逻辑
type Service struct {
	users    UserStore
	habits   HabitStore
	checkIns CheckInStore
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(users UserStore, habits HabitStore, checkIns CheckInStore, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		users:    users,
		habits:   habits,
		checkIns: checkIns,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *Service) CreateUser(ctx context.Context, name, email string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}

	u, err := s.users.Create(ctx, name, email)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// CreateHabitInput POST /habits 的参数
type CreateHabitInput struct {
	UserID      int64
	Title       string
	Description *string
	Frequency   model.Frequency
}

func (s *Service) CreateHabit(ctx context.Context, in CreateHabitInput) (*model.Habit, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !in.Frequency.Valid() {
		return nil, fmt.Errorf("%w: frequency must be daily or weekly, got %q", ErrInvalidInput, in.Frequency)
	}

	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return nil, mapStoreError(err, "user %d", in.UserID)
	}

	h := &model.Habit{
		UserID:      in.UserID,
		Title:       title,
		Description: in.Description,
		Frequency:   in.Frequency,
	}
	if err := s.habits.Insert(ctx, h); err != nil {
		return nil, mapStoreError(err, "user %d", in.UserID)
	}
	return h, nil
}

// CheckIn 记录今天的打卡，今天按配置的时区计算
func (s *Service) CheckIn(ctx context.Context, habitID int64) (*model.CheckIn, error) {
	log := logger.WithTrace(ctx, s.logger).With(zap.Int64("habit_id", habitID))
	today := model.DateIn(s.now(), s.loc)

	c, err := s.checkIns.Create(ctx, habitID, today)
	switch {
	case err == nil:
		metrics.IncrementCheckIn("created")
		return c, nil
	case errors.Is(err, repository.ErrDuplicate):
		metrics.IncrementCheckIn("duplicate")
		log.Info("Habit already checked in today", zap.String("date", today.String()))
		return nil, fmt.Errorf("%w: habit %d already checked in on %s", ErrConflict, habitID, today)
	case errors.Is(err, repository.ErrNotFound):
		metrics.IncrementCheckIn("not_found")
		return nil, fmt.Errorf("%w: habit %d", ErrNotFound, habitID)
	default:
		metrics.IncrementCheckIn("error")
		log.Error("Failed to check in", zap.Error(err))
		return nil, fmt.Errorf("check in: %w", err)
	}
}

func (s *Service) Stats(ctx context.Context, habitID int64) (*model.HabitStats, error) {
	h, err := s.habits.GetByID(ctx, habitID)
	if err != nil {
		return nil, mapStoreError(err, "habit %d", habitID)
	}

	total, first, last, err := s.checkIns.Stats(ctx, habitID)
	if err != nil {
		return nil, fmt.Errorf("habit stats: %w", err)
	}

	return &model.HabitStats{
		HabitID:       h.ID,
		Title:         h.Title,
		Frequency:     h.Frequency,
		TotalCheckIns: total,
		FirstCheckIn:  first,
		LastCheckIn:   last,
	}, nil
}

func mapStoreError(err error, format string, args ...interface{}) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}
