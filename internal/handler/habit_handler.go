package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habit-tracker/internal/model"
	"habit-tracker/internal/service/habit"
	"habit-tracker/pkg/logger"
)

type HabitService interface {
	CreateHabit(ctx context.Context, in habit.CreateHabitInput) (*model.Habit, error)
	CheckIn(ctx context.Context, habitID int64) (*model.CheckIn, error)
	Stats(ctx context.Context, habitID int64) (*model.HabitStats, error)
}

type HabitHandler struct {
	svc    HabitService
	logger *zap.Logger
}

func NewHabitHandler(svc HabitService, logger *zap.Logger) *HabitHandler {
	return &HabitHandler{svc: svc, logger: logger}
}

type createHabitRequest struct {
	UserID      int64   `json:"user_id" binding:"required"`
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	Frequency   string  `json:"frequency" binding:"required"`
}

// CreateHabit POST /habits
func (h *HabitHandler) CreateHabit(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("CreateHabit: invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.svc.CreateHabit(c.Request.Context(), habit.CreateHabitInput{
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		Frequency:   model.Frequency(req.Frequency),
	})
	if err != nil {
		log.Warn("CreateHabit: failed", zap.Int64("user_id", req.UserID), zap.Error(err))
		writeError(c, err)
		return
	}

	log.Info("CreateHabit: success",
		zap.Int64("habit_id", created.ID),
		zap.Int64("user_id", created.UserID),
	)
	c.JSON(http.StatusCreated, created)
}

// CheckIn POST /habits/:id/check-in
func (h *HabitHandler) CheckIn(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	checkIn, err := h.svc.CheckIn(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkIn)
}

// Stats GET /habits/:id/stats
func (h *HabitHandler) Stats(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
