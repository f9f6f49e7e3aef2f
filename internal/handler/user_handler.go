package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habit-tracker/internal/model"
	"habit-tracker/pkg/logger"
)

type UserService interface {
	CreateUser(ctx context.Context, name, email string) (*model.User, error)
}

type UserHandler struct {
	svc    UserService
	logger *zap.Logger
}

func NewUserHandler(svc UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

type createUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// CreateUser POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("CreateUser: invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		log.Error("CreateUser: failed", zap.String("email", req.Email), zap.Error(err))
		writeError(c, err)
		return
	}

	log.Info("CreateUser: success", zap.Int64("user_id", user.ID))
	c.JSON(http.StatusCreated, user)
}
