package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OutboxReplayer interface {
	ReplayFailed(ctx context.Context, limit int) (int64, error)
}

type AdminHandler struct {
	replayer OutboxReplayer
	logger   *zap.Logger
}

func NewAdminHandler(replayer OutboxReplayer, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{replayer: replayer, logger: logger}
}

// ReplayFailedEvents 把失败的 outbox 事件重新置为 pending
// POST /admin/outbox/replay?limit=100
func (h *AdminHandler) ReplayFailedEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	n, err := h.replayer.ReplayFailed(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to replay failed events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to replay failed events",
			"details": err.Error(),
		})
		return
	}

	h.logger.Info("Replayed failed outbox events", zap.Int64("count", n), zap.Int("limit", limit))
	c.JSON(http.StatusOK, gin.H{
		"status":         "completed",
		"replayed_count": n,
		"limit":          limit,
	})
}
