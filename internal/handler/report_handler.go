package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habit-tracker/internal/service/report"
	"habit-tracker/pkg/logger"
)

type ReportRunner interface {
	Run(ctx context.Context) (*report.Summary, error)
}

type ReportHandler struct {
	runner ReportRunner
	logger *zap.Logger
}

func NewReportHandler(runner ReportRunner, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{runner: runner, logger: logger}
}

// TriggerWeekly POST /reports/test 同步执行一次周报任务
// 失败时同样返回 200，错误放在 body 里
func (h *ReportHandler) TriggerWeekly(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)
	log.Info("Manual weekly report triggered", zap.String("client_ip", c.ClientIP()))

	summary, err := h.runner.Run(c.Request.Context())
	if err != nil {
		log.Error("Manual weekly report failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Weekly reports sent successfully.",
		"summary": summary,
	})
}
