package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"habit-tracker/internal/service/habit"
)

// statusFor 业务错误到 HTTP 状态码的映射
func statusFor(err error) int {
	switch {
	case errors.Is(err, habit.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, habit.ErrConflict), errors.Is(err, habit.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
