package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"habit-tracker/internal/handler"
	"habit-tracker/pkg/metrics"
	"habit-tracker/pkg/trace"
)

// Pinger 数据库就绪检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnChecker MQ 连接检查，未启用 MQ 时为 nil
type ConnChecker interface {
	IsConnected() bool
}

type Handlers struct {
	User   *handler.UserHandler
	Habit  *handler.HabitHandler
	Report *handler.ReportHandler
	// Admin 未启用 outbox 时为 nil
	Admin *handler.AdminHandler
}

func NewRouter(h Handlers, logger *zap.Logger, db Pinger, mq ConnChecker) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(RequestLogger(logger))
	r.Use(MetricsMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Hello, Habit Tracker"})
	})

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		if mq != nil && !mq.IsConnected() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "mq_not_ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/users", h.User.CreateUser)
	r.POST("/habits", h.Habit.CreateHabit)
	r.POST("/habits/:id/check-in", h.Habit.CheckIn)
	r.GET("/habits/:id/stats", h.Habit.Stats)
	r.POST("/reports/test", h.Report.TriggerWeekly)

	if h.Admin != nil {
		admin := r.Group("/admin")
		admin.POST("/outbox/replay", h.Admin.ReplayFailedEvents)
	}

	return r
}

// TraceMiddleware 读取或生成 X-Trace-ID，写入 request context 和响应头
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(trace.HeaderName())
		if traceID == "" {
			traceID = trace.GenerateTraceID()
		}
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName(), traceID)
		c.Next()
	}
}

// RequestLogger 请求日志中间件
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("trace_id", trace.FromContext(c.Request.Context())),
		)
	}
}

// MetricsMiddleware 按路由模板统计请求耗时，避免 path 参数造成高基数
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
