package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"sql"},
	)

	// 慢查询耗时（秒）
	SlowQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_slow_query_duration_seconds",
			Help:    "Duration of slow queries in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8), // 100ms to ~12s
		},
	)

	// 周报生成结果计数
	ReportCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weekly_report_count",
			Help: "Total number of weekly report attempts by outcome",
		},
		[]string{"outcome"}, // outcome: sent, failed, skipped, error
	)

	// 周报任务执行耗时（秒）
	ReportRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "weekly_report_run_duration_seconds",
			Help:    "Duration of a full weekly report run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~200s
		},
	)

	// 邮件发送延迟（毫秒）
	MailSendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mail_send_latency_ms",
			Help:    "Outbound mail send latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12), // 10ms to ~40s
		},
		[]string{"provider", "status"},
	)

	// 打卡计数
	CheckInCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_checkin_count",
			Help: "Total number of check-in attempts by result",
		},
		[]string{"result"}, // result: created, conflict, not_found, error
	)

	// outbox 事件投递计数
	OutboxPublishedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_event_published_count",
			Help: "Total number of outbox events handled by the dispatcher",
		},
		[]string{"routing_key", "status"},
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementSlowQuery 记录一次慢查询
func IncrementSlowQuery(sql string, duration time.Duration) {
	SlowQueryCount.WithLabelValues(sql).Inc()
	SlowQueryDuration.Observe(duration.Seconds())
}

// IncrementReport 增加周报结果计数
func IncrementReport(outcome string) {
	ReportCount.WithLabelValues(outcome).Inc()
}

// RecordReportRun 记录一次完整周报任务的耗时
func RecordReportRun(duration time.Duration) {
	ReportRunDuration.Observe(duration.Seconds())
}

// RecordMailSend 记录邮件发送延迟
func RecordMailSend(provider, status string, duration time.Duration) {
	MailSendLatency.WithLabelValues(provider, status).Observe(float64(duration.Milliseconds()))
}

// IncrementCheckIn 增加打卡计数
func IncrementCheckIn(result string) {
	CheckInCount.WithLabelValues(result).Inc()
}

// IncrementOutboxPublished 增加 outbox 投递计数
func IncrementOutboxPublished(routingKey, status string) {
	OutboxPublishedCount.WithLabelValues(routingKey, status).Inc()
}
