package mq

import "time"

// Routing keys published on the habit.events exchange.
const (
	RoutingCheckInCreated = "checkin.created"
	RoutingReportSent     = "report.sent"
	RoutingReportFailed   = "report.failed"
)

type CheckInCreatedPayload struct {
	CheckInID int64  `json:"checkin_id"`
	HabitID   int64  `json:"habit_id"`
	Date      string `json:"date"`
	TraceID   string `json:"trace_id,omitempty"`
}

type ReportSentPayload struct {
	ReportLogID int64     `json:"report_log_id"`
	UserID      int64     `json:"user_id"`
	WeekStart   string    `json:"week_start"`
	SentAt      time.Time `json:"sent_at"`
	TraceID     string    `json:"trace_id,omitempty"`
}

type ReportFailedPayload struct {
	ReportLogID int64  `json:"report_log_id"`
	UserID      int64  `json:"user_id"`
	WeekStart   string `json:"week_start"`
	Error       string `json:"error"`
	ErrorType   string `json:"error_type"`
	TraceID     string `json:"trace_id,omitempty"`
}

// Event 写入 outbox 的领域事件
type Event interface {
	RoutingKey() string
	AggregateType() string
	AggregateID() int64
}

func (CheckInCreatedPayload) RoutingKey() string    { return RoutingCheckInCreated }
func (CheckInCreatedPayload) AggregateType() string { return "habit" }
func (p CheckInCreatedPayload) AggregateID() int64  { return p.HabitID }

func (ReportSentPayload) RoutingKey() string    { return RoutingReportSent }
func (ReportSentPayload) AggregateType() string { return "report" }
func (p ReportSentPayload) AggregateID() int64  { return p.UserID }

func (ReportFailedPayload) RoutingKey() string    { return RoutingReportFailed }
func (ReportFailedPayload) AggregateType() string { return "report" }
func (p ReportFailedPayload) AggregateID() int64  { return p.UserID }
