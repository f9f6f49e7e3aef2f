package model

import "time"

// ReportStatus 周报发送状态；pending 表示已认领但还未得出结果
type ReportStatus string

const (
	ReportStatusPending ReportStatus = "pending"
	ReportStatusSent    ReportStatus = "sent"
	ReportStatusFailed  ReportStatus = "failed"
)

// ReportLog 每个 (user_id, week_start) 至多一条，是周报去重的依据
type ReportLog struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"user_id"`
	WeekStart   Date         `json:"week_start"`
	GeneratedAt time.Time    `json:"generated_at"`
	Status      ReportStatus `json:"status"`
}
