package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqcontracts "habit-tracker/contracts/mq"
	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/pkg/trace"
	"habit-tracker/pkg/util"
)

// ReportLogStore 周报记录的持久化，(user_id, week_start) 有唯一索引
type ReportLogStore interface {
	Exists(ctx context.Context, userID int64, weekStart model.Date) (bool, error)
	Claim(ctx context.Context, userID int64, weekStart model.Date, at time.Time) (*model.ReportLog, error)
	Finalize(ctx context.Context, l *model.ReportLog, status model.ReportStatus, ev mqcontracts.Event) error
	Abandon(ctx context.Context, l *model.ReportLog) error
}

// Guard 保证每个 (user, week) 至多生成并发送一次周报
//
// 状态流转：NONE -> pending（Claim）-> sent | failed（Record），终态不再变化。
// 失败的记录不会自动重试；没有发出的占位可以 Abandon 回到 NONE。
type Guard struct {
	store ReportLogStore
	now   func() time.Time
}

func NewGuard(store ReportLogStore) *Guard {
	return &Guard{store: store, now: time.Now}
}

// ShouldGenerate 已有任何状态的记录时返回 false
func (g *Guard) ShouldGenerate(ctx context.Context, userID int64, weekStart model.Date) (bool, error) {
	exists, err := g.store.Exists(ctx, userID, weekStart)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// Claim 在发送前占位；claimed 为 false 表示已被其他运行抢先
func (g *Guard) Claim(ctx context.Context, userID int64, weekStart model.Date) (*model.ReportLog, bool, error) {
	l, err := g.store.Claim(ctx, userID, weekStart, g.now().UTC())
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return l, true, nil
}

// Record 写入发送结果；sendErr 非 nil 时状态为 failed
func (g *Guard) Record(ctx context.Context, claim *model.ReportLog, sendErr error) (model.ReportStatus, error) {
	if claim == nil || claim.Status != model.ReportStatusPending {
		return "", fmt.Errorf("record report: %w", repository.ErrNotPending)
	}

	week := claim.WeekStart.String()
	traceID := trace.FromContext(ctx)

	if sendErr != nil {
		_, errType := util.ClassifyError(sendErr)
		payload := mqcontracts.ReportFailedPayload{
			ReportLogID: claim.ID,
			UserID:      claim.UserID,
			WeekStart:   week,
			Error:       sendErr.Error(),
			ErrorType:   errType,
			TraceID:     traceID,
		}
		err := g.store.Finalize(ctx, claim, model.ReportStatusFailed, payload)
		return model.ReportStatusFailed, err
	}

	payload := mqcontracts.ReportSentPayload{
		ReportLogID: claim.ID,
		UserID:      claim.UserID,
		WeekStart:   week,
		SentAt:      g.now().UTC(),
		TraceID:     traceID,
	}
	err := g.store.Finalize(ctx, claim, model.ReportStatusSent, payload)
	return model.ReportStatusSent, err
}

// Abandon 释放没有尝试发送的占位，下次运行会重新生成
func (g *Guard) Abandon(ctx context.Context, claim *model.ReportLog) error {
	if claim == nil || claim.Status != model.ReportStatusPending {
		return fmt.Errorf("abandon report: %w", repository.ErrNotPending)
	}
	return g.store.Abandon(ctx, claim)
}
