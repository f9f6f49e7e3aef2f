package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"habit-tracker/internal/model"
	"habit-tracker/pkg/circuitbreaker"
	"habit-tracker/pkg/logger"
	"habit-tracker/pkg/metrics"
)

// UserLister 列出需要发送周报的用户
type UserLister interface {
	ListAll(ctx context.Context) ([]model.User, error)
}

// Locker 同一 (user, week) 的进程间互斥
type Locker interface {
	Acquire(ctx context.Context, userID int64, weekStart time.Time) bool
	Release(ctx context.Context, userID int64, weekStart time.Time)
}

// Dispatcher 发送周报邮件；Ready 为 false 表示通道暂不可用（熔断打开）
type Dispatcher interface {
	Ready() bool
	Send(ctx context.Context, to, subject, body string) error
}

type JobConfig struct {
	Workers     int
	SendTimeout time.Duration
	// SkipEmpty 为 true 时没有任何习惯计入的用户不发送也不记录
	SkipEmpty bool
}

type outcome string

const (
	outcomeSent    outcome = "sent"
	outcomeFailed  outcome = "failed"
	outcomeSkipped outcome = "skipped"
	outcomeError   outcome = "error"
)

// Summary 一次周报任务的结果
type Summary struct {
	WeekStart model.Date `json:"week_start"`
	Users     int        `json:"users"`
	Sent      int        `json:"sent"`
	Failed    int        `json:"failed"`
	Skipped   int        `json:"skipped"`
	Errors    int        `json:"errors"`
}

func (s *Summary) add(o outcome) {
	switch o {
	case outcomeSent:
		s.Sent++
	case outcomeFailed:
		s.Failed++
	case outcomeSkipped:
		s.Skipped++
	case outcomeError:
		s.Errors++
	}
}

// Job 为所有用户生成并发送周报，每个用户相互独立
type Job struct {
	users     UserLister
	generator *Generator
	guard     *Guard
	locker    Locker
	mailer    Dispatcher
	cfg       JobConfig
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

func NewJob(
	users UserLister,
	generator *Generator,
	guard *Guard,
	locker Locker,
	mailer Dispatcher,
	cfg JobConfig,
	loc *time.Location,
	logger *zap.Logger,
) *Job {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if loc == nil {
		loc = time.Local
	}
	return &Job{
		users:     users,
		generator: generator,
		guard:     guard,
		locker:    locker,
		mailer:    mailer,
		cfg:       cfg,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// Run 生成本周（今天所在周）的周报
func (j *Job) Run(ctx context.Context) (*Summary, error) {
	return j.RunFor(ctx, model.DateIn(j.now(), j.loc))
}

// RunFor 以 today 为基准生成其所在周的周报
func (j *Job) RunFor(ctx context.Context, today model.Date) (*Summary, error) {
	start := time.Now()
	defer func() { metrics.RecordReportRun(time.Since(start)) }()

	weekStart := WeekStart(today)
	log := logger.WithTrace(ctx, j.logger).With(zap.String("week_start", weekStart.String()))

	users, err := j.users.ListAll(ctx)
	if err != nil {
		log.Error("Failed to list users for weekly report", zap.Error(err))
		return nil, fmt.Errorf("list users: %w", err)
	}

	log.Info("Weekly report run started",
		zap.Int("users", len(users)),
		zap.Int("workers", j.cfg.Workers),
		zap.String("today", today.String()),
	)

	summary := &Summary{WeekStart: weekStart, Users: len(users)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(j.cfg.Workers)
	for _, user := range users {
		if ctx.Err() != nil {
			log.Warn("Weekly report run cancelled", zap.Error(ctx.Err()))
			break
		}
		user := user
		g.Go(func() error {
			o := j.processUser(ctx, user, weekStart, today)
			metrics.IncrementReport(string(o))

			mu.Lock()
			summary.add(o)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	log.Info("Weekly report run completed",
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Errors),
		zap.Duration("took", time.Since(start)),
	)
	return summary, nil
}

// processUser 处理单个用户；任何错误都只影响该用户
func (j *Job) processUser(ctx context.Context, user model.User, weekStart, today model.Date) (o outcome) {
	log := logger.WithTrace(ctx, j.logger).With(
		zap.Int64("user_id", user.ID),
		zap.String("week_start", weekStart.String()),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Weekly report panic recovered", zap.Any("panic", r))
			o = outcomeError
		}
	}()

	if !j.locker.Acquire(ctx, user.ID, weekStart.Time) {
		return outcomeSkipped
	}
	defer j.locker.Release(context.WithoutCancel(ctx), user.ID, weekStart.Time)

	ok, err := j.guard.ShouldGenerate(ctx, user.ID, weekStart)
	if err != nil {
		log.Error("Failed to check report log", zap.Error(err))
		return outcomeError
	}
	if !ok {
		log.Debug("Report already generated for this week")
		return outcomeSkipped
	}

	report, err := j.generator.Generate(ctx, user, weekStart, today)
	if err != nil {
		log.Error("Failed to generate weekly report", zap.Error(err))
		return outcomeError
	}
	if report.Empty && j.cfg.SkipEmpty {
		log.Info("No habits in report window, skipping")
		return outcomeSkipped
	}

	// 通道不可用时不占位，留给下次运行
	if !j.mailer.Ready() {
		log.Warn("Mail dispatcher unavailable, deferring report")
		return outcomeSkipped
	}

	claim, claimed, err := j.guard.Claim(ctx, user.ID, weekStart)
	if err != nil {
		log.Error("Failed to claim report log", zap.Error(err))
		return outcomeError
	}
	if !claimed {
		log.Info("Report claimed by another run, skipping")
		return outcomeSkipped
	}

	sendCtx, cancel := context.WithTimeout(ctx, j.cfg.SendTimeout)
	sendErr := j.mailer.Send(sendCtx, user.Email, report.Subject, report.Body)
	cancel()
	if errors.Is(sendErr, circuitbreaker.ErrCircuitBreakerOpen) {
		// 没有真正发出，释放占位
		if err := j.guard.Abandon(context.WithoutCancel(ctx), claim); err != nil {
			log.Error("Failed to release report claim, log left pending",
				zap.Int64("report_log_id", claim.ID),
				zap.Error(err),
			)
			return outcomeError
		}
		log.Warn("Mail circuit breaker open, deferring report")
		return outcomeSkipped
	}
	if sendErr != nil {
		log.Warn("Failed to send weekly report",
			zap.String("email", user.Email),
			zap.Error(sendErr),
		)
	}

	// 发送已完成，用不受取消影响的 ctx 落库
	status, err := j.guard.Record(context.WithoutCancel(ctx), claim, sendErr)
	if err != nil {
		log.Error("Failed to record report status, log left pending",
			zap.Int64("report_log_id", claim.ID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return outcomeError
	}

	log.Info("Weekly report processed",
		zap.String("status", string(status)),
		zap.Int("habits", len(report.Habits)),
	)
	if status == model.ReportStatusSent {
		return outcomeSent
	}
	return outcomeFailed
}
