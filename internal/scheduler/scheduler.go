package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"habit-tracker/internal/service/report"
	"habit-tracker/pkg/trace"
)

// Runner 周报任务
type Runner interface {
	Run(ctx context.Context) (*report.Summary, error)
}

// Scheduler 按 cron 表达式触发周报任务，上一次还没跑完时跳过本次
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

func New(schedule string, loc *time.Location, runner Runner, logger *zap.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   c,
		runner: runner,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}

	if _, err := c.AddFunc(schedule, s.runOnce); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid report schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) runOnce() {
	ctx := trace.WithContext(s.ctx, trace.GenerateTraceID())
	log := s.logger.With(zap.String("trace_id", trace.FromContext(ctx)))

	log.Info("Scheduled weekly report triggered")
	summary, err := s.runner.Run(ctx)
	if err != nil {
		log.Error("Scheduled weekly report failed", zap.Error(err))
		return
	}
	log.Info("Scheduled weekly report finished",
		zap.String("week_start", summary.WeekStart.String()),
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed),
	)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Info("Weekly report scheduled", zap.Time("next_run", e.Next))
	}
}

// Stop 停止调度并等待正在运行的任务结束；ctx 到期时取消任务
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Weekly report still running at shutdown, cancelling")
		s.cancel()
		<-done
	}
	s.cancel()
}

// cronLogger 把 cron 的日志接到 zap
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
