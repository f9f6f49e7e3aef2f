package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"habit-tracker/internal/config"
	"habit-tracker/internal/handler"
	"habit-tracker/internal/httpserver"
	"habit-tracker/internal/mailer"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/scheduler"
	"habit-tracker/internal/service/habit"
	"habit-tracker/internal/service/report"
	"habit-tracker/pkg/db"
	"habit-tracker/pkg/logger"
	"habit-tracker/pkg/mq"
	"habit-tracker/pkg/outbox"
	"habit-tracker/pkg/redis"
	"habit-tracker/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	loc, err := cfg.Report.Location()
	if err != nil {
		log.Fatal("Invalid report timezone", zap.String("timezone", cfg.Report.Timezone), zap.Error(err))
	}

	log.Info("Starting habit-tracker...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("timezone", loc.String()),
		zap.String("schedule", cfg.Report.Schedule),
	)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureSchema(initCtx, dbConn, log); err != nil {
		initCancel()
		log.Fatal("Failed to ensure schema", zap.Error(err))
	}
	initCancel()

	// Redis 锁，未配置时不加锁，由数据库 claim 去重
	var locker report.Locker = noLocker{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		if err := redis.Ping(context.Background(), rdb); err != nil {
			log.Warn("Redis not reachable, report locks will fail open", zap.Error(err))
		}
		hostname, _ := os.Hostname()
		locker = util.NewLocker(rdb, cfg.Report.LockTTL, hostname+":"+uuid.NewString(), log)
	}

	// Outbox + MQ
	outboxRepo := outbox.NewRepository(dbConn)
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	var publisher *mq.Publisher
	var mqCheck httpserver.ConnChecker
	if cfg.MQ.URL != "" {
		publisher, err = mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		defer publisher.Close()
		mqCheck = publisher

		dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log).
			WithInterval(cfg.Outbox.Interval).
			WithBatchSize(cfg.Outbox.BatchSize).
			WithMaxRetries(cfg.Outbox.MaxRetries)
		go dispatcher.Start(rootCtx)
		log.Info("Outbox dispatcher started", zap.Duration("interval", cfg.Outbox.Interval))
	} else {
		log.Warn("MQ url not configured, outbox events stay pending")
	}

	// Repositories
	userRepo := repository.NewUserRepository(dbConn, log)
	habitRepo := repository.NewHabitRepository(dbConn, log)
	checkInRepo := repository.NewCheckInRepository(dbConn, outboxRepo, log)
	reportLogRepo := repository.NewReportLogRepository(dbConn, outboxRepo, log)

	// Services
	habitService := habit.NewService(userRepo, habitRepo, checkInRepo, loc, log)

	mail, err := mailer.New(cfg.Mail, log)
	if err != nil {
		log.Fatal("Failed to init mailer", zap.Error(err))
	}

	generator := report.NewGenerator(habitRepo, checkInRepo, report.NewCalculator(loc))
	job := report.NewJob(
		userRepo,
		generator,
		report.NewGuard(reportLogRepo),
		locker,
		mail,
		report.JobConfig{
			Workers:     cfg.Report.Workers,
			SendTimeout: cfg.Report.SendTimeout,
			SkipEmpty:   cfg.Report.SkipEmpty,
		},
		loc,
		log,
	)

	sched, err := scheduler.New(cfg.Report.Schedule, loc, job, log)
	if err != nil {
		log.Fatal("Failed to init scheduler", zap.Error(err))
	}
	sched.Start()

	// HTTP Server
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	handlers := httpserver.Handlers{
		User:   handler.NewUserHandler(habitService, log),
		Habit:  handler.NewHabitHandler(habitService, log),
		Report: handler.NewReportHandler(job, log),
		Admin:  handler.NewAdminHandler(outboxRepo, log),
	}
	router := httpserver.NewRouter(handlers, log, dbConn, mqCheck)

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("habit-tracker is fully initialized and running",
		zap.String("mail_provider", mail.Provider()),
		zap.Int("report_workers", cfg.Report.Workers),
	)

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down habit-tracker gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// 先停调度，等待正在运行的周报结束
	log.Info("Stopping scheduler...")
	sched.Stop(shutdownCtx)

	log.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	// 停止 outbox 投递
	rootCancel()

	log.Info("habit-tracker shutdown complete")
}

// noLocker 未配置 Redis 时使用
type noLocker struct{}

func (noLocker) Acquire(context.Context, int64, time.Time) bool { return true }
func (noLocker) Release(context.Context, int64, time.Time)      {}
