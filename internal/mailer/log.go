package mailer

import (
	"context"

	"go.uber.org/zap"

	"habit-tracker/pkg/logger"
)

// LogProvider 只把邮件写到日志，本地开发使用
type LogProvider struct {
	logger *zap.Logger
}

func NewLogProvider(logger *zap.Logger) *LogProvider {
	return &LogProvider{logger: logger}
}

func (p *LogProvider) Name() string { return "log" }

func (p *LogProvider) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.WithTrace(ctx, p.logger).Info("Mail delivered to log",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
