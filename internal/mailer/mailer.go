package mailer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"habit-tracker/pkg/circuitbreaker"
	"habit-tracker/pkg/config"
	"habit-tracker/pkg/logger"
	"habit-tracker/pkg/metrics"
)

// Provider 具体的邮件发送通道
type Provider interface {
	Name() string
	Send(ctx context.Context, to, subject, body string) error
}

// Mailer 在 Provider 外面加熔断和指标
type Mailer struct {
	provider Provider
	breaker  *circuitbreaker.CircuitBreaker
	logger   *zap.Logger
}

func NewMailer(provider Provider, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *Mailer {
	return &Mailer{
		provider: provider,
		breaker:  breaker,
		logger:   logger,
	}
}

// New 根据配置选择 provider：smtp / sendgrid / log
func New(cfg config.MailConfig, logger *zap.Logger) (*Mailer, error) {
	var provider Provider
	switch cfg.Provider {
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("mail.smtp_host is required for smtp provider")
		}
		provider = NewSMTPProvider(cfg)
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("mail.sendgrid_api_key is required for sendgrid provider")
		}
		provider = NewSendGridProvider(cfg)
	case "", "log":
		provider = NewLogProvider(logger)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}

	breakerCfg := circuitbreaker.DefaultConfig()
	breakerCfg.OnStateChange = func(from, to circuitbreaker.State) {
		logger.Warn("Mail circuit breaker state changed",
			zap.String("provider", provider.Name()),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	return NewMailer(provider, circuitbreaker.NewCircuitBreaker(breakerCfg), logger), nil
}

func (m *Mailer) Provider() string {
	return m.provider.Name()
}

// Ready 熔断打开时返回 false，调用方应推迟发送
func (m *Mailer) Ready() bool {
	return m.breaker.Ready()
}

// Send 发送纯文本邮件；熔断打开时直接返回 circuitbreaker.ErrCircuitBreakerOpen
// 收件人相关的错误照常返回，但不计入熔断
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	start := time.Now()
	var sendErr error
	err := m.breaker.Execute(func() error {
		sendErr = m.provider.Send(ctx, to, subject, body)
		if IsRecipientError(sendErr) {
			return nil
		}
		return sendErr
	})
	if err == nil {
		err = sendErr
	}

	status := "success"
	if err != nil {
		status = "error"
		logger.WithTrace(ctx, m.logger).Warn("Mail send failed",
			zap.String("provider", m.provider.Name()),
			zap.String("to", to),
			zap.Error(err),
		)
	}
	metrics.RecordMailSend(m.provider.Name(), status, time.Since(start))
	return err
}
