package mailer

import (
	"errors"
	"fmt"
	"net/http"
	"net/textproto"
)

// StatusError 邮件服务商返回的非 2xx 响应
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mail provider returned status %d: %s", e.Code, e.Body)
}

// IsRecipientError 只和单个收件人有关的错误（地址非法、被拒收等）
// 这类错误不代表服务商故障，不计入熔断
func IsRecipientError(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
			return false
		}
		return statusErr.Code >= 400 && statusErr.Code < 500
	}

	// RCPT 阶段的 550/551/553 等永久拒收
	var smtpErr *textproto.Error
	if errors.As(err, &smtpErr) {
		switch smtpErr.Code {
		case 550, 551, 552, 553:
			return true
		}
	}
	return false
}
