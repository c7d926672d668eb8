package retry

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusError 非 2xx 的 HTTP 响应
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s api error (status %d): %s", e.Service, e.Code, body)
}

// Transient 判断错误是否值得重试：429、5xx 以及非 HTTP 状态错误（网络错误等）
func Transient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

// RateLimited 判断是否为限流错误
func RateLimited(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "rate limit")
}
