package service

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// 错误码
const (
	CodeConfig   = "CONFIG"
	CodeUpstream = "UPSTREAM"
	CodeTooSoon  = "TOO_SOON"
)

// CodedError 带错误码的错误
type CodedError interface {
	error
	Code() string
}

// ==================== ConfigError ====================

// ConfigError 集成配置缺失，在发起任何网络请求之前返回
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not configured, set it on the settings page", e.Field)
}

func (e *ConfigError) Code() string { return CodeConfig }

// ==================== UpstreamError ====================

// UpstreamError 外部系统返回错误或响应格式不符
type UpstreamError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s request failed", e.Provider)
	if e.Status > 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Code() string { return CodeUpstream }

func (e *UpstreamError) Unwrap() error { return e.Err }

// ==================== TooSoonError ====================

// TooSoonError 触发过于频繁
type TooSoonError struct {
	Kind       string
	RetryAfter time.Duration
}

func (e *TooSoonError) Error() string {
	return fmt.Sprintf("%s sync ran recently, retry in %ds", e.Kind, RetryAfterSeconds(e.RetryAfter))
}

func (e *TooSoonError) Code() string { return CodeTooSoon }

// RetryAfterSeconds 向上取整，且至少为 1
func RetryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// ErrorCode 提取错误码，非 CodedError 返回空串
func ErrorCode(err error) string {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

// 截断上游返回内容，避免把整页 HTML 写进日志
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// 回退到字符边界
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
