// Package errors provides structured error handling for the application.
// It defines AppError type with error codes for consistent API responses.
package errors

import (
	"errors"
	"fmt"
)

// Error codes organized by category
const (
	// General errors (1000-1099)
	CodeSuccess       = 0
	CodeUnknown       = 1000
	CodeInvalidParams = 1001
	CodeNotFound      = 1002
	CodeUnauthorized  = 1003

	// Subtitle acquisition errors (1100-1199)
	CodeUnsupportedURL    = 1100
	CodeVideoNotFound     = 1101
	CodeSubtitleNotFound  = 1102
	CodeNetwork           = 1103
	CodeCookiesExpired    = 1104
	CodeMalformedResponse = 1105

	// Summary errors (1300-1399)
	CodeLLMFailed        = 1300
	CodeLLMNotConfigured = 1301
	CodeEmptyContent     = 1302

	// Storage errors (1500-1599)
	CodeCacheError     = 1500
	CodeFileNotFound   = 1501
	CodeFileWriteError = 1502
)

// AppError represents a structured application error
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code int, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithDetail wraps an error with additional detail
func WrapWithDetail(code int, message string, detail string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Detail:  detail,
		Cause:   cause,
	}
}

// Is checks if the target error is an AppError with the specified code
func Is(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts error code from error, returns CodeUnknown if not AppError
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetMessage extracts message from error
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// IsNotAvailable reports whether err is one of the soft "no subtitles" outcomes.
// Callers decide exit behavior from this, never from log output.
func IsNotAvailable(err error) bool {
	switch GetCode(err) {
	case CodeUnsupportedURL, CodeVideoNotFound, CodeSubtitleNotFound,
		CodeNetwork, CodeCookiesExpired, CodeMalformedResponse:
		return true
	}
	return false
}

// IsTransient reports whether err came from the network layer and may succeed on retry.
func IsTransient(err error) bool {
	return Is(err, CodeNetwork)
}

// Predefined common errors
var (
	ErrInvalidParams = New(CodeInvalidParams, "参数错误 Invalid parameters")
	ErrNotFound      = New(CodeNotFound, "资源不存在 Resource not found")
	ErrUnauthorized  = New(CodeUnauthorized, "未授权 Unauthorized")

	// Subtitle acquisition
	ErrUnsupportedURL    = New(CodeUnsupportedURL, "不支持的视频平台URL Unsupported platform")
	ErrVideoNotFound     = New(CodeVideoNotFound, "视频信息获取失败 Video info unavailable")
	ErrSubtitleNotFound  = New(CodeSubtitleNotFound, "未找到字幕 Subtitle not found")
	ErrCookiesExpired    = New(CodeCookiesExpired, "Cookies已过期 Cookies expired")
	ErrMalformedResponse = New(CodeMalformedResponse, "响应格式错误 Malformed response")

	// Summary
	ErrLLMFailed        = New(CodeLLMFailed, "调用AI API失败 LLM request failed")
	ErrLLMNotConfigured = New(CodeLLMNotConfigured, "未配置AI API密钥 LLM API key not configured")
	ErrEmptyContent     = New(CodeEmptyContent, "没有可用的字幕内容 No subtitle content")

	// Storage
	ErrCacheError   = New(CodeCacheError, "缓存读写失败 Cache error")
	ErrFileNotFound = New(CodeFileNotFound, "文件不存在 File not found")
)
