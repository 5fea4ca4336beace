package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the coordination core.
type ErrorCode string

const (
	// ErrConfiguration 构造期错误：未知 Agent 名、数量超限等（不可恢复）
	ErrConfiguration ErrorCode = "CONFIGURATION"
	// ErrAgentExecution 单个 Agent 运行失败（可恢复，局部）
	ErrAgentExecution ErrorCode = "AGENT_EXECUTION"
	// ErrEvaluationUnavailable 缺少 Evaluator 时的降级模式
	ErrEvaluationUnavailable ErrorCode = "EVALUATION_UNAVAILABLE"
	// ErrPersistenceFailure 记忆持久化读写失败（记录日志后忽略）
	ErrPersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"
	// ErrEmptyInput 空任务/内容/查询的退化输入
	ErrEmptyInput ErrorCode = "EMPTY_INPUT"
)

// Error represents a structured error with code, message, and cause.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
