// Package model 定义领域模型与自定义错误类型
package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode 错误代码类型
type ErrorCode string

// 预定义错误代码
const (
	// 通用错误
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeDuplicate    ErrorCode = "DUPLICATE_DOCUMENT"

	// 基础设施错误：可降级，不中断流程
	ErrCodeTransientInfra ErrorCode = "TRANSIENT_INFRA"

	// 解析/抽取错误：对该文档终态，仅可通过显式reparse重试
	ErrCodeExtraction ErrorCode = "EXTRACTION_FAILURE"

	// 取消：必须收敛到error状态，不允许悬挂在parsing
	ErrCodeCancelled ErrorCode = "CANCELLATION_REQUESTED"

	// 状态机错误
	ErrCodeInvalidTransition ErrorCode = "INVALID_STATUS_TRANSITION"
)

// BaseError 基础错误结构
type BaseError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Error 实现error接口
func (e *BaseError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// GetCode 获取错误代码
func (e *BaseError) GetCode() ErrorCode {
	return e.Code
}

// InfraError 基础设施错误（broker/store不可达等）
type InfraError struct {
	BaseError
	Component string `json:"component"`
	Operation string `json:"operation"`
	Cause     error  `json:"cause,omitempty"`
}

// NewInfraError 创建基础设施错误
func NewInfraError(component, operation, message string, cause error) *InfraError {
	return &InfraError{
		BaseError: BaseError{
			Code:      ErrCodeTransientInfra,
			Message:   message,
			Timestamp: time.Now(),
		},
		Component: component,
		Operation: operation,
		Cause:     cause,
	}
}

// Error 实现error接口
func (e *InfraError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s.%s失败: %s (原因: %v)",
			e.Code, e.Component, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s.%s失败: %s", e.Code, e.Component, e.Operation, e.Message)
}

// Unwrap 返回原始错误
func (e *InfraError) Unwrap() error {
	return e.Cause
}

// ExtractionError 抽取错误（文档或职位文本不可用）
type ExtractionError struct {
	BaseError
	DocumentID string `json:"document_id,omitempty"`
	Cause      error  `json:"cause,omitempty"`
}

// NewExtractionError 创建抽取错误
func NewExtractionError(documentID, message string, cause error) *ExtractionError {
	return &ExtractionError{
		BaseError: BaseError{
			Code:      ErrCodeExtraction,
			Message:   message,
			Timestamp: time.Now(),
		},
		DocumentID: documentID,
		Cause:      cause,
	}
}

// Error 实现error接口
func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] 文档'%s'抽取失败: %s (原因: %v)",
			e.Code, e.DocumentID, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] 文档'%s'抽取失败: %s", e.Code, e.DocumentID, e.Message)
}

// Unwrap 返回原始错误
func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// CancellationError 取消错误
type CancellationError struct {
	BaseError
	DocumentID string `json:"document_id,omitempty"`
}

// NewCancellationError 创建取消错误
func NewCancellationError(documentID, message string) *CancellationError {
	return &CancellationError{
		BaseError: BaseError{
			Code:      ErrCodeCancelled,
			Message:   message,
			Timestamp: time.Now(),
		},
		DocumentID: documentID,
	}
}

// TransitionError 状态机迁移错误
type TransitionError struct {
	BaseError
	From DocumentStatus `json:"from"`
	To   DocumentStatus `json:"to"`
}

// NewTransitionError 创建状态机迁移错误
func NewTransitionError(from, to DocumentStatus) *TransitionError {
	return &TransitionError{
		BaseError: BaseError{
			Code:      ErrCodeInvalidTransition,
			Message:   "不允许的状态迁移",
			Timestamp: time.Now(),
		},
		From: from,
		To:   to,
	}
}

// Error 实现error接口
func (e *TransitionError) Error() string {
	return fmt.Sprintf("[%s] %s: %s -> %s", e.Code, e.Message, e.From, e.To)
}

// NewInvalidInputError 创建输入校验错误（在任何外部调用之前拒绝）
func NewInvalidInputError(message string) error {
	return &BaseError{
		Code:      ErrCodeInvalidInput,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewNotFoundError 创建未找到错误
func NewNotFoundError(message string) error {
	return &BaseError{
		Code:      ErrCodeNotFound,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewDuplicateError 创建重复文档错误（content_hash命中）
func NewDuplicateError(existingID string) error {
	return &BaseError{
		Code:      ErrCodeDuplicate,
		Message:   "字节级相同的文档已存在",
		Details:   existingID,
		Timestamp: time.Now(),
	}
}

// IsErrorType 检查错误是否为指定类型
func IsErrorType(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	type coder interface {
		GetCode() ErrorCode
	}

	var c coder
	if errors.As(err, &c) {
		return c.GetCode() == code
	}

	return false
}
