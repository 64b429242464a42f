package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode 错误代码类型
type ErrorCode string

const (
	CodeUpstream     ErrorCode = "UPSTREAM_ERROR"      // 上游接口调用失败
	CodeEmptyResult  ErrorCode = "EMPTY_RESULT"        // 上游返回空数据
	CodeMapping      ErrorCode = "MAPPING_ERROR"       // 列映射失败
	CodeCacheIO      ErrorCode = "CACHE_IO_ERROR"      // 缓存读写失败
	CodeInvalidInput ErrorCode = "INVALID_INPUT"       // 请求参数无效
	CodeNoData       ErrorCode = "NO_DATA"             // 所有数据源均无数据
	CodeUnavailable  ErrorCode = "SOURCE_UNAVAILABLE"  // 数据源熔断或不可用
	CodeUnsupported  ErrorCode = "UNSUPPORTED_REQUEST" // 不支持的请求类型
)

// 哨兵错误
var (
	// ErrMissingColumns 上游表格缺少必要的列
	ErrMissingColumns = errors.New("missing required columns")

	// ErrBadRow 行中的必填数值无法解析
	ErrBadRow = errors.New("malformed row")

	// ErrEmptyResult 上游返回空表格
	ErrEmptyResult = errors.New("empty result")

	// ErrNoData 所有数据源都没有返回可用数据
	ErrNoData = errors.New("no data available")

	// ErrUnknownFunction 上游函数名未注册
	ErrUnknownFunction = errors.New("unknown upstream function")

	// ErrCacheMiss 缓存不存在或不可读
	ErrCacheMiss = errors.New("cache miss")
)

// BaseError 带分类代码的错误
type BaseError struct {
	Code      ErrorCode              `json:"code"`              // 错误的分类代码
	Message   string                 `json:"message"`           // 人类可读的错误信息
	Cause     error                  `json:"-"`                 // 导致此错误的原始错误
	Context   map[string]interface{} `json:"context,omitempty"` // 额外的上下文信息
	Timestamp time.Time              `json:"timestamp"`         // 错误发生的时间戳
}

// NewError 创建新的基础错误
func NewError(code ErrorCode, message string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]interface{}),
	}
}

// WrapError 包装现有错误
func WrapError(code ErrorCode, message string, cause error) *BaseError {
	e := NewError(code, message)
	e.Cause = cause
	return e
}

// Error 实现 error 接口
func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap 支持错误包装
func (e *BaseError) Unwrap() error {
	return e.Cause
}

// Is 同一错误代码视为相同错误
func (e *BaseError) Is(target error) bool {
	if t, ok := target.(*BaseError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext 为错误附加一个键值对形式的上下文信息。
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ErrorCode 返回错误代码，嵌入 BaseError 的错误类型也因此带有代码
func (e *BaseError) ErrorCode() ErrorCode {
	return e.Code
}

// CodeOf 取错误链上第一个带代码错误的代码
func CodeOf(err error) (ErrorCode, bool) {
	var coded interface{ ErrorCode() ErrorCode }
	if errors.As(err, &coded) {
		return coded.ErrorCode(), true
	}
	return "", false
}
