// Package xerrors 提供 peercall 的错误分类与包装工具。
//
// 分类哨兵错误（ErrNotFound、ErrUnavailable、ErrInvalidConfig ...）是跨包的约定：
// 各组件定义自己的错误类型并通过 Unwrap 指向哨兵，调用方只需 errors.Is 判断类别。
package xerrors

import (
	"errors"
	"fmt"
)

// 分类哨兵错误
var (
	// ErrNotFound 远端明确报告实体不存在
	ErrNotFound = errors.New("not found")
	// ErrUnavailable 远端无法给出答案：超时、拒绝连接、5xx、熔断短路
	ErrUnavailable = errors.New("unavailable")
	// ErrInvalidConfig 配置非法，服务应拒绝启动
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidInput 调用参数非法
	ErrInvalidInput = errors.New("invalid input")
	// ErrTimeout 调用超过时限
	ErrTimeout = errors.New("timeout")
)

// 机器可读错误码，与哨兵错误一一对应
const (
	CodeNotFound      = "NOT_FOUND"
	CodeUnavailable   = "UNAVAILABLE"
	CodeInvalidConfig = "INVALID_CONFIG"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeTimeout       = "TIMEOUT"
	CodeInternal      = "INTERNAL"
)

// Wrap 添加上下文信息并保留错误链，err 为 nil 时返回 nil
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 与 Wrap 相同，支持格式化
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// CodedError 带错误码的错误
type CodedError struct {
	Code  string
	Cause error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("[%s]", e.Code)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WithCode 为错误附加错误码
func WithCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &CodedError{Code: code, Cause: err}
}

// GetCode 提取错误码
//
// 优先使用链上显式的 CodedError，其次按哨兵错误推导，都不匹配时返回 CodeInternal。
// err 为 nil 时返回空字符串。
func GetCode(err error) string {
	if err == nil {
		return ""
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUnavailable):
		return CodeUnavailable
	case errors.Is(err, ErrInvalidConfig):
		return CodeInvalidConfig
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	default:
		return CodeInternal
	}
}

// Must 在初始化阶段使用，err 不为 nil 时 panic
func Must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("must: %v", err))
	}
	return v
}

// Collector 逐个收集错误，最终合并为一个
type Collector struct {
	errs []error
}

// Collect 记录非 nil 错误
func (c *Collector) Collect(err error) {
	if err != nil {
		c.errs = append(c.errs, err)
	}
}

// Err 返回合并后的错误，没有错误时为 nil
func (c *Collector) Err() error {
	return Combine(c.errs...)
}

// MultiError 多个错误的集合
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	switch len(m.Errors) {
	case 0:
		return "no errors"
	case 1:
		return m.Errors[0].Error()
	default:
		return fmt.Sprintf("%v (and %d more errors)", m.Errors[0], len(m.Errors)-1)
	}
}

func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Combine 合并多个错误，忽略 nil
func Combine(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return &MultiError{Errors: nonNil}
	}
}

// 标准库函数再导出
var (
	New    = errors.New
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)
