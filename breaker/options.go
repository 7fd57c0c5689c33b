package breaker

import (
	"context"
	"errors"

	"github.com/stellarcargo/peercall/clog"
	"github.com/stellarcargo/peercall/metrics"
	"github.com/stellarcargo/peercall/xerrors"
)

// Option 注册表选项
type Option func(*options)

type options struct {
	logger       clog.Logger
	meter        metrics.Meter
	isSuccessful func(err error) bool
	isExcluded   func(err error) bool
}

// WithLogger 设置 Logger，自动追加 "breaker" 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("breaker")
		}
	}
}

// WithMeter 设置指标 Meter
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		if meter != nil {
			o.meter = meter
		}
	}
}

// WithSuccessClassifier 自定义健康判定，返回 true 的错误计为成功
//
// 默认：nil 或 xerrors.ErrNotFound（对端正常回答了"不存在"）。
func WithSuccessClassifier(fn func(err error) bool) Option {
	return func(o *options) {
		if fn != nil {
			o.isSuccessful = fn
		}
	}
}

// WithExclusionClassifier 自定义排除判定，返回 true 的结果既不计成功也不计失败
//
// 默认：调用方自己取消（context.Canceled）。
func WithExclusionClassifier(fn func(err error) bool) Option {
	return func(o *options) {
		if fn != nil {
			o.isExcluded = fn
		}
	}
}

// DefaultSuccessClassifier 默认健康判定
func DefaultSuccessClassifier(err error) bool {
	return err == nil || errors.Is(err, xerrors.ErrNotFound)
}

// DefaultExclusionClassifier 默认排除判定
func DefaultExclusionClassifier(err error) bool {
	return errors.Is(err, context.Canceled)
}

func applyOptions(opts ...Option) *options {
	o := &options{
		logger:       clog.Discard(),
		meter:        metrics.Discard(),
		isSuccessful: DefaultSuccessClassifier,
		isExcluded:   DefaultExclusionClassifier,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
