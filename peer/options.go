package peer

import (
	"net/http"

	"github.com/stellarcargo/peercall/clog"
	"github.com/stellarcargo/peercall/credential"
)

// Option 客户端选项
type Option func(*options)

type options struct {
	transport http.RoundTripper
	carrier   credential.Carrier
	logger    clog.Logger
}

// WithTransport 替换底层 RoundTripper，外层仍会包一层 otelhttp
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithCarrier 设置凭证来源，须与入站中间件使用同一个 Carrier；未设置时不带 Authorization
func WithCarrier(carrier credential.Carrier) Option {
	return func(o *options) {
		o.carrier = carrier
	}
}

// WithLogger 设置 Logger，自动追加 "peer" 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("peer")
		}
	}
}

func applyOptions(opts []Option) *options {
	o := &options{logger: clog.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
