package credential

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stellarcargo/peercall/clog"
)

// Option 中间件选项
type Option func(*options)

type options struct {
	logger clog.Logger
}

// WithLogger 设置 Logger，自动追加 "credential" 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("credential")
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

// GinMiddleware 捕获入站凭证并在请求处理期间绑定，处理结束（包括 panic）后释放
//
// 没有凭证的请求照常放行，出站调用不带 Authorization 头。
func GinMiddleware(carrier Carrier, opts ...Option) gin.HandlerFunc {
	o := applyOptions(opts)
	return func(c *gin.Context) {
		cred, ok := Capture(c.Request)
		if !ok {
			c.Next()
			return
		}

		ctx, release := carrier.Bind(c.Request.Context(), cred)
		defer release()
		c.Request = c.Request.WithContext(ctx)

		o.logger.DebugContext(ctx, "credential bound", clog.Any("credential", cred))
		c.Next()
	}
}

// Middleware net/http 版本
func Middleware(carrier Carrier, opts ...Option) func(http.Handler) http.Handler {
	o := applyOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred, ok := Capture(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, release := carrier.Bind(r.Context(), cred)
			defer release()

			o.logger.DebugContext(ctx, "credential bound", clog.Any("credential", cred))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
