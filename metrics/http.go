package metrics

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarcargo/peercall/xerrors"
)

const (
	MetricHTTPServerRequestsTotal   = "http_server_requests_total"
	MetricHTTPServerDurationSeconds = "http_server_request_duration_seconds"

	LabelService     = "service"
	LabelMethod      = "method"
	LabelRoute       = "route"
	LabelStatusClass = "status_class"
	LabelOutcome     = "outcome"

	OutcomeSuccess = "success"
	OutcomeError   = "error"

	// UnknownRoute 未命中路由时的标签值，避免把原始 URL 作为高基数标签
	UnknownRoute = "unknown"
)

var defaultHTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// HTTPServerMetrics 入站 HTTP 请求的 RED 指标
type HTTPServerMetrics struct {
	service  string
	requests Counter
	duration Histogram
}

// NewHTTPServerMetrics 创建入站请求指标
func NewHTTPServerMetrics(m Meter, service string) (*HTTPServerMetrics, error) {
	if m == nil {
		return nil, xerrors.New("metrics: meter is nil")
	}
	service = strings.TrimSpace(service)
	if service == "" {
		service = "unknown"
	}

	requests, err := m.Counter(MetricHTTPServerRequestsTotal, "Total number of HTTP requests.")
	if err != nil {
		return nil, xerrors.Wrap(err, "create http request counter")
	}
	duration, err := m.Histogram(MetricHTTPServerDurationSeconds, "HTTP request duration in seconds.",
		WithUnit("s"), WithBuckets(defaultHTTPDurationBuckets))
	if err != nil {
		return nil, xerrors.Wrap(err, "create http request duration histogram")
	}

	return &HTTPServerMetrics{service: service, requests: requests, duration: duration}, nil
}

// Observe 记录一次请求
func (m *HTTPServerMetrics) Observe(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = UnknownRoute
	}
	labels := []Label{
		L(LabelService, m.service),
		L(LabelMethod, strings.ToUpper(method)),
		L(LabelRoute, route),
		L(LabelStatusClass, HTTPStatusClass(status)),
		L(LabelOutcome, HTTPOutcome(status)),
	}
	m.requests.Inc(ctx, labels...)
	m.duration.Record(ctx, elapsed.Seconds(), labels...)
}

// GinHTTPMiddleware 记录入站请求指标的 Gin 中间件
func GinHTTPMiddleware(m *HTTPServerMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.Observe(c.Request.Context(), c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// HTTPStatusClass 返回 1xx..5xx，越界时为 unknown
func HTTPStatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

// HTTPOutcome 2xx/3xx 视为成功
func HTTPOutcome(status int) string {
	if status >= 200 && status < 400 {
		return OutcomeSuccess
	}
	return OutcomeError
}
