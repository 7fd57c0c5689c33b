// Package metrics 提供基于 OpenTelemetry 的指标接口，通过 Prometheus 暴露。
//
// 组件只依赖 Meter / Counter / Gauge / Histogram 接口，
// 未启用指标时使用 Discard() 返回的空实现。
//
//	meter, _ := metrics.New(&metrics.Config{Enabled: true, ServiceName: "mission-service"})
//	defer meter.Shutdown(ctx)
//	router.GET("/metrics", gin.WrapH(meter.Handler()))
//
//	calls, _ := meter.Counter("breaker_calls_total", "Calls seen by the breaker.")
//	calls.Inc(ctx, metrics.L("dependency", "userService"), metrics.L("result", "success"))
package metrics

import (
	"context"
	"net/http"
)

// Counter 只增不减的累计值
type Counter interface {
	Inc(ctx context.Context, labels ...Label)
	Add(ctx context.Context, val float64, labels ...Label)
}

// Gauge 可任意设置的瞬时值，例如熔断器当前状态
type Gauge interface {
	Set(ctx context.Context, val float64, labels ...Label)
}

// Histogram 分布统计，例如远程调用耗时
type Histogram interface {
	Record(ctx context.Context, val float64, labels ...Label)
}

// Meter 指标工厂
type Meter interface {
	Counter(name, desc string, opts ...MetricOption) (Counter, error)
	Gauge(name, desc string, opts ...MetricOption) (Gauge, error)
	Histogram(name, desc string, opts ...MetricOption) (Histogram, error)

	// Handler 返回 Prometheus 抓取端点，未启用时返回 404 处理器
	Handler() http.Handler

	// Shutdown 刷新并关闭 MeterProvider
	Shutdown(ctx context.Context) error
}

// Label 指标标签，值应保持低基数（依赖名、结果分类，不要放实体 ID）
type Label struct {
	Key   string
	Value string
}

// L 构造 Label
func L(key, value string) Label {
	return Label{Key: key, Value: value}
}

// MetricOption 单个指标的选项
type MetricOption func(*metricOptions)

type metricOptions struct {
	unit    string
	buckets []float64
}

// WithUnit 设置单位，例如 "s"
func WithUnit(unit string) MetricOption {
	return func(o *metricOptions) { o.unit = unit }
}

// WithBuckets 设置直方图桶边界
func WithBuckets(buckets []float64) MetricOption {
	return func(o *metricOptions) { o.buckets = buckets }
}
