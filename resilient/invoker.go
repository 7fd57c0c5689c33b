package resilient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/stellarcargo/peercall/breaker"
	"github.com/stellarcargo/peercall/clog"
	"github.com/stellarcargo/peercall/trace"
	"github.com/stellarcargo/peercall/xerrors"
)

// Call 一次依赖调用的描述
type Call[T any] struct {
	// Dependency 依赖名，同时是熔断器的键
	Dependency string
	// Operation 操作名，用于日志、指标与 Span
	Operation string
	// Key 被查询的实体标识，仅用于日志与错误信息
	Key string
	// Do 执行远程调用，超时由客户端自身约束
	Do func(ctx context.Context) (T, error)
}

// Invoker 通过熔断器注册表执行依赖调用，可并发使用
type Invoker struct {
	registry breaker.Registry
	logger   clog.Logger
	inst     *instruments
}

// NewInvoker 创建 Invoker
func NewInvoker(registry breaker.Registry, opts ...Option) (*Invoker, error) {
	if registry == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidConfig, "resilient: breaker registry is nil")
	}
	o := applyOptions(opts)
	inst, err := newInstruments(o.meter)
	if err != nil {
		return nil, err
	}
	return &Invoker{registry: registry, logger: o.logger, inst: inst}, nil
}

// Registry 返回底层熔断器注册表
func (inv *Invoker) Registry() breaker.Registry {
	return inv.registry
}

// Invoke 在依赖的熔断器保护下执行一次调用
//
// 熔断器打开时不发起网络请求，直接返回 Unavailable。NotFound 计为健康调用，
// Unavailable 计为失败，调用方自身取消不计入熔断窗口。
func Invoke[T any](ctx context.Context, inv *Invoker, call Call[T]) Outcome[T] {
	start := time.Now()
	ctx, span := trace.StartSpan(ctx, "peercall "+call.Dependency+"."+call.Operation,
		attribute.String("peercall.dependency", call.Dependency),
		attribute.String("peercall.operation", call.Operation),
		attribute.String("peercall.key", call.Key),
	)
	defer span.End()

	out := invoke(ctx, inv, &call)

	span.SetAttributes(attribute.String("peercall.outcome", out.Kind.String()))
	if out.Kind == KindUnavailable {
		span.RecordError(out.Cause)
		span.SetStatus(codes.Error, "dependency unavailable")
	}
	inv.inst.observe(ctx, call.Dependency, call.Operation, out.Kind, time.Since(start))
	inv.log(ctx, call.fields(), out.Kind, out.Cause)
	return out
}

func invoke[T any](ctx context.Context, inv *Invoker, call *Call[T]) Outcome[T] {
	if call.Do == nil {
		return unavailable(call, ErrNoCall)
	}
	b, err := inv.registry.Breaker(call.Dependency)
	if err != nil {
		return unavailable(call, err)
	}

	var value T
	err = b.Execute(ctx, func(ctx context.Context) error {
		v, err := call.Do(ctx)
		if err != nil {
			if Classify(err) == KindNotFound {
				// 以 ErrNotFound 交给熔断器，计为健康调用
				return &NotFoundError{Dependency: call.Dependency, Key: call.Key, Cause: err}
			}
			return err
		}
		value = v
		return nil
	})

	switch Classify(err) {
	case KindSuccess:
		return success(call, value)
	case KindNotFound:
		var nf *NotFoundError
		if xerrors.As(err, &nf) && nf.Cause != nil {
			err = nf.Cause
		}
		return notFound(call, err)
	default:
		return unavailable(call, err)
	}
}

func (inv *Invoker) log(ctx context.Context, fields []clog.Field, kind Kind, cause error) {
	switch kind {
	case KindUnavailable:
		inv.logger.WarnContext(ctx, "dependency unavailable", append(fields, clog.Error(cause))...)
	case KindNotFound:
		inv.logger.DebugContext(ctx, "dependency reported not found", fields...)
	}
}

func (c *Call[T]) fields() []clog.Field {
	return []clog.Field{
		clog.String("dependency", c.Dependency),
		clog.String("operation", c.Operation),
		clog.String("key", c.Key),
	}
}
