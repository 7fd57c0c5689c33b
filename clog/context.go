package clog

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type requestIDKey struct{}

// traceIDKey 是一个伪键，命中时从 Span 上下文读取 TraceID
type traceIDKey struct{}

// WithRequestID 将请求 ID 写入 Context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID 从 Context 中读取请求 ID
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// extractContextFields 按规则提取 Context 字段并追加到 attrs
func extractContextFields(ctx context.Context, o *options, attrs *[]slog.Attr) {
	if ctx == nil || len(o.contextFields) == 0 {
		return
	}
	for _, cf := range o.contextFields {
		if _, ok := cf.Key.(traceIDKey); ok {
			if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
				*attrs = append(*attrs, slog.String(cf.FieldName, sc.TraceID().String()))
			}
			continue
		}
		if val := ctx.Value(cf.Key); val != nil {
			*attrs = append(*attrs, slog.Any(cf.FieldName, val))
		}
	}
}

func addNamespaceField(o *options, attrs *[]slog.Attr) {
	if len(o.namespaceParts) == 0 {
		return
	}
	*attrs = append(*attrs, slog.String(NamespaceKey, strings.Join(o.namespaceParts, ".")))
}
