package resilient

import "context"

// Exists 存在性校验的降级：只有 Success(true) 为 true，
// NotFound 与 Unavailable 一律为 false（fail closed）
func Exists(o Outcome[bool]) bool {
	return o.Kind == KindSuccess && o.Value
}

// Lookup 展示型查询的降级：Success 返回值；Unavailable 返回 placeholder，
// 从不返回错误；NotFound 返回 *NotFoundError
func Lookup[T any](o Outcome[T], placeholder T) (T, error) {
	switch o.Kind {
	case KindSuccess:
		return o.Value, nil
	case KindNotFound:
		var zero T
		return zero, &NotFoundError{Dependency: o.Dependency, Key: o.Key, Cause: o.Cause}
	default:
		return placeholder, nil
	}
}

// Check Invoke 加 Exists
func Check(ctx context.Context, inv *Invoker, call Call[bool]) bool {
	return Exists(Invoke(ctx, inv, call))
}

// Enrich Invoke 加 Lookup
func Enrich[T any](ctx context.Context, inv *Invoker, call Call[T], placeholder T) (T, error) {
	return Lookup(Invoke(ctx, inv, call), placeholder)
}
