// Package resilient 在熔断保护下调用依赖服务，并把结果归为三类：
// Success、NotFound、Unavailable。
//
// 每次调用只尝试一次，不重试。归类只在 Classify 中完成，调用方只处理 Outcome，
// 或通过 fallback.go 中的 Exists / Lookup 得到最终结果：
//
//	out := resilient.Invoke(ctx, inv, resilient.Call[bool]{
//		Dependency: "userService",
//		Operation:  "userExists",
//		Key:        "42",
//		Do: func(ctx context.Context) (bool, error) {
//			return users.UserExists(ctx, 42)
//		},
//	})
//	ok := resilient.Exists(out)
package resilient

// Kind 调用结果类别
type Kind int

const (
	// KindSuccess 对端给出了答案
	KindSuccess Kind = iota
	// KindNotFound 对端明确报告实体不存在，属于健康调用
	KindNotFound
	// KindUnavailable 无法得到答案：超时、拒绝连接、5xx、熔断短路
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Outcome 一次调用的结果，Kind 之外的字段按类别填充
type Outcome[T any] struct {
	Kind       Kind
	Value      T
	Cause      error
	Dependency string
	Key        string
}

// Ok 是否为 Success
func (o Outcome[T]) Ok() bool {
	return o.Kind == KindSuccess
}

// Err 以错误形式返回结果：Success 为 nil，NotFound 为 *NotFoundError，
// Unavailable 为 *UnavailableError
func (o Outcome[T]) Err() error {
	switch o.Kind {
	case KindSuccess:
		return nil
	case KindNotFound:
		return &NotFoundError{Dependency: o.Dependency, Key: o.Key, Cause: o.Cause}
	default:
		return &UnavailableError{Dependency: o.Dependency, Key: o.Key, Cause: o.Cause}
	}
}

func success[T any](call *Call[T], v T) Outcome[T] {
	return Outcome[T]{Kind: KindSuccess, Value: v, Dependency: call.Dependency, Key: call.Key}
}

func notFound[T any](call *Call[T], cause error) Outcome[T] {
	return Outcome[T]{Kind: KindNotFound, Cause: cause, Dependency: call.Dependency, Key: call.Key}
}

func unavailable[T any](call *Call[T], cause error) Outcome[T] {
	return Outcome[T]{Kind: KindUnavailable, Cause: cause, Dependency: call.Dependency, Key: call.Key}
}
