package breaker

import "github.com/stellarcargo/peercall/xerrors"

var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.Wrap(xerrors.ErrInvalidConfig, "breaker: config is nil")

	// ErrKeyEmpty 依赖名为空
	ErrKeyEmpty = xerrors.New("breaker: dependency is empty")

	// ErrRegistryClosed 注册表已关闭
	ErrRegistryClosed = xerrors.New("breaker: registry is closed")

	// ErrUnknownDependency 依赖尚无熔断器
	ErrUnknownDependency = xerrors.New("breaker: unknown dependency")

	// ErrOpenState 熔断器打开，调用被短路
	ErrOpenState error = &rejectedError{msg: "breaker: circuit breaker is open"}

	// ErrTooManyRequests HALF_OPEN 试探名额已用完，调用被短路
	ErrTooManyRequests error = &rejectedError{msg: "breaker: too many requests in half-open state"}
)

// rejectedError 短路错误，归类为 xerrors.ErrUnavailable
type rejectedError struct {
	msg string
}

func (e *rejectedError) Error() string { return e.msg }

func (e *rejectedError) Unwrap() error { return xerrors.ErrUnavailable }

// IsRejected 判断错误是否为熔断短路
func IsRejected(err error) bool {
	return xerrors.Is(err, ErrOpenState) || xerrors.Is(err, ErrTooManyRequests)
}
