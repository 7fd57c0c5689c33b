package credential

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/stellarcargo/peercall/xerrors"
)

// Carrier 在一个工作单元内传递凭证
type Carrier interface {
	// Bind 将凭证绑定到 ctx 代表的工作单元，返回的 release 必须在单元结束时调用
	Bind(ctx context.Context, cred Credential) (context.Context, func())

	// From 读取当前工作单元的凭证
	From(ctx context.Context) (Credential, bool)
}

// Mode 传递策略
type Mode string

const (
	ModeScoped  Mode = "scoped"
	ModeContext Mode = "context"
)

// NewCarrier 按策略名创建 Carrier
func NewCarrier(mode Mode) (Carrier, error) {
	switch Mode(strings.ToLower(string(mode))) {
	case ModeScoped, "":
		return ScopedCarrier{}, nil
	case ModeContext:
		return ContextCarrier{}, nil
	default:
		return nil, fmt.Errorf("%w: credential: unknown carrier mode %q", xerrors.ErrInvalidConfig, mode)
	}
}

type valueKey struct{}

// ContextCarrier 把凭证作为不可变值放入 Context
type ContextCarrier struct{}

func (ContextCarrier) Bind(ctx context.Context, cred Credential) (context.Context, func()) {
	return context.WithValue(ctx, valueKey{}, cred), func() {}
}

func (ContextCarrier) From(ctx context.Context) (Credential, bool) {
	cred, ok := ctx.Value(valueKey{}).(Credential)
	if !ok || cred.IsZero() {
		return Credential{}, false
	}
	return cred, true
}

type slotKey struct{}

// slot 请求作用域的可清除槽位
type slot struct {
	cred atomic.Pointer[Credential]
}

// ScopedCarrier 把凭证放入请求作用域的槽位，release 后槽位清空
type ScopedCarrier struct{}

func (ScopedCarrier) Bind(ctx context.Context, cred Credential) (context.Context, func()) {
	s := &slot{}
	s.cred.Store(&cred)
	return context.WithValue(ctx, slotKey{}, s), func() { s.cred.Store(nil) }
}

func (ScopedCarrier) From(ctx context.Context) (Credential, bool) {
	s, ok := ctx.Value(slotKey{}).(*slot)
	if !ok {
		return Credential{}, false
	}
	cred := s.cred.Load()
	if cred == nil || cred.IsZero() {
		return Credential{}, false
	}
	return *cred, true
}
