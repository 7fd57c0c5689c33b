// Package credential 捕获入站请求的 Bearer 凭证，并在请求的工作单元内传递给出站调用。
//
// 两种传递策略对应两种并发风格：
//   - ScopedCarrier：同步阻塞式处理，凭证绑定到请求作用域的槽位，请求结束即清除，
//     被池化复用的 worker 即使持有旧 Context 也读不到凭证
//   - ContextCarrier：异步/响应式处理，凭证作为不可变值跟随 Context 跨 goroutine 流动
//
// 凭证不会被缓存，也不会完整出现在日志中：Credential 实现了 fmt.Stringer、
// fmt.GoStringer 与 slog.LogValuer，输出的都是脱敏后的指纹。
package credential

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"
)

// Scheme Authorization 头使用的方案
const Scheme = "Bearer"

// Credential 不透明的 Bearer 令牌
type Credential struct {
	token string
}

// FromToken 用原始令牌构造凭证
func FromToken(token string) Credential {
	return Credential{token: token}
}

// IsZero 是否为空凭证
func (c Credential) IsZero() bool {
	return c.token == ""
}

// Token 返回原始令牌，只应在写出站 Authorization 头时使用
func (c Credential) Token() string {
	return c.token
}

// Header 返回 Authorization 头的值
func (c Credential) Header() string {
	return Scheme + " " + c.token
}

// Fingerprint 令牌 SHA-256 的前 12 个十六进制字符，用于日志关联
func (c Credential) Fingerprint() string {
	if c.token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(c.token))
	return hex.EncodeToString(sum[:6])
}

// Subject 尽力读取 JWT 的 sub 声明，不校验签名；非 JWT 或无 sub 时返回空串
func (c Credential) Subject() string {
	if c.token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// Redacted 脱敏表示
func (c Credential) Redacted() string {
	if c.token == "" {
		return "<none>"
	}
	return Scheme + " sha256:" + c.Fingerprint()
}

func (c Credential) String() string {
	return c.Redacted()
}

func (c Credential) GoString() string {
	return "credential.Credential{" + c.Redacted() + "}"
}

// LogValue 日志中只输出指纹和（若有）subject
func (c Credential) LogValue() slog.Value {
	if c.token == "" {
		return slog.StringValue("<none>")
	}
	attrs := []slog.Attr{slog.String("fingerprint", c.Fingerprint())}
	if sub := c.Subject(); sub != "" {
		attrs = append(attrs, slog.String("subject", sub))
	}
	return slog.GroupValue(attrs...)
}
