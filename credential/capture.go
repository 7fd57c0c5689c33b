package credential

import (
	"net/http"
	"strings"
)

// Capture 从 Authorization 头读取 Bearer 凭证
//
// 头缺失、方案不是 Bearer（不区分大小写）或令牌为空/含空白时返回 false，不视为错误。
func Capture(r *http.Request) (Credential, bool) {
	if r == nil {
		return Credential{}, false
	}
	return Parse(r.Header.Get("Authorization"))
}

// Parse 解析 Authorization 头的值
func Parse(header string) (Credential, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, Scheme) {
		return Credential{}, false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t\r\n") {
		return Credential{}, false
	}
	return FromToken(token), true
}
