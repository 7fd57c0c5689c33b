package credential

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellarcargo/peercall/clog"
)

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: subject})
	s, err := token.SignedString([]byte("test-signing-key-for-credential-tests"))
	require.NoError(t, err)
	return s
}

// TestParse 测试 Authorization 头解析
func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"bearer", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"lowercase scheme", "bearer tok", "tok", true},
		{"surrounding spaces", "  Bearer   tok  ", "tok", true},
		{"missing", "", "", false},
		{"scheme only", "Bearer", "", false},
		{"scheme and space", "Bearer ", "", false},
		{"basic auth", "Basic dXNlcjpwYXNz", "", false},
		{"token with space", "Bearer a b", "", false},
		{"no scheme", "abc.def.ghi", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred, ok := Parse(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, cred.Token())
		})
	}
}

// TestCapture 测试从请求读取凭证
func TestCapture(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := Capture(req)
	assert.False(t, ok)

	req.Header.Set("Authorization", "Bearer token-1")
	cred, ok := Capture(req)
	require.True(t, ok)
	assert.Equal(t, "Bearer token-1", cred.Header())

	_, ok = Capture(nil)
	assert.False(t, ok)
}

// TestRedaction 测试凭证不会以明文出现在格式化输出与日志中
func TestRedaction(t *testing.T) {
	raw := signedToken(t, "commander-42")
	cred := FromToken(raw)

	for _, s := range []string{
		fmt.Sprintf("%v", cred),
		fmt.Sprintf("%+v", cred),
		fmt.Sprintf("%#v", cred),
		fmt.Sprintf("%s", cred),
		cred.Redacted(),
	} {
		assert.NotContains(t, s, raw)
		assert.Contains(t, s, cred.Fingerprint())
	}

	buf := &bytes.Buffer{}
	logger, err := clog.New(&clog.Config{Level: "debug", Format: "json"}, clog.WithWriter(buf))
	require.NoError(t, err)
	logger.Info("outbound call", clog.Any("credential", cred))

	out := buf.String()
	assert.NotContains(t, out, raw)
	assert.Contains(t, out, cred.Fingerprint())
	assert.Contains(t, out, "commander-42")

	assert.Equal(t, "<none>", Credential{}.Redacted())
	assert.Len(t, cred.Fingerprint(), 12)
}

// TestSubject 测试读取未校验的 sub 声明
func TestSubject(t *testing.T) {
	assert.Equal(t, "commander-42", FromToken(signedToken(t, "commander-42")).Subject())
	assert.Empty(t, FromToken("opaque-token").Subject())
	assert.Empty(t, Credential{}.Subject())
}
