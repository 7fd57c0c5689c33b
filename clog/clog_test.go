package clog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level string, opts ...Option) (Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger, err := New(&Config{Level: level, Format: "json"}, append(opts, WithWriter(buf))...)
	require.NoError(t, err)
	return logger, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

// TestNew 测试 Logger 创建与配置校验
func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "valid config", config: &Config{Level: "info", Format: "console", Output: "stdout"}},
		{name: "nil config"},
		{name: "defaults filled", config: &Config{}},
		{name: "invalid level", config: &Config{Level: "verbose"}, wantErr: true},
		{name: "invalid format", config: &Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

// TestLevelFiltering 测试级别过滤与动态调整
func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(t, "warn")

	logger.Info("hidden")
	logger.Warn("shown")
	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
	assert.Equal(t, "WARN", lines[0]["level"])

	buf.Reset()
	require.NoError(t, logger.SetLevel(DebugLevel))
	logger.Debug("now visible")
	lines = decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "DEBUG", lines[0]["level"])
}

// TestFieldsAndNamespace 测试字段、With 与命名空间
func TestFieldsAndNamespace(t *testing.T) {
	logger, buf := newBufferLogger(t, "debug", WithNamespace("peercall"))

	child := logger.WithNamespace("breaker").With(String("dependency", "userService"))
	child.Info("state changed", Int("calls", 3), Error(errors.New("boom")), Error(nil))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "peercall.breaker", lines[0][NamespaceKey])
	assert.Equal(t, "userService", lines[0]["dependency"])
	assert.Equal(t, float64(3), lines[0]["calls"])
	assert.Equal(t, "boom", lines[0]["err_msg"])

	// 父 Logger 不受子 Logger 影响
	buf.Reset()
	logger.Info("parent")
	lines = decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "peercall", lines[0][NamespaceKey])
	assert.NotContains(t, lines[0], "dependency")
}

// TestContextFields 测试 Context 字段提取
func TestContextFields(t *testing.T) {
	type tenantKey struct{}
	logger, buf := newBufferLogger(t, "info", WithStandardContext(), WithContextField(tenantKey{}, "tenant"))

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = context.WithValue(ctx, tenantKey{}, "orbital")
	logger.InfoContext(ctx, "handled")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-1", lines[0]["request_id"])
	assert.Equal(t, "orbital", lines[0]["tenant"])
	assert.NotContains(t, lines[0], "trace_id")
	assert.Equal(t, "req-1", RequestID(ctx))
}

// TestParseLevel 测试级别解析
func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"fatal", FatalLevel, false},
		{"loud", InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantErr, err != nil, tt.in)
	}
	assert.Equal(t, "warn", WarnLevel.String())
}

// TestDiscard 测试静默 Logger
func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Info("nothing")
	assert.NotNil(t, logger.With(String("k", "v")).WithNamespace("x"))
	assert.NoError(t, logger.SetLevel(DebugLevel))
}
