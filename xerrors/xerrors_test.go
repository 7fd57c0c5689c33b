package xerrors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestWrap 测试包装保留错误链
func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ctx"))
	assert.Nil(t, Wrapf(nil, "ctx %d", 1))

	err := Wrapf(ErrNotFound, "user %d", 999)
	assert.EqualError(t, err, "user 999: not found")
	assert.True(t, Is(err, ErrNotFound))
}

// TestGetCode 测试错误码提取
func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"explicit code", WithCode(New("bad"), "CUSTOM"), "CUSTOM"},
		{"not found sentinel", Wrap(ErrNotFound, "lookup"), CodeNotFound},
		{"unavailable sentinel", fmt.Errorf("peer: %w", ErrUnavailable), CodeUnavailable},
		{"invalid config", Wrap(ErrInvalidConfig, "breaker"), CodeInvalidConfig},
		{"timeout", ErrTimeout, CodeTimeout},
		{"unknown", New("random"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
		})
	}
	assert.Nil(t, WithCode(nil, "X"))
}

// TestCollector 测试错误收集与合并
func TestCollector(t *testing.T) {
	var c Collector
	assert.NoError(t, c.Err())

	c.Collect(nil)
	c.Collect(ErrInvalidConfig)
	assert.Equal(t, ErrInvalidConfig, c.Err())

	c.Collect(ErrInvalidInput)
	err := c.Err()
	var multi *MultiError
	assert.True(t, As(err, &multi))
	assert.Len(t, multi.Errors, 2)
	assert.True(t, Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "and 1 more errors")
}

// TestMust 测试 Must
func TestMust(t *testing.T) {
	assert.Equal(t, 3, Must(3, nil))
	assert.Panics(t, func() { Must(0, ErrInvalidConfig) })
}
