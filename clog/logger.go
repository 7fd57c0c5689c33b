package clog

import "context"

// Logger 结构化日志接口
//
// 每个级别都有带 Context 与不带 Context 的版本，带 Context 的版本会
// 按 WithContextField 配置的规则提取关联字段。
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	DebugContext(ctx context.Context, msg string, fields ...Field)
	InfoContext(ctx context.Context, msg string, fields ...Field)
	WarnContext(ctx context.Context, msg string, fields ...Field)
	ErrorContext(ctx context.Context, msg string, fields ...Field)
	FatalContext(ctx context.Context, msg string, fields ...Field)

	// With 创建带预设字段的子 Logger
	With(fields ...Field) Logger

	// WithNamespace 追加命名空间，例如 "peercall" + "breaker" => "peercall.breaker"
	WithNamespace(parts ...string) Logger

	// SetLevel 运行时调整级别，对同源派生的子 Logger 同样生效
	SetLevel(level Level) error

	// Flush 同步输出目标（文件输出时调用 Sync）
	Flush()
}
