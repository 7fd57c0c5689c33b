// Package clog 提供基于 slog 的结构化日志组件，供 peercall 各组件共享。
//
// 特性：
//   - Logger 接口屏蔽底层 slog 实现
//   - 层级命名空间（breaker、peer、resilient ...）
//   - 从 Context 中提取 request_id 等关联字段
//   - 函数式选项，组件通过 WithLogger 注入
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{Level: "info", Format: "json"})
//	logger.Info("breaker opened", clog.String("dependency", "userService"))
//
// 带 Context 的日志：
//
//	logger, _ := clog.New(cfg, clog.WithStandardContext())
//	logger.InfoContext(ctx, "request processed")
package clog

import "fmt"

// New 创建一个新的 Logger 实例
//
// config 为 nil 时使用开发环境默认配置。
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = NewDevDefaultConfig()
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("clog: invalid config: %w", err)
	}

	return newLogger(config, applyOptions(opts...))
}
