// Package breaker 为每个下游依赖维护一个共享的熔断状态机。
//
// 状态机由 sony/gobreaker 驱动（CLOSED / OPEN / HALF_OPEN 与代际），
// 跳闸判定基于最近 SlidingWindowSize 次已完成调用的计数滑动窗口：
// 窗口样本数达到 MinimumNumberOfCalls 且失败率达到 FailureRateThreshold 时打开。
//
// 基本使用：
//
//	reg, err := breaker.New(&breaker.Config{Default: breaker.DefaultSettings()},
//		breaker.WithLogger(logger), breaker.WithMeter(meter))
//	if err != nil {
//		return err // 包装 xerrors.ErrInvalidConfig，服务应拒绝启动
//	}
//	defer reg.Close()
//
//	err = reg.Execute(ctx, "userService", func(ctx context.Context) error {
//		return client.Ping(ctx)
//	})
//	if errors.Is(err, breaker.ErrOpenState) {
//		// 短路，未发起网络调用
//	}
package breaker

import (
	"context"
	"time"
)

// State 熔断器状态
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String 返回状态名
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings 单个依赖的熔断参数，创建后不可变
type Settings struct {
	// FailureRateThreshold 失败率阈值，百分比 (0,100]
	FailureRateThreshold float64 `json:"failureRateThreshold" yaml:"failureRateThreshold" mapstructure:"failure_rate_threshold" validate:"gt=0,lte=100"`

	// SlidingWindowSize 计数窗口大小
	SlidingWindowSize int `json:"slidingWindowSize" yaml:"slidingWindowSize" mapstructure:"sliding_window_size" validate:"gt=0"`

	// MinimumNumberOfCalls 开始评估失败率所需的最少样本数，不能超过窗口大小
	MinimumNumberOfCalls int `json:"minimumNumberOfCalls" yaml:"minimumNumberOfCalls" mapstructure:"minimum_number_of_calls" validate:"gt=0,ltefield=SlidingWindowSize"`

	// WaitDurationInOpenState OPEN 状态持续时间
	WaitDurationInOpenState time.Duration `json:"waitDurationInOpenState" yaml:"waitDurationInOpenState" mapstructure:"wait_duration_in_open_state" validate:"gt=0"`

	// PermittedCallsInHalfOpenState HALF_OPEN 状态允许的试探调用数
	PermittedCallsInHalfOpenState int `json:"permittedCallsInHalfOpenState" yaml:"permittedCallsInHalfOpenState" mapstructure:"permitted_calls_in_half_open_state" validate:"gt=0"`

	// AutomaticTransitionFromOpenToHalfOpen 等待结束后由定时器切换到 HALF_OPEN，
	// 否则在下一次调用时切换
	AutomaticTransitionFromOpenToHalfOpen bool `json:"automaticTransitionFromOpenToHalfOpen" yaml:"automaticTransitionFromOpenToHalfOpen" mapstructure:"automatic_transition_from_open_to_half_open"`
}

// DefaultSettings 返回服务间调用的默认参数
func DefaultSettings() Settings {
	return Settings{
		FailureRateThreshold:                  50,
		SlidingWindowSize:                     10,
		MinimumNumberOfCalls:                  5,
		WaitDurationInOpenState:               10 * time.Second,
		PermittedCallsInHalfOpenState:         3,
		AutomaticTransitionFromOpenToHalfOpen: true,
	}
}

// Config 注册表配置
//
// Default 被所有依赖共享；Dependencies 中的条目按依赖名覆盖非零字段。
// 依赖名不区分大小写（Viper 会把 map 键转为小写）。
type Config struct {
	Default      Settings            `json:"default" yaml:"default" mapstructure:"default"`
	Dependencies map[string]Settings `json:"dependencies" yaml:"dependencies" mapstructure:"dependencies"`
}

// Snapshot 熔断器的只读视图
type Snapshot struct {
	Dependency  string   `json:"dependency"`
	State       State    `json:"-"`
	StateName   string   `json:"state"`
	Calls       int      `json:"calls"`
	Failures    int      `json:"failures"`
	FailureRate float64  `json:"failureRate"`
	Settings    Settings `json:"settings"`
}

// Registry 依赖名到熔断器的注册表
type Registry interface {
	// Breaker 返回依赖的熔断器，不存在时创建；并发调用得到同一实例
	Breaker(dependency string) (*Breaker, error)

	// Execute 通过依赖的熔断器执行 fn
	Execute(ctx context.Context, dependency string, fn func(context.Context) error) error

	// State 返回依赖当前状态，尚未创建的依赖视为 CLOSED
	State(dependency string) (State, error)

	// Snapshots 返回所有已创建熔断器的快照，按依赖名排序
	Snapshots() []Snapshot

	// Reset 将依赖的熔断器强制恢复为 CLOSED 并清空窗口
	Reset(dependency string) error

	// Close 停止自动切换定时器，之后不再创建新的熔断器
	Close() error
}

// New 创建注册表
//
// 配置非法时返回包装 xerrors.ErrInvalidConfig 的错误。
func New(cfg *Config, opts ...Option) (Registry, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	return newRegistry(resolved, applyOptions(opts...))
}
