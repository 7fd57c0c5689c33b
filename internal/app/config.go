// Package app 组装 mission-service：加载配置，创建日志、指标、追踪、熔断器注册表、
// 依赖客户端与 HTTP 路由。
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/stellarcargo/peercall/breaker"
	"github.com/stellarcargo/peercall/clog"
	"github.com/stellarcargo/peercall/config"
	"github.com/stellarcargo/peercall/metrics"
	"github.com/stellarcargo/peercall/peer"
	"github.com/stellarcargo/peercall/trace"
	"github.com/stellarcargo/peercall/xerrors"
)

// Config 服务配置
type Config struct {
	Service    string           `mapstructure:"service" validate:"required"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        clog.Config      `mapstructure:"log"`
	Metrics    metrics.Config   `mapstructure:"metrics"`
	Trace      trace.Config     `mapstructure:"trace"`
	Credential CredentialConfig `mapstructure:"credential"`
	Breaker    breaker.Config   `mapstructure:"breaker"`
	Peers      PeersConfig      `mapstructure:"peers"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr              string        `mapstructure:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// CredentialConfig 凭证传递方式
type CredentialConfig struct {
	Mode string `mapstructure:"mode" validate:"omitempty,oneof=scoped context"`
}

// PeersConfig 依赖服务地址
type PeersConfig struct {
	UserService       peer.Config `mapstructure:"user_service"`
	SpacecraftService peer.Config `mapstructure:"spacecraft_service"`
	CargoService      peer.Config `mapstructure:"cargo_service"`
}

// Defaults 所有可由环境变量覆盖的键及其默认值
func Defaults() map[string]any {
	bd := breaker.DefaultSettings()
	return map[string]any{
		"service": "mission-service",

		"server.addr":                ":8080",
		"server.read_header_timeout": 5 * time.Second,
		"server.shutdown_timeout":    10 * time.Second,

		"log.level":  "info",
		"log.format": "json",
		"log.output": "stdout",

		"metrics.enabled":      true,
		"metrics.service_name": "mission-service",

		"trace.enabled":      false,
		"trace.service_name": "mission-service",
		"trace.endpoint":     "localhost:4317",
		"trace.sampler":      1.0,
		"trace.batcher":      "batch",
		"trace.insecure":     true,

		"credential.mode": "scoped",

		"breaker.default.failure_rate_threshold":                      bd.FailureRateThreshold,
		"breaker.default.sliding_window_size":                         bd.SlidingWindowSize,
		"breaker.default.minimum_number_of_calls":                     bd.MinimumNumberOfCalls,
		"breaker.default.wait_duration_in_open_state":                 bd.WaitDurationInOpenState,
		"breaker.default.permitted_calls_in_half_open_state":          bd.PermittedCallsInHalfOpenState,
		"breaker.default.automatic_transition_from_open_to_half_open": bd.AutomaticTransitionFromOpenToHalfOpen,

		"peers.user_service.base_url":       "http://localhost:8081",
		"peers.user_service.timeout":        2 * time.Second,
		"peers.spacecraft_service.base_url": "http://localhost:8082",
		"peers.spacecraft_service.timeout":  2 * time.Second,
		"peers.cargo_service.base_url":      "http://localhost:8083",
		"peers.cargo_service.timeout":       2 * time.Second,
	}
}

// LoadConfig 从 dir 下的 mission.yaml、环境覆盖文件与环境变量加载配置并校验
//
// 任何非法配置都返回包装 xerrors.ErrInvalidConfig 的错误，服务应拒绝启动。
func LoadConfig(ctx context.Context, dir string, logger clog.Logger) (*Config, error) {
	paths := []string{".", "./config"}
	if dir != "" {
		paths = []string{dir}
	}
	loader, err := config.New(&config.Config{Name: "mission", Paths: paths, EnvPrefix: "PEERCALL"},
		config.WithDefaults(Defaults()),
		config.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	if err := loader.Load(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", xerrors.ErrInvalidConfig, err)
	}

	var cfg Config
	if err := loader.Unmarshal(&cfg); err != nil {
		return nil, xerrors.Wrapf(xerrors.ErrInvalidConfig, "app: decode config: %v", err)
	}
	if err := config.ValidateStruct(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
