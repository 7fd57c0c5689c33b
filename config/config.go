// Package config 提供基于 Viper 的启动期配置加载。
//
// 配置来源优先级（高到低）：
//
//	环境变量 > .env 文件 > <name>.<env>.yaml > <name>.yaml > WithDefaults 默认值
//
// 配置在启动时读取一次并视为不可变，peercall 不做热更新：熔断参数在运行中
// 变化会让同一依赖前后的判定标准不一致。
//
// 基本使用：
//
//	loader, _ := config.New(&config.Config{Name: "mission", Paths: []string{"./config"}, EnvPrefix: "PEERCALL"},
//		config.WithDefaults(map[string]any{"server.addr": ":8080"}))
//	if err := loader.Load(ctx); err != nil {
//		return err
//	}
//	var cfg AppConfig
//	_ = loader.Unmarshal(&cfg)
//	if err := config.ValidateStruct(&cfg); err != nil {
//		return err // 包装 xerrors.ErrInvalidConfig
//	}
package config

import (
	"context"
	"strings"
)

// Loader 配置加载器
type Loader interface {
	// Load 从所有来源加载配置
	Load(ctx context.Context) error

	// Get 获取原始配置值
	Get(key string) any

	// Unmarshal 将整个配置反序列化到结构体（mapstructure 标签）
	Unmarshal(v any) error

	// UnmarshalKey 将指定 Key 的配置反序列化到结构体
	UnmarshalKey(key string, v any) error

	// ConfigFileUsed 返回实际加载的配置文件路径，未找到文件时为空
	ConfigFileUsed() string
}

// Config 加载器配置
type Config struct {
	Name      string   // 配置文件名称（不含扩展名），默认 "config"
	Paths     []string // 搜索路径，默认 [".", "./config"]
	FileType  string   // 文件类型，默认 "yaml"
	EnvPrefix string   // 环境变量前缀，默认 "PEERCALL"
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "config"
	}
	if len(c.Paths) == 0 {
		c.Paths = []string{".", "./config"}
	}
	if c.FileType == "" {
		c.FileType = "yaml"
	}
	if c.EnvPrefix == "" {
		c.EnvPrefix = "PEERCALL"
	}
	c.EnvPrefix = strings.ToUpper(c.EnvPrefix)
}

// New 创建配置加载器，cfg 为 nil 时使用默认值
func New(cfg *Config, opts ...Option) (Loader, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	c := *cfg
	c.setDefaults()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return newLoader(&c, o), nil
}
