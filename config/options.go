package config

import "github.com/stellarcargo/peercall/clog"

// Option 加载器选项
type Option func(*options)

type options struct {
	defaults map[string]any
	logger   clog.Logger
}

// WithDefaults 设置默认值，键使用 "." 分隔的路径
//
// 只有 Viper 已知的键才能被环境变量覆盖并参与 Unmarshal，
// 因此所有可由环境变量设置的键都应在这里声明默认值。
func WithDefaults(defaults map[string]any) Option {
	return func(o *options) {
		if o.defaults == nil {
			o.defaults = make(map[string]any, len(defaults))
		}
		for k, v := range defaults {
			o.defaults[k] = v
		}
	}
}

// WithLogger 注入 Logger，记录加载了哪些来源
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("config")
		}
	}
}
