package metrics

// Config 指标配置
//
//	metrics:
//	  enabled: true
//	  service_name: "mission-service"
//	  version: "v1.0.0"
type Config struct {
	// Enabled 为 false 时 New 返回空实现
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	Version     string `mapstructure:"version"`
}
