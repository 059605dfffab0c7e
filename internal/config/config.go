package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	K8s        K8sConfig        `mapstructure:"k8s"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// K8sConfig Kubernetes配置
type K8sConfig struct {
	DefaultNamespace string        `mapstructure:"default_namespace"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// PrometheusConfig 指标端点查询配置
type PrometheusConfig struct {
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// CORSConfig 跨域配置，AllowedOrigins 为逗号分隔的列表
type CORSConfig struct {
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// MetricsConfig 自身监控指标配置
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Origins 返回解析后的允许来源列表
func (c CORSConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Load 加载配置（纯环境变量模式），envFiles 为空时尝试加载当前目录的 .env
func Load(envFiles ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// 先加载 .env 到系统环境变量
	if err := godotenv.Load(envFiles...); err != nil {
		log.Printf("未找到 .env 文件，使用系统环境变量: %v", err)
	}

	v.AutomaticEnv()

	bindings := map[string]string{
		"server.port":                     "SERVER_PORT",
		"server.mode":                     "SERVER_MODE",
		"server.shutdown_timeout":         "SERVER_SHUTDOWN_TIMEOUT",
		"log.level":                       "LOG_LEVEL",
		"k8s.default_namespace":           "K8S_DEFAULT_NAMESPACE",
		"k8s.timeout":                     "K8S_TIMEOUT",
		"prometheus.timeout":              "PROMETHEUS_TIMEOUT",
		"prometheus.insecure_skip_verify": "PROMETHEUS_INSECURE_SKIP_VERIFY",
		"cors.allowed_origins":            "CORS_ALLOWED_ORIGINS",
		"metrics.enabled":                 "METRICS_ENABLED",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("配置解析失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("无效的服务端口: %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("无效的运行模式: %s", c.Server.Mode)
	}
	if c.K8s.Timeout <= 0 {
		return fmt.Errorf("K8s 超时时间必须大于 0")
	}
	if c.Prometheus.Timeout <= 0 {
		return fmt.Errorf("Prometheus 超时时间必须大于 0")
	}
	if c.K8s.DefaultNamespace == "" {
		c.K8s.DefaultNamespace = "default"
	}
	for _, o := range c.CORS.Origins() {
		if o == "*" {
			continue
		}
		u, err := url.ParseRequestURI(o)
		if err != nil {
			return fmt.Errorf("无效的跨域来源 %q: %w", o, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("跨域来源必须以 http:// 或 https:// 开头: %q", o)
		}
	}
	return nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	// 日志默认配置
	v.SetDefault("log.level", "info")

	// K8s默认配置
	v.SetDefault("k8s.default_namespace", "default")
	v.SetDefault("k8s.timeout", 30*time.Second)

	// Prometheus默认配置
	v.SetDefault("prometheus.timeout", 30*time.Second)
	v.SetDefault("prometheus.insecure_skip_verify", false)

	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("metrics.enabled", true)
}
