package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 不存在的 .env 路径，避免读取工作目录中的文件
func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

// TestLoad_Defaults 测试默认配置
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "default", cfg.K8s.DefaultNamespace)
	assert.Equal(t, 30*time.Second, cfg.K8s.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Prometheus.Timeout)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins())
}

// TestLoad_EnvOverride 测试环境变量覆盖
func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_MODE", "release")
	t.Setenv("PROMETHEUS_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 5*time.Second, cfg.Prometheus.Timeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.Origins())
}

// TestLoad_InvalidMode 测试无效的运行模式
func TestLoad_InvalidMode(t *testing.T) {
	t.Setenv("SERVER_MODE", "production")

	_, err := Load(missingEnvFile(t))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "无效的运行模式")
}

// TestLoad_InvalidCORSOrigin 测试跨域来源必须带 http(s) 协议
func TestLoad_InvalidCORSOrigin(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "ftp://files.example.com")

	_, err := Load(missingEnvFile(t))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "跨域来源")
}
