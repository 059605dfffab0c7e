package middleware

import (
	"strings"
	"time"

	"github.com/clay-wangzhi/clusterhub/internal/metrics"

	"github.com/gin-gonic/gin"
)

// RequestMetrics 记录每个请求的状态码与耗时，路由使用注册时的模板避免标签基数膨胀
func RequestMetrics(recorder *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 跳过健康检查与指标抓取
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/healthz") || strings.HasPrefix(path, "/readyz") || path == "/metrics" {
			c.Next()
			return
		}

		startTime := time.Now()
		c.Next()

		recorder.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(startTime))
	}
}
