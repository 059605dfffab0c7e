package handlers

import (
	"net/http"

	"github.com/clay-wangzhi/clusterhub/internal/config"
	"github.com/clay-wangzhi/clusterhub/internal/metrics"
	"github.com/clay-wangzhi/clusterhub/internal/models"
	"github.com/clay-wangzhi/clusterhub/internal/services"
	"github.com/clay-wangzhi/clusterhub/pkg/logger"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler 监控处理器
type MonitoringHandler struct {
	cfg            *config.Config
	clusterService *services.ClusterService
	httpClient     *http.Client
	recorder       *metrics.Recorder
}

// NewMonitoringHandler 创建监控处理器，httpClient 在所有集群间共享
func NewMonitoringHandler(cfg *config.Config, clusterService *services.ClusterService, httpClient *http.Client, recorder *metrics.Recorder) *MonitoringHandler {
	return &MonitoringHandler{
		cfg:            cfg,
		clusterService: clusterService,
		httpClient:     httpClient,
		recorder:       recorder,
	}
}

// GetClusterMetrics 获取集群监控指标
func (h *MonitoringHandler) GetClusterMetrics(c *gin.Context) {
	cluster, prom, ok := h.resolve(c)
	if !ok {
		return
	}

	snapshot, err := prom.GetClusterMetrics(c.Request.Context(), cluster.Name)
	if err != nil {
		logger.Error("获取集群指标失败: cluster=%s, error=%v", cluster.Name, err)
		respondError(c, err)
		return
	}

	respondOK(c, "获取成功", snapshot)
}

// GetPodMetrics 获取 Pod 监控指标
func (h *MonitoringHandler) GetPodMetrics(c *gin.Context) {
	cluster, prom, ok := h.resolve(c)
	if !ok {
		return
	}

	namespace := c.Param("namespace")
	podName := c.Param("name")

	bundle, err := prom.GetPodMetrics(c.Request.Context(), cluster.Name, namespace, podName)
	if err != nil {
		logger.Error("获取Pod指标失败: cluster=%s, pod=%s/%s, error=%v", cluster.Name, namespace, podName, err)
		respondError(c, err)
		return
	}

	respondOK(c, "获取成功", bundle)
}

// resolve 查找集群并为其构造查询服务，失败时已写入响应
func (h *MonitoringHandler) resolve(c *gin.Context) (*models.Cluster, *services.PrometheusService, bool) {
	cluster, err := h.clusterService.GetCluster(c.Param("clusterID"))
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}

	if !cluster.HasMetricsEndpoint() {
		respondMessage(c, http.StatusBadRequest, "该集群未配置 Prometheus 地址", nil)
		return nil, nil, false
	}

	prom, err := services.NewPrometheusService(cluster.MetricsEndpoint, h.httpClient, h.cfg.Prometheus.Timeout, h.recorder)
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	return cluster, prom, true
}
