package handlers

import (
	"context"

	"github.com/clay-wangzhi/clusterhub/internal/config"
	"github.com/clay-wangzhi/clusterhub/internal/k8s"
	"github.com/clay-wangzhi/clusterhub/internal/metrics"
	"github.com/clay-wangzhi/clusterhub/internal/services"
	"github.com/clay-wangzhi/clusterhub/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PodHandler Pod处理器
type PodHandler struct {
	cfg            *config.Config
	clusterService *services.ClusterService
	k8sMgr         *k8s.ClusterClientManager
	recorder       *metrics.Recorder
}

// NewPodHandler 创建Pod处理器
func NewPodHandler(cfg *config.Config, clusterService *services.ClusterService, k8sMgr *k8s.ClusterClientManager, recorder *metrics.Recorder) *PodHandler {
	return &PodHandler{
		cfg:            cfg,
		clusterService: clusterService,
		k8sMgr:         k8sMgr,
		recorder:       recorder,
	}
}

// GetPods 获取Pod列表
func (h *PodHandler) GetPods(c *gin.Context) {
	clusterID := c.Param("clusterID")
	namespace := c.DefaultQuery("namespace", h.cfg.K8s.DefaultNamespace)

	logger.Info("获取Pod列表: cluster=%s, namespace=%s", clusterID, namespace)

	cluster, err := h.clusterService.GetCluster(clusterID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.k8sMgr.ForCluster(cluster)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.K8s.Timeout)
	defer cancel()

	pods, err := conn.ListPods(ctx, namespace)
	h.recorder.RecordUpstream(metrics.TargetKubernetes, "list_pods", err)
	if err != nil {
		logger.Error("获取Pod列表失败: cluster=%s, error=%v", cluster.Name, err)
		respondError(c, err)
		return
	}

	respondOK(c, "获取成功", pods)
}
