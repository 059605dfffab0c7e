package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/clay-wangzhi/clusterhub/internal/config"
	"github.com/clay-wangzhi/clusterhub/internal/k8s"
	"github.com/clay-wangzhi/clusterhub/internal/metrics"
	"github.com/clay-wangzhi/clusterhub/internal/models"
	"github.com/clay-wangzhi/clusterhub/internal/services"
	"github.com/clay-wangzhi/clusterhub/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ManifestHandler 资源清单处理器
type ManifestHandler struct {
	cfg            *config.Config
	clusterService *services.ClusterService
	k8sMgr         *k8s.ClusterClientManager
	recorder       *metrics.Recorder
}

// NewManifestHandler 创建资源清单处理器
func NewManifestHandler(cfg *config.Config, clusterService *services.ClusterService, k8sMgr *k8s.ClusterClientManager, recorder *metrics.Recorder) *ManifestHandler {
	return &ManifestHandler{
		cfg:            cfg,
		clusterService: clusterService,
		k8sMgr:         k8sMgr,
		recorder:       recorder,
	}
}

// ApplyManifest 应用资源清单
func (h *ManifestHandler) ApplyManifest(c *gin.Context) {
	var req models.ManifestApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "参数错误: "+err.Error(), nil)
		return
	}

	cluster, err := h.clusterService.GetCluster(c.Param("clusterID"))
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

	result, err := conn.ApplyManifest(ctx, req.Manifest)
	h.recorder.RecordUpstream(metrics.TargetKubernetes, "apply_manifest", err)
	if err != nil {
		logger.Error("应用资源清单失败: cluster=%s, error=%v", cluster.Name, err)
		respondError(c, err)
		return
	}

	if !result.Applied {
		respondMessage(c, http.StatusUnprocessableEntity, fmt.Sprintf("暂不支持的资源类型: %s", result.Kind), result)
		return
	}

	logger.Info("资源清单应用成功: cluster=%s, %s %s/%s", cluster.Name, result.Kind, result.Namespace, result.Name)
	respondOK(c, "应用成功", result)
}
