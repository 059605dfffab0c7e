package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/clay-wangzhi/clusterhub/internal/config"
	"github.com/clay-wangzhi/clusterhub/internal/k8s"
	"github.com/clay-wangzhi/clusterhub/internal/models"
	"github.com/clay-wangzhi/clusterhub/internal/services"
	"github.com/clay-wangzhi/clusterhub/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ClusterHandler 集群处理器
type ClusterHandler struct {
	cfg            *config.Config
	clusterService *services.ClusterService
	k8sMgr         *k8s.ClusterClientManager
}

// NewClusterHandler 创建集群处理器
func NewClusterHandler(cfg *config.Config, clusterService *services.ClusterService, mgr *k8s.ClusterClientManager) *ClusterHandler {
	return &ClusterHandler{
		cfg:            cfg,
		clusterService: clusterService,
		k8sMgr:         mgr,
	}
}

// GetClusters 获取集群列表
func (h *ClusterHandler) GetClusters(c *gin.Context) {
	clusters := h.clusterService.GetAllClusters()

	respondOK(c, "获取成功", gin.H{
		"items": clusters,
		"total": len(clusters),
	})
}

// CreateCluster 注册集群
func (h *ClusterHandler) CreateCluster(c *gin.Context) {
	var req models.CreateClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "请求参数错误: "+err.Error(), nil)
		return
	}

	logger.Info("注册集群: %s", req.Name)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.K8s.Timeout)
	defer cancel()

	cluster, err := h.clusterService.RegisterCluster(ctx, &req)
	if err != nil {
		logger.Error("注册集群失败: %v", err)
		respondError(c, err)
		return
	}

	respondOK(c, "集群注册成功", cluster)
}

// GetCluster 获取集群详情
func (h *ClusterHandler) GetCluster(c *gin.Context) {
	cluster, err := h.clusterService.GetCluster(c.Param("clusterID"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "获取成功", cluster)
}

// GetClusterStatus 实时检查集群连通性，不修改注册记录
func (h *ClusterHandler) GetClusterStatus(c *gin.Context) {
	cluster, err := h.clusterService.GetCluster(c.Param("clusterID"))
	if err != nil {
		respondError(c, err)
		return
	}

	status := &models.ClusterStatusInfo{ClusterID: cluster.ID}

	conn, err := h.k8sMgr.ForCluster(cluster)
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.K8s.Timeout)
		defer cancel()
		status.Version, err = conn.ServerVersion(ctx)
	}

	status.CheckedAt = time.Now()
	if err != nil {
		logger.Warn("集群 %s 连通性检查失败: %v", cluster.Name, err)
		status.Message = err.Error()
	} else {
		status.Reachable = true
	}

	respondOK(c, "获取成功", status)
}
