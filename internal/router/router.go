package router

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/clay-wangzhi/clusterhub/internal/config"
	"github.com/clay-wangzhi/clusterhub/internal/handlers"
	"github.com/clay-wangzhi/clusterhub/internal/k8s"
	"github.com/clay-wangzhi/clusterhub/internal/metrics"
	"github.com/clay-wangzhi/clusterhub/internal/middleware"
	"github.com/clay-wangzhi/clusterhub/internal/services"
)

// Deps 路由依赖，由调用方创建后注入
type Deps struct {
	Config         *config.Config
	ClusterService *services.ClusterService
	K8sManager     *k8s.ClusterClientManager
	PromHTTPClient *http.Client
	Recorder       *metrics.Recorder
}

// NewDeps 按配置创建默认依赖
func NewDeps(cfg *config.Config) *Deps {
	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.New()
	}
	factory := services.KubeconfigConnectorFactory(cfg.K8s.Timeout)

	return &Deps{
		Config:         cfg,
		ClusterService: services.NewClusterService(factory, recorder),
		K8sManager:     k8s.NewClusterClientManager(factory),
		PromHTTPClient: services.NewPrometheusHTTPClient(cfg.Prometheus.InsecureSkipVerify),
		Recorder:       recorder,
	}
}

func Setup(deps *Deps) *gin.Engine {
	cfg := deps.Config
	r := gin.New()

	r.Use(
		gin.Recovery(),
		gin.Logger(),
		middleware.CORS(cfg.CORS.Origins()),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})),
	)
	if deps.Recorder != nil {
		r.Use(middleware.RequestMetrics(deps.Recorder))
		r.GET("/metrics", gin.WrapH(deps.Recorder.Handler()))
	}

	// Health endpoints：liveness 与 readiness
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ready": true, "clusters": deps.ClusterService.Count()})
	})

	api := r.Group("/api/v1")

	clusterHandler := handlers.NewClusterHandler(cfg, deps.ClusterService, deps.K8sManager)
	podHandler := handlers.NewPodHandler(cfg, deps.ClusterService, deps.K8sManager, deps.Recorder)
	monitoringHandler := handlers.NewMonitoringHandler(cfg, deps.ClusterService, deps.PromHTTPClient, deps.Recorder)
	manifestHandler := handlers.NewManifestHandler(cfg, deps.ClusterService, deps.K8sManager, deps.Recorder)

	clusters := api.Group("/clusters")
	{
		clusters.GET("", clusterHandler.GetClusters)
		clusters.POST("", clusterHandler.CreateCluster)

		cluster := clusters.Group("/:clusterID")
		{
			cluster.GET("", clusterHandler.GetCluster)
			cluster.GET("/status", clusterHandler.GetClusterStatus)
			cluster.GET("/metrics", monitoringHandler.GetClusterMetrics)
			cluster.POST("/manifests", manifestHandler.ApplyManifest)

			pods := cluster.Group("/pods")
			{
				pods.GET("", podHandler.GetPods)
				pods.GET("/:namespace/:name/metrics", monitoringHandler.GetPodMetrics)
			}
		}
	}

	return r
}
