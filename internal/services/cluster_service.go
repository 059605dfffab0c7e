package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/clay-wangzhi/clusterhub/internal/metrics"
	"github.com/clay-wangzhi/clusterhub/internal/models"
	"github.com/clay-wangzhi/clusterhub/pkg/logger"

	"github.com/google/uuid"
)

// Connector 单个集群的控制面连接器
type Connector interface {
	Probe(ctx context.Context) (*models.ProbeResult, error)
	ServerVersion(ctx context.Context) (string, error)
	ListPods(ctx context.Context, namespace string) ([]models.PodInfo, error)
	ApplyManifest(ctx context.Context, manifest string) (*models.ManifestApplyResult, error)
}

// ConnectorFactory 根据凭据构造连接器
type ConnectorFactory func(credentials string) (Connector, error)

// KubeconfigConnectorFactory 把凭据当作 kubeconfig 解析
func KubeconfigConnectorFactory(timeout time.Duration) ConnectorFactory {
	return func(credentials string) (Connector, error) {
		return NewK8sClientFromKubeconfig(credentials, timeout)
	}
}

// ClusterService 集群注册表，只追加，按注册顺序列出
type ClusterService struct {
	mu       sync.RWMutex
	clusters []*models.Cluster
	byID     map[string]*models.Cluster

	newConnector ConnectorFactory
	recorder     *metrics.Recorder

	newID func() string
	now   func() time.Time
}

// NewClusterService 创建集群注册表
func NewClusterService(factory ConnectorFactory, recorder *metrics.Recorder) *ClusterService {
	return &ClusterService{
		byID:         make(map[string]*models.Cluster),
		newConnector: factory,
		recorder:     recorder,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// GetAllClusters 按注册顺序返回所有集群
func (s *ClusterService) GetAllClusters() []*models.Cluster {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clusters := make([]*models.Cluster, 0, len(s.clusters))
	for _, c := range s.clusters {
		clusters = append(clusters, cloneCluster(c))
	}
	return clusters
}

// GetCluster 获取单个集群
func (s *ClusterService) GetCluster(id string) (*models.Cluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cluster, ok := s.byID[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return cloneCluster(cluster), nil
}

// Count 已注册集群数量
func (s *ClusterService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clusters)
}

// RegisterCluster 探测连通性后注册集群，探测失败时不写入任何状态
func (s *ClusterService) RegisterCluster(ctx context.Context, req *models.CreateClusterRequest) (*models.Cluster, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)

	// 探测在锁外进行，避免网络 I/O 阻塞其他读写
	probe, err := s.probe(ctx, req.Credentials)
	if err != nil {
		logger.Warn("集群 %s 连接测试失败: %v", name, err)
		s.recorder.RecordRegistration(err)
		return nil, &RegistrationError{Name: name, Err: err}
	}

	cluster := &models.Cluster{
		Name:            name,
		Description:     req.Description,
		Credentials:     req.Credentials,
		MetricsEndpoint: strings.TrimSpace(req.MetricsEndpoint),
		Status:          models.ClusterStatusActive,
		NodeCount:       probe.NodeCount,
		Namespaces:      copyStrings(probe.Namespaces),
		CreatedAt:       s.now(),
	}

	s.mu.Lock()
	id := s.newID()
	for s.byID[id] != nil {
		id = s.newID()
	}
	cluster.ID = id
	s.clusters = append(s.clusters, cluster)
	s.byID[id] = cluster
	s.mu.Unlock()

	s.recorder.RecordRegistration(nil)
	logger.Info("集群注册成功: id=%s, name=%s, nodes=%d", cluster.ID, cluster.Name, cluster.NodeCount)
	return cloneCluster(cluster), nil
}

// probe 构造连接器并探测
func (s *ClusterService) probe(ctx context.Context, credentials string) (*models.ProbeResult, error) {
	if s.newConnector == nil {
		return nil, errors.New("未配置集群连接器")
	}
	connector, err := s.newConnector(credentials)
	if err != nil {
		return nil, err
	}
	result, err := connector.Probe(ctx)
	s.recorder.RecordUpstream(metrics.TargetKubernetes, "probe", err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// validateCreateRequest 校验注册参数
func validateCreateRequest(req *models.CreateClusterRequest) error {
	if req == nil {
		return &ValidationError{Err: errors.New("请求为空")}
	}
	if strings.TrimSpace(req.Name) == "" {
		return &ValidationError{Field: "name", Err: errors.New("集群名称不能为空")}
	}
	if strings.TrimSpace(req.Credentials) == "" {
		return &ValidationError{Field: "credentials", Err: errors.New("集群凭据不能为空")}
	}
	if endpoint := strings.TrimSpace(req.MetricsEndpoint); endpoint != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return &ValidationError{Field: "metricsEndpoint", Err: err}
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &ValidationError{Field: "metricsEndpoint", Err: fmt.Errorf("无效的地址: %s", endpoint)}
		}
	}
	return nil
}

// cloneCluster 返回副本，注册表中的记录不会被调用方修改
func cloneCluster(c *models.Cluster) *models.Cluster {
	cp := *c
	cp.Namespaces = copyStrings(c.Namespaces)
	return &cp
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
