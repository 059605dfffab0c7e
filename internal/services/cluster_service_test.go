package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/clay-wangzhi/clusterhub/internal/metrics"
	"github.com/clay-wangzhi/clusterhub/internal/models"
)

// fakeConnector 测试用连接器
type fakeConnector struct {
	probe    *models.ProbeResult
	probeErr error
}

func (f *fakeConnector) Probe(ctx context.Context) (*models.ProbeResult, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.probe, nil
}

func (f *fakeConnector) ServerVersion(ctx context.Context) (string, error) {
	return "v1.29.3", nil
}

func (f *fakeConnector) ListPods(ctx context.Context, namespace string) ([]models.PodInfo, error) {
	return []models.PodInfo{}, nil
}

func (f *fakeConnector) ApplyManifest(ctx context.Context, manifest string) (*models.ManifestApplyResult, error) {
	return &models.ManifestApplyResult{}, nil
}

// fakeFactory 凭据 "unreachable" 探测失败，其余返回固定探测结果
func fakeFactory(credentials string) (Connector, error) {
	if credentials == "unreachable" {
		return &fakeConnector{probeErr: &ConnectorError{Op: "获取节点列表", Err: errors.New("connection refused")}}, nil
	}
	return &fakeConnector{probe: &models.ProbeResult{
		NodeCount:  3,
		Namespaces: []string{"default", "kube-system"},
	}}, nil
}

// ClusterServiceTestSuite 定义集群服务测试套件
type ClusterServiceTestSuite struct {
	suite.Suite
	recorder *metrics.Recorder
	service  *ClusterService
}

// SetupTest 每个测试前的设置
func (s *ClusterServiceTestSuite) SetupTest() {
	s.recorder = metrics.New()
	s.service = NewClusterService(fakeFactory, s.recorder)
}

func (s *ClusterServiceTestSuite) register(name, credentials string) (*models.Cluster, error) {
	return s.service.RegisterCluster(context.Background(), &models.CreateClusterRequest{
		Name:        name,
		Credentials: credentials,
	})
}

// TestRegisterCluster 测试注册集群
func (s *ClusterServiceTestSuite) TestRegisterCluster() {
	cluster, err := s.service.RegisterCluster(context.Background(), &models.CreateClusterRequest{
		Name:            "prod",
		Description:     "生产集群",
		Credentials:     "kubeconfig",
		MetricsEndpoint: "http://prometheus:9090",
	})
	s.Require().NoError(err)

	assert.NotEmpty(s.T(), cluster.ID)
	assert.Equal(s.T(), "prod", cluster.Name)
	assert.Equal(s.T(), models.ClusterStatusActive, cluster.Status)
	assert.Equal(s.T(), 3, cluster.NodeCount)
	assert.Equal(s.T(), []string{"default", "kube-system"}, cluster.Namespaces)
	assert.Equal(s.T(), "http://prometheus:9090", cluster.MetricsEndpoint)
	assert.False(s.T(), cluster.CreatedAt.IsZero())
	assert.Equal(s.T(), 1, s.service.Count())
}

// TestRegisterCluster_ProbeFailed 测试探测失败时不写入注册表
func (s *ClusterServiceTestSuite) TestRegisterCluster_ProbeFailed() {
	cluster, err := s.register("broken", "unreachable")
	s.Require().Error(err)
	assert.Nil(s.T(), cluster)

	var regErr *RegistrationError
	s.Require().ErrorAs(err, &regErr)
	assert.Equal(s.T(), "broken", regErr.Name)

	var connErr *ConnectorError
	assert.ErrorAs(s.T(), err, &connErr)

	assert.Equal(s.T(), 0, s.service.Count())
	assert.Empty(s.T(), s.service.GetAllClusters())
}

// TestRegisterCluster_FactoryError 测试凭据无法解析
func (s *ClusterServiceTestSuite) TestRegisterCluster_FactoryError() {
	service := NewClusterService(func(string) (Connector, error) {
		return nil, &ConnectorError{Op: "解析kubeconfig", Err: errors.New("invalid")}
	}, nil)

	_, err := service.RegisterCluster(context.Background(), &models.CreateClusterRequest{Name: "x", Credentials: "garbage"})

	var regErr *RegistrationError
	assert.ErrorAs(s.T(), err, &regErr)
	assert.Equal(s.T(), 0, service.Count())
}

// TestRegisterCluster_Validation 测试参数校验
func (s *ClusterServiceTestSuite) TestRegisterCluster_Validation() {
	cases := []struct {
		name  string
		req   *models.CreateClusterRequest
		field string
	}{
		{"empty name", &models.CreateClusterRequest{Name: "  ", Credentials: "kubeconfig"}, "name"},
		{"empty credentials", &models.CreateClusterRequest{Name: "dev"}, "credentials"},
		{"bad scheme", &models.CreateClusterRequest{Name: "dev", Credentials: "kubeconfig", MetricsEndpoint: "ftp://prom"}, "metricsEndpoint"},
		{"missing host", &models.CreateClusterRequest{Name: "dev", Credentials: "kubeconfig", MetricsEndpoint: "http://"}, "metricsEndpoint"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.RegisterCluster(context.Background(), tc.req)
			var valErr *ValidationError
			s.Require().ErrorAs(err, &valErr)
			assert.Equal(s.T(), tc.field, valErr.Field)
		})
	}
	assert.Equal(s.T(), 0, s.service.Count())
}

// TestGetAllClusters_Order 测试按注册顺序返回
func (s *ClusterServiceTestSuite) TestGetAllClusters_Order() {
	for _, name := range []string{"prod", "staging", "dev"} {
		_, err := s.register(name, "kubeconfig")
		s.Require().NoError(err)
	}

	clusters := s.service.GetAllClusters()
	s.Require().Len(clusters, 3)
	assert.Equal(s.T(), "prod", clusters[0].Name)
	assert.Equal(s.T(), "staging", clusters[1].Name)
	assert.Equal(s.T(), "dev", clusters[2].Name)
}

// TestGetCluster 测试按 ID 获取集群
func (s *ClusterServiceTestSuite) TestGetCluster() {
	created, err := s.register("prod", "kubeconfig")
	s.Require().NoError(err)

	cluster, err := s.service.GetCluster(created.ID)
	s.Require().NoError(err)
	assert.Equal(s.T(), created.ID, cluster.ID)
	assert.Equal(s.T(), "kubeconfig", cluster.Credentials)
}

// TestGetCluster_NotFound 测试获取不存在的集群
func (s *ClusterServiceTestSuite) TestGetCluster_NotFound() {
	cluster, err := s.service.GetCluster("missing")
	assert.Nil(s.T(), cluster)

	var nfErr *NotFoundError
	s.Require().ErrorAs(err, &nfErr)
	assert.Equal(s.T(), "missing", nfErr.ID)
}

// TestGetCluster_ReturnsCopy 测试返回值的修改不影响注册表
func (s *ClusterServiceTestSuite) TestGetCluster_ReturnsCopy() {
	created, err := s.register("prod", "kubeconfig")
	s.Require().NoError(err)

	created.Name = "changed"
	created.Namespaces[0] = "changed"

	cluster, err := s.service.GetCluster(created.ID)
	s.Require().NoError(err)
	assert.Equal(s.T(), "prod", cluster.Name)
	assert.Equal(s.T(), "default", cluster.Namespaces[0])
}

// TestRegisterCluster_IDCollision 测试 ID 冲突时重新生成
func (s *ClusterServiceTestSuite) TestRegisterCluster_IDCollision() {
	ids := []string{"same", "same", "other"}
	s.service.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	first, err := s.register("a", "kubeconfig")
	s.Require().NoError(err)
	second, err := s.register("b", "kubeconfig")
	s.Require().NoError(err)

	assert.Equal(s.T(), "same", first.ID)
	assert.Equal(s.T(), "other", second.ID)
}

// TestRegisterCluster_Concurrent 测试并发注册的 ID 唯一性
func (s *ClusterServiceTestSuite) TestRegisterCluster_Concurrent() {
	const n = 50

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.register(fmt.Sprintf("cluster-%d", i), "kubeconfig")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(s.T(), err)
	}

	clusters := s.service.GetAllClusters()
	s.Require().Len(clusters, n)

	seen := make(map[string]struct{}, n)
	for _, c := range clusters {
		seen[c.ID] = struct{}{}
	}
	assert.Len(s.T(), seen, n)

	// 并发注册后集群数量指标与注册表一致
	_, err := s.register("broken", "unreachable")
	s.Require().Error(err)
	expected := fmt.Sprintf(`
# HELP clusterhub_registered_clusters Number of clusters in the registry.
# TYPE clusterhub_registered_clusters gauge
clusterhub_registered_clusters %d
`, n)
	assert.NoError(s.T(), testutil.GatherAndCompare(s.recorder.Registry(), strings.NewReader(expected), "clusterhub_registered_clusters"))
}

// TestClusterServiceTestSuite 运行测试套件
func TestClusterServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ClusterServiceTestSuite))
}
