package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clay-wangzhi/clusterhub/internal/metrics"
	"github.com/clay-wangzhi/clusterhub/internal/models"

	"golang.org/x/sync/errgroup"
)

// DefaultQueryTimeout 单次查询的默认超时
const DefaultQueryTimeout = 30 * time.Second

// maxResponseBytes 单次查询响应体上限
const maxResponseBytes = 32 << 20

// NewPrometheusHTTPClient 创建查询指标端点使用的 HTTP 客户端，可在多个集群间共享
func NewPrometheusHTTPClient(insecureSkipVerify bool) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: insecureSkipVerify, //nolint:gosec // 由配置显式开启
			},
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// PrometheusService 单个集群的指标端点查询服务
type PrometheusService struct {
	endpoint   *url.URL
	username   string
	password   string
	httpClient *http.Client
	timeout    time.Duration
	recorder   *metrics.Recorder
	now        func() time.Time
}

// NewPrometheusService 创建 Prometheus 查询服务。endpoint 中的 userinfo 作为 basic 认证使用
func NewPrometheusService(endpoint string, httpClient *http.Client, timeout time.Duration, recorder *metrics.Recorder) (*PrometheusService, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, &ValidationError{Field: "metricsEndpoint", Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &ValidationError{Field: "metricsEndpoint", Err: fmt.Errorf("无效的地址: %s", endpoint)}
	}

	s := &PrometheusService{
		httpClient: httpClient,
		timeout:    timeout,
		recorder:   recorder,
		now:        time.Now,
	}
	if u.User != nil {
		s.username = u.User.Username()
		s.password, _ = u.User.Password()
		u.User = nil
	}
	u.Path = strings.TrimRight(u.Path, "/")
	s.endpoint = u

	if s.httpClient == nil {
		s.httpClient = NewPrometheusHTTPClient(false)
	}
	if s.timeout <= 0 {
		s.timeout = DefaultQueryTimeout
	}
	return s, nil
}

// Query 执行即时查询，返回指标端点的原始 JSON 响应
func (s *PrometheusService) Query(ctx context.Context, query string, at *time.Time) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.buildQueryURL(query, at), nil)
	if err != nil {
		return nil, &QueryError{Query: query, Err: fmt.Errorf("创建请求失败: %w", err)}
	}
	s.setAuth(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, newQueryError(query, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, newQueryError(query, fmt.Errorf("读取响应失败: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &QueryError{
			Query:      query,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if !json.Valid(body) {
		return nil, &QueryError{Query: query, Body: string(body), Err: errors.New("响应不是有效的 JSON")}
	}
	return json.RawMessage(body), nil
}

// namedQuery 带名称的查询，用于并发查询后按名称回填
type namedQuery struct {
	name  string
	query string
}

// GetClusterMetrics 并发查询集群 CPU、内存、Pod 数与节点数，任一失败则整体失败
func (s *PrometheusService) GetClusterMetrics(ctx context.Context, clusterName string) (*models.MetricsSnapshot, error) {
	selector := buildClusterSelector(clusterName)
	results, err := s.queryAll(ctx, "cluster_metrics", []namedQuery{
		{"cpu", fmt.Sprintf("sum(rate(container_cpu_usage_seconds_total{%s}[5m]))", selector)},
		{"memory", fmt.Sprintf("sum(container_memory_usage_bytes{%s})", selector)},
		{"pods", fmt.Sprintf("count(kube_pod_info{%s})", selector)},
		{"nodes", fmt.Sprintf("count(kube_node_info{%s})", selector)},
	})
	if err != nil {
		return nil, err
	}

	return &models.MetricsSnapshot{
		Timestamp:   s.now(),
		CPUUsage:    results["cpu"],
		MemoryUsage: results["memory"],
		PodCount:    results["pods"],
		NodeCount:   results["nodes"],
	}, nil
}

// GetPodMetrics 并发查询 Pod 的 CPU、内存与网络接收速率
func (s *PrometheusService) GetPodMetrics(ctx context.Context, clusterName, namespace, podName string) (*models.PodMetricsBundle, error) {
	selector := buildPodSelector(clusterName, namespace, podName)
	results, err := s.queryAll(ctx, "pod_metrics", []namedQuery{
		{"cpu", fmt.Sprintf("rate(container_cpu_usage_seconds_total{%s}[5m])", selector)},
		{"memory", fmt.Sprintf("container_memory_usage_bytes{%s}", selector)},
		{"network", fmt.Sprintf("rate(container_network_receive_bytes_total{%s}[5m])", selector)},
	})
	if err != nil {
		return nil, err
	}

	return &models.PodMetricsBundle{
		Timestamp: s.now(),
		CPU:       results["cpu"],
		Memory:    results["memory"],
		Network:   results["network"],
	}, nil
}

// queryAll 并发执行查询，第一个错误会取消其余查询
func (s *PrometheusService) queryAll(ctx context.Context, operation string, queries []namedQuery) (map[string]json.RawMessage, error) {
	raw := make([]json.RawMessage, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			result, err := s.Query(gctx, q.query, nil)
			if err != nil {
				return err
			}
			raw[i] = result
			return nil
		})
	}
	err := g.Wait()
	s.recorder.RecordUpstream(metrics.TargetPrometheus, operation, err)
	if err != nil {
		return nil, err
	}

	results := make(map[string]json.RawMessage, len(queries))
	for i, q := range queries {
		results[q.name] = raw[i]
	}
	return results, nil
}

// buildQueryURL 构建即时查询 URL
func (s *PrometheusService) buildQueryURL(query string, at *time.Time) string {
	u := *s.endpoint
	u.Path = s.endpoint.Path + "/api/v1/query"

	params := url.Values{}
	params.Set("query", query)
	if at != nil {
		params.Set("time", strconv.FormatFloat(float64(at.UnixNano())/1e9, 'f', 3, 64))
	}
	u.RawQuery = params.Encode()
	return u.String()
}

// setAuth 设置认证
func (s *PrometheusService) setAuth(req *http.Request) {
	if s.username != "" {
		req.SetBasicAuth(s.username, s.password)
	}
}

var labelValueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// buildClusterSelector 构建集群标签选择器
func buildClusterSelector(clusterName string) string {
	return fmt.Sprintf(`cluster="%s"`, labelValueEscaper.Replace(clusterName))
}

// buildPodSelector 构建 Pod 标签选择器
func buildPodSelector(clusterName, namespace, podName string) string {
	return fmt.Sprintf(`cluster="%s", namespace="%s", pod="%s"`,
		labelValueEscaper.Replace(clusterName),
		labelValueEscaper.Replace(namespace),
		labelValueEscaper.Replace(podName),
	)
}
