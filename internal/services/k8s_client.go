package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clay-wangzhi/clusterhub/internal/models"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	sigsyaml "sigs.k8s.io/yaml"
)

// DefaultNamespace 未指定命名空间时使用
const DefaultNamespace = "default"

// K8sClient 单个集群的控制面连接器
type K8sClient struct {
	clientset kubernetes.Interface
}

// NewK8sClientFromKubeconfig 从kubeconfig创建客户端
func NewK8sClientFromKubeconfig(kubeconfig string, timeout time.Duration) (*K8sClient, error) {
	if strings.TrimSpace(kubeconfig) == "" {
		return nil, &ConnectorError{Op: "解析kubeconfig", Err: errors.New("kubeconfig 为空")}
	}

	config, err := clientcmd.RESTConfigFromKubeConfig([]byte(kubeconfig))
	if err != nil {
		return nil, &ConnectorError{Op: "解析kubeconfig", Err: err}
	}

	if timeout > 0 {
		config.Timeout = timeout
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, &ConnectorError{Op: "创建kubernetes客户端", Err: err}
	}

	return &K8sClient{clientset: clientset}, nil
}

// NewK8sClientFromClientset 使用已有 clientset 创建客户端
func NewK8sClientFromClientset(clientset kubernetes.Interface) *K8sClient {
	return &K8sClient{clientset: clientset}
}

// Probe 列出节点与命名空间，用于注册时的连通性探测
func (c *K8sClient) Probe(ctx context.Context) (*models.ProbeResult, error) {
	nodes, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, &ConnectorError{Op: "获取节点列表", Err: err}
	}

	namespaces, err := c.clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, &ConnectorError{Op: "获取命名空间列表", Err: err}
	}

	names := make([]string, 0, len(namespaces.Items))
	for _, ns := range namespaces.Items {
		names = append(names, ns.Name)
	}

	return &models.ProbeResult{
		NodeCount:  len(nodes.Items),
		Namespaces: names,
	}, nil
}

// ServerVersion 获取集群版本
func (c *K8sClient) ServerVersion(ctx context.Context) (string, error) {
	type result struct {
		version string
		err     error
	}
	// discovery 接口不接受 context，这里用 channel 让调用方的超时生效
	ch := make(chan result, 1)
	go func() {
		v, err := c.clientset.Discovery().ServerVersion()
		if err != nil {
			ch <- result{err: err}
			return
		}
		ch <- result{version: v.GitVersion}
	}()

	select {
	case <-ctx.Done():
		return "", &ConnectorError{Op: "获取集群版本", Err: ctx.Err()}
	case r := <-ch:
		if r.err != nil {
			return "", &ConnectorError{Op: "获取集群版本", Err: r.err}
		}
		return r.version, nil
	}
}

// ListPods 列出命名空间下的 Pod
func (c *K8sClient) ListPods(ctx context.Context, namespace string) ([]models.PodInfo, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	pods, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, &ConnectorError{Op: "获取Pod列表", Err: err}
	}

	result := make([]models.PodInfo, 0, len(pods.Items))
	for _, pod := range pods.Items {
		containers := make([]string, 0, len(pod.Spec.Containers))
		for _, ctr := range pod.Spec.Containers {
			containers = append(containers, ctr.Name)
		}
		result = append(result, models.PodInfo{
			Name:       pod.Name,
			Phase:      string(pod.Status.Phase),
			Containers: containers,
		})
	}
	return result, nil
}

// ResourceKind 支持应用的资源类型
type ResourceKind int

const (
	KindUnsupported ResourceKind = iota
	KindDeployment
)

// ParseResourceKind 大小写不敏感地识别资源类型
func ParseResourceKind(kind string) ResourceKind {
	switch strings.ToLower(kind) {
	case "deployment":
		return KindDeployment
	default:
		return KindUnsupported
	}
}

// manifestHeader 资源清单的通用头部
type manifestHeader struct {
	APIVersion string `json:"apiVersion"`
	Kind       string `json:"kind"`
	Metadata   struct {
		Name      string `json:"name"`
		Namespace string `json:"namespace"`
	} `json:"metadata"`
}

// ApplyManifest 应用资源清单，目前只支持 Deployment。
// 其他类型不会调用控制面，返回 Applied=false 的结果
func (c *K8sClient) ApplyManifest(ctx context.Context, manifest string) (*models.ManifestApplyResult, error) {
	var header manifestHeader
	if err := sigsyaml.Unmarshal([]byte(manifest), &header); err != nil {
		return nil, &ValidationError{Field: "manifest", Err: fmt.Errorf("YAML格式错误: %w", err)}
	}
	if header.APIVersion == "" || header.Kind == "" {
		return nil, &ValidationError{Field: "manifest", Err: errors.New("缺少必要字段: apiVersion 或 kind")}
	}

	namespace := header.Metadata.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	result := &models.ManifestApplyResult{
		Kind:      header.Kind,
		Namespace: namespace,
		Name:      header.Metadata.Name,
	}

	switch ParseResourceKind(header.Kind) {
	case KindDeployment:
		created, err := c.createDeployment(ctx, manifest, namespace)
		if err != nil {
			return nil, err
		}
		result.Name = created.Name
		result.Applied = true
		result.Object = created
	case KindUnsupported:
		// 暂未实现
	}
	return result, nil
}

// createDeployment 创建 Deployment
func (c *K8sClient) createDeployment(ctx context.Context, manifest, namespace string) (*appsv1.Deployment, error) {
	var deployment appsv1.Deployment
	if err := sigsyaml.Unmarshal([]byte(manifest), &deployment); err != nil {
		return nil, &ValidationError{Field: "manifest", Err: fmt.Errorf("无法转换为Deployment类型: %w", err)}
	}
	deployment.Namespace = namespace

	created, err := c.clientset.AppsV1().Deployments(namespace).Create(ctx, &deployment, metav1.CreateOptions{})
	if err != nil {
		return nil, &ConnectorError{Op: "创建Deployment", Err: err}
	}
	return created, nil
}
