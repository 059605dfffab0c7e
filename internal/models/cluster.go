package models

import (
	"encoding/json"
	"net/url"
	"time"
)

// ClusterStatus 集群状态
type ClusterStatus string

const (
	ClusterStatusActive      ClusterStatus = "active"
	ClusterStatusUnreachable ClusterStatus = "unreachable"
)

// Cluster 已注册集群。Credentials 只在进程内使用，永不序列化
type Cluster struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description,omitempty"`
	Credentials     string        `json:"-"`
	MetricsEndpoint string        `json:"metricsEndpoint,omitempty"`
	Status          ClusterStatus `json:"status"`
	NodeCount       int           `json:"nodeCount"`
	Namespaces      []string      `json:"namespaces"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// MarshalJSON 序列化时隐藏指标端点中的密码
func (c Cluster) MarshalJSON() ([]byte, error) {
	type cluster Cluster
	out := cluster(c)
	out.MetricsEndpoint = redactEndpoint(c.MetricsEndpoint)
	return json.Marshal(out)
}

// redactEndpoint 把 userinfo 中的密码替换为 xxxxx
func redactEndpoint(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.User == nil {
		return endpoint
	}
	return u.Redacted()
}

// HasMetricsEndpoint 是否配置了指标端点
func (c *Cluster) HasMetricsEndpoint() bool {
	return c.MetricsEndpoint != ""
}

// CreateClusterRequest 注册集群请求
type CreateClusterRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	Credentials     string `json:"credentials" binding:"required"`
	MetricsEndpoint string `json:"metricsEndpoint"`
}

// ProbeResult 连通性探测结果
type ProbeResult struct {
	NodeCount  int      `json:"nodeCount"`
	Namespaces []string `json:"namespaces"`
}

// ClusterStatusInfo 集群实时连通状态
type ClusterStatusInfo struct {
	ClusterID string    `json:"clusterId"`
	Reachable bool      `json:"reachable"`
	Version   string    `json:"version,omitempty"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// PodInfo Pod 摘要，Phase 原样透传
type PodInfo struct {
	Name       string   `json:"name"`
	Phase      string   `json:"phase"`
	Containers []string `json:"containers"`
}

// MetricsSnapshot 集群指标快照，每个字段是指标端点返回的原始 JSON
type MetricsSnapshot struct {
	Timestamp   time.Time       `json:"timestamp"`
	CPUUsage    json.RawMessage `json:"cpuUsage"`
	MemoryUsage json.RawMessage `json:"memoryUsage"`
	PodCount    json.RawMessage `json:"podCount"`
	NodeCount   json.RawMessage `json:"nodeCount"`
}

// PodMetricsBundle Pod 指标集合
type PodMetricsBundle struct {
	Timestamp time.Time       `json:"timestamp"`
	CPU       json.RawMessage `json:"cpu"`
	Memory    json.RawMessage `json:"memory"`
	Network   json.RawMessage `json:"network"`
}

// ManifestApplyRequest 资源清单应用请求
type ManifestApplyRequest struct {
	Manifest string `json:"manifest" binding:"required"`
}

// ManifestApplyResult 资源清单应用结果，Applied 为 false 表示资源类型暂不支持
type ManifestApplyResult struct {
	Kind      string      `json:"kind"`
	Namespace string      `json:"namespace"`
	Name      string      `json:"name"`
	Applied   bool        `json:"applied"`
	Object    interface{} `json:"object,omitempty"`
}
