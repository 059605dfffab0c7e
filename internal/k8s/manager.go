package k8s

import (
	"fmt"
	"sync"

	"github.com/clay-wangzhi/clusterhub/internal/models"
	"github.com/clay-wangzhi/clusterhub/internal/services"
	"github.com/clay-wangzhi/clusterhub/pkg/logger"
)

// ClusterClientManager 统一管理各已注册集群的控制面连接器。
// 凭据不可变，所以每个集群只构造一次连接器
type ClusterClientManager struct {
	mu         sync.RWMutex
	connectors map[string]services.Connector
	factory    services.ConnectorFactory
}

// NewClusterClientManager 创建连接器管理器
func NewClusterClientManager(factory services.ConnectorFactory) *ClusterClientManager {
	return &ClusterClientManager{
		connectors: make(map[string]services.Connector),
		factory:    factory,
	}
}

// ForCluster 返回集群的连接器，首次访问时创建
func (m *ClusterClientManager) ForCluster(cluster *models.Cluster) (services.Connector, error) {
	m.mu.RLock()
	conn, ok := m.connectors[cluster.ID]
	m.mu.RUnlock()
	if ok {
		return conn, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// 双重检查，避免并发请求重复创建
	if conn, ok := m.connectors[cluster.ID]; ok {
		return conn, nil
	}

	conn, err := m.factory(cluster.Credentials)
	if err != nil {
		return nil, fmt.Errorf("为集群 %s 创建客户端失败: %w", cluster.Name, err)
	}
	m.connectors[cluster.ID] = conn
	logger.Debug("已为集群创建连接器: id=%s, name=%s", cluster.ID, cluster.Name)
	return conn, nil
}

// Len 已创建的连接器数量
func (m *ClusterClientManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connectors)
}
