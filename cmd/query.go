package main

import (
	"fmt"
	"time"

	"github.com/clay-wangzhi/clusterhub/internal/services"
	"github.com/clay-wangzhi/clusterhub/pkg/logger"

	"github.com/spf13/cobra"
)

// newQueryCmd 直接对指标端点执行一次查询，用于排查集群的 Prometheus 配置
func newQueryCmd() *cobra.Command {
	var (
		endpoint string
		cluster  string
	)

	cmd := &cobra.Command{
		Use:   "query [promql]",
		Short: "对 Prometheus 端点执行即时查询",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Level)

			prom, err := services.NewPrometheusService(endpoint,
				services.NewPrometheusHTTPClient(cfg.Prometheus.InsecureSkipVerify),
				cfg.Prometheus.Timeout, nil)
			if err != nil {
				return err
			}

			// 未指定表达式时输出集群指标快照
			if len(args) == 0 {
				snapshot, err := prom.GetClusterMetrics(cmd.Context(), cluster)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "timestamp: %s\ncpu: %s\nmemory: %s\npods: %s\nnodes: %s\n",
					snapshot.Timestamp.Format(time.RFC3339),
					snapshot.CPUUsage, snapshot.MemoryUsage, snapshot.PodCount, snapshot.NodeCount)
				return nil
			}

			raw, err := prom.Query(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "http://localhost:9090", "Prometheus 地址")
	cmd.Flags().StringVar(&cluster, "cluster", "", "集群名称（cluster 标签值）")
	return cmd
}
