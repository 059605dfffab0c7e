// Package metrics 提供服务自身的 Prometheus 指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clusterhub"

// 上游类型
const (
	TargetKubernetes = "kubernetes"
	TargetPrometheus = "prometheus"
)

// Recorder 指标记录器，nil 值可安全调用，所有方法均为空操作
type Recorder struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	registrations *prometheus.CounterVec
	upstreamCalls *prometheus.CounterVec
	clusters      prometheus.Gauge
}

// New 创建指标记录器，使用独立的 Registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cluster_registrations_total",
			Help:      "Cluster registration attempts by result.",
		}, []string{"result"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_calls_total",
			Help:      "Calls to cluster control planes and metrics endpoints.",
		}, []string{"target", "operation", "result"}),
		clusters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registered_clusters",
			Help:      "Number of clusters in the registry.",
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.httpRequests,
		r.httpDuration,
		r.registrations,
		r.upstreamCalls,
		r.clusters,
	)
	return r
}

// Registry 返回底层 Registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler 暴露 /metrics
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveRequest 记录一次 HTTP 请求
func (r *Recorder) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordRegistration 记录注册结果，成功时集群数加一
func (r *Recorder) RecordRegistration(err error) {
	if r == nil {
		return
	}
	r.registrations.WithLabelValues(result(err)).Inc()
	if err == nil {
		r.clusters.Inc()
	}
}

// RecordUpstream 记录上游调用结果
func (r *Recorder) RecordUpstream(target, operation string, err error) {
	if r == nil {
		return
	}
	r.upstreamCalls.WithLabelValues(target, operation, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
