package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.ObserveRequest("GET", "/api/v1/clusters", 200, time.Millisecond)
		r.RecordRegistration(nil)
		r.RecordUpstream(TargetKubernetes, "probe", errors.New("boom"))
	})
	assert.Nil(t, r.Registry())

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecorder_RecordRegistration(t *testing.T) {
	r := New()

	r.RecordRegistration(nil)
	r.RecordRegistration(nil)
	r.RecordRegistration(errors.New("probe failed"))

	assert.Equal(t, float64(2), testutil.ToFloat64(r.registrations.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.registrations.WithLabelValues("failure")))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.clusters))
}

func TestRecorder_RecordUpstream(t *testing.T) {
	r := New()

	r.RecordUpstream(TargetPrometheus, "cluster_metrics", nil)
	r.RecordUpstream(TargetPrometheus, "cluster_metrics", errors.New("timeout"))
	r.RecordUpstream(TargetKubernetes, "list_pods", nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.upstreamCalls.WithLabelValues(TargetPrometheus, "cluster_metrics", "failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.upstreamCalls.WithLabelValues(TargetKubernetes, "list_pods", "success")))
}

func TestRecorder_ObserveRequest(t *testing.T) {
	r := New()

	r.ObserveRequest("GET", "", 404, time.Millisecond)
	r.ObserveRequest("POST", "/api/v1/clusters", 200, 20*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.httpRequests.WithLabelValues("POST", "/api/v1/clusters", "200")))

	count, err := testutil.GatherAndCount(r.Registry(), "clusterhub_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
