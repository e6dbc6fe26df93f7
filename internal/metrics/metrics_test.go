package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusBucket(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{101, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{304, "3xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, httpStatusBucket(tt.code))
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncRequestsTotal("/profile/{uuid}", 200)
	m.IncRequestsTotal("/profile/{uuid}", 204)
	m.IncRequestsTotal("/profile/{uuid}", 404)
	m.ObserveRequestDuration("/profile/{uuid}", 10*time.Millisecond)
	m.IncProfilesCreated("registered")
	m.IncProfilesCreated("pending")
	m.IncProfilesCreated("registered")
	m.AddProxiesGenerated(5)
	m.IncProxyClaims("exhausted")
	m.IncExternalCalls("error")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestsTotal.WithLabelValues("/profile/{uuid}", "2xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("/profile/{uuid}", "4xx")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.profilesCreated.WithLabelValues("registered")))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.proxiesGenerated))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.proxyClaims.WithLabelValues("exhausted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.externalCalls.WithLabelValues("error")))
}

func TestNoop_SatisfiesRecorder(t *testing.T) {
	var r Recorder = Noop{}
	r.IncRequestsTotal("/", 200)
	r.AddProxiesGenerated(3)
}
