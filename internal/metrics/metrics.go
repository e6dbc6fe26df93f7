package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Recorder interface {
	IncRequestsTotal(route string, status int)
	ObserveRequestDuration(route string, duration time.Duration)
	IncProfilesCreated(status string)
	AddProxiesGenerated(n int)
	IncProxyClaims(result string)
	IncExternalCalls(result string)
}

type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	profilesCreated  *prometheus.CounterVec
	proxiesGenerated prometheus.Counter
	proxyClaims      *prometheus.CounterVec
	externalCalls    *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// the server and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "profilefarm_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "status"}),

		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "profilefarm_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		profilesCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "profilefarm_profiles_created_total",
			Help: "Profiles persisted, by registration status",
		}, []string{"status"}),

		proxiesGenerated: f.NewCounter(prometheus.CounterOpts{
			Name: "profilefarm_proxies_generated_total",
			Help: "Proxy records added to the pool",
		}),

		proxyClaims: f.NewCounterVec(prometheus.CounterOpts{
			Name: "profilefarm_proxy_claims_total",
			Help: "Attempts to claim an unused proxy, by result",
		}, []string{"result"}),

		externalCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "profilefarm_external_calls_total",
			Help: "Calls to the external profile service, by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncRequestsTotal(route string, status int) {
	m.requestsTotal.WithLabelValues(route, httpStatusBucket(status)).Inc()
}

func (m *Metrics) ObserveRequestDuration(route string, duration time.Duration) {
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Metrics) IncProfilesCreated(status string) {
	m.profilesCreated.WithLabelValues(status).Inc()
}

func (m *Metrics) AddProxiesGenerated(n int) {
	m.proxiesGenerated.Add(float64(n))
}

func (m *Metrics) IncProxyClaims(result string) {
	m.proxyClaims.WithLabelValues(result).Inc()
}

func (m *Metrics) IncExternalCalls(result string) {
	m.externalCalls.WithLabelValues(result).Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Noop discards everything.
type Noop struct{}

func (Noop) IncRequestsTotal(_ string, _ int)                 {}
func (Noop) ObserveRequestDuration(_ string, _ time.Duration) {}
func (Noop) IncProfilesCreated(_ string)                      {}
func (Noop) AddProxiesGenerated(_ int)                        {}
func (Noop) IncProxyClaims(_ string)                          {}
func (Noop) IncExternalCalls(_ string)                        {}
