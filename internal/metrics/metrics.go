// Package metrics holds the Prometheus collectors of the service. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lpr"

type Metrics struct {
	detectionsTotal  *prometheus.CounterVec
	recognizeSeconds *prometheus.HistogramVec
	storeOpsTotal    *prometheus.CounterVec
	publishTotal     *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		detectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Detection requests by mode and outcome.",
		}, []string{"mode", "outcome"}), // outcome: found, not_found, error
		recognizeSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recognize_duration_seconds",
			Help:      "Latency of plate recognizer calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}, []string{"provider", "outcome"}),
		storeOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Detection store operations by backend, operation and result.",
		}, []string{"backend", "op", "result"}),
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Detection events handed to publishers.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{
		m.detectionsTotal, m.recognizeSeconds, m.storeOpsTotal,
		m.publishTotal, m.httpRequests, m.httpDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Detection(mode, outcome string) {
	if m == nil {
		return
	}
	m.detectionsTotal.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) Recognize(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.recognizeSeconds.WithLabelValues(provider, outcome).Observe(d.Seconds())
}

func (m *Metrics) StoreOp(backend, op string, err error) {
	if m == nil {
		return
	}
	m.storeOpsTotal.WithLabelValues(backend, op, result(err)).Inc()
}

func (m *Metrics) Published(err error) {
	if m == nil {
		return
	}
	m.publishTotal.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
