package httpmetrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Yaroher2442/FORTIFIED/internal/observability/metrics"
)

// Collector records request counts, in-flight requests and latency. Paths are
// normalized so ids do not explode label cardinality.
type Collector struct {
	total    *prometheus.CounterVec
	inFlight prometheus.Gauge
	duration *prometheus.HistogramVec
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wrote {
		return
	}
	r.wrote = true
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func New() *Collector {
	return &Collector{
		total:    metrics.AuthRequestsTotal,
		inFlight: metrics.AuthRequestsInFlight,
		duration: metrics.AuthRequestDurationSeconds,
	}
}

func (c *Collector) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		method := r.Method
		path := NormalizePath(r.URL.Path)

		c.total.WithLabelValues(method, path).Inc()
		c.inFlight.Inc()
		defer c.inFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		statusClass := fmt.Sprintf("%dxx", rec.status/100)
		c.duration.WithLabelValues(method, path, statusClass).Observe(time.Since(start).Seconds())
	})
}
