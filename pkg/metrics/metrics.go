// Package metrics holds the prometheus collectors of the REST client and the
// stores, and the optional listener that serves them.
package metrics

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const namespace = "jobsify"

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	staleResponses  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rest_requests_total",
			Help:      "REST requests sent, by entity, method and status code.",
		}, []string{"entity", "method", "code"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rest_request_duration_seconds",
			Help:      "Latency of REST requests.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"entity", "method"}),
		staleResponses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_stale_responses_total",
			Help:      "List responses dropped because newer data was already applied.",
		}, []string{"entity"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest records one finished request. code is 0 when no response
// was received.
func (m *Metrics) ObserveRequest(entity, method string, code int, took time.Duration) {
	label := "error"
	if code != 0 {
		label = strconv.Itoa(code)
	}
	m.requests.WithLabelValues(entity, method, label).Inc()
	m.requestDuration.WithLabelValues(entity, method).Observe(took.Seconds())
}

// StaleHook returns the callback a store calls when it drops a response.
func (m *Metrics) StaleHook(entity string) func() {
	c := m.staleResponses.WithLabelValues(entity)
	return c.Inc
}

// Handler serves /metrics, /debug/vars and /debug/pprof.
func (m *Metrics) Handler() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	r.Handle("/debug/vars", expvar.Handler())
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	r.HandleFunc("/debug/pprof/trace", pprof.Trace)
	r.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	return r
}

// Serve runs the listener on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log *logrus.Entry) error {
	srv := &http.Server{Addr: addr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	log.WithField("listen", addr).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
