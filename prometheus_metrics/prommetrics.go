package prometheus_metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultPort = "9746"

var jobLabels = []string{"command", "position", "schedule"}

// getAddr appends DefaultPort to a listen address that has none.
func getAddr(listenAddr string) (string, error) {
	if _, _, err := net.SplitHostPort(listenAddr); err == nil {
		return listenAddr, nil
	}

	host := strings.TrimSuffix(strings.TrimPrefix(listenAddr, "["), "]")
	if host == "" {
		return "", errors.New("empty prometheus listen address")
	}

	return net.JoinHostPort(host, DefaultPort), nil
}

type PrometheusMetrics struct {
	CronsCurrentlyRunningGauge   *prometheus.GaugeVec
	CronsExecCounter             *prometheus.CounterVec
	CronsSuccessCounter          *prometheus.CounterVec
	CronsFailCounter             *prometheus.CounterVec
	CronsStartFailCounter        *prometheus.CounterVec
	CronsDeadlineExceededCounter *prometheus.CounterVec
	CronsExecutionTimeHistogram  *prometheus.HistogramVec
	registry                     *prometheus.Registry
	listenAddr                   string

	mu     sync.Mutex
	srv    *http.Server
	closed bool
}

func New(promListenAddr string) *PrometheusMetrics {
	pm := PrometheusMetrics{}

	pm.listenAddr = promListenAddr
	pm.registry = prometheus.NewRegistry()

	pm.CronsCurrentlyRunningGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dockercronic_currently_running",
			Help: "count of containers started by a cron fire and not yet exited",
		},
		jobLabels,
	)
	pm.registry.MustRegister(pm.CronsCurrentlyRunningGauge)

	pm.CronsExecCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dockercronic_executions",
			Help: "count of cron fires",
		},
		jobLabels,
	)
	pm.registry.MustRegister(pm.CronsExecCounter)

	pm.CronsSuccessCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dockercronic_successful_executions",
			Help: "count of cron fires whose container exited cleanly",
		},
		jobLabels,
	)
	pm.registry.MustRegister(pm.CronsSuccessCounter)

	pm.CronsFailCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dockercronic_failed_executions",
			Help: "count of cron fires that did not complete successfully, by outcome",
		},
		append([]string{"outcome"}, jobLabels...),
	)
	pm.registry.MustRegister(pm.CronsFailCounter)

	pm.CronsStartFailCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dockercronic_start_failures",
			Help: "count of cron fires whose container could not be started",
		},
		jobLabels,
	)
	pm.registry.MustRegister(pm.CronsStartFailCounter)

	pm.CronsDeadlineExceededCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dockercronic_deadline_exceeded",
			Help: "count of scheduled fires skipped because the previous one was still running",
		},
		jobLabels,
	)
	pm.registry.MustRegister(pm.CronsDeadlineExceededCounter)

	pm.CronsExecutionTimeHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dockercronic_cron_execution_time_seconds",
			Help:    "execution times of the cron runs in buckets",
			Buckets: []float64{10.0, 30.0, 60.0, 120.0, 300.0, 600.0, 1800.0, 3600.0},
		},
		jobLabels,
	)
	pm.registry.MustRegister(pm.CronsExecutionTimeHistogram)

	return &pm
}

// Reset drops every series. Called when the crontab is reloaded so that
// removed jobs stop being exported.
func (p *PrometheusMetrics) Reset() {
	p.CronsCurrentlyRunningGauge.Reset()
	p.CronsExecCounter.Reset()
	p.CronsSuccessCounter.Reset()
	p.CronsFailCounter.Reset()
	p.CronsStartFailCounter.Reset()
	p.CronsDeadlineExceededCounter.Reset()
	p.CronsExecutionTimeHistogram.Reset()
}

func (p *PrometheusMetrics) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>
             <head><title>Dockercronic</title></head>
             <body>
             <h1>Dockercronic</h1>
             <p><a href='/metrics'>Metrics</a></p>
             </body>
             </html>`))
	})

	return mux
}

func (p *PrometheusMetrics) InitHTTPServer() error {
	addr, err := getAddr(p.listenAddr)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return http.ErrServerClosed
	}
	srv := &http.Server{Addr: addr, Handler: p.Handler()}
	p.srv = srv
	p.mu.Unlock()

	return srv.ListenAndServe()
}

// ShutdownHTTPServer stops the server, and keeps a later InitHTTPServer from
// starting one.
func (p *PrometheusMetrics) ShutdownHTTPServer(c context.Context) error {
	p.mu.Lock()
	p.closed = true
	srv := p.srv
	p.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(c)
}
