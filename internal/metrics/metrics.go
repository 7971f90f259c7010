// Package metrics registers Prometheus instruments shared by the pipeline and trading loops.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "aurabot_ticks_total", Help: "Count of market ticks ingested"},
		[]string{"symbol"},
	)
	LaunchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "aurabot_launches_total", Help: "New token launches observed on-chain"},
	)
	PostsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "aurabot_posts_total", Help: "Social posts ingested"},
		[]string{"keyword"},
	)
	SamplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "aurabot_samples_total", Help: "Synced dataset samples persisted"},
		[]string{"source"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "aurabot_orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side"},
	)
	FillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "aurabot_fills_total", Help: "Simulated fills produced"},
		[]string{"symbol", "side"},
	)
	RiskRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "aurabot_risk_rejections_total", Help: "Orders rejected by the risk manager"},
		[]string{"reason"},
	)
	Equity = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "aurabot_equity", Help: "Marked paper account equity"},
	)
)

func init() {
	prometheus.MustRegister(
		TicksTotal,
		LaunchesTotal,
		PostsTotal,
		SamplesTotal,
		OrdersTotal,
		FillsTotal,
		RiskRejections,
		Equity,
	)
}

// Serve exposes /metrics on the supplied address and returns the server handle.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
