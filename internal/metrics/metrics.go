package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BarsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bars_total", Help: "Bars pushed through the decision step"},
		[]string{"symbol"},
	)
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "decisions_total", Help: "Instructions emitted, by action"},
		[]string{"symbol", "action"},
	)
	InterpretationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "interpretations_total", Help: "Language model calls, by outcome"},
		[]string{"provider", "outcome"},
	)
	InterpretationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interpretation_latency_seconds",
			Help:    "Round trip time of language model calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side"},
	)
)

func init() {
	prometheus.MustRegister(BarsTotal, DecisionsTotal, InterpretationsTotal, InterpretationLatency, OrdersTotal)
}

// Serve exposes /metrics on addr in the background. An empty addr disables it.
func Serve(addr string) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
