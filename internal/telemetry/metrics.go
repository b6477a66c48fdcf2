// Package telemetry exposes Prometheus metrics for simulation runs and the HTTP surface.
package telemetry

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the simulator's metrics. It satisfies simulation.Observer.
type Collector struct {
	gatherer prometheus.Gatherer

	Runs           *prometheus.CounterVec
	RunDurations   prometheus.Histogram
	SimulatedHours prometheus.Counter
	TradedKWh      prometheus.Counter

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

// NewCollector registers the metrics against reg, defaulting to the global registry
// when nil. Registering twice against the same registry reuses the existing metrics.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lec_simulations_total",
		Help: "Simulation runs by outcome (ok, invalid, error).",
	}, []string{"status"}), "lec_simulations_total")
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lec_simulation_duration_seconds",
		Help:    "Wall time of a simulation run in seconds.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}), "lec_simulation_duration_seconds")
	if err != nil {
		return nil, err
	}
	hours, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lec_simulated_hours_total",
		Help: "Hours simulated across all successful runs.",
	}), "lec_simulated_hours_total")
	if err != nil {
		return nil, err
	}
	traded, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lec_traded_kwh_total",
		Help: "Energy cleared on the community market across all successful runs.",
	}), "lec_traded_kwh_total")
	if err != nil {
		return nil, err
	}
	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lec_http_requests_total",
		Help: "Handled HTTP requests by method, route and status code.",
	}, []string{"method", "route", "code"}), "lec_http_requests_total")
	if err != nil {
		return nil, err
	}
	latency, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lec_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"}), "lec_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:       gatherer,
		Runs:           runs,
		RunDurations:   durations,
		SimulatedHours: hours,
		TradedKWh:      traded,
		HTTPRequests:   requests,
		HTTPDurations:  latency,
	}, nil
}

func (c *Collector) RunFinished(status string, elapsed time.Duration, hours int, tradedKWh float64) {
	if c == nil {
		return
	}
	c.Runs.WithLabelValues(status).Inc()
	c.RunDurations.Observe(elapsed.Seconds())
	if status == "ok" {
		c.SimulatedHours.Add(float64(hours))
		c.TradedKWh.Add(tradedKWh)
	}
}

// Middleware records request counts and latency per matched route.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method
		c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.HTTPDurations.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
