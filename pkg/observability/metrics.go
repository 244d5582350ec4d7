package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is implemented by every metrics sink
type Recorder interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
	ObserveCommand(name string, d time.Duration, err error)
	ObserveQuery(name string, d time.Duration, err error)
	ObserveLLMCall(provider string, d time.Duration, err error)
	SetPersistQueueDepth(depth int)
	IncPersistFailure(stage string)
}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = (*CloudWatchMetrics)(nil)
	_ Recorder = Fanout(nil)
)

// Fanout sends every observation to each of its recorders
type Fanout []Recorder

// ObserveHTTP records one HTTP request
func (f Fanout) ObserveHTTP(method, route string, status int, d time.Duration) {
	for _, r := range f {
		r.ObserveHTTP(method, route, status, d)
	}
}

// ObserveCommand records one command
func (f Fanout) ObserveCommand(name string, d time.Duration, err error) {
	for _, r := range f {
		r.ObserveCommand(name, d, err)
	}
}

// ObserveQuery records one query
func (f Fanout) ObserveQuery(name string, d time.Duration, err error) {
	for _, r := range f {
		r.ObserveQuery(name, d, err)
	}
}

// ObserveLLMCall records one completion
func (f Fanout) ObserveLLMCall(provider string, d time.Duration, err error) {
	for _, r := range f {
		r.ObserveLLMCall(provider, d, err)
	}
}

// SetPersistQueueDepth sets the save queue depth
func (f Fanout) SetPersistQueueDepth(depth int) {
	for _, r := range f {
		r.SetPersistQueueDepth(depth)
	}
}

// IncPersistFailure counts a failed persistence stage
func (f Fanout) IncPersistFailure(stage string) {
	for _, r := range f {
		r.IncPersistFailure(stage)
	}
}

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	Queries         *prometheus.CounterVec
	QueryDuration   *prometheus.HistogramVec

	LLMCalls    *prometheus.CounterVec
	LLMDuration *prometheus.HistogramVec

	PersistQueueDepth prometheus.Gauge
	PersistFailures   *prometheus.CounterVec
}

// NewCollector creates a collector on its own registry, so tests can build
// as many as they like.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands handled by type and outcome",
		}, []string{"command", "status"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"command"}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries handled by type and outcome",
		}, []string{"query", "status"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		LLMCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "LLM completions by provider and outcome",
		}, []string{"provider", "status"}),
		LLMDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "LLM completion latency in seconds",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}, []string{"provider"}),
		PersistQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "persist_queue_depth",
			Help:      "Save jobs waiting for a persistence worker",
		}),
		PersistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Background persistence failures by stage",
		}, []string{"stage"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests, c.HTTPDuration,
		c.Commands, c.CommandDuration,
		c.Queries, c.QueryDuration,
		c.LLMCalls, c.LLMDuration,
		c.PersistQueueDepth, c.PersistFailures,
	)
	return c
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveHTTP records one HTTP request
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveCommand records one command
func (c *Collector) ObserveCommand(name string, d time.Duration, err error) {
	c.Commands.WithLabelValues(name, outcome(err)).Inc()
	c.CommandDuration.WithLabelValues(name).Observe(d.Seconds())
}

// ObserveQuery records one query
func (c *Collector) ObserveQuery(name string, d time.Duration, err error) {
	c.Queries.WithLabelValues(name, outcome(err)).Inc()
	c.QueryDuration.WithLabelValues(name).Observe(d.Seconds())
}

// ObserveLLMCall records one completion
func (c *Collector) ObserveLLMCall(provider string, d time.Duration, err error) {
	c.LLMCalls.WithLabelValues(provider, outcome(err)).Inc()
	c.LLMDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// SetPersistQueueDepth sets the save queue gauge
func (c *Collector) SetPersistQueueDepth(depth int) {
	c.PersistQueueDepth.Set(float64(depth))
}

// IncPersistFailure counts a failed persistence stage
func (c *Collector) IncPersistFailure(stage string) {
	c.PersistFailures.WithLabelValues(stage).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
