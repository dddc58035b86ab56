package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/agentrouter/router"
)

var latencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}

// Options configures a Collector.
type Options struct {
	// Namespace prefixes every metric name.
	Namespace string
	// GoCollectors registers the Go runtime and process collectors.
	GoCollectors bool
}

// Collector records route, model and HTTP metrics.
type Collector struct {
	registry *prometheus.Registry

	routes        *prometheus.CounterVec
	routeDuration *prometheus.HistogramVec
	modelCalls    *prometheus.CounterVec
	modelDuration *prometheus.HistogramVec
	modelTokens   *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	httpInFlight  prometheus.Gauge
}

var _ router.Observer = (*Collector)(nil)

// New creates a Collector with a private registry.
func New(optFns ...func(o *Options)) *Collector {
	opts := Options{Namespace: "agentrouter"}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "routes_total",
			Help:      "Routed requests by agent, selection reason and outcome kind.",
		}, []string{"agent", "reason", "kind"}),
		routeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "route_duration_seconds",
			Help:      "End-to-end routing latency.",
			Buckets:   latencyBuckets,
		}, []string{"kind"}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "model_calls_total",
			Help:      "Model invocations by provider, model and outcome.",
		}, []string{"provider", "model", "outcome"}),
		modelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Model call latency.",
			Buckets:   latencyBuckets,
		}, []string{"provider", "model"}),
		modelTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "model_tokens_total",
			Help:      "Tokens reported by the model provider.",
		}, []string{"provider", "model", "type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   latencyBuckets,
		}, []string{"method", "path"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: opts.Namespace,
			Name:      "http_requests_in_flight",
			Help:      "Currently active HTTP requests.",
		}),
	}

	c.registry.MustRegister(
		c.routes, c.routeDuration,
		c.modelCalls, c.modelDuration, c.modelTokens,
		c.httpRequests, c.httpDuration, c.httpInFlight,
	)
	if opts.GoCollectors {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ModelCalled implements router.Observer.
func (c *Collector) ModelCalled(ev router.ModelEvent) {
	outcome := "success"
	if ev.Err != nil {
		outcome = router.ErrorKind(ev.Err)
	}
	c.modelCalls.WithLabelValues(ev.Model.Provider, ev.Model.Name, outcome).Inc()
	c.modelDuration.WithLabelValues(ev.Model.Provider, ev.Model.Name).Observe(ev.Duration.Seconds())

	if ev.Usage != nil {
		c.modelTokens.WithLabelValues(ev.Model.Provider, ev.Model.Name, "prompt").Add(float64(ev.Usage.PromptTokens))
		c.modelTokens.WithLabelValues(ev.Model.Provider, ev.Model.Name, "completion").Add(float64(ev.Usage.CompletionTokens))
	}
}

// RouteCompleted implements router.Observer.
func (c *Collector) RouteCompleted(ev router.RouteEvent) {
	agent := ev.Agent
	if agent == "" {
		agent = "none"
	}
	reason := string(ev.Match.Reason)
	if reason == "" {
		reason = "none"
	}
	c.routes.WithLabelValues(agent, reason, ev.Kind).Inc()
	c.routeDuration.WithLabelValues(ev.Kind).Observe(ev.Duration.Seconds())
}

// ObserveHTTP records one finished HTTP request.
func (c *Collector) ObserveHTTP(method, path string, status int, dur time.Duration) {
	if path == "" {
		path = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, path).Observe(dur.Seconds())
}

// GinMiddleware returns a gin middleware that records HTTP metrics. Paths are
// labelled with the route template, never the raw URL.
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		c.httpInFlight.Inc()
		defer c.httpInFlight.Dec()

		start := time.Now()
		ctx.Next()
		c.ObserveHTTP(ctx.Request.Method, ctx.FullPath(), ctx.Writer.Status(), time.Since(start))
	}
}
