package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Makepad-fr/tada/internal/store"
)

// metrics keeps a private registry fed by a store observer and an HTTP
// middleware.
type metrics struct {
	reg       *prometheus.Registry
	mutations *prometheus.CounterVec
	todos     prometheus.Gauge
	missing   *prometheus.CounterVec
	requests  *prometheus.CounterVec

	store *store.Store
	sub   store.Subscription
}

func newMetrics(s *store.Store) *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tada", Subsystem: "store", Name: "mutations_total",
			Help: "Applied store mutations by operation.",
		}, []string{"op"}),
		todos: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tada", Subsystem: "store", Name: "todos",
			Help: "Number of todos currently stored.",
		}),
		missing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tada", Subsystem: "http", Name: "not_found_total",
			Help: "Requests that named a todo that does not exist.",
		}, []string{"route"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tada", Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		store: s,
	}
	m.reg.MustRegister(m.mutations, m.todos, m.missing, m.requests)

	m.todos.Set(float64(s.Len()))
	m.sub = s.Subscribe(func(ev store.Event) {
		m.mutations.WithLabelValues(string(ev.Op)).Inc()
		m.todos.Set(float64(len(ev.Snapshot)))
	})
	return m
}

func (m *metrics) close() { m.store.Unsubscribe(m.sub) }

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *metrics) notFound(c *gin.Context) {
	m.missing.WithLabelValues(routeLabel(c)).Inc()
}

func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		m.requests.WithLabelValues(c.Request.Method, routeLabel(c), strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// routeLabel uses the route pattern so ids do not explode cardinality.
func routeLabel(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}
