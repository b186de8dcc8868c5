package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voting-game/internal/game"
)

// Metrics owns a private prometheus registry so several servers can live in
// one process, as they do in tests.
type Metrics struct {
	registry        *prometheus.Registry
	roomsCreated    prometheus.Counter
	eventsPublished *prometheus.CounterVec
	eventsDropped   prometheus.Counter
	persistDropped  prometheus.Counter
	wsConnections   prometheus.Gauge
	httpRequests    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		roomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voting_rooms_created_total",
			Help: "Rooms created since start.",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voting_events_published_total",
			Help: "Room events fanned out to websocket clients.",
		}, []string{"event"}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voting_events_dropped_total",
			Help: "Websocket messages dropped because a client buffer was full.",
		}),
		persistDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voting_persist_dropped_total",
			Help: "Persistence writes dropped because the queue was full.",
		}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voting_ws_connections",
			Help: "Open websocket connections.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voting_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.roomsCreated,
		m.eventsPublished,
		m.eventsDropped,
		m.persistDropped,
		m.wsConnections,
		m.httpRequests,
	)
	return m
}

// PersistDropped counts a dropped persistence write.
func (m *Metrics) PersistDropped() {
	m.persistDropped.Inc()
}

func (m *Metrics) trackRegistry(registry *game.Registry) {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "voting_live_rooms",
		Help: "Rooms currently held in memory.",
	}, func() float64 { return float64(registry.Len()) })
	if err := m.registry.Register(gauge); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			panic(err)
		}
	}
}

func (m *Metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
