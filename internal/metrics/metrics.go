// Package metrics holds the Prometheus instrumentation, the health
// snapshot served on /healthz, and the standalone ops HTTP server.
package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds all Prometheus metrics for the signal engine.
type Metrics struct {
	TicksTotal    *prometheus.CounterVec
	TicksDropped  prometheus.Counter
	CandlesClosed *prometheus.CounterVec

	SignalsTotal      *prometheus.CounterVec
	SignalsSuppressed prometheus.Counter
	EvalDur           prometheus.Histogram

	FeedReconnects *prometheus.CounterVec
	SeedFailures   prometheus.Counter
	ActiveFeeds    prometheus.Gauge

	Viewers          prometheus.Gauge
	BroadcastDropped prometheus.Counter

	WebhookDelivered prometheus.Counter
	WebhookFailed    prometheus.Counter
	WebhookDropped   prometheus.Counter
}

// New registers and returns all engine metrics on reg. Taking the
// registerer as a parameter keeps tests free to use private registries.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_ticks_total",
			Help: "Kline ticks received from the upstream stream (by symbol)",
		}, []string{"symbol"}),
		TicksDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_ticks_dropped_total",
			Help: "Ticks discarded by the candle buffer (out-of-order bucket openings)",
		}),
		CandlesClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_candles_closed_total",
			Help: "Closed 1m candles applied to a symbol's history",
		}, []string{"symbol"}),

		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_signals_total",
			Help: "Signals broadcast to viewers (by strategy and action)",
		}, []string{"strategy", "action"}),
		SignalsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_signals_suppressed_total",
			Help: "Evaluator outputs suppressed because the action did not change",
		}),
		EvalDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigengine_eval_duration_seconds",
			Help:    "Full strategy evaluation pass latency per closed candle",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),

		FeedReconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_feed_reconnects_total",
			Help: "Upstream stream reconnection attempts (by symbol)",
		}, []string{"symbol"}),
		SeedFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_seed_failures_total",
			Help: "History seed fetches that failed (feed continues with what it has)",
		}),
		ActiveFeeds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sigengine_active_feeds",
			Help: "Symbols with a live upstream feed",
		}),

		Viewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sigengine_viewers",
			Help: "Connected viewer WebSocket sessions",
		}),
		BroadcastDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_broadcast_dropped_total",
			Help: "Broadcast events dropped because a viewer's send queue was full",
		}),

		WebhookDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_webhook_delivered_total",
			Help: "Signal notifications delivered to the webhook sink",
		}),
		WebhookFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_webhook_failed_total",
			Help: "Signal notifications the webhook sink rejected or timed out",
		}),
		WebhookDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_webhook_dropped_total",
			Help: "Signal notifications dropped because the webhook queue was full",
		}),
	}

	reg.MustRegister(
		m.TicksTotal,
		m.TicksDropped,
		m.CandlesClosed,
		m.SignalsTotal,
		m.SignalsSuppressed,
		m.EvalDur,
		m.FeedReconnects,
		m.SeedFailures,
		m.ActiveFeeds,
		m.Viewers,
		m.BroadcastDropped,
		m.WebhookDelivered,
		m.WebhookFailed,
		m.WebhookDropped,
	)

	return m
}

// HealthStatus is the mutable health snapshot behind /healthz.
type HealthStatus struct {
	mu sync.RWMutex

	startedAt   time.Time
	lastTick    time.Time
	activeFeeds int
	viewers     int
}

// NewHealthStatus returns a health status anchored at now.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{startedAt: time.Now()}
}

func (h *HealthStatus) SetLastTick(t time.Time) {
	h.mu.Lock()
	h.lastTick = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetActiveFeeds(n int) {
	h.mu.Lock()
	h.activeFeeds = n
	h.mu.Unlock()
}

func (h *HealthStatus) SetViewers(n int) {
	h.mu.Lock()
	h.viewers = n
	h.mu.Unlock()
}

// ServeHTTP handles /healthz. Upstream silence shows up as a growing
// tick age, never as a non-200: the engine itself is still healthy.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "ok"
	tickAge := ""
	if !h.lastTick.IsZero() {
		age := time.Since(h.lastTick)
		tickAge = age.Round(time.Millisecond).String()
		if h.activeFeeds > 0 && age > 90*time.Second {
			status = "stale"
		}
	}

	resp := struct {
		Status      string `json:"status"`
		Uptime      string `json:"uptime"`
		ActiveFeeds int    `json:"active_feeds"`
		Viewers     int    `json:"viewers"`
		LastTick    string `json:"last_tick_time,omitempty"`
		TickAge     string `json:"tick_age,omitempty"`
	}{
		Status:      status,
		Uptime:      time.Since(h.startedAt).Round(time.Second).String(),
		ActiveFeeds: h.activeFeeds,
		Viewers:     h.viewers,
		TickAge:     tickAge,
	}
	if !h.lastTick.IsZero() {
		resp.LastTick = h.lastTick.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Server runs the ops HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
	log  *zap.Logger
}

// NewServer creates the ops server for the given registry and health.
func NewServer(addr string, reg *prometheus.Registry, health *HealthStatus, log *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)

	return &Server{
		addr: addr,
		log:  log,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("ops server listening", zap.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Error("ops server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the ops server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
