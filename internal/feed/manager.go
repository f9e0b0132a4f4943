package feed

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tradevault-engine/internal/gateway"
	"tradevault-engine/internal/metrics"
	"tradevault-engine/internal/model"
	"tradevault-engine/internal/strategy"
)

// evalMinBars gates strategy evaluation until the buffer carries enough
// bars for the slowest strategy window.
const evalMinBars = 50

// Source is the upstream market-data provider: a bounded REST window
// for seeding plus a blocking kline stream for live ticks.
type Source interface {
	RecentKlines(ctx context.Context, symbol string, limit int) ([]model.Kline, error)

	// StreamKlines blocks for the life of one connection, invoking fn
	// for every kline tick. It returns when the connection dies or ctx
	// is cancelled; retrying is the caller's business.
	StreamKlines(ctx context.Context, symbol string, fn func(model.Kline)) error
}

// Config carries the manager knobs resolved by the config package.
type Config struct {
	SeedLimit      int
	SeedTimeout    time.Duration
	ReconnectDelay time.Duration
}

func (c *Config) defaults() {
	if c.SeedLimit <= 0 {
		c.SeedLimit = MaxCandles
	}
	if c.SeedTimeout <= 0 {
		c.SeedTimeout = 10 * time.Second
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 5 * time.Second
	}
}

// symbolFeed is the owned state bundle for one subscribed symbol. Its
// feed goroutine is the only writer of history and dedup state.
type symbolFeed struct {
	symbol     string
	strategies []string
	evaluators []strategy.Evaluator
	history    *History
	dedup      *strategy.Dedup

	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns one upstream feed and one candle history per subscribed
// symbol, runs the evaluators on every closed bar, and pushes price and
// signal events to whoever is wired into Broadcast.
type Manager struct {
	source  Source
	cfg     Config
	log     *zap.Logger
	metrics *metrics.Metrics
	health  *metrics.HealthStatus

	// Broadcast pushes gateway events to the viewer hub. Wired by main;
	// a no-op until then.
	Broadcast func(v any)

	// OnSignal, when set, observes every emitted signal after its
	// broadcast. Main hangs the webhook sender here.
	OnSignal func(symbol, strategyName string, sig *strategy.Signal, openTime int64)

	mu    sync.Mutex
	feeds map[string]*symbolFeed
}

// NewManager creates a manager over the given source.
func NewManager(source Source, cfg Config, m *metrics.Metrics, health *metrics.HealthStatus, log *zap.Logger) *Manager {
	cfg.defaults()
	return &Manager{
		source:    source,
		cfg:       cfg,
		log:       log,
		metrics:   m,
		health:    health,
		Broadcast: func(v any) {},
		feeds:     make(map[string]*symbolFeed),
	}
}

// Subscribe opens a feed for symbol, seeding its history first. A
// second call for a live symbol is a no-op that reports the current
// candle count; the original strategy set stays in force.
func (m *Manager) Subscribe(ctx context.Context, symbol string, strategies []string) (int, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, fmt.Errorf("feed: empty symbol")
	}

	m.mu.Lock()
	if f, ok := m.feeds[symbol]; ok {
		m.mu.Unlock()
		return f.history.Len(), nil
	}

	evals := strategy.ForNames(strategies)
	names := make([]string, len(evals))
	for i, ev := range evals {
		names[i] = ev.Name()
	}

	feedCtx, cancel := context.WithCancel(context.Background())
	f := &symbolFeed{
		symbol:     symbol,
		strategies: names,
		evaluators: evals,
		history:    NewHistory(),
		dedup:      strategy.NewDedup(),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	m.feeds[symbol] = f
	m.metrics.ActiveFeeds.Set(float64(len(m.feeds)))
	m.health.SetActiveFeeds(len(m.feeds))
	m.mu.Unlock()

	m.log.Info("subscribing",
		zap.String("symbol", symbol),
		zap.Strings("strategies", names),
	)
	m.seed(ctx, f)

	go m.run(feedCtx, f)

	return f.history.Len(), nil
}

// Unsubscribe tears the symbol's feed down for every viewer and waits
// for its goroutine to exit. No-op when the symbol is not subscribed.
func (m *Manager) Unsubscribe(symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	m.mu.Lock()
	f, ok := m.feeds[symbol]
	if ok {
		delete(m.feeds, symbol)
		m.metrics.ActiveFeeds.Set(float64(len(m.feeds)))
		m.health.SetActiveFeeds(len(m.feeds))
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	f.cancel()
	<-f.done
	m.log.Info("feed closed", zap.String("symbol", symbol))
}

// seed replaces the feed's history with a fresh REST window. Failure is
// non-fatal: the feed runs on whatever history it already has.
func (m *Manager) seed(ctx context.Context, f *symbolFeed) {
	sctx, cancel := context.WithTimeout(ctx, m.cfg.SeedTimeout)
	defer cancel()

	klines, err := m.source.RecentKlines(sctx, f.symbol, m.cfg.SeedLimit)
	if err != nil {
		m.metrics.SeedFailures.Inc()
		m.log.Warn("history seed failed",
			zap.String("symbol", f.symbol),
			zap.Error(err),
		)
		return
	}

	candles := make([]model.Candle, len(klines))
	for i, k := range klines {
		candles[i] = k.Candle()
	}
	f.history.Seed(candles)
	m.log.Info("history seeded",
		zap.String("symbol", f.symbol),
		zap.Int("candles", len(candles)),
	)
}

// run follows the upstream stream until the feed is unsubscribed,
// reconnecting after a fixed delay. Each reconnect re-seeds the history
// so the bars missed while disconnected are backfilled.
func (m *Manager) run(ctx context.Context, f *symbolFeed) {
	defer close(f.done)
	log := m.log.With(zap.String("symbol", f.symbol))

	for {
		if ctx.Err() != nil {
			return
		}

		err := m.source.StreamKlines(ctx, f.symbol, func(k model.Kline) {
			m.onKline(f, k)
		})
		if ctx.Err() != nil {
			return
		}
		log.Warn("stream closed", zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.ReconnectDelay):
		}

		m.metrics.FeedReconnects.WithLabelValues(f.symbol).Inc()
		log.Info("reconnecting", zap.Duration("delay", m.cfg.ReconnectDelay))
		m.seed(ctx, f)
	}
}

// onKline is the per-tick hot path: merge into history, broadcast the
// live price, and evaluate strategies on a closing bar.
func (m *Manager) onKline(f *symbolFeed, k model.Kline) {
	c := k.Candle()
	stored, closing, size := f.history.Apply(c)

	m.metrics.TicksTotal.WithLabelValues(f.symbol).Inc()
	if !stored {
		m.metrics.TicksDropped.Inc()
	}
	if closing {
		m.metrics.CandlesClosed.WithLabelValues(f.symbol).Inc()
	}
	m.health.SetLastTick(time.Now())

	// Every tick reaches the viewers, stored or not.
	m.Broadcast(gateway.NewPriceEvent(f.symbol, c))

	if closing && size >= evalMinBars {
		m.evaluate(f, c)
	}
}

// evaluate runs the feed's active evaluators over a snapshot of the
// history, in registry order, dropping dedup-suppressed outputs.
func (m *Manager) evaluate(f *symbolFeed, closed model.Candle) {
	start := time.Now()
	candles := f.history.Snapshot(0)

	for _, ev := range f.evaluators {
		sig := ev.Evaluate(candles)
		if sig == nil {
			continue
		}
		if !f.dedup.ShouldEmit(ev.Name(), sig.Action) {
			m.metrics.SignalsSuppressed.Inc()
			continue
		}
		m.metrics.SignalsTotal.WithLabelValues(ev.Name(), string(sig.Action)).Inc()
		m.log.Info("signal",
			zap.String("symbol", f.symbol),
			zap.String("strategy", ev.Name()),
			zap.String("action", string(sig.Action)),
			zap.Float64("strength", sig.Strength),
			zap.String("reason", sig.Reason),
		)
		m.Broadcast(gateway.NewSignalEvent(f.symbol, ev.Name(), sig, closed.OpenTime))
		if m.OnSignal != nil {
			m.OnSignal(f.symbol, ev.Name(), sig, closed.OpenTime)
		}
	}
	m.metrics.EvalDur.Observe(time.Since(start).Seconds())
}

// ActiveSymbols lists subscribed symbols in sorted order.
func (m *Manager) ActiveSymbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.feeds))
	for s := range m.feeds {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Status reports every active feed for the REST snapshot endpoints.
func (m *Manager) Status() []gateway.SymbolStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]gateway.SymbolStatus, 0, len(m.feeds))
	for _, f := range m.feeds {
		out = append(out, gateway.SymbolStatus{
			Symbol:     f.symbol,
			Candles:    f.history.Len(),
			Strategies: f.strategies,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// SnapshotCandles copies up to limit of the newest candles for symbol.
// ok is false when the symbol has no feed.
func (m *Manager) SnapshotCandles(symbol string, limit int) ([]model.Candle, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	m.mu.Lock()
	f, ok := m.feeds[symbol]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	return f.history.Snapshot(limit), true
}

// Shutdown unsubscribes every symbol and waits for the feed goroutines.
func (m *Manager) Shutdown() {
	for _, symbol := range m.ActiveSymbols() {
		m.Unsubscribe(symbol)
	}
}
