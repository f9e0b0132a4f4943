// Command sigengine runs the live market signal engine: per-symbol
// kline feeds, strategy evaluation on every closed candle, and a
// WebSocket fanout of prices and deduplicated signals to every
// connected viewer.
package main

import (
	"context"
	"flag"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"tradevault-engine/config"
	"tradevault-engine/internal/feed"
	"tradevault-engine/internal/gateway"
	"tradevault-engine/internal/logger"
	"tradevault-engine/internal/metrics"
	"tradevault-engine/internal/notification"
	"tradevault-engine/internal/strategy"
	"tradevault-engine/pkg/binance"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "", "path to a config.yaml (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		stdlog.Fatalf("config: %v", err)
	}

	log, err := logger.Init("sigengine", cfg.LogLevel)
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}
	defer log.Sync()

	log.Info("starting signal engine",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.String("metrics_addr", cfg.MetricsAddr),
		zap.String("provider", cfg.Provider),
	)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	health := metrics.NewHealthStatus()

	ops := metrics.NewServer(cfg.MetricsAddr, reg, health, log.Named("metrics"))
	ops.Start()

	var source feed.Source
	switch cfg.Provider {
	case "sim":
		source = feed.NewSimSource(cfg.Sim.BucketSeconds, cfg.Sim.TickMillis)
		log.Info("using simulated market data")
	default:
		source = binance.NewClient(cfg.Binance.RESTURL, cfg.Binance.WSURL, cfg.Binance.Interval, log.Named("binance"))
	}

	mgr := feed.NewManager(source, feed.Config{
		SeedLimit:      cfg.Feed.SeedLimit,
		SeedTimeout:    cfg.Feed.SeedTimeout,
		ReconnectDelay: cfg.Feed.ReconnectDelay,
	}, m, health, log.Named("feed"))

	hub := gateway.NewHub(mgr, m, health, log.Named("gateway"))
	mgr.Broadcast = hub.Broadcast

	var sender *notification.Sender
	if cfg.Webhook.URL != "" {
		nlog := log.Named("notification")
		sender = notification.NewSender(
			notification.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Timeout, nlog), m, nlog)
		sender.Start()
		mgr.OnSignal = func(symbol, strategyName string, sig *strategy.Signal, openTime int64) {
			sender.Enqueue(notification.Event{
				Symbol:   symbol,
				Strategy: strategyName,
				Action:   string(sig.Action),
				Reason:   sig.Reason,
				Strength: sig.Strength,
				Time:     openTime,
				Meta:     sig.Meta,
			})
		}
		log.Info("signal webhook enabled", zap.String("url", cfg.Webhook.URL))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	mux.HandleFunc("/api/symbols", hub.HandleSymbols)
	mux.HandleFunc("/api/candles", hub.HandleCandles)
	mux.Handle("/healthz", health)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("gateway listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal("gateway server error", zap.Error(err))
		}
	}()

	<-sigCh
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	mgr.Shutdown()
	hub.Close()
	if sender != nil {
		sender.Close()
	}
	ops.Stop(shutdownCtx)

	log.Info("shutdown complete")
}
