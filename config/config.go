// Package config loads engine settings from an optional YAML file with
// SIGENGINE_* environment overrides. Every setting has a default, so the
// engine runs with no file at all.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all engine settings.
type Config struct {
	ListenAddr  string `mapstructure:"listen_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	LogLevel    string `mapstructure:"log_level"`

	// Provider selects the market data source: "binance" or "sim".
	Provider string `mapstructure:"provider"`

	Feed    FeedConfig    `mapstructure:"feed"`
	Binance BinanceConfig `mapstructure:"binance"`
	Sim     SimConfig     `mapstructure:"sim"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// FeedConfig tunes the per-symbol feed lifecycle.
type FeedConfig struct {
	SeedLimit      int           `mapstructure:"seed_limit"`
	SeedTimeout    time.Duration `mapstructure:"seed_timeout"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
}

// BinanceConfig overrides the upstream endpoints. Empty values fall back
// to the public production endpoints.
type BinanceConfig struct {
	RESTURL  string `mapstructure:"rest_url"`
	WSURL    string `mapstructure:"ws_url"`
	Interval string `mapstructure:"interval"`
}

// SimConfig tunes the synthetic random-walk source.
type SimConfig struct {
	BucketSeconds int `mapstructure:"bucket_seconds"`
	TickMillis    int `mapstructure:"tick_millis"`
}

// WebhookConfig points signal notifications at an external sink. An
// empty URL disables the webhook entirely.
type WebhookConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads settings. With an explicit path the file must exist and
// parse; with an empty path a config.yaml is picked up from the working
// directory when present. Environment variables win over the file:
// SIGENGINE_LOG_LEVEL, SIGENGINE_FEED_SEED_LIMIT and so on.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("metrics_addr", ":9091")
	v.SetDefault("log_level", "info")
	v.SetDefault("provider", "binance")
	v.SetDefault("feed.seed_limit", 500)
	v.SetDefault("feed.seed_timeout", "10s")
	v.SetDefault("feed.reconnect_delay", "5s")
	v.SetDefault("binance.rest_url", "")
	v.SetDefault("binance.ws_url", "")
	v.SetDefault("binance.interval", "1m")
	v.SetDefault("sim.bucket_seconds", 5)
	v.SetDefault("sim.tick_millis", 500)
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.timeout", "5s")

	v.SetEnvPrefix("SIGENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
