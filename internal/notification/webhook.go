package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout     = 5 * time.Second
	breakerMaxFailures = 5
	breakerResetAfter  = 30 * time.Second
)

// Webhook POSTs each event to a fixed URL as a JSON body. A breaker
// stops the posts while the sink keeps failing, so a dead endpoint
// costs one timeout per reset window instead of one per signal.
type Webhook struct {
	url     string
	client  *http.Client
	breaker *Breaker
	log     *zap.Logger
}

// NewWebhook creates a webhook notifier for url. timeout <= 0 selects
// the default request timeout.
func NewWebhook(url string, timeout time.Duration, log *zap.Logger) *Webhook {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	w := &Webhook{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		breaker: NewBreaker(breakerMaxFailures, breakerResetAfter),
		log:     log,
	}
	w.breaker.OnStateChange = func(from, to BreakerState) {
		log.Warn("webhook breaker state changed",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}
	return w
}

func (w *Webhook) Notify(ctx context.Context, ev Event) error {
	return w.breaker.Execute(func() error {
		return w.post(ctx, ev)
	})
}

func (w *Webhook) post(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notification: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notification: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification: sink status %d", resp.StatusCode)
	}
	return nil
}
