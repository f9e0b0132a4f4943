package notification

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"tradevault-engine/internal/metrics"
)

const senderQueueSize = 64

// Sender decouples signal emission from sink latency: events land on a
// bounded queue and one goroutine drains it into the notifier. A full
// queue drops the event; the tick path never blocks on a sink.
type Sender struct {
	notifier Notifier
	log      *zap.Logger
	metrics  *metrics.Metrics

	queue chan Event
	done  chan struct{}
	once  sync.Once
}

// NewSender wraps n with an asynchronous delivery queue.
func NewSender(n Notifier, m *metrics.Metrics, log *zap.Logger) *Sender {
	return &Sender{
		notifier: n,
		log:      log,
		metrics:  m,
		queue:    make(chan Event, senderQueueSize),
		done:     make(chan struct{}),
	}
}

// Start launches the delivery worker.
func (s *Sender) Start() {
	go func() {
		defer close(s.done)
		for ev := range s.queue {
			if err := s.notifier.Notify(context.Background(), ev); err != nil {
				s.metrics.WebhookFailed.Inc()
				if errors.Is(err, ErrBreakerOpen) {
					continue
				}
				s.log.Warn("notification failed",
					zap.String("symbol", ev.Symbol),
					zap.String("strategy", ev.Strategy),
					zap.Error(err),
				)
				continue
			}
			s.metrics.WebhookDelivered.Inc()
		}
	}()
}

// Enqueue queues ev for delivery, dropping it when the queue is full.
func (s *Sender) Enqueue(ev Event) {
	select {
	case s.queue <- ev:
	default:
		s.metrics.WebhookDropped.Inc()
	}
}

// Close stops the worker after the queued events drain. Producers must
// stop enqueueing first.
func (s *Sender) Close() {
	s.once.Do(func() { close(s.queue) })
	<-s.done
}
