// Package notification pushes emitted signals to external sinks. The
// viewer fanout never depends on it: a dead sink costs notifications,
// not signals.
package notification

import "context"

// Event is one emitted signal as delivered to a sink.
type Event struct {
	Symbol   string             `json:"symbol"`
	Strategy string             `json:"strategy"`
	Action   string             `json:"action"`
	Reason   string             `json:"reason"`
	Strength float64            `json:"strength"`
	Time     int64              `json:"time"`
	Meta     map[string]float64 `json:"meta,omitempty"`
}

// Notifier delivers one event to a sink.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}
