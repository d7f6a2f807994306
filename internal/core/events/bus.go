package events

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Event is anything the bus can deliver to subscribers.
type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() map[string]any
}

// BaseEvent carries the identity shared by every event kind.
type BaseEvent struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

func (e BaseEvent) EventType() string       { return e.Type }
func (e BaseEvent) EventID() string         { return e.ID }
func (e BaseEvent) OccurredAt() time.Time   { return e.Timestamp }
func (e BaseEvent) Payload() map[string]any { return e.Data }

// LogValue keeps bus log lines short: the payload may hold patient data.
func (e BaseEvent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", e.Type),
		slog.String("id", e.ID),
	)
}

// Handler is a post-commit hook. Its error is logged and never reaches the
// publisher.
type Handler func(ctx context.Context, event Event) error

type subscriber struct {
	pattern string
	fn      Handler
}

func (s subscriber) wants(eventType string) bool {
	if s.pattern == "*" {
		return true
	}
	if family, ok := strings.CutSuffix(s.pattern, "*"); ok {
		return strings.HasSuffix(family, ".") && strings.HasPrefix(eventType, family)
	}
	return s.pattern == eventType
}

// EventBus runs post-commit hooks synchronously in registration order.
type EventBus struct {
	mu     sync.RWMutex
	subs   []subscriber
	logger *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{logger: logger}
}

// Subscribe registers a handler for an exact event type, a "prefix.*" family,
// or "*" for every event.
func (eb *EventBus) Subscribe(pattern string, handler Handler) {
	eb.mu.Lock()
	eb.subs = append(eb.subs, subscriber{pattern: pattern, fn: handler})
	n := len(eb.subs)
	eb.mu.Unlock()

	eb.logger.Debug("subscriber added", "pattern", pattern, "subscribers", n)
}

func (eb *EventBus) matching(eventType string) []Handler {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	var out []Handler
	for _, s := range eb.subs {
		if s.wants(eventType) {
			out = append(out, s.fn)
		}
	}
	return out
}

// PublishSync runs every matching handler before returning. A failing or
// panicking handler is logged and the remaining handlers still run. Handlers
// see ctx without its cancellation: the change is already committed.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) {
	ctx = context.WithoutCancel(ctx)
	handlers := eb.matching(event.EventType())
	for i, fn := range handlers {
		if err := deliver(ctx, fn, event); err != nil {
			eb.logger.ErrorContext(ctx, "event subscriber failed",
				"event", event,
				"subscriber", i,
				"error", err)
		}
	}
}

func deliver(ctx context.Context, fn Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx, event)
}
