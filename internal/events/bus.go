package events

import (
	"context"
	"log/slog"
	"sync"
)

// Bus delivers events in-process to subscribed handlers. Handler failures are
// logged and never propagate back to the publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
}

// NewBus constructs an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers h for every event.
func (b *Bus) Subscribe(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

// Publish dispatches evt synchronously to all handlers.
func (b *Bus) Publish(ctx context.Context, evt Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h.Handle(ctx, evt); err != nil {
			b.logger.Error("event handler failed",
				slog.String("event_id", evt.ID.String()),
				slog.String("kind", string(evt.Kind)),
				slog.Int64("order_id", evt.OrderID),
				slog.Any("error", err))
		}
	}
	return nil
}

// Dispatch delivers evt and returns the first handler error. Queue workers use
// it so failed deliveries are retried.
func (b *Bus) Dispatch(ctx context.Context, evt Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h.Handle(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}
