package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher publishes events to subscribed side-effect handlers. Publish
// never returns an error to the caller: the contract is that side effects
// may fail silently, must be logged, and must never affect the publishing
// operation's result.
type Dispatcher interface {
	Publish(ctx context.Context, event Event)
	Subscribe(eventType EventType, handler EventHandler)
}

type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
	// async detaches handler execution from the publishing request. Tests
	// use the synchronous variant for deterministic ordering.
	async bool
	wg    sync.WaitGroup
}

// NewDispatcher creates an asynchronous in-memory dispatcher. Handlers run
// detached from the publishing goroutine against a background context, since
// the request context may be gone by the time they execute.
func NewDispatcher(logger *zap.Logger) Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
		async:     true,
	}
}

// NewSyncDispatcher creates a dispatcher that runs handlers inline. Handler
// failures are still swallowed and logged.
func NewSyncDispatcher(logger *zap.Logger) Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
	}
}

// Publish invokes handlers for the given event.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	if !d.async {
		d.run(ctx, event, handlers)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(context.Background(), event, handlers)
	}()
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

func (d *inMemoryDispatcher) run(ctx context.Context, event Event, handlers []EventHandler) {
	for _, handler := range handlers {
		d.invoke(ctx, event, handler)
	}
}

func (d *inMemoryDispatcher) invoke(ctx context.Context, event Event, handler EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				zap.String("event_type", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.Any("panic", r))
		}
	}()
	if err := handler(ctx, event); err != nil {
		d.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}
