package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"leadedge_backend/platform/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultHandlerTimeout = 15 * time.Second

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadedge_events_published_total",
			Help: "Events handed to the in-process bus",
		},
		[]string{"event"},
	)

	handlerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadedge_event_handler_failures_total",
			Help: "Event handlers that returned an error or panicked",
		},
		[]string{"event"},
	)
)

// InMemoryBus dispatches events to handlers registered in this process.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewInMemoryBus creates a bus whose async handlers get a detached context
// bounded by the default handler timeout.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
		timeout:  defaultHandlerTimeout,
	}
}

// SetHandlerTimeout overrides the per-handler deadline for async dispatch.
func (b *InMemoryBus) SetHandlerTimeout(d time.Duration) {
	if d > 0 {
		b.timeout = d
	}
}

// Subscribe registers handler for eventName.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

func (b *InMemoryBus) handlersFor(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := b.handlers[eventName]
	out := make([]Handler, len(hs))
	copy(out, hs)
	return out
}

// Publish runs each handler in its own goroutine. The request context is not
// propagated for cancellation, so a client disconnect does not abort delivery.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	name := event.EventName()
	eventsPublished.WithLabelValues(name).Inc()
	for _, h := range b.handlersFor(name) {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
			defer cancel()
			if err := b.invoke(hctx, h, event); err != nil {
				handlerFailures.WithLabelValues(name).Inc()
				b.log.WithContext(ctx).Error("event handler failed", "event", name, "error", err)
			}
		}(h)
	}
}

// Wait blocks until in-flight async handlers finish. Used at shutdown.
func (b *InMemoryBus) Wait() {
	b.wg.Wait()
}

func (b *InMemoryBus) invoke(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, event)
}
