package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	queueSize      = 100
	handlerTimeout = 10 * time.Second
)

type Handler func(ctx context.Context, e Event) error

// Sender is what the bot needs to publish events, handlers never affect the caller.
type Sender interface {
	Send(e Event)
}

type Discard struct{}

func (Discard) Send(Event) {}

type Listener struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	handlers []Handler
	events   chan Event
}

func NewListener(logger *slog.Logger) *Listener {
	return &Listener{
		logger: logger,
		events: make(chan Event, queueSize),
	}
}

func (l *Listener) Register(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
}

// Send queues the event without blocking, it is dropped if the queue is full.
func (l *Listener) Send(e Event) {
	select {
	case l.events <- e:
	default:
		l.logger.Warn("Event queue full, dropping event", slog.String("event", fmt.Sprintf("%T", e)))
	}
}

func (l *Listener) Listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-l.events:
			l.dispatch(ctx, e)
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, e Event) {
	l.mu.RLock()
	handlers := make([]Handler, len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.RUnlock()

	var wg sync.WaitGroup
	for _, h := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					l.logger.Error("Event handler panic", slog.Any("panic", r))
				}
			}()

			hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
			defer cancel()
			if err := h(hctx, e); err != nil {
				l.logger.Error("Error handling event",
					slog.String("event", fmt.Sprintf("%T", e)),
					slog.Any("error", err))
			}
		}(h)
	}
	wg.Wait()
}
