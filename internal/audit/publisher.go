package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"certifier/pkg/requestcontext"
)

// ErrPublisherClosed is returned by Emit after Close.
var ErrPublisherClosed = errors.New("audit publisher closed")

// Emitter is what services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Publisher stamps events and hands them to a Store, optionally through a
// bounded buffer drained by a background goroutine.
type Publisher struct {
	store  Store
	events chan Event
	wg     sync.WaitGroup
	logger *slog.Logger
	async  bool

	mu     sync.RWMutex
	closed bool
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async delivery with the given buffer size.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for async error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.Error("failed to deliver audit event",
				"error", err,
				"action", event.Action,
				"event_id", event.ID,
			)
		}
		cancel()
	}
}

// Close stops the async worker after draining buffered events. Later Emit
// calls return ErrPublisherClosed.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.async {
		close(p.events)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Emit fills in ID, Timestamp and RequestID when unset. In async mode a full
// buffer drops the event with a warning rather than blocking the caller.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	if p.async {
		select {
		case p.events <- event:
			return nil
		default:
			p.logger.Warn("audit buffer full, event dropped",
				"action", event.Action,
				"event_id", event.ID,
			)
			return nil
		}
	}
	return p.store.Append(ctx, event)
}

// NopEmitter discards events.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) error { return nil }
