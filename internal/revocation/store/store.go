// Package store persists string-keyed mappings behind a single exclusive
// access token. Every mutation is a full load, modify, save cycle executed
// while holding the token; reads reload from durable storage without it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"certifier/internal/revocation/metrics"
	"certifier/pkg/platform/sentinel"
)

// Backend reads and writes the raw serialized mapping.
// Load returns (nil, nil) when nothing has been persisted yet.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
}

// CorruptionPolicy controls what mutations do when the persisted payload
// cannot be parsed. Reads always treat a corrupt payload as empty.
type CorruptionPolicy string

const (
	// PolicyDegrade treats a corrupt payload as an empty mapping. The next
	// successful mutation overwrites it.
	PolicyDegrade CorruptionPolicy = "degrade"
	// PolicyFailClosed refuses mutations until the payload is repaired.
	PolicyFailClosed CorruptionPolicy = "fail_closed"
)

// ParseCorruptionPolicy maps a configuration value to a policy.
// Unknown values fall back to PolicyDegrade.
func ParseCorruptionPolicy(s string) CorruptionPolicy {
	if CorruptionPolicy(s) == PolicyFailClosed {
		return PolicyFailClosed
	}
	return PolicyDegrade
}

// CorruptionHandler is invoked each time a corrupt payload is read.
type CorruptionHandler func(ctx context.Context, store string, err error)

// Store holds a mapping of type M (a map from string keys to V) in a Backend.
type Store[M ~map[string]V, V any] struct {
	name      string
	backend   Backend
	token     *semaphore.Weighted
	policy    CorruptionPolicy
	logger    *slog.Logger
	metrics   *metrics.Metrics
	onCorrupt CorruptionHandler
}

// Option configures a Store.
type Option func(*options)

type options struct {
	name      string
	policy    CorruptionPolicy
	logger    *slog.Logger
	metrics   *metrics.Metrics
	onCorrupt CorruptionHandler
}

// WithName labels the store in logs and metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func WithCorruptionPolicy(p CorruptionPolicy) Option {
	return func(o *options) { o.policy = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithCorruptionHandler registers a callback for corrupt payloads, used to
// raise audit events.
func WithCorruptionHandler(h CorruptionHandler) Option {
	return func(o *options) { o.onCorrupt = h }
}

// New creates a store over backend.
func New[M ~map[string]V, V any](backend Backend, opts ...Option) *Store[M, V] {
	o := options{name: "secrets", policy: PolicyDegrade}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Store[M, V]{
		name:      o.name,
		backend:   backend,
		token:     semaphore.NewWeighted(1),
		policy:    o.policy,
		logger:    o.logger,
		metrics:   o.metrics,
		onCorrupt: o.onCorrupt,
	}
}

// Name returns the store label.
func (s *Store[M, V]) Name() string {
	return s.name
}

// Get returns the value stored for key. Missing keys, and keys in a corrupt
// payload, yield sentinel.ErrNotFound. Backend failures yield
// sentinel.ErrUnavailable.
func (s *Store[M, V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	m, err := s.read(ctx)
	if err != nil {
		return zero, err
	}
	v, ok := m[key]
	if !ok {
		return zero, fmt.Errorf("%s key %q: %w", s.name, key, sentinel.ErrNotFound)
	}
	return v, nil
}

// Snapshot reloads the mapping without taking the exclusive token. The
// returned map is owned by the caller.
func (s *Store[M, V]) Snapshot(ctx context.Context) (M, error) {
	return s.read(ctx)
}

func (s *Store[M, V]) read(ctx context.Context) (M, error) {
	m, err := s.load(ctx)
	if errors.Is(err, sentinel.ErrCorrupt) {
		return make(M), nil
	}
	return m, err
}

// WithExclusiveAccess runs fn against the freshly loaded mapping while holding
// the store's token. Waiters are admitted in arrival order. The mapping is
// saved only when fn returns a nil error; fn's result is returned either way.
// fn must not perform ledger or network calls.
func WithExclusiveAccess[M ~map[string]V, V any, T any](ctx context.Context, s *Store[M, V], fn func(M) (T, error)) (T, error) {
	var zero T

	waitStart := time.Now()
	if err := s.token.Acquire(ctx, 1); err != nil {
		return zero, fmt.Errorf("acquire %s store: %w", s.name, err)
	}
	defer s.token.Release(1)
	s.metrics.ObserveLockWait(s.name, time.Since(waitStart))

	m, err := s.load(ctx)
	if err != nil {
		if !errors.Is(err, sentinel.ErrCorrupt) || s.policy == PolicyFailClosed {
			return zero, err
		}
		m = make(M)
	}

	result, err := fn(m)
	if err != nil {
		return zero, err
	}

	if err := s.save(ctx, m); err != nil {
		return zero, err
	}
	return result, nil
}

func (s *Store[M, V]) load(ctx context.Context) (M, error) {
	start := time.Now()
	raw, err := s.backend.Load(ctx)
	s.metrics.ObserveStoreOperation(s.name, "load", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("load %s store: %w: %w", s.name, sentinel.ErrUnavailable, err)
	}
	if len(raw) == 0 {
		return make(M), nil
	}

	var m M
	if err := json.Unmarshal(raw, &m); err != nil {
		s.corrupt(ctx, err)
		return nil, fmt.Errorf("decode %s store: %w: %w", s.name, sentinel.ErrCorrupt, err)
	}
	if m == nil {
		m = make(M)
	}
	return m, nil
}

func (s *Store[M, V]) save(ctx context.Context, m M) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode %s store: %w", s.name, err)
	}

	start := time.Now()
	err = s.backend.Save(ctx, payload)
	s.metrics.ObserveStoreOperation(s.name, "save", time.Since(start))
	if err != nil {
		return fmt.Errorf("save %s store: %w: %w", s.name, sentinel.ErrUnavailable, err)
	}
	s.metrics.SetRecords(s.name, len(m))
	return nil
}

func (s *Store[M, V]) corrupt(ctx context.Context, err error) {
	s.logger.ErrorContext(ctx, "persisted mapping is corrupt",
		"store", s.name,
		"policy", string(s.policy),
		"error", err,
	)
	s.metrics.IncCorruption(s.name)
	if s.onCorrupt != nil {
		s.onCorrupt(ctx, s.name, err)
	}
}
