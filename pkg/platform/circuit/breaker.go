// Package circuit wraps sony/gobreaker with the options and error
// translation used by outbound adapters.
package circuit

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"certifier/pkg/platform/sentinel"
)

// State is the breaker state.
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Breaker fails calls fast once a dependency keeps failing.
// After FailureThreshold consecutive failures the circuit opens; after
// OpenTimeout it lets HalfOpenRequests probes through and closes again
// when they all succeed.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

type config struct {
	failureThreshold uint32
	halfOpenRequests uint32
	openTimeout      time.Duration
	isSuccessful     func(error) bool
	onStateChange    func(name string, from, to State)
}

type Option func(*config)

// WithFailureThreshold sets the consecutive failures that open the circuit. Default 5.
func WithFailureThreshold(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.failureThreshold = uint32(n)
		}
	}
}

// WithHalfOpenRequests sets how many probes are allowed while half-open. Default 1.
func WithHalfOpenRequests(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.halfOpenRequests = uint32(n)
		}
	}
}

// WithOpenTimeout sets how long the circuit stays open. Default 30s.
func WithOpenTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.openTimeout = d
		}
	}
}

// WithIsSuccessful marks errors that should not count against the
// dependency, such as business rejections.
func WithIsSuccessful(fn func(error) bool) Option {
	return func(c *config) { c.isSuccessful = fn }
}

func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(c *config) { c.onStateChange = fn }
}

// New creates a closed breaker.
func New(name string, opts ...Option) *Breaker {
	c := config{
		failureThreshold: 5,
		halfOpenRequests: 1,
		openTimeout:      30 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	threshold := c.failureThreshold
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: c.halfOpenRequests,
		Timeout:     c.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: c.onStateChange,
	}
	if c.isSuccessful != nil {
		settings.IsSuccessful = c.isSuccessful
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) Name() string {
	return b.cb.Name()
}

func (b *Breaker) State() State {
	return b.cb.State()
}

// IsOpen reports whether calls are currently rejected.
func (b *Breaker) IsOpen() bool {
	return b.cb.State() == StateOpen
}

// Do runs fn through the breaker. While the circuit rejects calls the
// returned error wraps sentinel.ErrUnavailable.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	res, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%s circuit %s: %w", b.cb.Name(), err, sentinel.ErrUnavailable)
	}
	if err != nil {
		if v, ok := res.(T); ok {
			return v, err
		}
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}
