// Package circuitbreaker stops calls to a failing dependency for a while
// after too many errors inside a sliding window.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Execute when the breaker rejects the call and no
// fallback was given.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

type CircuitBreaker struct {
	maxFailures     int
	window          time.Duration
	failures        []time.Time
	timeout         time.Duration
	lastFailureTime time.Time
	state           State
	probing         bool
	now             func() time.Time
	mu              sync.Mutex
}

func NewCircuitBreaker(maxFailures int, timeout time.Duration) *CircuitBreaker {
	return NewCircuitBreakerWithWindow(maxFailures, timeout, 60*time.Second)
}

// NewCircuitBreakerWithWindow opens after more than maxFailures errors
// within window, and lets one probe call through once timeout has passed.
func NewCircuitBreakerWithWindow(maxFailures int, timeout time.Duration, window time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures: maxFailures,
		window:      window,
		timeout:     timeout,
		state:       StateClosed,
		failures:    make([]time.Time, 0),
		now:         time.Now,
	}
}

// Execute runs fn unless the breaker is open, in which case fallback runs
// instead (or ErrOpen is returned). fn runs without the lock held.
func (cb *CircuitBreaker) Execute(fn func() error, fallback func() error) error {
	allowed, probe := cb.allow()
	if !allowed {
		if fallback != nil {
			return fallback()
		}
		return ErrOpen
	}

	err := fn()
	cb.record(err, probe)
	return err
}

// allow reports whether a call may run and whether that call is the
// half-open probe.
func (cb *CircuitBreaker) allow() (allowed, probe bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.timeout {
			return false, false
		}
		cb.state = StateHalfOpen
		cb.failures = cb.failures[:0]
		cb.probing = true
		return true, true
	case StateHalfOpen:
		if cb.probing {
			return false, false
		}
		cb.probing = true
		return true, true
	default:
		return true, false
	}
}

func (cb *CircuitBreaker) record(err error, probe bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()

	if probe {
		cb.probing = false
		if err != nil {
			cb.state = StateOpen
			cb.lastFailureTime = now
			cb.failures = append(cb.failures, now)
			return
		}
		cb.state = StateClosed
		cb.failures = cb.failures[:0]
		return
	}

	// A call admitted while closed that finishes after the breaker
	// tripped says nothing about the probe.
	if cb.state != StateClosed {
		return
	}
	cb.cleanOldFailures(now)
	if err != nil {
		cb.lastFailureTime = now
		cb.failures = append(cb.failures, now)
		if len(cb.failures) > cb.maxFailures {
			cb.state = StateOpen
		}
	}
}

func (cb *CircuitBreaker) cleanOldFailures(now time.Time) {
	cutoff := now.Add(-cb.window)
	i := 0
	for i < len(cb.failures) && !cb.failures[i].After(cutoff) {
		i++
	}
	cb.failures = cb.failures[i:]
}

func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
