// Package resilience guards calls to external services.
//
// [Breaker] is a three-state circuit breaker (closed, open, half-open) that
// stops a stream of doomed calls to a struggling dependency. [Retry] adds
// bounded retries with exponential backoff for calls that are worth a second
// attempt, such as joining a room right after its credential was issued.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Do] while the breaker rejects calls.
var ErrOpen = errors.New("resilience: breaker open")

// breakerState is the operating mode of a [Breaker].
type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Breaker defaults.
const (
	defaultTripAfter = 5
	defaultCooldown  = 30 * time.Second
)

// Breaker trips after a run of consecutive failures and rejects calls for a
// cooldown period. After the cooldown one probe call is let through; its
// outcome decides whether the breaker closes again or re-opens.
type Breaker struct {
	name      string
	tripAfter int
	cooldown  time.Duration

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
	probing  bool
}

// BreakerConfig tunes a [Breaker]. Zero values select defaults.
type BreakerConfig struct {
	// Name labels the breaker in log messages.
	Name string

	// TripAfter is the run of consecutive failures that opens the breaker.
	TripAfter int

	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
}

// NewBreaker creates a closed [Breaker].
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.TripAfter <= 0 {
		cfg.TripAfter = defaultTripAfter
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	return &Breaker{
		name:      cfg.Name,
		tripAfter: cfg.TripAfter,
		cooldown:  cfg.Cooldown,
	}
}

// Do runs fn if the breaker allows it, and feeds the result back into the
// breaker's failure accounting. While open it returns [ErrOpen] without
// calling fn.
func (b *Breaker) Do(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return nil
	case stateOpen:
		if time.Since(b.openedAt) < b.cooldown {
			return ErrOpen
		}
		b.state = stateHalfOpen
		b.probing = false
		slog.Info("breaker probing", "name", b.name)
		fallthrough
	default: // half-open
		if b.probing {
			// One probe at a time.
			return ErrOpen
		}
		b.probing = true
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateHalfOpen {
		b.probing = false
		if err != nil {
			b.open()
			return
		}
		b.state = stateClosed
		b.failures = 0
		slog.Info("breaker closed", "name", b.name)
		return
	}

	if err != nil {
		b.failures++
		if b.failures >= b.tripAfter {
			b.open()
		}
		return
	}
	b.failures = 0
}

// open transitions to the open state. Caller holds b.mu.
func (b *Breaker) open() {
	b.state = stateOpen
	b.openedAt = time.Now()
	b.failures = b.tripAfter
	slog.Warn("breaker opened", "name", b.name, "cooldown", b.cooldown)
}

// Tripped reports whether the breaker currently rejects calls.
func (b *Breaker) Tripped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == stateOpen && time.Since(b.openedAt) < b.cooldown
}
