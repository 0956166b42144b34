package gateway

import (
	"sync"
	"time"
)

type BreakerState int

const (
	StateClosed BreakerState = iota
	StateHalfOpen
	StateOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker tracks consecutive provider failures and fails fast while the
// provider is down. Owned exclusively by the Gateway; mutated only by
// call-outcome events.
type Breaker struct {
	mu                  sync.Mutex
	threshold           int
	resetTimeout        time.Duration
	state               BreakerState
	consecutiveFailures int
	lastFailureAt       time.Time
	trialInFlight       bool
	now                 func() time.Time
	onOpen              func()
	onState             func(BreakerState)
}

func NewBreaker(threshold int, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		threshold:    threshold,
		resetTimeout: resetTimeout,
		now:          time.Now,
	}
}

// OnOpen registers a hook fired each time the breaker trips open.
func (b *Breaker) OnOpen(fn func()) { b.onOpen = fn }

// OnStateChange registers a hook fired on every state transition.
func (b *Breaker) OnStateChange(fn func(BreakerState)) { b.onState = fn }

// Allow reports whether a provider call may be attempted right now.
// While open, the first call after resetTimeout moves the breaker to
// half_open and is admitted as the single trial request; concurrent
// callers stay rejected until that trial settles.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.trialInFlight {
			return false
		}
		b.trialInFlight = true
		return true
	default: // open
		if b.now().Sub(b.lastFailureAt) >= b.resetTimeout {
			b.transition(StateHalfOpen)
			b.trialInFlight = true
			return true
		}
		return false
	}
}

// OnSuccess resets the failure count; a half-open trial success fully
// closes the breaker.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures = 0
	b.trialInFlight = false
	if b.state != StateClosed {
		b.transition(StateClosed)
	}
}

// OnFailure records a provider failure. The breaker opens after
// threshold consecutive failures, and reopens immediately on a failed
// half-open trial.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures++
	b.lastFailureAt = b.now()
	b.trialInFlight = false
	if b.state == StateHalfOpen || b.consecutiveFailures >= b.threshold {
		if b.state != StateOpen {
			b.transition(StateOpen)
			if b.onOpen != nil {
				b.onOpen()
			}
		}
	}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// transition must be called with the lock held.
func (b *Breaker) transition(next BreakerState) {
	b.state = next
	if b.onState != nil {
		b.onState(next)
	}
}
