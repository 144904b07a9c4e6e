package utils

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests when circuit breaker is half open")
)

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	default:
		return "open"
	}
}

type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// CircuitBreaker stops calling an operation after MaxFailures consecutive
// failures and lets a single probe through once Cooldown has passed.
type CircuitBreaker struct {
	name        string
	maxFailures uint32
	cooldown    time.Duration
	now         func() time.Time

	mutex      sync.Mutex
	state      State
	generation uint64
	counts     Counts
	openedAt   time.Time
	probing    bool
}

func NewCircuitBreaker(name string, maxFailures uint32, cooldown time.Duration) *CircuitBreaker {
	if maxFailures == 0 {
		maxFailures = 1
	}
	return &CircuitBreaker{
		name:        name,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
		state:       StateClosed,
	}
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.currentState()
}

func (cb *CircuitBreaker) Counts() Counts {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.counts
}

// Execute runs req unless the breaker is open. A panic in req counts as a
// failure and is re-raised.
func (cb *CircuitBreaker) Execute(ctx context.Context, req func(ctx context.Context) error) error {
	generation, err := cb.beforeRequest()
	if err != nil {
		return err
	}

	defer func() {
		if e := recover(); e != nil {
			cb.afterRequest(generation, false)
			panic(e)
		}
	}()

	err = req(ctx)
	cb.afterRequest(generation, err == nil)
	return err
}

func (cb *CircuitBreaker) beforeRequest() (uint64, error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.currentState() {
	case StateOpen:
		return cb.generation, ErrCircuitOpen
	case StateHalfOpen:
		if cb.probing {
			return cb.generation, ErrTooManyRequests
		}
		cb.probing = true
	}

	cb.counts.Requests++
	return cb.generation, nil
}

func (cb *CircuitBreaker) afterRequest(before uint64, success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	state := cb.currentState()
	if cb.generation != before {
		return
	}

	if success {
		cb.counts.TotalSuccesses++
		cb.counts.ConsecutiveSuccesses++
		cb.counts.ConsecutiveFailures = 0
		if state == StateHalfOpen {
			cb.setState(StateClosed)
		}
		return
	}

	cb.counts.TotalFailures++
	cb.counts.ConsecutiveFailures++
	cb.counts.ConsecutiveSuccesses = 0
	if state == StateHalfOpen || cb.counts.ConsecutiveFailures >= cb.maxFailures {
		cb.setState(StateOpen)
	}
}

// currentState moves an open breaker to half-open once the cooldown passed.
// Callers hold the mutex.
func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen && !cb.now().Before(cb.openedAt.Add(cb.cooldown)) {
		cb.setState(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) setState(state State) {
	cb.state = state
	cb.generation++
	cb.counts = Counts{}
	cb.probing = false
	if state == StateOpen {
		cb.openedAt = cb.now()
	}
}
