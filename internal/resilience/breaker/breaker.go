package breaker

import (
	"context"
	"sync"
	"time"

	"github.com/provenly/resilience/internal/core/domain"
)

// State is the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "CLOSED"
	}
}

// Number of consecutive half-open successes required to close the circuit.
const halfOpenSuccessThreshold = 3

// Config holds circuit breaker settings.
type Config struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	// MonitoringWindow is kept for bookkeeping; it does not drive transitions.
	MonitoringWindow time.Duration
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	FailureThreshold: 5,
	ResetTimeout:     60 * time.Second,
	MonitoringWindow: 10 * time.Minute,
}

// Operation is a single asynchronous call guarded by the breaker.
type Operation func(ctx context.Context) (any, error)

// Breaker prevents hammering a consistently-failing dependency by
// short-circuiting calls once a failure threshold is crossed, and probing
// recovery after a cooldown. One Breaker guards one operation name.
type Breaker struct {
	mu sync.Mutex

	cfg         Config
	state       State
	failures    int
	successes   int // consecutive successes while half-open
	lastFailure time.Time
}

// New creates a breaker, filling zero config values from DefaultConfig.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultConfig.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultConfig.ResetTimeout
	}
	if cfg.MonitoringWindow <= 0 {
		cfg.MonitoringWindow = DefaultConfig.MonitoringWindow
	}
	return &Breaker{cfg: cfg, state: StateClosed}
}

// Execute runs op through the breaker. While open, calls are rejected with
// domain.ErrCircuitOpen without invoking op; once the reset timeout has
// elapsed the triggering call transitions the breaker to half-open and is
// allowed through.
func (b *Breaker) Execute(ctx context.Context, op Operation) (any, error) {
	if err := b.allow(); err != nil {
		return nil, err
	}

	result, err := op(ctx)
	if err != nil {
		b.recordFailure()
		return nil, err
	}

	b.recordSuccess()
	return result, nil
}

// State returns the current state without mutating it.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}

	if time.Since(b.lastFailure) > b.cfg.ResetTimeout {
		b.state = StateHalfOpen
		b.successes = 0
		return nil
	}

	return domain.ErrCircuitOpen
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = time.Now()

	if b.state == StateHalfOpen {
		// Probe failed, back to open.
		b.state = StateOpen
		b.successes = 0
		return
	}

	b.failures++
	if b.failures >= b.cfg.FailureThreshold {
		b.state = StateOpen
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.successes++
		if b.successes >= halfOpenSuccessThreshold {
			b.state = StateClosed
			b.failures = 0
			b.successes = 0
		}
		return
	}

	b.failures = 0
}
