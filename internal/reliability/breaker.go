package reliability

import (
	"context"
	"sync"
	"time"

	"modelhub/pkg/types"
)

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// BreakerConfig tunes a Breaker. The runtime builds every breaker with
// DefaultBreakerConfig; providers have no way to supply their own values.
type BreakerConfig struct {
	FailureThreshold uint32
	OpenWaitSeconds  uint64
}

// DefaultBreakerConfig returns the §4.5 fixed defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, OpenWaitSeconds: 10}
}

// Breaker is a per-RuntimeKey circuit breaker. Closed passes every call
// through; Open short-circuits with Unavailable; HalfOpen admits exactly one
// probe call, short-circuiting any concurrent caller until the probe
// settles.
type Breaker struct {
	mu               sync.Mutex
	state            breakerState
	failures         uint32
	lastFailure      time.Time
	cfg              BreakerConfig
	halfOpenInFlight bool
}

// NewBreaker constructs a Breaker in the Closed state.
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg}
}

// Call executes fn through the breaker, applying the §4.5 state machine.
func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	isProbe, err := b.admit()
	if err != nil {
		return err
	}

	callErr := fn(ctx)
	b.settle(isProbe, callErr)
	return callErr
}

func (b *Breaker) admit() (isProbe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if time.Since(b.lastFailure) >= time.Duration(b.cfg.OpenWaitSeconds)*time.Second {
			b.state = stateHalfOpen
		} else {
			return false, types.ErrUnavailable()
		}
	case stateHalfOpen:
		if b.halfOpenInFlight {
			return false, types.ErrUnavailable()
		}
	case stateClosed:
	}

	isProbe = b.state == stateHalfOpen
	if isProbe {
		b.halfOpenInFlight = true
	}
	return isProbe, nil
}

// advancesBreaker reports whether err should count against the failure
// threshold. Per §4.5, only retryable/server-class failures advance the
// counter; Unauthorized and Config-class errors never do.
func advancesBreaker(err error) bool {
	return types.IsRetryable(err)
}

func (b *Breaker) settle(isProbe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if isProbe {
			b.state = stateClosed
			b.failures = 0
			b.halfOpenInFlight = false
		} else if b.state == stateClosed {
			b.failures = 0
		}
		return
	}

	if isProbe {
		b.halfOpenInFlight = false
	}

	if !advancesBreaker(err) {
		return
	}

	b.failures++
	b.lastFailure = time.Now()

	if isProbe || (b.state == stateClosed && b.failures >= b.cfg.FailureThreshold) {
		b.state = stateOpen
	}
}
