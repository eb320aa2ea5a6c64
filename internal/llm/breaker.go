package llm

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned while a provider's breaker rejects calls.
var ErrBreakerOpen = errors.New("circuit breaker is open")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// BreakerConfig controls when a provider is short-circuited.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	// Zero disables the breaker.
	FailureThreshold int
	// Cooldown is how long the breaker stays open before allowing a probe.
	Cooldown time.Duration
}

// breaker is a consecutive-failure circuit breaker. In half-open state a
// single probe call is let through; its outcome closes or re-opens the breaker.
type breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
	probing  bool
}

func newBreaker(cfg BreakerConfig) *breaker {
	return &breaker{cfg: cfg, now: time.Now}
}

// allow reports whether a call may proceed.
func (b *breaker) allow() bool {
	if b.cfg.FailureThreshold <= 0 {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return false
		}
		b.state = breakerHalfOpen
		b.probing = true
		return true
	case breakerHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

// record updates the breaker with a call outcome. Rejections are not counted:
// the provider answered, it just refused the request.
func (b *breaker) record(err error) {
	if b.cfg.FailureThreshold <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil || errors.Is(err, ErrProviderRejected) {
		b.state = breakerClosed
		b.failures = 0
		b.probing = false
		return
	}

	b.failures++
	if b.state == breakerHalfOpen || b.failures >= b.cfg.FailureThreshold {
		b.state = breakerOpen
		b.openedAt = b.now()
		b.probing = false
	}
}
