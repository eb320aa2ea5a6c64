package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBreaker_HalfOpenProbe(t *testing.T) {
	now := time.Unix(0, 0)
	b := newBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute})
	b.now = func() time.Time { return now }

	require.True(t, b.allow())
	b.record(Unavailable("p", errors.New("down")))
	require.False(t, b.allow())

	now = now.Add(time.Minute)
	require.True(t, b.allow(), "probe allowed after cooldown")
	require.False(t, b.allow(), "only one probe at a time")

	b.record(nil)
	require.True(t, b.allow())
	require.True(t, b.allow())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	now := time.Unix(0, 0)
	b := newBreaker(BreakerConfig{FailureThreshold: 3, Cooldown: time.Second})
	b.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		require.True(t, b.allow())
		b.record(Timeout("p", nil))
	}
	require.False(t, b.allow())

	now = now.Add(time.Second)
	require.True(t, b.allow())
	b.record(Timeout("p", nil))
	require.False(t, b.allow())
}

func TestBreaker_Disabled(t *testing.T) {
	b := newBreaker(BreakerConfig{})
	for i := 0; i < 10; i++ {
		b.record(Unavailable("p", nil))
	}
	require.True(t, b.allow())
}
