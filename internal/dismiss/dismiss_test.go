package dismiss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_OutsideClickDismisses(t *testing.T) {
	hub := NewHub()
	calls := 0
	sub := hub.Acquire(func() { calls++ })

	assert.True(t, hub.Click(TargetOutside))
	assert.Equal(t, 1, calls)
	assert.True(t, sub.Released())
	assert.False(t, hub.Active())

	// Listener is gone; later clicks do nothing.
	assert.False(t, hub.Click(TargetOutside))
	assert.Equal(t, 1, calls)
}

func TestHub_ProtectedTargetsDoNotDismiss(t *testing.T) {
	hub := NewHub()
	calls := 0
	hub.Acquire(func() { calls++ })

	for _, target := range []Target{TargetMenu, TargetInput, TargetShowMoreTokens, TargetShowMorePools} {
		assert.False(t, hub.Click(target), target.String())
	}
	assert.Equal(t, 0, calls)
	assert.True(t, hub.Active())
}

func TestHub_AcquireReleasesPrevious(t *testing.T) {
	hub := NewHub()
	first, second := 0, 0

	sub1 := hub.Acquire(func() { first++ })
	sub2 := hub.Acquire(func() { second++ })

	assert.True(t, sub1.Released())
	assert.False(t, sub2.Released())

	hub.Click(TargetOutside)
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestSubscription_ReleaseIdempotent(t *testing.T) {
	hub := NewHub()
	sub := hub.Acquire(nil)

	sub.Release()
	sub.Release()
	assert.False(t, hub.Active())

	err := sub.Dismiss()
	require.ErrorIs(t, err, ErrReleased)
}

func TestSubscription_StaleReleaseKeepsNewer(t *testing.T) {
	hub := NewHub()
	old := hub.Acquire(nil)
	hub.Acquire(nil)

	old.Release()
	assert.True(t, hub.Active())

	hub.Close()
	assert.False(t, hub.Active())
}

func TestParseTarget(t *testing.T) {
	assert.Equal(t, TargetMenu, ParseTarget("menu"))
	assert.Equal(t, TargetInput, ParseTarget("input"))
	assert.Equal(t, TargetShowMoreTokens, ParseTarget("more-tokens"))
	assert.Equal(t, TargetShowMorePools, ParseTarget("more-pools"))
	assert.Equal(t, TargetOutside, ParseTarget("body"))
	assert.Equal(t, "more-pools", TargetShowMorePools.String())
}
