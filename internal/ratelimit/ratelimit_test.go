package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_PerKeyBurst(t *testing.T) {
	krl := New(1, 2)
	defer krl.Stop()

	assert.True(t, krl.Allow("a"))
	assert.True(t, krl.Allow("a"))
	assert.False(t, krl.Allow("a"), "burst exhausted")

	assert.True(t, krl.Allow("b"), "keys are independent")
}

func TestWait_RespectsContext(t *testing.T) {
	krl := New(0.001, 1)
	defer krl.Stop()

	require.NoError(t, krl.Wait(context.Background(), "k"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, krl.Wait(ctx, "k"))
}

func TestSweep_ForgetsIdleKeys(t *testing.T) {
	krl := NewWithTTL(1, 1, time.Minute)
	defer krl.Stop()

	now := time.Now()
	krl.now = func() time.Time { return now }
	krl.Allow("old")

	now = now.Add(30 * time.Second)
	krl.Allow("fresh")

	now = now.Add(45 * time.Second)
	krl.sweep()

	assert.Equal(t, 1, krl.Len())
	assert.True(t, krl.Allow("old"), "forgotten key starts with a full bucket")
}

func TestStop_Idempotent(t *testing.T) {
	krl := New(1, 1)
	krl.Stop()
	krl.Stop()
}
