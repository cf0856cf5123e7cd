package hdmiswitch

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeadlineTimerFires(t *testing.T) {
	var calls atomic.Int32
	d := NewDeadlineTimer(func() { calls.Add(1) })

	d.Arm(10 * time.Millisecond)
	assert.False(t, d.Expired())

	assert.Eventually(t, d.Expired, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDeadlineTimerDisarm(t *testing.T) {
	var calls atomic.Int32
	d := NewDeadlineTimer(func() { calls.Add(1) })

	d.Arm(10 * time.Millisecond)
	d.Disarm()
	time.Sleep(40 * time.Millisecond)

	assert.False(t, d.Expired())
	assert.Zero(t, calls.Load())

	// Disarming after expiry leaves it expired.
	d.Arm(time.Millisecond)
	assert.Eventually(t, d.Expired, time.Second, time.Millisecond)
	d.Disarm()
	assert.True(t, d.Expired())
}

func TestDeadlineTimerRearm(t *testing.T) {
	d := NewDeadlineTimer(nil)

	d.Arm(time.Millisecond)
	assert.Eventually(t, d.Expired, time.Second, time.Millisecond)

	d.Arm(time.Hour)
	assert.False(t, d.Expired(), "re-arming starts a fresh window")

	d.Arm(20 * time.Millisecond)
	d.Arm(time.Hour)
	time.Sleep(60 * time.Millisecond)
	assert.False(t, d.Expired(), "superseded window must not expire the new one")
	d.Disarm()
}
