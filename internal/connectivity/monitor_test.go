package connectivity

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inqbatorchris/fieldsync/internal/logging"
)

type fakeProber struct {
	online atomic.Bool
}

func (f *fakeProber) Ping(context.Context) error {
	if f.online.Load() {
		return nil
	}
	return fmt.Errorf("unreachable")
}

func TestMonitor_SettlesOnlineAfterWindow(t *testing.T) {
	var triggers atomic.Int32
	m := NewMonitor(&fakeProber{}, time.Second, 10*time.Millisecond,
		func() { triggers.Add(1) }, logging.NewNop())

	assert.False(t, m.Online())

	m.Notify(true)
	assert.False(t, m.Online(), "state must not flip before the window elapses")

	require.Eventually(t, m.Online, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), triggers.Load())
}

func TestMonitor_FlappingYieldsOneTrigger(t *testing.T) {
	var triggers atomic.Int32
	m := NewMonitor(&fakeProber{}, time.Second, 20*time.Millisecond,
		func() { triggers.Add(1) }, logging.NewNop())

	// a burst of flaps ending online
	for i := 0; i < 10; i++ {
		m.Notify(i%2 == 0)
		time.Sleep(time.Millisecond)
	}
	m.Notify(true)

	require.Eventually(t, m.Online, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), triggers.Load())
}

func TestMonitor_OfflineSettlesWithoutTrigger(t *testing.T) {
	var triggers atomic.Int32
	m := NewMonitor(&fakeProber{}, time.Second, 10*time.Millisecond,
		func() { triggers.Add(1) }, logging.NewNop())

	m.Notify(true)
	require.Eventually(t, m.Online, time.Second, time.Millisecond)

	m.Notify(false)
	require.Eventually(t, func() bool { return !m.Online() }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), triggers.Load(), "going offline must not trigger")

	// regaining fires again
	m.Notify(true)
	require.Eventually(t, m.Online, time.Second, time.Millisecond)
	assert.Equal(t, int32(2), triggers.Load())
}

func TestMonitor_RunProbesPeriodically(t *testing.T) {
	prober := &fakeProber{}
	var triggers atomic.Int32
	m := NewMonitor(prober, 5*time.Millisecond, 5*time.Millisecond,
		func() { triggers.Add(1) }, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	assert.False(t, m.Online())
	prober.online.Store(true)
	require.Eventually(t, m.Online, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), triggers.Load())
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(10 * time.Millisecond)

	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncer_Cancel(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(10 * time.Millisecond)

	d.Trigger(func() { calls.Add(1) })
	d.Cancel()

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, calls.Load())
}
