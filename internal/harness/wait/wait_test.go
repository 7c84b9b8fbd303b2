package wait

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/busproxy"
	"github.com/zeusync/editorharness/internal/host"
	"github.com/zeusync/editorharness/internal/sim"
	"github.com/zeusync/editorharness/internal/sim/simtest"
)

func newLoop(t *testing.T) (*Loop, *sim.Engine, *busproxy.Proxy) {
	t.Helper()
	e := simtest.Loaded(t, "Empty")
	p := busproxy.New(e, log.Nop())
	return New(p, log.Nop()), e, p
}

// fakeClock advances by step every time it is read.
func fakeClock(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestIdleWaitFrames(t *testing.T) {
	l, e, _ := newLoop(t)
	start := e.Frame()
	require.NoError(t, l.IdleWaitFrames(context.Background(), 5))
	assert.Equal(t, start+5, e.Frame())
	assert.Equal(t, uint64(5), l.Frames())
}

func TestIdleWaitYieldsUntilElapsed(t *testing.T) {
	l, _, _ := newLoop(t)
	l.now = fakeClock(10 * time.Millisecond)
	require.NoError(t, l.IdleWait(context.Background(), 50*time.Millisecond))
	assert.Equal(t, uint64(5), l.Frames())

	l.frames = 0
	require.NoError(t, l.IdleWait(context.Background(), 0))
	assert.Equal(t, uint64(1), l.Frames(), "at least one frame")
}

func TestZeroTimeoutEvaluatesOnce(t *testing.T) {
	l, _, _ := newLoop(t)
	calls := 0
	ok, err := l.WaitForCondition(context.Background(), Func(func() bool { calls++; return false }), 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(1), l.Frames())
}

func TestWaitForConditionSucceedsAndTimesOut(t *testing.T) {
	l, _, _ := newLoop(t)
	l.now = fakeClock(time.Millisecond)

	ok, err := l.WaitForCondition(context.Background(), Func(func() bool { return l.Frames() == 4 }), time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(4), l.Frames())

	calls := 0
	ok, err = l.WaitForCondition(context.Background(), Func(func() bool { calls++; return false }), 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok, "a timeout returns false")
	assert.Equal(t, 20, calls)
}

func TestWaitSurfacesFailures(t *testing.T) {
	l, _, p := newLoop(t)

	h := p.Handler(host.TickBus, nil).Add(host.OnTick, func(host.Notification) { panic("callback broke") })
	require.NoError(t, h.Connect())
	_, err := l.WaitForCondition(context.Background(), Func(func() bool { return true }), time.Second)
	assert.ErrorIs(t, err, busproxy.ErrCallbackPanic)
	require.NoError(t, h.Disconnect())

	broken := errors.New("broken condition")
	_, err = l.WaitForCondition(context.Background(), func(context.Context) (bool, error) { return false, broken }, time.Second)
	assert.ErrorIs(t, err, broken)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.WaitForCondition(ctx, Func(func() bool { return true }), time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, l.IdleWaitFrames(ctx, 1), context.Canceled)
}

func TestArm(t *testing.T) {
	l, _, _ := newLoop(t)
	assert.False(t, l.Armed())
	l.Arm()
	l.Arm()
	assert.True(t, l.Armed())
}
