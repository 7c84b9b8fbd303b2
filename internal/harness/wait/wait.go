// Package wait implements the suspension points of a test. The host only
// advances while a test waits; every wait yields at least one frame.
package wait

import (
	"context"
	"time"

	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/busproxy"
)

// Condition is polled once per frame. It should only read engine state.
type Condition func(ctx context.Context) (bool, error)

// Func adapts a predicate that cannot fail.
func Func(pred func() bool) Condition {
	return func(context.Context) (bool, error) { return pred(), nil }
}

type Loop struct {
	proxy  *busproxy.Proxy
	logger log.Log
	now    func() time.Time
	armed  bool
	frames uint64
}

func New(proxy *busproxy.Proxy, logger log.Log) *Loop {
	return &Loop{proxy: proxy, logger: logger.Named("wait"), now: time.Now}
}

// Arm marks the loop ready for game-mode transitions.
func (l *Loop) Arm() {
	if !l.armed {
		l.logger.Debug("idle loop armed")
	}
	l.armed = true
}

func (l *Loop) Armed() bool { return l.armed }

// Frames counts the frames yielded through this loop.
func (l *Loop) Frames() uint64 { return l.frames }

// yield steps one frame, then surfaces any callback failure it caused.
func (l *Loop) yield(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.proxy.Host().Tick(ctx); err != nil {
		return err
	}
	l.frames++
	return l.proxy.TakeCallbackError()
}

// IdleWaitFrames yields n frames.
func (l *Loop) IdleWaitFrames(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := l.yield(ctx); err != nil {
			return err
		}
	}
	return nil
}

// IdleWait yields frames until d of wall-clock time has passed, and at least one.
func (l *Loop) IdleWait(ctx context.Context, d time.Duration) error {
	start := l.now()
	for {
		if err := l.yield(ctx); err != nil {
			return err
		}
		if l.now().Sub(start) >= d {
			return nil
		}
	}
}

// WaitForCondition yields a frame and evaluates cond until it holds or the
// wall-clock timeout passes. A zero timeout evaluates exactly once. Timing
// out is not an error; the returned error is a failed yield, a callback
// failure, a failed condition or the context ending.
func (l *Loop) WaitForCondition(ctx context.Context, cond Condition, timeout time.Duration) (bool, error) {
	start := l.now()
	for {
		if err := l.yield(ctx); err != nil {
			return false, err
		}
		ok, err := cond(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if l.now().Sub(start) >= timeout {
			l.logger.Debug("condition timed out", log.Duration("timeout", timeout))
			return false, nil
		}
	}
}
