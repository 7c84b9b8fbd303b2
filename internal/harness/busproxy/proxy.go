// Package busproxy is the harness entry point to an engine's message buses:
// addressed events, broadcasts and notification handlers.
package busproxy

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/host"
)

var (
	ErrNotOutcome     = errors.New("result is not an outcome")
	ErrUnexpectedType = errors.New("unexpected result type")
	ErrCallbackPanic  = errors.New("notification callback panicked")
)

// Proxy issues bus calls against one host. It is used from the test goroutine
// only; notification callbacks run on the same goroutine while the host ticks.
type Proxy struct {
	host   host.Host
	logger log.Log

	// callback failures waiting for the next suspension point
	pending []error
}

func New(h host.Host, logger log.Log) *Proxy {
	return &Proxy{
		host:   h,
		logger: logger.Named("busproxy"),
	}
}

func (p *Proxy) Host() host.Host { return p.host }

func (p *Proxy) Logger() log.Log { return p.logger }

// Event calls method on the handler of bus connected at address.
func (p *Proxy) Event(ctx context.Context, bus string, address any, method string, args ...any) (any, error) {
	return p.invoke(ctx, host.Call{Bus: bus, Method: method, Address: address, Args: args})
}

// Broadcast calls method on whichever singleton handles bus.
func (p *Proxy) Broadcast(ctx context.Context, bus, method string, args ...any) (any, error) {
	return p.invoke(ctx, host.Call{Bus: bus, Method: method, Args: args, Broadcast: true})
}

// EventOutcome is Event for methods returning an Outcome.
func (p *Proxy) EventOutcome(ctx context.Context, bus string, address any, method string, args ...any) (models.AnyOutcome, error) {
	return outcome(p.Event(ctx, bus, address, method, args...))
}

// BroadcastOutcome is Broadcast for methods returning an Outcome.
func (p *Proxy) BroadcastOutcome(ctx context.Context, bus, method string, args ...any) (models.AnyOutcome, error) {
	return outcome(p.Broadcast(ctx, bus, method, args...))
}

func (p *Proxy) invoke(ctx context.Context, call host.Call) (any, error) {
	res, err := p.host.Invoke(ctx, call)
	if err != nil {
		return nil, errors.Wrap(err, call.String())
	}
	return res, nil
}

func outcome(v any, err error) (models.AnyOutcome, error) {
	if err != nil {
		return models.AnyOutcome{}, err
	}
	o, ok := v.(models.AnyOutcome)
	if !ok {
		return models.AnyOutcome{}, errors.Wrapf(ErrNotOutcome, "got %T", v)
	}
	return o, nil
}

// Value narrows a call result to T. Numbers are converted between Go numeric
// types since a remote host widens them on the wire; a nil result yields the
// zero value.
func Value[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	if v == nil {
		return zero, nil
	}
	if t, ok := convertNumber[T](v); ok {
		return t, nil
	}
	return zero, errors.Wrapf(ErrUnexpectedType, "got %T, want %T", v, zero)
}

func convertNumber[T any](v any) (T, bool) {
	var out T
	f, ok := toFloat(v)
	if !ok {
		return out, false
	}
	switch dst := any(&out).(type) {
	case *float64:
		*dst = f
	case *float32:
		*dst = float32(f)
	case *int:
		*dst = int(f)
	case *int64:
		*dst = int64(f)
	case *int32:
		*dst = int32(f)
	case *uint64:
		if f < 0 {
			return out, false
		}
		*dst = uint64(f)
	case *models.EntityID:
		if f < 0 || f != math.Trunc(f) {
			return out, false
		}
		*dst = models.EntityID(f)
	default:
		return out, false
	}
	return out, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// fail queues a callback failure for the next suspension point.
func (p *Proxy) fail(err error) {
	p.logger.Error("notification callback failed", log.Error(err))
	p.pending = append(p.pending, err)
}

// TakeCallbackError returns the first callback failure queued since the last
// call and clears the queue. Later failures were already logged.
func (p *Proxy) TakeCallbackError() error {
	if len(p.pending) == 0 {
		return nil
	}
	err := p.pending[0]
	p.pending = nil
	return err
}

func panicError(bus, callback string, r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("%w: %s.%s: %w", ErrCallbackPanic, bus, callback, err)
	}
	return fmt.Errorf("%w: %s.%s: %v", ErrCallbackPanic, bus, callback, r)
}
