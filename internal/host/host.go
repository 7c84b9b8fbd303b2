// Package host defines the embedding contract between the harness and an
// engine: addressed and broadcast bus calls, notification connections and
// frame stepping.
package host

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrBusNotFound    = errors.New("bus not found")
	ErrMethodNotFound = errors.New("method not found")
	ErrBadArguments   = errors.New("bad arguments")
	ErrNotAddressable = errors.New("bus has no handler at address")
	ErrHostClosed     = errors.New("host is closed")
)

// Call is one synchronous bus invocation.
type Call struct {
	Bus       string
	Method    string
	Address   any
	Args      []any
	Broadcast bool
}

func (c Call) String() string {
	if c.Broadcast {
		return fmt.Sprintf("%s.%s (broadcast)", c.Bus, c.Method)
	}
	return fmt.Sprintf("%s.%s @%v", c.Bus, c.Method, c.Address)
}

// Notification is one callback fired by the engine on a notification bus.
type Notification struct {
	Bus      string
	Address  any
	Callback string
	Args     []any
}

// Sink receives notifications on the engine tick thread. Sinks must not block
// and may re-enter Host.Invoke.
type Sink func(n Notification)

// Connection is a live notification registration.
type Connection interface {
	Disconnect() error
}

// Host is the engine ABI the harness drives.
//
// Invoke is synchronous from the caller's view; the engine may deliver
// notifications to sinks before it returns. Semantic failures come back as a
// models.Outcome value, never as an error: errors mean the call could not be
// dispatched at all and are fatal to the running test.
//
// Tick yields exactly one frame. Every notification of that frame is delivered
// before Tick returns.
type Host interface {
	Invoke(ctx context.Context, call Call) (any, error)
	Connect(bus string, address any, sink Sink) (Connection, error)
	Tick(ctx context.Context) error
	Close() error
}

// Factory creates independent hosts, one per runner batch.
type Factory func(ctx context.Context) (Host, error)
