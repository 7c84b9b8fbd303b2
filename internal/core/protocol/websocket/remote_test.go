package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/core/protocol"
	"github.com/zeusync/editorharness/internal/host"
)

type fakeConn struct {
	h  *fakeHost
	id int
}

func (c *fakeConn) Disconnect() error {
	delete(c.h.sinks, c.id)
	return nil
}

// fakeHost echoes calls and fires one OnTick per frame. A frame is settled
// once every sink has been notified.
type fakeHost struct {
	sinks   map[int]host.Sink
	next    int
	frames  int
	settled int
	closed  bool
}

func (f *fakeHost) Invoke(_ context.Context, c host.Call) (any, error) {
	switch c.Method {
	case "Echo":
		return c.Args[0], nil
	case "Fail":
		return models.Failure[any]("nope"), nil
	case "Frames":
		return f.frames, nil
	case "Settled":
		return f.settled, nil
	}
	return nil, host.ErrMethodNotFound
}

func (f *fakeHost) Connect(bus string, address any, sink host.Sink) (host.Connection, error) {
	if bus != host.TickBus {
		return nil, host.ErrBusNotFound
	}
	f.next++
	f.sinks[f.next] = sink
	return &fakeConn{h: f, id: f.next}, nil
}

func (f *fakeHost) Tick(context.Context) error {
	f.frames++
	for _, s := range f.sinks {
		s(host.Notification{Bus: host.TickBus, Callback: host.OnTick, Args: []any{1.0 / 60, float64(f.frames)}})
	}
	f.settled = f.frames
	return nil
}

func (f *fakeHost) Close() error {
	f.closed = true
	return nil
}

func startServer(t *testing.T) (*RemoteHost, *fakeHost) {
	t.Helper()
	fake := &fakeHost{sinks: make(map[int]host.Sink)}
	cfg := protocol.DefaultConfig()
	srv := NewServer(cfg, func(context.Context) (host.Host, error) { return fake, nil }, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + cfg.Path
	remote, err := Dial(context.Background(), url, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = remote.Close() })
	return remote, fake
}

func TestRemoteInvoke(t *testing.T) {
	remote, _ := startServer(t)
	ctx := context.Background()

	v, err := remote.Invoke(ctx, host.Call{Bus: "Any", Method: "Echo", Args: []any{models.Vec3(1, 2, 3)}, Broadcast: true})
	require.NoError(t, err)
	assert.Equal(t, models.Vec3(1, 2, 3), v)

	v, err = remote.Invoke(ctx, host.Call{Bus: "Any", Method: "Fail", Broadcast: true})
	require.NoError(t, err)
	assert.False(t, v.(models.AnyOutcome).IsSuccess())

	_, err = remote.Invoke(ctx, host.Call{Bus: "Any", Method: "Missing", Broadcast: true})
	assert.ErrorIs(t, err, host.ErrMethodNotFound)
}

func TestRemoteNotificationsArriveBeforeTickReturns(t *testing.T) {
	remote, _ := startServer(t)
	ctx := context.Background()

	var times []float64
	var nested []any
	conn, err := remote.Connect(host.TickBus, nil, func(n host.Notification) {
		times = append(times, n.Args[1].(float64))
		v, err := remote.Invoke(ctx, host.Call{Bus: "Any", Method: "Frames", Broadcast: true})
		require.NoError(t, err)
		nested = append(nested, v)
	})
	require.NoError(t, err)

	require.NoError(t, remote.Tick(ctx))
	require.NoError(t, remote.Tick(ctx))
	assert.Equal(t, []float64{1, 2}, times)
	assert.Equal(t, []any{int64(1), int64(2)}, nested)

	require.NoError(t, conn.Disconnect())
	require.NoError(t, remote.Tick(ctx))
	assert.Len(t, times, 2)
}

func TestRemoteReentrantCallSeesFinishedFrame(t *testing.T) {
	remote, _ := startServer(t)
	ctx := context.Background()

	// a sink called in place would see the frame before it settles
	var settled []any
	_, err := remote.Connect(host.TickBus, nil, func(host.Notification) {
		v, err := remote.Invoke(ctx, host.Call{Bus: "Any", Method: "Settled", Broadcast: true})
		require.NoError(t, err)
		settled = append(settled, v)
	})
	require.NoError(t, err)

	require.NoError(t, remote.Tick(ctx))
	require.NoError(t, remote.Tick(ctx))
	assert.Equal(t, []any{int64(1), int64(2)}, settled, "the nested call is served after the frame finished")
}

func TestRemoteConnectUnknownBus(t *testing.T) {
	remote, _ := startServer(t)
	_, err := remote.Connect("Nope", nil, func(host.Notification) {})
	assert.ErrorIs(t, err, host.ErrBusNotFound)
}
