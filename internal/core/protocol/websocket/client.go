package websocket

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/core/protocol"
	"github.com/zeusync/editorharness/internal/host"
)

var _ host.Host = (*RemoteHost)(nil)

// RemoteHost drives a host served by Server. It keeps the cooperative model:
// frames are read on the calling goroutine while it waits for a response and
// notifications are dispatched to sinks before that response is returned.
//
// A sink that re-enters Invoke is served after the frame that produced the
// notification has finished on the far side.
type RemoteHost struct {
	conn    *Connection
	logger  log.Log
	nextID  uint64
	sinks   map[string]host.Sink
	results map[uint64]*protocol.Frame
}

// Dial connects to a remote host at url, for example ws://127.0.0.1:7070/host.
func Dial(ctx context.Context, url string, config protocol.Config, logger log.Log) (*RemoteHost, error) {
	if logger == nil {
		logger = log.Nop()
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   config.BufferSize,
		WriteBufferSize:  config.BufferSize,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", url)
	}
	h := &RemoteHost{
		conn:    NewConnection(conn, config),
		logger:  logger.With(log.String("remote", url)),
		sinks:   make(map[string]host.Sink),
		results: make(map[uint64]*protocol.Frame),
	}
	h.logger.Info("Connected to remote host")
	return h, nil
}

// Invoke forwards a bus call.
func (h *RemoteHost) Invoke(ctx context.Context, call host.Call) (any, error) {
	args, err := protocol.EncodeAll(call.Args)
	if err != nil {
		return nil, err
	}
	addr, err := protocol.EncodePtr(call.Address)
	if err != nil {
		return nil, err
	}
	res, err := h.roundTrip(ctx, &protocol.Frame{
		Kind: protocol.FrameCall,
		Call: &protocol.CallFrame{
			Bus:       call.Bus,
			Method:    call.Method,
			Address:   addr,
			Args:      args,
			Broadcast: call.Broadcast,
		},
	})
	if err != nil {
		return nil, err
	}
	return protocol.DecodePtr(res.Result)
}

type remoteConnection struct {
	host *RemoteHost
	id   string
}

func (c *remoteConnection) Disconnect() error {
	if _, ok := c.host.sinks[c.id]; !ok {
		return nil
	}
	delete(c.host.sinks, c.id)
	_, err := c.host.roundTrip(context.Background(), &protocol.Frame{Kind: protocol.FrameDisconnect, Conn: c.id})
	return err
}

// Connect registers sink with the remote host.
func (h *RemoteHost) Connect(bus string, address any, sink host.Sink) (host.Connection, error) {
	addr, err := protocol.EncodePtr(address)
	if err != nil {
		return nil, err
	}
	res, err := h.roundTrip(context.Background(), &protocol.Frame{
		Kind:    protocol.FrameConnect,
		Connect: &protocol.ConnectFrame{Bus: bus, Address: addr},
	})
	if err != nil {
		return nil, err
	}
	h.sinks[res.Conn] = sink
	return &remoteConnection{host: h, id: res.Conn}, nil
}

// Tick asks the remote host for one frame and delivers its notifications.
func (h *RemoteHost) Tick(ctx context.Context) error {
	_, err := h.roundTrip(ctx, &protocol.Frame{Kind: protocol.FrameTick})
	return err
}

// Close hangs up; the server closes its host.
func (h *RemoteHost) Close() error {
	return h.conn.Close()
}

func (h *RemoteHost) roundTrip(ctx context.Context, f *protocol.Frame) (*protocol.Frame, error) {
	if h.conn.IsClosed() {
		return nil, host.ErrHostClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.nextID++
	f.ID = h.nextID
	if err := h.conn.WriteFrame(f); err != nil {
		return nil, err
	}
	res, err := h.await(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return res, nil
}

func (h *RemoteHost) await(ctx context.Context, id uint64) (*protocol.Frame, error) {
	deadline, _ := ctx.Deadline()
	for {
		if res, ok := h.results[id]; ok {
			delete(h.results, id)
			return res, nil
		}
		f, err := h.conn.ReadFrame(deadline)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}
		switch f.Kind {
		case protocol.FrameResult:
			h.results[f.ID] = f
		case protocol.FrameNotification:
			h.dispatch(f)
		default:
			return nil, errors.Wrapf(protocol.ErrUnexpectedResponse, "frame kind %q", f.Kind)
		}
	}
}

func (h *RemoteHost) dispatch(f *protocol.Frame) {
	sink, ok := h.sinks[f.Conn]
	if !ok || f.Notification == nil {
		return
	}
	args, err := protocol.DecodeAll(f.Notification.Args)
	if err != nil {
		h.logger.Error("Dropping undecodable notification", log.String("bus", f.Notification.Bus), log.Error(err))
		return
	}
	addr, err := protocol.DecodePtr(f.Notification.Address)
	if err != nil {
		h.logger.Error("Dropping undecodable notification", log.String("bus", f.Notification.Bus), log.Error(err))
		return
	}
	sink(host.Notification{
		Bus:      f.Notification.Bus,
		Address:  addr,
		Callback: f.Notification.Callback,
		Args:     args,
	})
}
