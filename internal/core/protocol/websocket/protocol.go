package websocket

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/core/protocol"
	"github.com/zeusync/editorharness/internal/host"
)

// Server exposes hosts over websocket. Every connection gets its own host
// from the factory and its frames are handled one at a time, in order.
type Server struct {
	config  protocol.Config
	factory host.Factory
	server  *http.Server
	running int32
	logger  log.Log

	active  int64
	clients sync.WaitGroup

	upgrader websocket.Upgrader
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewServer creates a server for hosts built by factory.
func NewServer(config protocol.Config, factory host.Factory, logger log.Log) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		config:  config,
		factory: factory,
		logger:  logger.With(log.String("protocol", "websocket")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.BufferSize,
			WriteBufferSize: config.BufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handler returns the HTTP routes: the host endpoint and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.config.Path, s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start listens on the configured address.
func (s *Server) Start(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return errors.New("server is already running")
	}

	s.server = &http.Server{
		Addr:    s.config.Addr,
		Handler: s.Handler(),
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("WebSocket server error", log.Error(err))
		}
	}()

	s.logger.Info("Remote host server started", log.String("address", s.config.Addr), log.String("path", s.config.Path))
	return nil
}

// Stop shuts the listener down and closes every live host.
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return errors.New("server is not running")
	}

	s.cancel()
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return errors.Wrap(err, "failed to shutdown HTTP server")
		}
	}
	s.clients.Wait()

	s.logger.Info("Remote host server stopped")
	return nil
}

// ActiveConnections returns the number of connected clients.
func (s *Server) ActiveConnections() int64 {
	return atomic.LoadInt64(&s.active)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", log.Error(err))
		return
	}
	client := NewConnection(conn, s.config)

	h, err := s.factory(s.ctx)
	if err != nil {
		s.logger.Error("Host creation failed", log.Error(err))
		_ = client.CloseWithReason("host unavailable")
		return
	}

	s.clients.Add(1)
	atomic.AddInt64(&s.active, 1)
	s.logger.Info("Client connected", log.String("client_id", client.ID()))
	s.serve(client, h)
}

// serve runs the frame loop for one client until it hangs up.
func (s *Server) serve(client *Connection, h host.Host) {
	sessions := make(map[string]host.Connection)
	done := make(chan struct{})
	defer func() {
		close(done)
		for _, c := range sessions {
			_ = c.Disconnect()
		}
		if err := h.Close(); err != nil {
			s.logger.Warn("Host close failed", log.Error(err))
		}
		_ = client.Close()
		atomic.AddInt64(&s.active, -1)
		s.clients.Done()
		s.logger.Info("Client disconnected", log.String("client_id", client.ID()))
	}()

	go func() {
		select {
		case <-s.ctx.Done():
			_ = client.CloseWithReason("server stopping")
		case <-done:
		}
	}()

	for {
		f, err := client.ReadFrame(time.Time{})
		if err != nil {
			if websocket.IsUnexpectedCloseError(errors.Cause(err), websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("WebSocket error", log.Error(err))
			}
			return
		}
		res := &protocol.Frame{Kind: protocol.FrameResult, ID: f.ID}
		if err := s.handleFrame(client, h, sessions, f, res); err != nil {
			res.Error = protocol.WrapError(err)
		}
		if err := client.WriteFrame(res); err != nil {
			s.logger.Error("Failed to write result", log.Error(err))
			return
		}
	}
}

func (s *Server) handleFrame(client *Connection, h host.Host, sessions map[string]host.Connection, f, res *protocol.Frame) error {
	switch f.Kind {
	case protocol.FrameCall:
		if f.Call == nil {
			return errors.Wrap(protocol.ErrInvalidFrame, "call frame without call")
		}
		args, err := protocol.DecodeAll(f.Call.Args)
		if err != nil {
			return fmt.Errorf("%w: %v", host.ErrBadArguments, err)
		}
		addr, err := protocol.DecodePtr(f.Call.Address)
		if err != nil {
			return fmt.Errorf("%w: %v", host.ErrBadArguments, err)
		}
		out, err := h.Invoke(s.ctx, host.Call{
			Bus:       f.Call.Bus,
			Method:    f.Call.Method,
			Address:   addr,
			Args:      args,
			Broadcast: f.Call.Broadcast,
		})
		if err != nil {
			return err
		}
		res.Result, err = protocol.EncodePtr(out)
		return err

	case protocol.FrameConnect:
		if f.Connect == nil {
			return errors.Wrap(protocol.ErrInvalidFrame, "connect frame without bus")
		}
		addr, err := protocol.DecodePtr(f.Connect.Address)
		if err != nil {
			return fmt.Errorf("%w: %v", host.ErrBadArguments, err)
		}
		id := uuid.New().String()
		c, err := h.Connect(f.Connect.Bus, addr, s.forward(client, id))
		if err != nil {
			return err
		}
		sessions[id] = c
		res.Conn = id
		return nil

	case protocol.FrameDisconnect:
		c, ok := sessions[f.Conn]
		if !ok {
			return protocol.ErrUnknownConnection
		}
		delete(sessions, f.Conn)
		return c.Disconnect()

	case protocol.FrameTick:
		return h.Tick(s.ctx)
	}
	return errors.Wrapf(protocol.ErrInvalidFrame, "unknown frame kind %q", f.Kind)
}

// forward returns a sink that streams notifications to the client.
func (s *Server) forward(client *Connection, id string) host.Sink {
	return func(n host.Notification) {
		args, err := protocol.EncodeAll(n.Args)
		if err != nil {
			s.logger.Error("Dropping notification", log.String("callback", n.Callback), log.Error(err))
			return
		}
		addr, err := protocol.EncodePtr(n.Address)
		if err != nil {
			s.logger.Error("Dropping notification", log.String("callback", n.Callback), log.Error(err))
			return
		}
		err = client.WriteFrame(&protocol.Frame{
			Kind: protocol.FrameNotification,
			Conn: id,
			Notification: &protocol.NotificationFrame{
				Bus:      n.Bus,
				Address:  addr,
				Callback: n.Callback,
				Args:     args,
			},
		})
		if err != nil {
			s.logger.Error("Failed to forward notification", log.Error(err))
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"status":"healthy","connections":%d}`, s.ActiveConnections())
}
