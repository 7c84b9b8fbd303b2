package websocket

import (
	"encoding/json"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/editorharness/internal/core/protocol"
)

// Connection is one side of a remote host websocket carrying JSON frames.
type Connection struct {
	id     string
	conn   *websocket.Conn
	config protocol.Config
	closed int32

	// Metrics
	framesSent     uint64
	framesReceived uint64

	// Write mutex to ensure thread-safe writes
	writeMu sync.Mutex
}

// NewConnection wraps an established websocket.
func NewConnection(conn *websocket.Conn, config protocol.Config) *Connection {
	if config.MaxMessageSize > 0 {
		conn.SetReadLimit(config.MaxMessageSize)
	}
	return &Connection{
		id:     uuid.New().String(),
		conn:   conn,
		config: config,
	}
}

// ID returns the connection ID
func (c *Connection) ID() string {
	return c.id
}

// RemoteAddr returns the remote network address
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// WriteFrame sends one frame.
func (c *Connection) WriteFrame(f *protocol.Frame) error {
	if c.IsClosed() {
		return protocol.ErrConnectionClosed
	}

	data, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "failed to marshal frame")
	}
	if c.config.MaxMessageSize > 0 && int64(len(data)) > c.config.MaxMessageSize {
		return errors.Wrapf(protocol.ErrFrameTooLarge, "frame size %d exceeds limit %d", len(data), c.config.MaxMessageSize)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.config.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	if err = c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrap(err, "failed to write frame")
	}

	atomic.AddUint64(&c.framesSent, 1)
	return nil
}

// ReadFrame blocks for the next frame. A zero deadline falls back to the
// configured read timeout.
func (c *Connection) ReadFrame(deadline time.Time) (*protocol.Frame, error) {
	if c.IsClosed() {
		return nil, protocol.ErrConnectionClosed
	}

	if deadline.IsZero() && c.config.ReadTimeout > 0 {
		deadline = time.Now().Add(c.config.ReadTimeout)
	}
	_ = c.conn.SetReadDeadline(deadline)

	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read frame")
	}
	if messageType != websocket.TextMessage {
		return nil, errors.Wrap(protocol.ErrInvalidFrame, "expected text message")
	}

	var f protocol.Frame
	if err = json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(protocol.ErrInvalidFrame, "failed to unmarshal frame: %v", err)
	}

	atomic.AddUint64(&c.framesReceived, 1)
	return &f, nil
}

// FramesSent returns the number of frames written.
func (c *Connection) FramesSent() uint64 { return atomic.LoadUint64(&c.framesSent) }

// FramesReceived returns the number of frames read.
func (c *Connection) FramesReceived() uint64 { return atomic.LoadUint64(&c.framesReceived) }

// IsClosed checks if the connection is closed
func (c *Connection) IsClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// Close closes the connection
func (c *Connection) Close() error {
	return c.CloseWithReason("connection closed")
}

// CloseWithReason closes the connection with a specific reason
func (c *Connection) CloseWithReason(reason string) error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil // Already closed
	}

	c.writeMu.Lock()
	closeMessage := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(time.Second))
	c.writeMu.Unlock()

	return c.conn.Close()
}
