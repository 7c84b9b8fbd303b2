package busproxy

import (
	"errors"
	"fmt"

	"github.com/zeusync/editorharness/internal/host"
)

var (
	ErrAlreadyConnected = errors.New("handler already connected")
	ErrNotConnected     = errors.New("handler not connected")
)

// Callback receives one notification. The notification address tells global
// subscribers which entity fired it.
type Callback func(n host.Notification)

// NotificationHandler retains callbacks for one bus and address. A nil address
// subscribes to every address on the bus.
type NotificationHandler struct {
	proxy     *Proxy
	bus       string
	address   any
	callbacks map[string]Callback
	conn      host.Connection
}

// Handler returns an unconnected handler. Register callbacks with Add, then Connect.
func (p *Proxy) Handler(bus string, address any) *NotificationHandler {
	return &NotificationHandler{
		proxy:     p,
		bus:       bus,
		address:   address,
		callbacks: make(map[string]Callback),
	}
}

func (h *NotificationHandler) Bus() string  { return h.bus }
func (h *NotificationHandler) Address() any { return h.address }

// Add registers fn for callback, replacing any previous function. Callbacks
// may be added while connected.
func (h *NotificationHandler) Add(callback string, fn Callback) *NotificationHandler {
	h.callbacks[callback] = fn
	return h
}

// Connect registers the handler with the host. A failure here is fatal to the
// running test: the bus or address does not exist.
func (h *NotificationHandler) Connect() error {
	if h.conn != nil {
		return ErrAlreadyConnected
	}
	conn, err := h.proxy.host.Connect(h.bus, h.address, h.dispatch)
	if err != nil {
		return fmt.Errorf("connect %s @%v: %w", h.bus, h.address, err)
	}
	h.conn = conn
	return nil
}

func (h *NotificationHandler) IsConnected() bool { return h.conn != nil }

// Disconnect stops delivery. Disconnecting an unconnected handler is a no-op.
func (h *NotificationHandler) Disconnect() error {
	if h.conn == nil {
		return nil
	}
	conn := h.conn
	h.conn = nil
	if err := conn.Disconnect(); err != nil {
		return fmt.Errorf("disconnect %s @%v: %w", h.bus, h.address, err)
	}
	return nil
}

func (h *NotificationHandler) dispatch(n host.Notification) {
	fn, ok := h.callbacks[n.Callback]
	if !ok || h.conn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			h.proxy.fail(panicError(h.bus, n.Callback, r))
		}
	}()
	fn(n)
}
