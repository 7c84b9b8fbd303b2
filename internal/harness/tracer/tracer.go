// Package tracer captures engine warnings and errors while a block of test
// code runs.
package tracer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/busproxy"
	"github.com/zeusync/editorharness/internal/host"
)

// Message is one captured engine log message.
type Message struct {
	Window string
	Text   string
}

func (m Message) String() string { return m.Window + ": " + m.Text }

// Tracer fans TraceMessageBus warnings and errors out to every open Window.
// The bus handler stays connected while at least one window is open.
type Tracer struct {
	proxy  *busproxy.Proxy
	logger log.Log

	mu      sync.Mutex
	open    map[*Window]struct{}
	handler *busproxy.NotificationHandler
}

func New(proxy *busproxy.Proxy, logger log.Log) *Tracer {
	t := &Tracer{proxy: proxy, logger: logger.Named("tracer"), open: make(map[*Window]struct{})}
	t.handler = proxy.Handler(host.TraceMessageBus, nil).
		Add(host.OnPreWarning, func(n host.Notification) { t.capture(false, n) }).
		Add(host.OnPreError, func(n host.Notification) { t.capture(true, n) }).
		Add(host.OnPrintf, func(host.Notification) {})
	return t
}

func (t *Tracer) capture(isError bool, n host.Notification) {
	var m Message
	if len(n.Args) > 0 {
		m.Window = fmt.Sprint(n.Args[0])
	}
	if len(n.Args) > 1 {
		m.Text = fmt.Sprint(n.Args[1])
	}
	t.mu.Lock()
	for w := range t.open {
		w.add(isError, m)
	}
	t.mu.Unlock()
	t.logger.Debug("engine message captured", log.String("callback", n.Callback), log.String("window", m.Window), log.String("text", m.Text))
}

// Start opens a window that captures only what the engine emits until its
// Stop. Windows may overlap; each keeps its own captures.
func (t *Tracer) Start(ctx context.Context) (*Window, error) {
	w := &Window{tracer: t}
	t.mu.Lock()
	first := len(t.open) == 0
	t.open[w] = struct{}{}
	t.mu.Unlock()
	if first {
		if err := t.handler.Connect(); err != nil {
			t.mu.Lock()
			delete(t.open, w)
			t.mu.Unlock()
			return nil, err
		}
	}
	t.logger.WithContext(ctx).Debug("trace window opened")
	return w, nil
}

func (t *Tracer) stop(w *Window) error {
	t.mu.Lock()
	if _, ok := t.open[w]; !ok {
		t.mu.Unlock()
		return nil
	}
	delete(t.open, w)
	last := len(t.open) == 0
	t.mu.Unlock()
	if !last {
		return nil
	}
	return t.handler.Disconnect()
}

// Trace runs fn inside its own window and returns the closed window.
func (t *Tracer) Trace(ctx context.Context, fn func() error) (w *Window, err error) {
	w, err = t.Start(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if serr := w.Stop(); err == nil {
			err = serr
		}
	}()
	return w, fn()
}

// Active reports whether any window is open.
func (t *Tracer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open) > 0
}

// Close stops every window still open.
func (t *Tracer) Close() error {
	t.mu.Lock()
	windows := make([]*Window, 0, len(t.open))
	for w := range t.open {
		windows = append(windows, w)
	}
	t.mu.Unlock()
	for _, w := range windows {
		if err := w.Stop(); err != nil {
			return err
		}
	}
	return nil
}

// Window holds the messages captured between its Start and Stop. Captures
// stay readable after Stop.
type Window struct {
	tracer *Tracer

	warnings []Message
	errors   []Message
	closed   bool
}

// add runs with tracer.mu held.
func (w *Window) add(isError bool, m Message) {
	if isError {
		w.errors = append(w.errors, m)
		return
	}
	w.warnings = append(w.warnings, m)
}

func (w *Window) Stop() error {
	w.tracer.mu.Lock()
	w.closed = true
	w.tracer.mu.Unlock()
	return w.tracer.stop(w)
}

func (w *Window) Active() bool {
	w.tracer.mu.Lock()
	defer w.tracer.mu.Unlock()
	return !w.closed
}

func (w *Window) Warnings() []Message {
	w.tracer.mu.Lock()
	defer w.tracer.mu.Unlock()
	return append([]Message(nil), w.warnings...)
}

func (w *Window) Errors() []Message {
	w.tracer.mu.Lock()
	defer w.tracer.mu.Unlock()
	return append([]Message(nil), w.errors...)
}

func (w *Window) HasWarnings() bool { return len(w.Warnings()) > 0 }

func (w *Window) HasErrors() bool { return len(w.Errors()) > 0 }

// Text renders every capture, errors first, one per line.
func (w *Window) Text() string {
	var b strings.Builder
	for _, m := range w.Errors() {
		b.WriteString("Error " + m.String() + "\n")
	}
	for _, m := range w.Warnings() {
		b.WriteString("Warning " + m.String() + "\n")
	}
	return b.String()
}
