package busproxy

import (
	"errors"
)

// Scope owns the handlers of one test and disconnects them all on Close.
type Scope struct {
	proxy    *Proxy
	handlers []*NotificationHandler
	closers  []func() error
}

func (p *Proxy) NewScope() *Scope {
	return &Scope{proxy: p}
}

// Handler creates a handler owned by the scope.
func (s *Scope) Handler(bus string, address any) *NotificationHandler {
	h := s.proxy.Handler(bus, address)
	s.handlers = append(s.handlers, h)
	return h
}

// Own hands an existing handler to the scope.
func (s *Scope) Own(h *NotificationHandler) {
	s.handlers = append(s.handlers, h)
}

// Defer runs fn when the scope closes, before handlers are disconnected.
func (s *Scope) Defer(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Close runs deferred functions in reverse order, then disconnects every
// owned handler. The scope is reusable afterwards.
func (s *Scope) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	for _, h := range s.handlers {
		if err := h.Disconnect(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	s.handlers = nil
	return errors.Join(errs...)
}
