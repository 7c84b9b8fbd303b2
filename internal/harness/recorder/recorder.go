// Package recorder turns engine notifications into records tests can poll,
// while still running callbacks for tests that react as events arrive.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/busproxy"
	"github.com/zeusync/editorharness/internal/host"
)

var (
	ErrUnknownKind = errors.New("unknown notification kind")
	ErrTickAddress = errors.New("tick notifications carry no entity address")
)

// Recorder owns a set of subscriptions and the merged record stream.
type Recorder struct {
	proxy   *busproxy.Proxy
	scope   *busproxy.Scope
	logger  log.Log
	seq     uint64
	records []Record
	subs    []*Subscription
}

func New(proxy *busproxy.Proxy, logger log.Log) *Recorder {
	return &Recorder{
		proxy:  proxy,
		scope:  proxy.NewScope(),
		logger: logger.Named("recorder"),
	}
}

// Option configures a subscription.
type Option func(*Subscription)

// WithFilter drops records for which pred is false before they are stored
// or handed to the callback.
func WithFilter(pred func(Record) bool) Option {
	return func(s *Subscription) { s.filter = pred }
}

// WithCallback runs fn for every stored record as it arrives.
func WithCallback(fn func(Record)) Option {
	return func(s *Subscription) { s.callback = fn }
}

// Subscribe connects handlers for kind at address. A nil address records the
// notifications of every entity. Registration failures are fatal to the test.
func (r *Recorder) Subscribe(ctx context.Context, kind Kind, address any, opts ...Option) (*Subscription, error) {
	buses, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
	if kind == Tick && address != nil {
		return nil, fmt.Errorf("%w: %v", ErrTickAddress, address)
	}
	s := &Subscription{recorder: r, kind: kind, address: address}
	for _, opt := range opts {
		opt(s)
	}

	for _, b := range buses {
		addr := address
		if !b.addressed {
			addr = nil
		}
		h := r.scope.Handler(b.bus, addr)
		for _, cb := range b.callbacks {
			h.Add(cb, s.receive(kind, b.addressed))
		}
		if err := h.Connect(); err != nil {
			_ = s.Close()
			return nil, err
		}
		s.handlers = append(s.handlers, h)
	}
	r.subs = append(r.subs, s)
	r.logger.WithContext(ctx).Debug("subscribed",
		log.Stringer("kind", kind), log.Any("address", address), log.Int("handlers", len(s.handlers)))
	return s, nil
}

func (r *Recorder) append(rec Record) Record {
	r.seq++
	rec.Seq = r.seq
	r.records = append(r.records, rec)
	return rec
}

// Records returns the merged stream of every subscription in arrival order.
func (r *Recorder) Records() []Record { return slices.Clone(r.records) }

func (r *Recorder) Count() int { return len(r.records) }

// Pairs lists the distinct (source, other) pairs seen for a collision or
// trigger kind, in first-seen order.
func (r *Recorder) Pairs(kind Kind) []Pair {
	var out []Pair
	for _, rec := range r.records {
		if rec.Kind != kind {
			continue
		}
		p := Pair{Source: rec.Source, Other: rec.Other()}
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// CheckCollisionSequence verifies that the collision callbacks seen by a for
// b have the shape Begin Persist* End, repeated. A contact still open at the
// end of the stream is accepted.
func (r *Recorder) CheckCollisionSequence(a, b models.EntityID) error {
	open := false
	for _, rec := range r.pairRecords(Collision, a, b) {
		switch rec.Callback {
		case host.OnCollisionBegin:
			if open {
				return fmt.Errorf("%s/%s: record %d: begin while in contact", a, b, rec.Seq)
			}
			open = true
		case host.OnCollisionPersist, host.OnCollisionEnd:
			if !open {
				return fmt.Errorf("%s/%s: record %d: %s without begin", a, b, rec.Seq, rec.Callback)
			}
			open = rec.Callback == host.OnCollisionPersist
		}
	}
	return nil
}

// CheckTriggerSequence verifies that enter and exit alternate for a in b,
// starting with enter.
func (r *Recorder) CheckTriggerSequence(a, b models.EntityID) error {
	inside := false
	for _, rec := range r.pairRecords(Trigger, a, b) {
		enter := rec.Callback == host.OnTriggerEnter
		if enter == inside {
			return fmt.Errorf("%s/%s: record %d: unexpected %s", a, b, rec.Seq, rec.Callback)
		}
		inside = enter
	}
	return nil
}

func (r *Recorder) pairRecords(kind Kind, a, b models.EntityID) []Record {
	var out []Record
	for _, rec := range r.records {
		if rec.Kind == kind && rec.Source == a && rec.Other() == b {
			out = append(out, rec)
		}
	}
	return out
}

// Fingerprint digests the merged stream. Two runs of the same level and
// yields produce the same fingerprint.
func (r *Recorder) Fingerprint() uint64 {
	d := xxhash.New()
	for _, rec := range r.records {
		_, _ = fmt.Fprintf(d, "%d|%s|%s|%d|%v\n", rec.Kind, rec.Bus, rec.Callback, uint64(rec.Source), rec.Payload)
	}
	return d.Sum64()
}

// Reset drops every stored record; subscriptions stay connected.
func (r *Recorder) Reset() {
	r.records = nil
	for _, s := range r.subs {
		s.records = nil
	}
}

// Close disconnects every subscription.
func (r *Recorder) Close() error {
	r.subs = nil
	return r.scope.Close()
}
