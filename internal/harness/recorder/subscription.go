package recorder

import (
	"errors"
	"slices"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/harness/busproxy"
	"github.com/zeusync/editorharness/internal/host"
)

// Subscription holds the handlers and records of one Subscribe call.
type Subscription struct {
	recorder *Recorder
	kind     Kind
	address  any
	filter   func(Record) bool
	callback func(Record)
	handlers []*busproxy.NotificationHandler
	records  []Record
}

func (s *Subscription) receive(kind Kind, addressed bool) busproxy.Callback {
	return func(n host.Notification) {
		rec := Record{Kind: kind, Bus: n.Bus, Callback: n.Callback, Payload: n.Args}
		if src, ok := n.Address.(models.EntityID); ok {
			rec.Source = src
		} else {
			rec.Source = rec.Entity()
		}
		// unaddressed buses are filtered to the subscribed entity here
		if !addressed && s.address != nil && rec.Source != s.address {
			return
		}
		if s.filter != nil && !s.filter(rec) {
			return
		}
		rec = s.recorder.append(rec)
		s.records = append(s.records, rec)
		if s.callback != nil {
			s.callback(rec)
		}
	}
}

func (s *Subscription) Kind() Kind { return s.kind }

func (s *Subscription) Count() int { return len(s.records) }

// CountOf counts the records of one callback name.
func (s *Subscription) CountOf(callback string) int {
	n := 0
	for _, r := range s.records {
		if r.Callback == callback {
			n++
		}
	}
	return n
}

// Latest returns the most recent record.
func (s *Subscription) Latest() (Record, bool) {
	if len(s.records) == 0 {
		return Record{}, false
	}
	return s.records[len(s.records)-1], true
}

// LatestOf returns the most recent record of one callback name.
func (s *Subscription) LatestOf(callback string) (Record, bool) {
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Callback == callback {
			return s.records[i], true
		}
	}
	return Record{}, false
}

func (s *Subscription) Records() []Record { return slices.Clone(s.records) }

// Close disconnects the subscription's handlers; records stay readable.
func (s *Subscription) Close() error {
	var errs []error
	for _, h := range s.handlers {
		errs = append(errs, h.Disconnect())
	}
	return errors.Join(errs...)
}
