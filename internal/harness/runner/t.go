package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/busproxy"
	"github.com/zeusync/editorharness/internal/harness/component"
	"github.com/zeusync/editorharness/internal/harness/entity"
	"github.com/zeusync/editorharness/internal/harness/level"
	"github.com/zeusync/editorharness/internal/harness/recorder"
	"github.com/zeusync/editorharness/internal/harness/report"
	"github.com/zeusync/editorharness/internal/harness/tracer"
	"github.com/zeusync/editorharness/internal/harness/wait"
)

// T is the context handed to a test body. Its components share one host and
// must only be used from the body's goroutine.
type T struct {
	ctx  context.Context
	test Test
	log  log.Log

	Proxy      *busproxy.Proxy
	Scope      *busproxy.Scope
	Entities   *entity.Registry
	Components *component.Proxy
	Recorder   *recorder.Recorder
	Loop       *wait.Loop
	Level      *level.Controller
	Report     *report.Reporter
	Tracer     *tracer.Tracer
}

// Context carries the test's wall-clock deadline.
func (t *T) Context() context.Context { return t.ctx }

func (t *T) Name() string { return t.test.Name }

func (t *T) Logger() log.Log { return t.log }

// FailFast records msg as a failure and returns control to the runner.
func (t *T) FailFast(msg string) { t.Report.Abort(msg) }

// Must fails the test fast on a fatal error.
func (t *T) Must(err error) {
	if err != nil {
		t.FailFast(fmt.Sprintf("Test %s: %v", t.test.Name, err))
	}
}

func (t *T) Result(label report.Label, ok bool) bool { return t.Report.Result(label, ok) }

func (t *T) CriticalResult(label report.Label, ok bool, message ...string) {
	t.Report.CriticalResult(label, ok, message...)
}

func (t *T) Info(text string) { t.Report.Info(text) }

// WaitFor polls cond once per frame for up to timeout and reports label.
// A timeout is an ordinary failure; a fatal error ends the test.
func (t *T) WaitFor(label report.Label, cond wait.Condition, timeout time.Duration) bool {
	ok, err := t.Loop.WaitForCondition(t.ctx, cond, timeout)
	t.Must(err)
	return t.Report.Result(label, ok)
}

// IdleFrames yields n frames.
func (t *T) IdleFrames(n int) { t.Must(t.Loop.IdleWaitFrames(t.ctx, n)) }

// EnterGameMode enters game mode or aborts the test.
func (t *T) EnterGameMode(label report.Label) { t.Must(t.Level.EnterGameMode(t.ctx, label)) }

// ExitGameMode leaves game mode and reports the outcome.
func (t *T) ExitGameMode(label report.Label) bool {
	ok, err := t.Level.ExitGameMode(t.ctx, label)
	t.Must(err)
	return ok
}

// FindGameEntity resolves name in the running game and aborts the test when
// it is missing.
func (t *T) FindGameEntity(name string) entity.Entity {
	id, err := t.Entities.FindGameEntity(t.ctx, name)
	t.Must(err)
	t.CriticalResult(report.Label{
		Success: fmt.Sprintf("Entity %s found", name),
		Failure: fmt.Sprintf("Entity %s not found", name),
	}, id.IsValid())
	return t.Entities.Entity(id)
}

// FindEditorEntity is FindGameEntity for the editor scene.
func (t *T) FindEditorEntity(name string) entity.Entity {
	id, err := t.Entities.FindEditorEntity(t.ctx, name)
	t.Must(err)
	t.CriticalResult(report.Label{
		Success: fmt.Sprintf("Editor entity %s found", name),
		Failure: fmt.Sprintf("Editor entity %s not found", name),
	}, id.IsValid())
	return t.Entities.Entity(id)
}

// Subscribe records kind at address for the rest of the test.
func (t *T) Subscribe(kind recorder.Kind, address models.EntityID, opts ...recorder.Option) *recorder.Subscription {
	var addr any
	if address.IsValid() {
		addr = address
	}
	s, err := t.Recorder.Subscribe(t.ctx, kind, addr, opts...)
	t.Must(err)
	return s
}
