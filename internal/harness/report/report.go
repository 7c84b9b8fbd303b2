// Package report writes the SUCCESS and FAILURE lines CI scrapes and keeps
// the pass/fail state of the running test.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/core/observability/log"
)

const (
	SuccessPrefix = "SUCCESS: "
	FailurePrefix = "FAILURE: "
	InfoPrefix    = "INFO: "

	failureToken = "FAILURE"
	scrubbed     = "Failure"
)

// Label is the text pair an assertion reports; one of them is written
// depending on the outcome.
type Label struct {
	Success string
	Failure string
}

// Summary is the result of one Run.
type Summary struct {
	Name      string
	Passed    bool
	Successes int
	Failures  []string
	Duration  time.Duration
}

// Reporter records the assertions of one test at a time.
type Reporter struct {
	out    io.Writer
	logger log.Log

	name      string
	successes int
	failures  []string
}

// New returns a reporter writing lines to w. Each line is written in one
// call; wrap a shared writer with SyncWriter.
func New(w io.Writer, logger log.Log) *Reporter {
	return &Reporter{out: w, logger: logger.Named("report")}
}

// scrub keeps the failure token out of every line that is not a failure.
func scrub(s string) string {
	return strings.ReplaceAll(s, failureToken, scrubbed)
}

func (r *Reporter) line(prefix, text string) {
	text = scrub(text)
	_, _ = io.WriteString(r.out, prefix+text+"\n")
}

// Success records an unconditional pass.
func (r *Reporter) Success(text string) {
	r.successes++
	r.line(SuccessPrefix, text)
	r.logger.Info(scrub(text), log.String("test", r.name), log.Bool("success", true))
}

// Failure records an unconditional failure and continues.
func (r *Reporter) Failure(text string) {
	text = scrub(text)
	r.failures = append(r.failures, text)
	r.line(FailurePrefix, text)
	r.logger.Warn(text, log.String("test", r.name), log.Bool("success", false))
}

// Result reports label according to ok and returns ok.
func (r *Reporter) Result(label Label, ok bool) bool {
	if ok {
		r.Success(label.Success)
	} else {
		r.Failure(label.Failure)
	}
	return ok
}

// CriticalResult is Result that aborts the running test on failure. An
// optional message is reported as info before aborting.
func (r *Reporter) CriticalResult(label Label, ok bool, message ...string) {
	if r.Result(label, ok) {
		return
	}
	if len(message) > 0 {
		r.Info(strings.Join(message, " "))
	}
	panic(abort{reason: label.Failure})
}

// Abort records text as a failure and unwinds the running test.
func (r *Reporter) Abort(text string) {
	r.Failure(text)
	panic(abort{reason: text})
}

func (r *Reporter) Info(text string) {
	r.line(InfoPrefix, text)
	r.logger.Debug(scrub(text), log.String("test", r.name))
}

// InfoVector3 logs v under label, optionally with its length.
func (r *Reporter) InfoVector3(v models.Vector3, label string, withMagnitude bool) {
	text := label + " " + models.FormatVector3(v)
	if withMagnitude {
		text += fmt.Sprintf(" magnitude: %.6g", v.Len())
	}
	r.Info(text)
}

// Failed reports whether the running test has recorded a failure.
func (r *Reporter) Failed() bool { return len(r.failures) > 0 }

// abort unwinds a test from a critical failure.
type abort struct{ reason string }

// Run starts a test context, runs fn and closes the context with an
// aggregate line. Critical failures, panics and a returned error fail the
// test; none of them escape Run.
func (r *Reporter) Run(name string, fn func() error) (s Summary) {
	r.name, r.successes, r.failures = name, 0, nil
	start := time.Now()
	r.Info("Test started: " + name)

	defer func() {
		if p := recover(); p != nil {
			if _, ok := p.(abort); !ok {
				r.Failure(fmt.Sprintf("Test %s panicked: %v", name, p))
			}
		}
		s = Summary{
			Name:      name,
			Passed:    !r.Failed(),
			Successes: r.successes,
			Failures:  append([]string(nil), r.failures...),
			Duration:  time.Since(start),
		}
		verdict := "passed"
		if !s.Passed {
			verdict = fmt.Sprintf("failed with %d failed checks", len(s.Failures))
		}
		r.Info(fmt.Sprintf("Test %s finished: %s (%d checks passed)", name, verdict, s.Successes))
		r.name = ""
	}()

	if err := fn(); err != nil {
		r.Failure(fmt.Sprintf("Test %s aborted: %v", name, err))
	}
	return
}

// IsAbort reports whether a recovered panic value is a critical-failure unwind.
func IsAbort(p any) bool {
	_, ok := p.(abort)
	return ok
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// SyncWriter serializes writes to w so reporters of parallel batches can
// share it.
func SyncWriter(w io.Writer) io.Writer {
	if _, ok := w.(*lockedWriter); ok {
		return w
	}
	return &lockedWriter{w: w}
}
