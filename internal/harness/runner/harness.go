package runner

import (
	"context"
	"fmt"
	"io"

	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/busproxy"
	"github.com/zeusync/editorharness/internal/harness/component"
	"github.com/zeusync/editorharness/internal/harness/entity"
	"github.com/zeusync/editorharness/internal/harness/level"
	"github.com/zeusync/editorharness/internal/harness/recorder"
	"github.com/zeusync/editorharness/internal/harness/report"
	"github.com/zeusync/editorharness/internal/harness/tracer"
	"github.com/zeusync/editorharness/internal/harness/wait"
	"github.com/zeusync/editorharness/internal/host"
)

var exitLabel = report.Label{
	Success: "Exited game mode during teardown",
	Failure: "Could not exit game mode during teardown",
}

// Harness runs tests one after another on a single host.
type Harness struct {
	host   host.Host
	config Config
	logger log.Log

	proxy      *busproxy.Proxy
	entities   *entity.Registry
	components *component.Proxy
	loop       *wait.Loop
	levels     *level.Controller
	reporter   *report.Reporter
	tracer     *tracer.Tracer
}

// New binds a harness to h. Report lines go to out.
func New(h host.Host, config Config, out io.Writer, logger log.Log) *Harness {
	proxy := busproxy.New(h, logger)
	loop := wait.New(proxy, logger)
	reporter := report.New(out, logger)
	return &Harness{
		host:       h,
		config:     config,
		logger:     logger.Named("runner"),
		proxy:      proxy,
		entities:   entity.New(proxy, logger),
		components: component.New(proxy, logger),
		loop:       loop,
		levels:     level.New(proxy, loop, reporter, config.Level, logger),
		reporter:   reporter,
		tracer:     tracer.New(proxy, logger),
	}
}

func (h *Harness) Proxy() *busproxy.Proxy { return h.proxy }

// RunAll runs tests in order; a failing test never stops the next one.
func (h *Harness) RunAll(ctx context.Context, tests []Test) []report.Summary {
	out := make([]report.Summary, 0, len(tests))
	for _, t := range tests {
		if ctx.Err() != nil {
			break
		}
		out = append(out, h.Run(ctx, t))
	}
	return out
}

// Run runs one test with its setup and teardown.
func (h *Harness) Run(ctx context.Context, test Test) report.Summary {
	logger := h.logger.With(log.String("test", test.Name))
	logger.Info("test starting", log.Stringer("level", test.Level))

	s := h.reporter.Run(test.Name, func() error {
		timeout := test.Timeout
		if timeout <= 0 {
			timeout = h.config.TestTimeout
		}
		tctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		// stale failures from a previous test must not leak into this one
		_ = h.proxy.TakeCallbackError()

		if test.Level.Name != "" {
			if err := h.levels.OpenLevel(tctx, test.Level.Category, test.Level.Name); err != nil {
				h.reporter.Abort(fmt.Sprintf("Setup: could not open level %s: %v", test.Level, err))
			}
		}
		h.levels.InitIdle()

		t := &T{
			ctx:        tctx,
			test:       test,
			log:        logger,
			Proxy:      h.proxy,
			Scope:      h.proxy.NewScope(),
			Entities:   h.entities,
			Components: h.components,
			Recorder:   recorder.New(h.proxy, logger),
			Loop:       h.loop,
			Level:      h.levels,
			Report:     h.reporter,
			Tracer:     h.tracer,
		}
		window, err := h.tracer.Start(tctx)
		if err != nil {
			return err
		}
		defer h.teardown(ctx, t, window)

		if test.Body == nil {
			return nil
		}
		return test.Body(t)
	})

	logger.Info("test finished", log.Bool("passed", s.Passed), log.Int("failures", len(s.Failures)), log.Duration("duration", s.Duration))
	return s
}

// teardown leaves game mode and drops every handler of the test. It runs on
// a fresh deadline so a test that ran out of time still cleans up.
func (h *Harness) teardown(parent context.Context, t *T, window *tracer.Window) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), h.config.TeardownTimeout)
	defer cancel()

	if err := h.proxy.TakeCallbackError(); err != nil {
		h.reporter.Failure(fmt.Sprintf("Callback error: %v", err))
	}

	in, err := h.levels.IsInGameMode(ctx)
	switch {
	case err != nil:
		h.reporter.Failure(fmt.Sprintf("Teardown: %v", err))
	case in:
		if _, err := h.levels.ExitGameMode(ctx, exitLabel); err != nil {
			h.reporter.Failure(fmt.Sprintf("Teardown: %v", err))
		}
	}

	if err := t.Recorder.Close(); err != nil {
		h.reporter.Failure(fmt.Sprintf("Teardown: %v", err))
	}
	if err := t.Scope.Close(); err != nil {
		h.reporter.Failure(fmt.Sprintf("Teardown: %v", err))
	}

	// report what the engine logged during the test, then close every window
	for _, m := range window.Errors() {
		h.reporter.Info("Engine error: " + m.String())
	}
	for _, m := range window.Warnings() {
		h.reporter.Info("Engine warning: " + m.String())
	}
	if err := h.tracer.Close(); err != nil {
		h.reporter.Failure(fmt.Sprintf("Teardown: %v", err))
	}
}
