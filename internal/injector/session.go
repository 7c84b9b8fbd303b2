package injector

import (
	"context"
	"io"

	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/report"
	"github.com/zeusync/editorharness/internal/harness/runner"
	"github.com/zeusync/editorharness/internal/host"
)

// Session runs tests on hosts built by Factory.
type Session struct {
	Factory host.Factory
	Logger  log.Log
	Config  runner.Config
}

// Run spreads tests over Config.Batches hosts and returns the summaries in
// test order.
func (s *Session) Run(ctx context.Context, tests []runner.Test, out io.Writer) ([]report.Summary, error) {
	return runner.RunBatches(ctx, s.Factory, s.Config.Batches, tests, s.Config, out, s.Logger)
}
