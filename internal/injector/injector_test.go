package injector

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/editorharness/internal/config"
	"github.com/zeusync/editorharness/internal/harness/runner"
	"github.com/zeusync/editorharness/internal/scenarios"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Log.Level = "silent"
	cfg.Runner.Batches = 2
	return cfg
}

func pick(t *testing.T, names ...string) []runner.Test {
	t.Helper()
	var out []runner.Test
	for _, test := range scenarios.Suite().Tests {
		for _, n := range names {
			if test.Name == n {
				out = append(out, test)
			}
		}
	}
	require.Len(t, out, len(names))
	return out
}

func TestLocalSessionRunsScenarios(t *testing.T) {
	s, err := NewLocalSession(testConfig(), scenarios.FS())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Config.Batches)

	var out bytes.Buffer
	summaries, err := s.Run(context.Background(), pick(t, "GravityAwakens", "SearchByPath", "ForceRegionDirection"), &out)
	require.NoError(t, err)
	assert.True(t, runner.Passed(summaries), out.String())
}

func TestLocalHarness(t *testing.T) {
	var out bytes.Buffer
	h, cleanup, err := NewLocalHarness(testConfig(), scenarios.FS(), &out)
	require.NoError(t, err)
	defer cleanup()

	summaries := h.RunAll(context.Background(), pick(t, "TriggerPassthrough"))
	assert.True(t, runner.Passed(summaries), out.String())
}

func TestRemoteSessionAgainstSimServer(t *testing.T) {
	cfg := testConfig()
	srv, err := NewSimServer(cfg, scenarios.FS())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := RemoteURL("ws" + strings.TrimPrefix(ts.URL, "http") + cfg.Remote.Path)
	s, err := NewRemoteSession(cfg, url)
	require.NoError(t, err)

	var out bytes.Buffer
	summaries, err := s.Run(context.Background(), pick(t, "GravityAwakens", "TriggerPassthrough", "SearchByPath"), &out)
	require.NoError(t, err)
	assert.True(t, runner.Passed(summaries), out.String())
}

func TestInvalidLogLevel(t *testing.T) {
	cfg := testConfig()
	cfg.Log.Level = "chatty"
	_, err := NewLocalSession(cfg, scenarios.FS())
	assert.Error(t, err)
	_, _, err = NewLocalHarness(cfg, scenarios.FS(), &bytes.Buffer{})
	assert.Error(t, err)
}
