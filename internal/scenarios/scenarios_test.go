package scenarios

import (
	"bytes"
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/runner"
	"github.com/zeusync/editorharness/internal/host"
	"github.com/zeusync/editorharness/internal/sim"
)

func newEngine(t *testing.T) *sim.Engine {
	t.Helper()
	e, err := sim.New(FS(), sim.DefaultConfig(), log.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func fsReadLevel(ref runner.LevelRef) ([]byte, error) {
	return fs.ReadFile(FS(), sim.LevelPath(ref.Category, ref.Name))
}

func TestLevelsParse(t *testing.T) {
	require.NoError(t, sim.CheckLevels(FS()))
	for _, test := range Suite().Tests {
		raw, err := fsReadLevel(test.Level)
		require.NoError(t, err, test.Name)
		lvl, err := sim.ParseLevel(raw)
		require.NoError(t, err, test.Name)
		assert.Equal(t, test.Level.Name, lvl.Name)
	}
}

func TestScenariosPass(t *testing.T) {
	for _, test := range Suite().Tests {
		t.Run(test.Name, func(t *testing.T) {
			var out bytes.Buffer
			h := runner.New(newEngine(t), runner.DefaultConfig(), &out, log.Nop())
			s := h.Run(context.Background(), test)
			assert.True(t, s.Passed, out.String())
			assert.Zero(t, s.Failures)
			assert.NotContains(t, out.String(), "FAILURE:")
			assert.NotContains(t, out.String(), "Engine error:")
		})
	}
}

func TestForceRegionFiresOncePerDrop(t *testing.T) {
	e := newEngine(t)
	var forces int
	_, err := e.Connect(host.ForceRegionNotificationBus, nil, func(n host.Notification) {
		if n.Callback == host.OnCalculateNetForce {
			forces++
		}
	})
	require.NoError(t, err)

	var out bytes.Buffer
	h := runner.New(e, runner.DefaultConfig(), &out, log.Nop())
	s := h.Run(context.Background(), runner.Test{
		Name:  "ForceRegionDirection",
		Level: runner.LevelRef{Category: CategoryPhysics, Name: "ForceRegionDirection"},
		Body:  forceRegionDirection,
	})
	assert.True(t, s.Passed, out.String())
	assert.Equal(t, 1, forces, "the sphere crosses the region once over the whole test")
	assert.Contains(t, out.String(), "SUCCESS: Sphere left the region\n")
	assert.Contains(t, out.String(), "SUCCESS: Force region fired exactly once\n")
}

func TestScenariosShareOneHost(t *testing.T) {
	var out bytes.Buffer
	h := runner.New(newEngine(t), runner.DefaultConfig(), &out, log.Nop())
	summaries := h.RunAll(context.Background(), Suite().Tests)
	require.Len(t, summaries, len(Suite().Tests))
	assert.True(t, runner.Passed(summaries), out.String())
}

func TestScenariosInBatches(t *testing.T) {
	factory := func(context.Context) (host.Host, error) {
		return sim.New(FS(), sim.DefaultConfig(), log.Nop())
	}
	var out bytes.Buffer
	summaries, err := runner.RunBatches(context.Background(), factory, 3, Suite().Tests, runner.DefaultConfig(), &out, log.Nop())
	require.NoError(t, err)
	require.Len(t, summaries, len(Suite().Tests))
	for i, s := range summaries {
		assert.Equal(t, Suite().Tests[i].Name, s.Name)
		assert.True(t, s.Passed, s.Name)
	}
}

func TestMarkers(t *testing.T) {
	main, err := runner.Select(Suite().Tests, `"SUITE_main" in markers`)
	require.NoError(t, err)
	periodic, err := runner.Select(Suite().Tests, `"SUITE_periodic" in markers`)
	require.NoError(t, err)
	assert.Len(t, main, 4)
	assert.Len(t, periodic, 2)
	for _, test := range periodic {
		assert.True(t, strings.HasSuffix(test.Name, "Friction") || strings.HasSuffix(test.Name, "Collision"), test.Name)
	}
}
