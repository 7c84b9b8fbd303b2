// Package simtest provides simulated hosts preloaded with fixture levels for
// harness package tests.
package simtest

import (
	"context"
	"embed"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/host"
	"github.com/zeusync/editorharness/internal/sim"
)

// Category holds the fixture levels: Empty and Basic.
const Category = "Harness"

//go:embed testdata
var files embed.FS

// FS returns the fixture project tree.
func FS() fs.FS {
	sub, err := fs.Sub(files, "testdata")
	if err != nil {
		panic(err)
	}
	return sub
}

// New returns an engine over the fixture tree, closed with the test.
func New(t testing.TB) *sim.Engine {
	t.Helper()
	e, err := sim.New(FS(), sim.DefaultConfig(), log.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// Factory builds fixture engines for runner batches.
func Factory() host.Factory {
	return func(context.Context) (host.Host, error) {
		return sim.New(FS(), sim.DefaultConfig(), log.Nop())
	}
}

// Load opens a fixture level and ticks until it is loaded.
func Load(t testing.TB, e *sim.Engine, name string) {
	t.Helper()
	ctx := context.Background()
	ok, err := e.Invoke(ctx, host.Call{Bus: host.EditorRequestBus, Method: host.OpenLevelNoPrompt, Args: []any{Category, name}, Broadcast: true})
	require.NoError(t, err)
	require.Equal(t, true, ok, "level %s/%s", Category, name)
	for i := 0; i < 100; i++ {
		loaded, err := e.Invoke(ctx, host.Call{Bus: host.EditorRequestBus, Method: host.IsLevelLoaded, Broadcast: true})
		require.NoError(t, err)
		if loaded == true {
			return
		}
		require.NoError(t, e.Tick(ctx))
	}
	t.Fatalf("level %s/%s did not load", Category, name)
}

// Loaded returns an engine with the named fixture level open.
func Loaded(t testing.TB, name string) *sim.Engine {
	t.Helper()
	e := New(t)
	Load(t, e, name)
	return e
}
