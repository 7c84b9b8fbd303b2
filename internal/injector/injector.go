//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"io"
	"io/fs"

	"github.com/google/wire"

	"github.com/zeusync/editorharness/internal/config"
	"github.com/zeusync/editorharness/internal/core/protocol/websocket"
	"github.com/zeusync/editorharness/internal/harness/runner"
	"github.com/zeusync/editorharness/internal/host"
	"github.com/zeusync/editorharness/internal/sim"
)

// NewLocalSession runs tests on simulated hosts loading levels from levels.
func NewLocalSession(cfg config.Config, levels fs.FS) (*Session, error) {
	wire.Build(SessionSet, ProvideSimFactory)
	return nil, nil
}

// NewRemoteSession runs tests on hosts reached over websocket at url.
func NewRemoteSession(cfg config.Config, url RemoteURL) (*Session, error) {
	wire.Build(SessionSet, ProvideRemoteFactory)
	return nil, nil
}

// NewLocalHarness binds a harness to a single simulated host.
func NewLocalHarness(cfg config.Config, levels fs.FS, out io.Writer) (*runner.Harness, func(), error) {
	wire.Build(
		ConfigSet,
		ProvideSimHost,
		wire.Bind(new(host.Host), new(*sim.Engine)),
		runner.New,
	)
	return nil, nil, nil
}

// NewSimServer serves simulated hosts over websocket.
func NewSimServer(cfg config.Config, levels fs.FS) (*websocket.Server, error) {
	wire.Build(ConfigSet, ProvideSimFactory, websocket.NewServer)
	return nil, nil
}
