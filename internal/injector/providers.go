package injector

import (
	"context"
	"io/fs"

	"github.com/google/wire"

	"github.com/zeusync/editorharness/internal/config"
	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/core/protocol"
	"github.com/zeusync/editorharness/internal/core/protocol/websocket"
	"github.com/zeusync/editorharness/internal/host"
	"github.com/zeusync/editorharness/internal/sim"
)

// RemoteURL is the websocket endpoint of a remote host.
type RemoteURL string

// ConfigSet splits the harness configuration into the per-package configs
// and provides the logger.
var ConfigSet = wire.NewSet(
	ProvideLogger,
	wire.FieldsOf(new(config.Config), "Sim", "Remote", "Runner"),
)

// SessionSet builds a Session around whichever host.Factory the injector
// supplies.
var SessionSet = wire.NewSet(
	ConfigSet,
	wire.Struct(new(Session), "Factory", "Logger", "Config"),
)

func ProvideLogger(cfg config.Config) (log.Log, error) {
	logger, err := cfg.Log.Logger()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// ProvideSimHost builds one simulated host, closed by the cleanup.
func ProvideSimHost(levels fs.FS, cfg sim.Config, logger log.Log) (*sim.Engine, func(), error) {
	e, err := sim.New(levels, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return e, func() { _ = e.Close() }, nil
}

// ProvideSimFactory builds a fresh simulated host per call.
func ProvideSimFactory(levels fs.FS, cfg sim.Config, logger log.Log) host.Factory {
	return func(context.Context) (host.Host, error) {
		e, err := sim.New(levels, cfg, logger)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

// ProvideRemoteFactory dials url once per call.
func ProvideRemoteFactory(url RemoteURL, cfg protocol.Config, logger log.Log) host.Factory {
	return func(ctx context.Context) (host.Host, error) {
		h, err := websocket.Dial(ctx, string(url), cfg, logger)
		if err != nil {
			return nil, err
		}
		return h, nil
	}
}
