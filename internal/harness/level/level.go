// Package level opens levels and moves the editor in and out of game mode.
package level

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/busproxy"
	"github.com/zeusync/editorharness/internal/harness/report"
	"github.com/zeusync/editorharness/internal/harness/wait"
	"github.com/zeusync/editorharness/internal/host"
)

var (
	ErrLevelNotFound = errors.New("level could not be opened")
	ErrLoadTimeout   = errors.New("level did not finish loading")
	ErrNotArmed      = errors.New("idle loop not armed")
)

type Config struct {
	LoadTimeout     time.Duration `yaml:"load_timeout" env:"LOAD_TIMEOUT"`
	GameModeTimeout time.Duration `yaml:"game_mode_timeout" env:"GAME_MODE_TIMEOUT"`
}

func DefaultConfig() Config {
	return Config{
		LoadTimeout:     30 * time.Second,
		GameModeTimeout: 10 * time.Second,
	}
}

type Controller struct {
	proxy    *busproxy.Proxy
	loop     *wait.Loop
	reporter *report.Reporter
	config   Config
	logger   log.Log
}

func New(proxy *busproxy.Proxy, loop *wait.Loop, reporter *report.Reporter, config Config, logger log.Log) *Controller {
	return &Controller{
		proxy:    proxy,
		loop:     loop,
		reporter: reporter,
		config:   config,
		logger:   logger.Named("level"),
	}
}

// InitIdle arms the wait loop. Game-mode transitions fail until it is called.
func (c *Controller) InitIdle() { c.loop.Arm() }

// OpenLevel loads category/name and waits until the engine reports it loaded.
func (c *Controller) OpenLevel(ctx context.Context, category, name string) error {
	started, err := busproxy.Value[bool](c.proxy.Broadcast(ctx, host.EditorRequestBus, host.OpenLevelNoPrompt, category, name))
	if err != nil {
		return err
	}
	if !started {
		return fmt.Errorf("%w: %s/%s", ErrLevelNotFound, category, name)
	}
	loaded, err := c.loop.WaitForCondition(ctx, c.isLoaded, c.config.LoadTimeout)
	if err != nil {
		return err
	}
	if !loaded {
		return fmt.Errorf("%w: %s/%s after %s", ErrLoadTimeout, category, name, c.config.LoadTimeout)
	}
	c.logger.Info("level opened", log.String("category", category), log.String("name", name))
	return nil
}

func (c *Controller) isLoaded(ctx context.Context) (bool, error) {
	return busproxy.Value[bool](c.proxy.Broadcast(ctx, host.EditorRequestBus, host.IsLevelLoaded))
}

func (c *Controller) CurrentLevel(ctx context.Context) (string, error) {
	return busproxy.Value[string](c.proxy.Broadcast(ctx, host.EditorRequestBus, host.GetCurrentLevelName))
}

func (c *Controller) IsInGameMode(ctx context.Context) (bool, error) {
	return busproxy.Value[bool](c.proxy.Broadcast(ctx, host.EditorRequestBus, host.IsInGameMode))
}

// EnterGameMode requests game mode and waits for it. Not reaching game mode
// is a critical failure reported under label.
func (c *Controller) EnterGameMode(ctx context.Context, label report.Label) error {
	ok, err := c.transition(ctx, host.EnterGameMode, true)
	if err != nil {
		return err
	}
	c.reporter.CriticalResult(label, ok)
	return nil
}

// ExitGameMode requests editor mode and waits for it. A failure is reported
// under label and returned as false; the caller decides whether to go on.
func (c *Controller) ExitGameMode(ctx context.Context, label report.Label) (bool, error) {
	ok, err := c.transition(ctx, host.ExitGameMode, false)
	if err != nil {
		return false, err
	}
	return c.reporter.Result(label, ok), nil
}

func (c *Controller) transition(ctx context.Context, method string, want bool) (bool, error) {
	if !c.loop.Armed() {
		return false, fmt.Errorf("%s: %w", method, ErrNotArmed)
	}
	if _, err := c.proxy.Broadcast(ctx, host.EditorRequestBus, method); err != nil {
		return false, err
	}
	ok, err := c.loop.WaitForCondition(ctx, func(ctx context.Context) (bool, error) {
		in, err := c.IsInGameMode(ctx)
		return in == want, err
	}, c.config.GameModeTimeout)
	if err != nil {
		return false, err
	}
	c.logger.Debug("game mode transition", log.String("method", method), log.Bool("ok", ok))
	return ok, nil
}
