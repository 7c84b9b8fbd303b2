// Package sim is a deterministic, headless editor and physics engine that
// implements host.Host. It is the fixture the harness tests run against and
// the backend cmd/simhost serves over websocket.
//
// The engine is single threaded: Invoke, Connect and Tick must be called from
// one goroutine at a time. Notifications are delivered synchronously on that
// goroutine and sinks may re-enter Invoke.
package sim

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/zeusync/editorharness/internal/core/events/bus"
	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/host"
)

// Config tunes the simulation.
type Config struct {
	// FrameRate is the number of frames per simulated second.
	FrameRate float64 `yaml:"frame_rate" env:"FRAME_RATE"`
	// SubSteps is the number of physics steps per frame.
	SubSteps int `yaml:"sub_steps" env:"SUB_STEPS"`
	// GravityZ is the world gravity along z.
	GravityZ float64 `yaml:"gravity_z" env:"GRAVITY_Z"`
	// LevelLoadFrames is how many frames a level takes to load.
	LevelLoadFrames int `yaml:"level_load_frames" env:"LEVEL_LOAD_FRAMES"`
	// SleepFrames is how many quiet frames put a body to sleep.
	SleepFrames int `yaml:"sleep_frames" env:"SLEEP_FRAMES"`
	// SleepSpeed is the speed below which a frame counts as quiet.
	SleepSpeed float64 `yaml:"sleep_speed" env:"SLEEP_SPEED"`
	// BounceSpeed is the closing speed below which contacts do not bounce.
	BounceSpeed float64 `yaml:"bounce_speed" env:"BOUNCE_SPEED"`
	// RealTime paces Tick to the wall clock.
	RealTime bool `yaml:"real_time" env:"REAL_TIME"`
}

// DefaultConfig returns the simulation settings the shipped levels are tuned for.
func DefaultConfig() Config {
	return Config{
		FrameRate:       60,
		SubSteps:        2,
		GravityZ:        -9.81,
		LevelLoadFrames: 3,
		SleepFrames:     30,
		SleepSpeed:      0.05,
		BounceSpeed:     0.5,
	}
}

func (c Config) frameTime() float64 { return 1 / c.FrameRate }

type notificationBus struct {
	name      string
	addressed bool
}

var notificationBuses = []notificationBus{
	{host.CollisionNotificationBus, true},
	{host.TriggerNotificationBus, true},
	{host.ForceRegionNotificationBus, true},
	{host.EntityBus, true},
	{host.EditorEntityContextNotificationBus, false},
	{host.TickBus, false},
	{host.TraceMessageBus, false},
}

// modeTransition is a pending game-mode switch applied on the next frame.
type modeTransition uint8

const (
	transitionNone modeTransition = iota
	transitionEnter
	transitionExit
)

// Engine is the simulated editor. It implements host.Host.
type Engine struct {
	cfg    Config
	log    log.Log
	levels fs.FS
	events bus.EventBus
	types  *typeRegistry
	assets *AssetCatalog

	editor *scene
	game   *scene
	world  *world

	nextID    models.EntityID
	nextLocal uint64
	selected  []models.EntityID

	level    string
	pending  *pendingLevel
	loaded   bool
	mode     modeTransition
	frame    uint64
	simTime  float64
	lastTick time.Time
	closed   bool

	methods map[string]map[string]method
}

var _ host.Host = (*Engine)(nil)

// New creates an engine that loads levels from levels. A nil levels FS is
// valid; every level open then fails.
func New(levels fs.FS, cfg Config, logger log.Log) (*Engine, error) {
	if cfg.FrameRate <= 0 || cfg.SubSteps <= 0 {
		return nil, fmt.Errorf("sim: invalid frame rate %v or sub-steps %d", cfg.FrameRate, cfg.SubSteps)
	}
	if logger == nil {
		logger = log.Nop()
	}
	e := &Engine{
		cfg:    cfg,
		log:    logger.Named("sim"),
		levels: levels,
		events: bus.New(),
		types:  newTypeRegistry(),
		editor: newScene(models.EntityTypeEditor),
		nextID: 1,
	}
	for _, nb := range notificationBuses {
		if err := e.events.CreateTopic(nb.name, bus.TopicConfig{Addressed: nb.addressed}); err != nil {
			return nil, err
		}
	}
	assets, err := loadAssetCatalog(levels)
	if err != nil {
		return nil, err
	}
	e.assets = assets
	e.methods = e.buildMethods()
	return e, nil
}

// Assets exposes the asset catalog so fixtures can register products.
func (e *Engine) Assets() *AssetCatalog { return e.assets }

// Frame returns the number of frames stepped so far.
func (e *Engine) Frame() uint64 { return e.frame }

func (e *Engine) allocID() models.EntityID {
	id := e.nextID
	e.nextID++
	return id
}

// Invoke dispatches one bus call.
func (e *Engine) Invoke(ctx context.Context, c host.Call) (any, error) {
	if e.closed {
		return nil, host.ErrHostClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	methods, ok := e.methods[c.Bus]
	if !ok {
		return nil, fmt.Errorf("%w: %s", host.ErrBusNotFound, c.Bus)
	}
	m, ok := methods[c.Method]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", host.ErrMethodNotFound, c.Bus, c.Method)
	}
	req := &request{engine: e, args: c.Args}
	if m.target != targetNone {
		if c.Broadcast {
			return nil, fmt.Errorf("%w: %s needs an address", host.ErrBadArguments, c)
		}
		id, err := toEntityID(c.Address)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", host.ErrBadArguments, c, err)
		}
		if req.scene, req.entity, ok = e.resolve(m.target, id); !ok {
			return nil, fmt.Errorf("%w: %s", host.ErrNotAddressable, c)
		}
	}
	return m.fn(req)
}

func (e *Engine) resolve(t target, id models.EntityID) (*scene, *entity, bool) {
	if t != targetGame && t != targetBody {
		if ent, ok := e.editor.get(id); ok {
			return e.editor, ent, true
		}
		if t == targetEditor {
			return nil, nil, false
		}
	}
	if e.game == nil {
		return nil, nil, false
	}
	ent, ok := e.game.get(id)
	if !ok {
		return nil, nil, false
	}
	if t == targetBody && (ent.body == nil || !ent.body.dynamic()) {
		return nil, nil, false
	}
	return e.game, ent, true
}

type connection struct {
	sub bus.Subscription
}

func (c *connection) Disconnect() error { return c.sub.Cancel() }

// Connect registers sink on a notification bus. A nil address subscribes to
// every address.
func (e *Engine) Connect(name string, address any, sink host.Sink) (host.Connection, error) {
	if e.closed {
		return nil, host.ErrHostClosed
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: nil sink", host.ErrBadArguments)
	}
	if !e.events.HasTopic(name) {
		return nil, fmt.Errorf("%w: %s", host.ErrBusNotFound, name)
	}
	key := ""
	if address != nil {
		id, err := toEntityID(address)
		if err != nil || !id.IsValid() {
			return nil, fmt.Errorf("%w: address %v on %s", host.ErrBadArguments, address, name)
		}
		if !e.isAddressed(name) {
			return nil, fmt.Errorf("%w: %s is not addressable", host.ErrBadArguments, name)
		}
		key = id.String()
	}
	sub, err := e.events.SubscribeTopic(name, key, func(ev bus.Event) error {
		args, _ := ev.Data().([]any)
		sink(host.Notification{
			Bus:      name,
			Address:  ev.Metadata()["address"],
			Callback: ev.Type(),
			Args:     args,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &connection{sub: sub}, nil
}

func (e *Engine) isAddressed(name string) bool {
	for _, nb := range notificationBuses {
		if nb.name == name {
			return nb.addressed
		}
	}
	return false
}

// notify fires callback on an addressed notification bus.
func (e *Engine) notify(name string, address models.EntityID, callback string, args ...any) {
	ev := bus.NewEvent(callback, address.String(), args, 0, map[string]any{"address": address})
	if err := e.events.PublishToTopic(name, ev); err != nil {
		e.log.Error("notification failed", log.String("bus", name), log.String("callback", callback), log.Error(err))
	}
}

// broadcast fires callback on an unaddressed notification bus.
func (e *Engine) broadcast(name string, callback string, args ...any) {
	ev := bus.NewEvent(callback, "", args, 0, map[string]any{})
	if err := e.events.PublishToTopic(name, ev); err != nil {
		e.log.Error("notification failed", log.String("bus", name), log.String("callback", callback), log.Error(err))
	}
}

// Engine trace windows.
const (
	windowPhysics = "Physics"
	windowEditor  = "Editor"
	windowLevel   = "Level"
	windowAsset   = "AssetCatalog"
)

func (e *Engine) warnf(window, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.log.Warn(msg, log.String("window", window))
	e.broadcast(host.TraceMessageBus, host.OnPreWarning, window, msg)
}

func (e *Engine) errorf(window, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.log.Error(msg, log.String("window", window))
	e.broadcast(host.TraceMessageBus, host.OnPreError, window, msg)
}

func (e *Engine) printf(window, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.log.Debug(msg, log.String("window", window))
	e.broadcast(host.TraceMessageBus, host.OnPrintf, window, msg)
}

// Tick advances one frame: pending level loads and game-mode transitions
// first, then the physics step, then OnTick.
func (e *Engine) Tick(ctx context.Context) error {
	if e.closed {
		return host.ErrHostClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dt := e.cfg.frameTime()
	if e.cfg.RealTime {
		e.pace(ctx, time.Duration(dt*float64(time.Second)))
	}

	e.advanceLevel()
	switch e.mode {
	case transitionEnter:
		e.mode = transitionNone
		e.startGame()
	case transitionExit:
		e.mode = transitionNone
		e.stopGame()
	}

	if e.game != nil {
		e.stepPhysics(dt)
	}

	e.frame++
	e.simTime += dt
	e.broadcast(host.TickBus, host.OnTick, dt, e.simTime)
	return nil
}

func (e *Engine) pace(ctx context.Context, frame time.Duration) {
	if !e.lastTick.IsZero() {
		if wait := frame - time.Since(e.lastTick); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
			case <-timer.C:
			}
			timer.Stop()
		}
	}
	e.lastTick = time.Now()
}

// Close releases the scene. Further calls fail with host.ErrHostClosed.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	if e.game != nil {
		e.stopGame()
	}
	e.closed = true
	return nil
}
