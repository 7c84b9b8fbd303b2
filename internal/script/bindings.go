package script

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/harness/entity"
	"github.com/zeusync/editorharness/internal/harness/recorder"
	"github.com/zeusync/editorharness/internal/harness/report"
	"github.com/zeusync/editorharness/internal/harness/runner"
	"github.com/zeusync/editorharness/internal/harness/wait"
)

var errAborted = errors.New("test aborted by a critical failure")

// bindings exposes one runner.T to a script. Every native function runs
// through guard so a critical failure becomes an exception the script
// cannot recover from.
type bindings struct {
	vm      *goja.Runtime
	t       *runner.T
	aborted bool
}

func newBindings(vm *goja.Runtime, t *runner.T) *bindings {
	return &bindings{vm: vm, t: t}
}

type native func(call goja.FunctionCall) goja.Value

func (b *bindings) guard(fn native) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) (v goja.Value) {
		if b.aborted {
			panic(b.vm.NewGoError(errAborted))
		}
		defer func() {
			if p := recover(); p != nil {
				if report.IsAbort(p) {
					b.aborted = true
					panic(b.vm.NewGoError(errAborted))
				}
				panic(p)
			}
		}()
		return fn(call)
	}
}

// throw raises err in the script.
func (b *bindings) throw(err error) {
	if err != nil {
		panic(b.vm.NewGoError(err))
	}
}

func (b *bindings) set(obj *goja.Object, name string, fn native) {
	b.throw(obj.Set(name, b.guard(fn)))
}

func (b *bindings) require(vm *goja.Runtime, module *goja.Object) {
	exports := module.Get("exports").(*goja.Object)
	t := b.t
	b.throw(exports.Set("name", t.Name()))

	b.set(exports, "enterGameMode", func(goja.FunctionCall) goja.Value {
		t.EnterGameMode(report.Label{Success: "Entered game mode", Failure: "Failed to enter game mode"})
		return goja.Undefined()
	})
	b.set(exports, "exitGameMode", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(t.ExitGameMode(report.Label{Success: "Exited game mode", Failure: "Couldn't exit game mode"}))
	})
	b.set(exports, "isInGameMode", func(goja.FunctionCall) goja.Value {
		in, err := t.Level.IsInGameMode(t.Context())
		b.throw(err)
		return vm.ToValue(in)
	})
	b.set(exports, "findGameEntity", func(call goja.FunctionCall) goja.Value {
		return b.entity(t.FindGameEntity(call.Argument(0).String()))
	})
	b.set(exports, "findEditorEntity", func(call goja.FunctionCall) goja.Value {
		return b.entity(t.FindEditorEntity(call.Argument(0).String()))
	})
	b.set(exports, "entity", func(call goja.FunctionCall) goja.Value {
		return b.entity(t.Entities.Entity(b.entityID(call.Argument(0))))
	})
	b.set(exports, "createEntity", func(call goja.FunctionCall) goja.Value {
		parent := models.InvalidEntityID
		if len(call.Arguments) > 1 {
			parent = b.entityID(call.Argument(1))
		}
		id, err := t.Entities.CreateEditorEntity(t.Context(), call.Argument(0).String(), parent)
		b.throw(err)
		return b.entity(t.Entities.Entity(id))
	})
	b.set(exports, "search", func(call goja.FunctionCall) goja.Value {
		ids, err := t.Entities.Search(t.Context(), b.filter(call.Argument(0)))
		b.throw(err)
		return b.ids(ids)
	})
	b.set(exports, "subscribe", func(call goja.FunctionCall) goja.Value {
		kind, err := recorder.ParseKind(call.Argument(0).String())
		b.throw(err)
		address := models.InvalidEntityID
		if len(call.Arguments) > 1 {
			address = b.entityID(call.Argument(1))
		}
		return b.subscription(t.Subscribe(kind, address))
	})
	b.set(exports, "waitFor", func(call goja.FunctionCall) goja.Value {
		label := b.label(call.Argument(0))
		pred, ok := goja.AssertFunction(call.Argument(1))
		if !ok {
			panic(vm.NewTypeError("waitFor: condition is not a function"))
		}
		timeout := b.millis(call.Argument(2))
		ok = t.WaitFor(label, b.condition(pred), timeout)
		return vm.ToValue(ok)
	})
	b.set(exports, "idle", func(call goja.FunctionCall) goja.Value {
		t.IdleFrames(int(call.Argument(0).ToInteger()))
		return goja.Undefined()
	})
	b.set(exports, "idleFor", func(call goja.FunctionCall) goja.Value {
		b.throw(t.Loop.IdleWait(t.Context(), b.millis(call.Argument(0))))
		return goja.Undefined()
	})
	b.set(exports, "result", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(t.Result(b.label(call.Argument(0)), call.Argument(1).ToBoolean()))
	})
	b.set(exports, "critical", func(call goja.FunctionCall) goja.Value {
		t.CriticalResult(b.label(call.Argument(0)), call.Argument(1).ToBoolean())
		return goja.Undefined()
	})
	b.set(exports, "info", func(call goja.FunctionCall) goja.Value {
		t.Info(call.Argument(0).String())
		return goja.Undefined()
	})
	b.set(exports, "fail", func(call goja.FunctionCall) goja.Value {
		t.FailFast(call.Argument(0).String())
		return goja.Undefined()
	})
	b.set(exports, "getProperty", func(call goja.FunctionCall) goja.Value {
		c := b.component(call.Argument(0), call.Argument(1).String())
		o, err := t.Components.GetProperty(t.Context(), c, call.Argument(2).String())
		b.throw(err)
		if !o.IsSuccess() {
			b.throw(fmt.Errorf("getProperty %s: %s", call.Argument(2).String(), o.Reason()))
		}
		return b.value(o.Value())
	})
	b.set(exports, "setProperty", func(call goja.FunctionCall) goja.Value {
		c := b.component(call.Argument(0), call.Argument(1).String())
		o, err := t.Components.SetProperty(t.Context(), c, call.Argument(2).String(), call.Argument(3).Export())
		b.throw(err)
		return vm.ToValue(o.IsSuccess())
	})
}

func (b *bindings) entityID(v goja.Value) models.EntityID {
	if obj, ok := v.(*goja.Object); ok {
		v = obj.Get("id")
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return models.InvalidEntityID
	}
	return models.EntityID(v.ToInteger())
}

func (b *bindings) ids(ids []models.EntityID) goja.Value {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return b.vm.NewArray(out...)
}

// label accepts a single text or {success, failure}.
func (b *bindings) label(v goja.Value) report.Label {
	obj, ok := v.(*goja.Object)
	if !ok || obj.ClassName() == "String" {
		s := v.String()
		return report.Label{Success: s, Failure: s}
	}
	text := func(key string) string {
		if v := obj.Get(key); v != nil && !goja.IsUndefined(v) {
			return v.String()
		}
		return ""
	}
	return report.Label{Success: text("success"), Failure: text("failure")}
}

func (b *bindings) millis(v goja.Value) time.Duration {
	return time.Duration(v.ToFloat() * float64(time.Millisecond))
}

func (b *bindings) vec3(v goja.Value) models.Vector3 {
	var xyz []float64
	if err := b.vm.ExportTo(v, &xyz); err != nil || len(xyz) != 3 {
		panic(b.vm.NewTypeError("expected [x, y, z], got %s", v.String()))
	}
	return models.Vec3(xyz[0], xyz[1], xyz[2])
}

// value converts a property or payload value for the script.
func (b *bindings) value(v any) goja.Value {
	switch x := v.(type) {
	case models.Vector3:
		return b.vm.NewArray(x.X(), x.Y(), x.Z())
	case models.Color:
		return b.vm.NewArray(x.R, x.G, x.B, x.A)
	case models.EntityID:
		return b.vm.ToValue(uint64(x))
	case models.AssetID:
		return b.vm.ToValue(x.String())
	}
	return b.vm.ToValue(v)
}

func (b *bindings) condition(pred goja.Callable) wait.Condition {
	return func(context.Context) (bool, error) {
		v, err := pred(goja.Undefined())
		if err != nil {
			return false, err
		}
		return v.ToBoolean(), nil
	}
}

func (b *bindings) filter(v goja.Value) entity.Filter {
	var f entity.Filter
	obj, ok := v.(*goja.Object)
	if !ok {
		return f
	}
	if names := obj.Get("names"); names != nil && !goja.IsUndefined(names) {
		b.throw(b.vm.ExportTo(names, &f.Names))
	}
	if cs := obj.Get("caseSensitive"); cs != nil {
		f.NamesCaseSensitive = cs.ToBoolean()
	}
	if rb := obj.Get("rootBased"); rb != nil {
		f.NamesAreRootBased = rb.ToBoolean()
	}
	if roots, ok := obj.Get("roots").(*goja.Object); ok {
		for _, key := range roots.Keys() {
			f.Roots = append(f.Roots, b.entityID(roots.Get(key)))
		}
	}
	return f
}

func (b *bindings) component(id goja.Value, typeName string) models.ComponentID {
	t := b.t
	kind := models.EntityTypeEditor
	if in, err := t.Level.IsInGameMode(t.Context()); err == nil && in {
		kind = models.EntityTypeGame
	}
	typ, err := t.Components.FindTypeID(t.Context(), typeName, kind)
	b.throw(err)
	if !typ.IsValid() {
		b.throw(fmt.Errorf("unknown %s component type %q", kind, typeName))
	}
	o, err := t.Components.GetComponentOfType(t.Context(), b.entityID(id), typ)
	b.throw(err)
	if !o.IsSuccess() {
		b.throw(fmt.Errorf("component %s: %s", typeName, o.Reason()))
	}
	return o.Value()
}
