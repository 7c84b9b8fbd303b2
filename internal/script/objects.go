package script

import (
	"github.com/dop251/goja"

	"github.com/zeusync/editorharness/internal/harness/entity"
	"github.com/zeusync/editorharness/internal/harness/recorder"
)

// entity wraps an entity handle. Vectors travel as [x, y, z] arrays.
func (b *bindings) entity(e entity.Entity) goja.Value {
	vm, ctx := b.vm, b.t.Context()
	obj := vm.NewObject()
	b.throw(obj.Set("id", uint64(e.ID)))

	b.set(obj, "isValid", func(goja.FunctionCall) goja.Value { return vm.ToValue(e.IsValid()) })
	b.set(obj, "name", func(goja.FunctionCall) goja.Value {
		name, err := e.Name(ctx)
		b.throw(err)
		return vm.ToValue(name)
	})
	b.set(obj, "children", func(goja.FunctionCall) goja.Value {
		ids, err := e.Children(ctx)
		b.throw(err)
		return b.ids(ids)
	})
	b.set(obj, "position", func(goja.FunctionCall) goja.Value {
		p, err := e.WorldTranslation(ctx)
		b.throw(err)
		return b.value(p)
	})
	b.set(obj, "setPosition", func(call goja.FunctionCall) goja.Value {
		b.throw(e.SetWorldTranslation(ctx, b.vec3(call.Argument(0))))
		return goja.Undefined()
	})
	b.set(obj, "velocity", func(goja.FunctionCall) goja.Value {
		v, err := e.LinearVelocity(ctx)
		b.throw(err)
		return b.value(v)
	})
	b.set(obj, "setVelocity", func(call goja.FunctionCall) goja.Value {
		b.throw(e.SetLinearVelocity(ctx, b.vec3(call.Argument(0))))
		return goja.Undefined()
	})
	b.set(obj, "applyImpulse", func(call goja.FunctionCall) goja.Value {
		b.throw(e.ApplyLinearImpulse(ctx, b.vec3(call.Argument(0))))
		return goja.Undefined()
	})
	b.set(obj, "gravityEnabled", func(goja.FunctionCall) goja.Value {
		on, err := e.GravityEnabled(ctx)
		b.throw(err)
		return vm.ToValue(on)
	})
	b.set(obj, "setGravityEnabled", func(call goja.FunctionCall) goja.Value {
		b.throw(e.SetGravityEnabled(ctx, call.Argument(0).ToBoolean()))
		return goja.Undefined()
	})
	b.set(obj, "forceAwake", func(goja.FunctionCall) goja.Value {
		b.throw(e.ForceAwake(ctx))
		return goja.Undefined()
	})
	b.set(obj, "isAwake", func(goja.FunctionCall) goja.Value {
		awake, err := e.IsAwake(ctx)
		b.throw(err)
		return vm.ToValue(awake)
	})
	b.set(obj, "mass", func(goja.FunctionCall) goja.Value {
		m, err := e.Mass(ctx)
		b.throw(err)
		return vm.ToValue(m)
	})
	return obj
}

func (b *bindings) subscription(s *recorder.Subscription) goja.Value {
	vm := b.vm
	obj := vm.NewObject()
	b.throw(obj.Set("kind", s.Kind().String()))
	b.set(obj, "count", func(goja.FunctionCall) goja.Value { return vm.ToValue(s.Count()) })
	b.set(obj, "countOf", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(s.CountOf(call.Argument(0).String()))
	})
	b.set(obj, "records", func(goja.FunctionCall) goja.Value {
		recs := s.Records()
		out := make([]any, len(recs))
		for i, r := range recs {
			out[i] = b.record(r)
		}
		return vm.NewArray(out...)
	})
	b.set(obj, "close", func(goja.FunctionCall) goja.Value {
		b.throw(s.Close())
		return goja.Undefined()
	})
	return obj
}

// record flattens a notification for the script. Payload fields that do
// not apply to the record's kind are left out.
func (b *bindings) record(r recorder.Record) *goja.Object {
	obj := b.vm.NewObject()
	_ = obj.Set("seq", r.Seq)
	_ = obj.Set("kind", r.Kind.String())
	_ = obj.Set("callback", r.Callback)
	_ = obj.Set("source", uint64(r.Source))
	switch r.Kind {
	case recorder.Collision, recorder.Trigger:
		_ = obj.Set("other", uint64(r.Other()))
	case recorder.ForceRegion:
		_ = obj.Set("region", uint64(r.Region()))
		_ = obj.Set("target", uint64(r.Target()))
		_ = obj.Set("force", b.value(r.Force()))
		_ = obj.Set("magnitude", r.Magnitude())
	case recorder.EntityLifecycle:
		_ = obj.Set("entity", uint64(r.Entity()))
	case recorder.Tick:
		_ = obj.Set("deltaTime", r.DeltaTime())
		_ = obj.Set("timePoint", r.TimePoint())
	}
	return obj
}
