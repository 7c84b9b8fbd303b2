package sim

import (
	"fmt"
	"math"

	"github.com/zeusync/editorharness/internal/core/fields"
	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/host"
)

// target says which scene an addressed method resolves its address in.
type target uint8

const (
	targetNone target = iota
	targetEditor
	targetAny
	targetGame
	// game entities with a dynamic rigid body
	targetBody
)

type method struct {
	target target
	fn     func(r *request) (any, error)
}

type request struct {
	engine *Engine
	scene  *scene
	entity *entity
	args   []any
}

func (r *request) arg(i int) (any, error) {
	if i >= len(r.args) {
		return nil, fmt.Errorf("%w: missing argument %d", host.ErrBadArguments, i)
	}
	return r.args[i], nil
}

func badArg(i int, want string, got any) error {
	return fmt.Errorf("%w: argument %d: want %s, got %T", host.ErrBadArguments, i, want, got)
}

func (r *request) stringArg(i int) (string, error) {
	v, err := r.arg(i)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", badArg(i, "string", v)
	}
	return s, nil
}

func (r *request) boolArg(i int) (bool, error) {
	v, err := r.arg(i)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, badArg(i, "bool", v)
	}
	return b, nil
}

func (r *request) intArg(i int) (int, error) {
	v, err := r.arg(i)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case models.EntityType:
		return int(n), nil
	case uint8:
		return int(n), nil
	}
	f, ok := number(v)
	if !ok || f != math.Trunc(f) {
		return 0, badArg(i, "integer", v)
	}
	return int(f), nil
}

func (r *request) vec3Arg(i int) (models.Vector3, error) {
	v, err := r.arg(i)
	if err != nil {
		return models.Vector3{}, err
	}
	out, err := fields.Coerce(fields.KindVector3, v, nil)
	if err != nil {
		return models.Vector3{}, badArg(i, "Vector3", v)
	}
	return out.(models.Vector3), nil
}

func (r *request) entityArg(i int) (models.EntityID, error) {
	v, err := r.arg(i)
	if err != nil {
		return 0, err
	}
	id, err := toEntityID(v)
	if err != nil {
		return 0, badArg(i, "EntityId", v)
	}
	return id, nil
}

func (r *request) entitiesArg(i int) ([]models.EntityID, error) {
	return listArg(r, i, "[EntityId]", func(v any) (models.EntityID, bool) {
		id, err := toEntityID(v)
		return id, err == nil
	})
}

func (r *request) typeIDsArg(i int) ([]models.TypeID, error) {
	return listArg(r, i, "[TypeId]", func(v any) (models.TypeID, bool) {
		t, ok := v.(models.TypeID)
		return t, ok
	})
}

func (r *request) typeIDArg(i int) (models.TypeID, error) {
	v, err := r.arg(i)
	if err != nil {
		return models.TypeID{}, err
	}
	t, ok := v.(models.TypeID)
	if !ok {
		return models.TypeID{}, badArg(i, "TypeId", v)
	}
	return t, nil
}

func (r *request) stringsArg(i int) ([]string, error) {
	return listArg(r, i, "[string]", func(v any) (string, bool) {
		s, ok := v.(string)
		return s, ok
	})
}

func (r *request) componentIDArg(i int) (models.ComponentID, error) {
	v, err := r.arg(i)
	if err != nil {
		return models.ComponentID{}, err
	}
	c, ok := v.(models.ComponentID)
	if !ok {
		return models.ComponentID{}, badArg(i, "ComponentId", v)
	}
	return c, nil
}

func (r *request) componentIDsArg(i int) ([]models.ComponentID, error) {
	return listArg(r, i, "[ComponentId]", func(v any) (models.ComponentID, bool) {
		c, ok := v.(models.ComponentID)
		return c, ok
	})
}

func (r *request) assetIDArg(i int) (models.AssetID, error) {
	v, err := r.arg(i)
	if err != nil {
		return models.AssetID{}, err
	}
	a, ok := v.(models.AssetID)
	if !ok {
		return models.AssetID{}, badArg(i, "AssetId", v)
	}
	return a, nil
}

// listArg accepts a typed slice or a []any whose elements all convert.
func listArg[T any](r *request, i int, want string, conv func(any) (T, bool)) ([]T, error) {
	v, err := r.arg(i)
	if err != nil {
		return nil, err
	}
	switch l := v.(type) {
	case []T:
		return l, nil
	case []any:
		out := make([]T, 0, len(l))
		for _, e := range l {
			t, ok := conv(e)
			if !ok {
				return nil, badArg(i, want, e)
			}
			out = append(out, t)
		}
		return out, nil
	case nil:
		return nil, nil
	}
	return nil, badArg(i, want, v)
}

func toEntityID(v any) (models.EntityID, error) {
	switch id := v.(type) {
	case models.EntityID:
		return id, nil
	case nil:
		return models.InvalidEntityID, nil
	case uint64:
		return models.EntityID(id), nil
	}
	if f, ok := number(v); ok && f >= 0 && f == math.Trunc(f) {
		return models.EntityID(f), nil
	}
	return 0, fmt.Errorf("not an entity id: %T", v)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
