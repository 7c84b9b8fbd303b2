package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/zeusync/editorharness/internal/core/fields"
	"github.com/zeusync/editorharness/internal/core/models"
)

// Value type tags.
const (
	TypeNil       = "nil"
	TypeBool      = "bool"
	TypeInt       = "int"
	TypeUint      = "uint"
	TypeFloat     = "float"
	TypeString    = "string"
	TypeVector3   = "vec3"
	TypeColor     = "color"
	TypeUUID      = "uuid"
	TypeTypeID    = "type"
	TypeAssetID   = "asset"
	TypeEntityID  = "entity"
	TypeComponent = "component"
	TypeOutcome   = "outcome"
	TypeEntry     = "entry"
	TypeList      = "list"
	TypeMap       = "map"
)

// Value is a typed value on the wire. Lists carry their element tag in Elem
// so typed slices survive the round trip.
type Value struct {
	Type string          `json:"t"`
	Elem string          `json:"e,omitempty"`
	Data json.RawMessage `json:"v,omitempty"`
}

type colorWire struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

type assetWire struct {
	GUID  uuid.UUID `json:"guid"`
	SubID uint32    `json:"sub"`
}

type componentWire struct {
	Entity models.EntityID `json:"entity"`
	Local  uint64          `json:"local"`
}

type outcomeWire struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
	Value  *Value `json:"value,omitempty"`
}

type entryWire struct {
	Path    string      `json:"path"`
	Visible string      `json:"visible,omitempty"`
	Kind    fields.Kind `json:"kind"`
	Value   Value       `json:"value"`
	Options []string    `json:"options,omitempty"`
}

type eraser interface {
	Erase() models.Outcome[any]
}

// Encode converts a Go value to its wire form.
func Encode(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Value{Type: TypeNil}, nil
	case bool:
		return raw(TypeBool, x)
	case int:
		return raw(TypeInt, int64(x))
	case int32:
		return raw(TypeInt, int64(x))
	case int64:
		return raw(TypeInt, x)
	case models.EntityType:
		return raw(TypeInt, int64(x))
	case uint32:
		return raw(TypeUint, uint64(x))
	case uint64:
		return raw(TypeUint, x)
	case float32:
		return raw(TypeFloat, float64(x))
	case float64:
		return raw(TypeFloat, x)
	case string:
		return raw(TypeString, x)
	case models.Vector3:
		return raw(TypeVector3, [3]float64(x))
	case models.Color:
		return raw(TypeColor, colorWire{x.R, x.G, x.B, x.A})
	case uuid.UUID:
		return raw(TypeUUID, x)
	case models.TypeID:
		return raw(TypeTypeID, uuid.UUID(x))
	case models.AssetID:
		return raw(TypeAssetID, assetWire{x.GUID, x.SubID})
	case models.EntityID:
		return raw(TypeEntityID, uint64(x))
	case models.ComponentID:
		return raw(TypeComponent, componentWire{x.Entity, x.Local})
	case models.Outcome[any]:
		w := outcomeWire{OK: x.IsSuccess(), Reason: x.Reason()}
		if x.IsSuccess() {
			inner, err := Encode(x.Value())
			if err != nil {
				return Value{}, err
			}
			w.Value = &inner
		}
		return raw(TypeOutcome, w)
	case eraser:
		return Encode(x.Erase())
	case fields.Entry:
		inner, err := Encode(x.Value)
		if err != nil {
			return Value{}, err
		}
		return raw(TypeEntry, entryWire{x.Path, x.VisiblePath, x.Kind, inner, x.Options})
	case []any:
		return encodeList("", x)
	case []models.EntityID:
		return encodeList(TypeEntityID, x)
	case []models.TypeID:
		return encodeList(TypeTypeID, x)
	case []models.ComponentID:
		return encodeList(TypeComponent, x)
	case []string:
		return encodeList(TypeString, x)
	case []float64:
		return encodeList(TypeFloat, x)
	case []fields.Entry:
		return encodeList(TypeEntry, x)
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, e := range x {
			ev, err := Encode(e)
			if err != nil {
				return Value{}, err
			}
			m[k] = ev
		}
		return raw(TypeMap, m)
	}
	return Value{}, fmt.Errorf("%w: unsupported type %T", ErrSerializationFailed, v)
}

func encodeList[T any](elem string, items []T) (Value, error) {
	out := make([]Value, 0, len(items))
	for _, item := range items {
		v, err := Encode(item)
		if err != nil {
			return Value{}, err
		}
		out = append(out, v)
	}
	v, err := raw(TypeList, out)
	v.Elem = elem
	return v, err
}

func raw(t string, v any) (Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %s: %v", ErrSerializationFailed, t, err)
	}
	return Value{Type: t, Data: data}, nil
}

// EncodeAll encodes a list of arguments.
func EncodeAll(vs []any) ([]Value, error) {
	out := make([]Value, 0, len(vs))
	for _, v := range vs {
		ev, err := Encode(v)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// EncodePtr encodes v, returning nil for a nil v.
func EncodePtr(v any) (*Value, error) {
	if v == nil {
		return nil, nil
	}
	ev, err := Encode(v)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Decode converts a wire value back to its Go form.
func Decode(v Value) (any, error) {
	switch v.Type {
	case TypeNil, "":
		return nil, nil
	case TypeBool:
		return unmarshal[bool](v)
	case TypeInt:
		return unmarshal[int64](v)
	case TypeUint:
		return unmarshal[uint64](v)
	case TypeFloat:
		return unmarshal[float64](v)
	case TypeString:
		return unmarshal[string](v)
	case TypeVector3:
		a, err := unmarshal[[3]float64](v)
		return models.Vector3(a), err
	case TypeColor:
		c, err := unmarshal[colorWire](v)
		return models.Color{R: c.R, G: c.G, B: c.B, A: c.A}, err
	case TypeUUID:
		return unmarshal[uuid.UUID](v)
	case TypeTypeID:
		u, err := unmarshal[uuid.UUID](v)
		return models.TypeID(u), err
	case TypeAssetID:
		a, err := unmarshal[assetWire](v)
		return models.AssetID{GUID: a.GUID, SubID: a.SubID}, err
	case TypeEntityID:
		id, err := unmarshal[uint64](v)
		return models.EntityID(id), err
	case TypeComponent:
		c, err := unmarshal[componentWire](v)
		return models.ComponentID{Entity: c.Entity, Local: c.Local}, err
	case TypeOutcome:
		w, err := unmarshal[outcomeWire](v)
		if err != nil {
			return nil, err
		}
		if !w.OK {
			return models.Failure[any](w.Reason), nil
		}
		var inner any
		if w.Value != nil {
			if inner, err = Decode(*w.Value); err != nil {
				return nil, err
			}
		}
		return models.Success[any](inner), nil
	case TypeEntry:
		w, err := unmarshal[entryWire](v)
		if err != nil {
			return nil, err
		}
		inner, err := Decode(w.Value)
		if err != nil {
			return nil, err
		}
		return fields.Entry{Path: w.Path, VisiblePath: w.Visible, Kind: w.Kind, Value: inner, Options: w.Options}, nil
	case TypeList:
		return decodeList(v)
	case TypeMap:
		m, err := unmarshal[map[string]Value](v)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(m))
		for k, ev := range m {
			if out[k], err = Decode(ev); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown type tag %q", ErrDeserializationFailed, v.Type)
}

func decodeList(v Value) (any, error) {
	items, err := unmarshal[[]Value](v)
	if err != nil {
		return nil, err
	}
	switch v.Elem {
	case TypeEntityID:
		return decodeTyped[models.EntityID](items)
	case TypeTypeID:
		return decodeTyped[models.TypeID](items)
	case TypeComponent:
		return decodeTyped[models.ComponentID](items)
	case TypeString:
		return decodeTyped[string](items)
	case TypeFloat:
		return decodeTyped[float64](items)
	case TypeEntry:
		return decodeTyped[fields.Entry](items)
	}
	return decodeTyped[any](items)
}

func decodeTyped[T any](items []Value) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, item := range items {
		d, err := Decode(item)
		if err != nil {
			return nil, err
		}
		t, ok := d.(T)
		if !ok && d != nil {
			return nil, fmt.Errorf("%w: list item %d is %T", ErrDeserializationFailed, i, d)
		}
		out = append(out, t)
	}
	return out, nil
}

func unmarshal[T any](v Value) (T, error) {
	var out T
	if err := json.Unmarshal(v.Data, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %v", ErrDeserializationFailed, v.Type, err)
	}
	return out, nil
}

// DecodeAll decodes a list of arguments.
func DecodeAll(vs []Value) ([]any, error) {
	out := make([]any, 0, len(vs))
	for _, v := range vs {
		d, err := Decode(v)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// DecodePtr decodes v, returning nil for a nil v.
func DecodePtr(v *Value) (any, error) {
	if v == nil {
		return nil, nil
	}
	return Decode(*v)
}
