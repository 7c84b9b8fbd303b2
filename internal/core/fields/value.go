package fields

import (
	"fmt"
	"math"
	"slices"

	"github.com/zeusync/editorharness/internal/core/models"
)

// FloatEpsilon is the tolerance of the engine float comparator.
const FloatEpsilon = 1e-6

// Coerce converts value into the canonical Go representation of kind.
// Scripts and the wire codec hand over float64 and []any; both are accepted.
func Coerce(kind Kind, value any, options []string) (any, error) {
	switch kind {
	case KindBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case KindFloat:
		if f, ok := toFloat(value); ok {
			return f, nil
		}
	case KindInt:
		if f, ok := toFloat(value); ok && f == math.Trunc(f) {
			return int64(f), nil
		}
	case KindString:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case KindVector3:
		switch v := value.(type) {
		case models.Vector3:
			return v, nil
		case []float64:
			if len(v) == 3 {
				return models.Vec3(v[0], v[1], v[2]), nil
			}
		case []any:
			if len(v) == 3 {
				var out models.Vector3
				for i, c := range v {
					f, ok := toFloat(c)
					if !ok {
						return nil, fmt.Errorf("%w: vector component %d is %T", ErrTypeMismatch, i, c)
					}
					out[i] = f
				}
				return out, nil
			}
		}
	case KindColor:
		switch v := value.(type) {
		case models.Color:
			return v, nil
		case []any:
			if len(v) == 3 || len(v) == 4 {
				rgba := [4]float64{0, 0, 0, 1}
				for i, c := range v {
					f, ok := toFloat(c)
					if !ok {
						return nil, fmt.Errorf("%w: color component %d is %T", ErrTypeMismatch, i, c)
					}
					rgba[i] = f
				}
				return models.Color{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}, nil
			}
		}
	case KindAsset:
		switch v := value.(type) {
		case models.AssetID:
			return v, nil
		case nil:
			return models.AssetID{}, nil
		}
	case KindEnum:
		switch v := value.(type) {
		case string:
			if slices.Contains(options, v) {
				return v, nil
			}
			return nil, fmt.Errorf("%w: %q is not one of %v", ErrTypeMismatch, v, options)
		default:
			if f, ok := toFloat(value); ok {
				i := int(f)
				if float64(i) == f && i >= 0 && i < len(options) {
					return options[i], nil
				}
			}
		}
	case KindEntity:
		switch v := value.(type) {
		case models.EntityID:
			return v, nil
		case nil:
			return models.InvalidEntityID, nil
		}
	}
	return nil, fmt.Errorf("%w: %T for %s", ErrTypeMismatch, value, kind)
}

// Equal compares two canonical values of kind.
func Equal(kind Kind, a, b any) bool {
	switch kind {
	case KindFloat:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		return math.Abs(fa-fb) <= FloatEpsilon
	case KindVector3:
		va, okA := a.(models.Vector3)
		vb, okB := b.(models.Vector3)
		return okA && okB && models.VectorsClose(va, vb, FloatEpsilon)
	case KindColor:
		ca, okA := a.(models.Color)
		cb, okB := b.(models.Color)
		return okA && okB &&
			math.Abs(ca.R-cb.R) <= FloatEpsilon && math.Abs(ca.G-cb.G) <= FloatEpsilon &&
			math.Abs(ca.B-cb.B) <= FloatEpsilon && math.Abs(ca.A-cb.A) <= FloatEpsilon
	default:
		return a == b
	}
}

func toFloat(v any) (float64, bool) {
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
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}
