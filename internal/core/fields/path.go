// Package fields models a component's editable property tree: nodes addressed
// by "|"-joined paths, leaf value kinds, editor visibility and the comparator
// used for property equality.
package fields

import (
	"errors"
	"strings"
)

// Separator joins path segments.
const Separator = "|"

var (
	ErrEmptyPath    = errors.New("empty property path")
	ErrPathNotFound = errors.New("property path not found")
	ErrNotLeaf      = errors.New("property path does not name a leaf")
	ErrTypeMismatch = errors.New("value does not match property type")
	ErrReadOnly     = errors.New("property is read-only")
)

// Path is an ordered list of literal node names.
type Path []string

// ParsePath splits "A|B|C". Segments are literal; surrounding blanks are kept.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, ErrEmptyPath
	}
	parts := strings.Split(s, Separator)
	for _, p := range parts {
		if p == "" {
			return nil, ErrEmptyPath
		}
	}
	return Path(parts), nil
}

func (p Path) String() string { return strings.Join(p, Separator) }

// Child returns a copy of p extended by name.
func (p Path) Child(name string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = name
	return out
}
