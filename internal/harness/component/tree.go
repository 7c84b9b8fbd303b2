package component

import (
	"context"
	"fmt"

	"github.com/zeusync/editorharness/internal/core/fields"
	"github.com/zeusync/editorharness/internal/core/models"
)

// PropertyTreeEditor is a cached snapshot of one component's properties.
// Reads are served from the cache; writes go through to the engine and
// refresh the snapshot, since a write may change which nodes are shown.
type PropertyTreeEditor struct {
	proxy     *Proxy
	component models.ComponentID
	entries   []fields.Entry
	raw       map[string]int
	visible   map[string]int
	enforce   bool
}

func newPropertyTreeEditor(p *Proxy, c models.ComponentID, entries []fields.Entry) *PropertyTreeEditor {
	t := &PropertyTreeEditor{proxy: p, component: c}
	t.load(entries)
	return t
}

func (t *PropertyTreeEditor) load(entries []fields.Entry) {
	t.entries = entries
	t.raw = make(map[string]int, len(entries))
	t.visible = make(map[string]int, len(entries))
	for i, e := range entries {
		t.raw[e.Path] = i
		if e.VisiblePath != "" {
			t.visible[e.VisiblePath] = i
		}
	}
}

func (t *PropertyTreeEditor) Component() models.ComponentID { return t.component }

// SetVisibleEnforcement switches path lookups to the visible view, where
// ChildrenOnly nodes are elided and hidden leaves are unreachable.
func (t *PropertyTreeEditor) SetVisibleEnforcement(on bool) { t.enforce = on }

func (t *PropertyTreeEditor) entry(path string) (*fields.Entry, bool) {
	index := t.raw
	if t.enforce {
		index = t.visible
	}
	i, ok := index[path]
	if !ok {
		return nil, false
	}
	return &t.entries[i], true
}

// GetValue reads a cached leaf.
func (t *PropertyTreeEditor) GetValue(path string) models.AnyOutcome {
	e, ok := t.entry(path)
	if !ok {
		return models.Failure[any](fmt.Sprintf("property %q not found", path))
	}
	return models.Success(e.Value)
}

// SetValue writes a leaf through the bus.
func (t *PropertyTreeEditor) SetValue(ctx context.Context, path string, value any) (models.AnyOutcome, error) {
	e, ok := t.entry(path)
	if !ok {
		return models.Failure[any](fmt.Sprintf("property %q not found", path)), nil
	}
	o, err := t.proxy.SetProperty(ctx, t.component, e.Path, value)
	if err != nil || !o.IsSuccess() {
		return o, err
	}
	if err := t.Refresh(ctx); err != nil {
		return models.AnyOutcome{}, err
	}
	return o, nil
}

// CompareValue compares a cached leaf with value under the engine's rules.
func (t *PropertyTreeEditor) CompareValue(path string, value any) bool {
	e, ok := t.entry(path)
	if !ok {
		return false
	}
	v, err := fields.Coerce(e.Kind, value, e.Options)
	if err != nil {
		return false
	}
	return fields.Equal(e.Kind, e.Value, v)
}

// BuildPathsListWithTypes lists "path (type)" for every reachable leaf in
// tree order.
func (t *PropertyTreeEditor) BuildPathsListWithTypes() []string {
	out := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		p := e.Path
		if t.enforce {
			if e.VisiblePath == "" {
				continue
			}
			p = e.VisiblePath
		}
		out = append(out, fmt.Sprintf("%s (%s)", p, e.Kind))
	}
	return out
}

// Refresh reloads the snapshot from the engine.
func (t *PropertyTreeEditor) Refresh(ctx context.Context) error {
	o, err := t.proxy.snapshot(ctx, t.component)
	if err != nil {
		return err
	}
	if !o.IsSuccess() {
		return fmt.Errorf("refresh %s: %s", t.component, o.Reason())
	}
	t.load(o.Value())
	return nil
}
