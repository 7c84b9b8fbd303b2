package entity

import (
	"context"
	"strings"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/busproxy"
	"github.com/zeusync/editorharness/internal/host"
)

// Filter selects editor entities. Zero fields do not constrain the search.
type Filter struct {
	// Names are glob patterns; a pattern with '|' separators matches a chain
	// of ancestors ending at the entity. Any pattern may match.
	Names              []string
	NamesCaseSensitive bool
	// NamesAreRootBased anchors path patterns at the walk root, so the first
	// segment must match the root's name.
	NamesAreRootBased bool

	// Components maps a component type to required property values. An empty
	// property map only requires the component.
	Components         map[models.TypeID]map[string]any
	ComponentsMatchAll bool

	// Roots restricts the walk to these entities and their descendants.
	Roots []models.EntityID

	// AABB keeps entities whose world translation lies inside the box.
	AABB *models.AABB
}

// Search walks the editor hierarchy and returns matching entities. The
// result order is unspecified.
func (r *Registry) Search(ctx context.Context, f Filter) ([]models.EntityID, error) {
	roots := f.Roots
	if len(roots) == 0 {
		var err error
		if roots, err = r.RootEditorEntities(ctx); err != nil {
			return nil, err
		}
	}

	s := searcher{
		registry: r,
		filter:   f,
		patterns: compileNames(f.Names, f.NamesCaseSensitive),
		seen:     make(map[models.EntityID]bool),
	}
	for _, root := range roots {
		if !root.IsValid() {
			return nil, ErrInvalidEntity
		}
		if err := s.walk(ctx, root, nil); err != nil {
			return nil, err
		}
	}
	r.logger.Debug("search finished", log.Strings("names", f.Names), log.Int("matches", len(s.found)))
	return s.found, nil
}

type searcher struct {
	registry *Registry
	filter   Filter
	patterns []namePattern
	seen     map[models.EntityID]bool
	found    []models.EntityID
}

func (s *searcher) walk(ctx context.Context, id models.EntityID, chain []string) error {
	if s.seen[id] {
		return nil
	}
	s.seen[id] = true

	e := s.registry.Entity(id)
	name, err := e.Name(ctx)
	if err != nil {
		return err
	}
	if !s.filter.NamesCaseSensitive {
		name = strings.ToLower(name)
	}
	chain = append(chain[:len(chain):len(chain)], name)

	ok, err := s.matches(ctx, e, chain)
	if err != nil {
		return err
	}
	if ok {
		s.found = append(s.found, id)
	}

	children, err := e.Children(ctx)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.walk(ctx, child, chain); err != nil {
			return err
		}
	}
	return nil
}

func (s *searcher) matches(ctx context.Context, e Entity, chain []string) (bool, error) {
	if len(s.patterns) > 0 {
		named := false
		for _, p := range s.patterns {
			if p.match(chain, s.filter.NamesAreRootBased) {
				named = true
				break
			}
		}
		if !named {
			return false, nil
		}
	}

	if len(s.filter.Components) > 0 {
		ok, err := s.matchComponents(ctx, e.ID)
		if err != nil || !ok {
			return false, err
		}
	}

	if s.filter.AABB != nil {
		pos, err := e.WorldTranslation(ctx)
		if err != nil {
			return false, err
		}
		if !s.filter.AABB.Contains(pos) {
			return false, nil
		}
	}
	return true, nil
}

func (s *searcher) matchComponents(ctx context.Context, id models.EntityID) (bool, error) {
	for typ, props := range s.filter.Components {
		ok, err := s.matchComponent(ctx, id, typ, props)
		if err != nil {
			return false, err
		}
		if ok && !s.filter.ComponentsMatchAll {
			return true, nil
		}
		if !ok && s.filter.ComponentsMatchAll {
			return false, nil
		}
	}
	return s.filter.ComponentsMatchAll, nil
}

func (s *searcher) matchComponent(ctx context.Context, id models.EntityID, typ models.TypeID, props map[string]any) (bool, error) {
	proxy := s.registry.proxy
	has, err := busproxy.Value[bool](proxy.Broadcast(ctx, host.EditorComponentAPIBus, host.HasComponentOfType, id, typ))
	if err != nil || !has {
		return false, err
	}
	if len(props) == 0 {
		return true, nil
	}
	o, err := proxy.BroadcastOutcome(ctx, host.EditorComponentAPIBus, host.GetComponentOfType, id, typ)
	if err != nil {
		return false, err
	}
	comp := models.Cast[models.ComponentID](o)
	if !comp.IsSuccess() {
		return false, nil
	}
	for path, want := range props {
		eq, err := busproxy.Value[bool](proxy.Broadcast(ctx, host.EditorComponentAPIBus, host.CompareComponentProperty, comp.Value(), path, want))
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}
