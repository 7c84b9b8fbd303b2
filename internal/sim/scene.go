package sim

import (
	"slices"

	"github.com/zeusync/editorharness/internal/core/models"
)

type entity struct {
	id       models.EntityID
	name     string
	parent   models.EntityID
	children []models.EntityID
	active   bool

	components []*component
	body       *body
}

func (e *entity) componentOf(typ *componentType) *component {
	for _, c := range e.components {
		if c.typ == typ {
			return c
		}
	}
	return nil
}

func (e *entity) componentByName(name string) *component {
	for _, c := range e.components {
		if c.typ.name == name {
			return c
		}
	}
	return nil
}

func (e *entity) transform() *component { return e.componentByName(TypeTransform) }

// scene is one entity context: the editor scene or the running game scene.
// order keeps creation order so every walk is deterministic.
type scene struct {
	kind     models.EntityType
	entities map[models.EntityID]*entity
	order    []models.EntityID
}

func newScene(kind models.EntityType) *scene {
	return &scene{kind: kind, entities: make(map[models.EntityID]*entity)}
}

func (s *scene) get(id models.EntityID) (*entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

func (s *scene) add(e *entity) {
	s.entities[e.id] = e
	s.order = append(s.order, e.id)
	if p, ok := s.entities[e.parent]; ok {
		p.children = append(p.children, e.id)
	}
}

func (s *scene) each(fn func(e *entity)) {
	for _, id := range s.order {
		if e, ok := s.entities[id]; ok {
			fn(e)
		}
	}
}

func (s *scene) findByName(name string) []models.EntityID {
	var out []models.EntityID
	s.each(func(e *entity) {
		if e.name == name {
			out = append(out, e.id)
		}
	})
	return out
}

func (s *scene) roots() []models.EntityID {
	var out []models.EntityID
	s.each(func(e *entity) {
		if _, ok := s.entities[e.parent]; !ok {
			out = append(out, e.id)
		}
	})
	return out
}

// setParent re-links e under parent, refusing cycles.
func (s *scene) setParent(e *entity, parent models.EntityID) bool {
	if parent.IsValid() {
		p, ok := s.entities[parent]
		if !ok {
			return false
		}
		for a := p; a != nil; {
			if a.id == e.id {
				return false
			}
			a, _ = s.entities[a.parent]
		}
	}
	if old, ok := s.entities[e.parent]; ok {
		old.children = slices.DeleteFunc(old.children, func(id models.EntityID) bool { return id == e.id })
	}
	e.parent = parent
	if p, ok := s.entities[parent]; ok {
		p.children = append(p.children, e.id)
	}
	return true
}

// remove deletes e and re-parents its children onto e's parent.
func (s *scene) remove(e *entity) {
	for _, c := range slices.Clone(e.children) {
		if child, ok := s.entities[c]; ok {
			s.setParent(child, e.parent)
		}
	}
	if p, ok := s.entities[e.parent]; ok {
		p.children = slices.DeleteFunc(p.children, func(id models.EntityID) bool { return id == e.id })
	}
	delete(s.entities, e.id)
	s.order = slices.DeleteFunc(s.order, func(id models.EntityID) bool { return id == e.id })
}

// subtree lists e and its descendants, parents first.
func (s *scene) subtree(e *entity) []*entity {
	out := []*entity{e}
	for _, c := range e.children {
		if child, ok := s.entities[c]; ok {
			out = append(out, s.subtree(child)...)
		}
	}
	return out
}

func (s *scene) localTranslation(e *entity) models.Vector3 {
	if t := e.transform(); t != nil {
		return t.vec3(pathTranslate)
	}
	return models.Vector3{}
}

// worldTranslation accumulates local translations up the parent chain.
// Rotation does not propagate.
func (s *scene) worldTranslation(e *entity) models.Vector3 {
	pos := s.localTranslation(e)
	for p, ok := s.entities[e.parent]; ok; p, ok = s.entities[p.parent] {
		pos = pos.Add(s.localTranslation(p))
	}
	return pos
}

func (s *scene) setWorldTranslation(e *entity, world models.Vector3) {
	t := e.transform()
	if t == nil {
		return
	}
	parentWorld := models.Vector3{}
	if p, ok := s.entities[e.parent]; ok {
		parentWorld = s.worldTranslation(p)
	}
	_ = t.tree.Set(pathTranslate, world.Sub(parentWorld), false)
}

func (s *scene) uniformScale(e *entity) float64 {
	scale := 1.0
	for a, ok := e, true; ok; a, ok = s.entities[a.parent] {
		if t := a.transform(); t != nil {
			scale *= t.float(pathScale)
		}
	}
	return scale
}
