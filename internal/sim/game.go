package sim

import (
	"slices"

	"github.com/zeusync/editorharness/internal/core/fields"
	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/host"
)

// createEditorEntity adds a named editor entity with its Transform.
func (e *Engine) createEditorEntity(name string, parent models.EntityID) *entity {
	if _, ok := e.editor.get(parent); !ok {
		parent = models.InvalidEntityID
	}
	ent := &entity{id: e.allocID(), name: name, parent: parent, active: true}
	e.attach(ent, e.types.byName[TypeTransform])
	e.editor.add(ent)
	e.broadcast(host.EditorEntityContextNotificationBus, host.OnEditorEntityCreated, ent.id)
	return ent
}

func (e *Engine) attach(ent *entity, typ *componentType) *component {
	e.nextLocal++
	c := &component{
		id:   models.ComponentID{Entity: ent.id, Local: e.nextLocal},
		typ:  typ,
		tree: typ.newTree(),
	}
	ent.components = append(ent.components, c)
	return c
}

func (e *Engine) deleteEditorEntities(ents []*entity) {
	for _, ent := range ents {
		e.editor.remove(ent)
		e.broadcast(host.EditorEntityContextNotificationBus, host.OnEditorEntityDeleted, ent.id)
	}
	if len(e.selected) > 0 {
		kept := e.selected[:0]
		for _, id := range e.selected {
			if _, ok := e.editor.get(id); ok {
				kept = append(kept, id)
			}
		}
		e.selected = kept
	}
}

// clearEditor drops the whole editor scene, as a level switch does.
func (e *Engine) clearEditor() {
	if e.game != nil {
		e.stopGame()
	}
	e.mode = transitionNone
	e.editor = newScene(models.EntityTypeEditor)
	e.selected = nil
}

// startGame clones every active editor entity into a fresh game scene. Game
// entities get new ids; entity references between them are remapped.
func (e *Engine) startGame() {
	if e.game != nil {
		return
	}
	game := newScene(models.EntityTypeGame)
	remap := make(map[models.EntityID]models.EntityID)
	var clones []*entity
	e.editor.each(func(src *entity) {
		if !src.active {
			return
		}
		remap[src.id] = e.allocID()
	})
	e.editor.each(func(src *entity) {
		id, ok := remap[src.id]
		if !ok {
			return
		}
		dst := &entity{id: id, name: src.name, parent: remap[src.parent], active: true}
		for _, c := range src.components {
			if c.typ.editorOnly {
				continue
			}
			tree := c.tree.Clone()
			remapEntityRefs(tree.Root, remap)
			dst.components = append(dst.components, &component{
				id:   models.ComponentID{Entity: id, Local: c.id.Local},
				typ:  c.typ,
				tree: tree,
			})
		}
		clones = append(clones, dst)
	})
	for _, c := range clones {
		game.add(c)
	}
	// Parents may have been cloned after their children.
	for _, c := range clones {
		if p, ok := game.get(c.parent); ok && !slices.Contains(p.children, c.id) {
			p.children = append(p.children, c.id)
		}
	}
	e.game = game
	e.world = newWorld(e)
	for _, c := range clones {
		e.notify(host.EntityBus, c.id, host.OnEntityActivated, c.id)
	}
	e.printf(windowEditor, "entered game mode with %d entities", len(clones))
}

func (e *Engine) stopGame() {
	if e.game == nil {
		return
	}
	game := e.game
	game.each(func(ent *entity) {
		ent.active = false
		e.notify(host.EntityBus, ent.id, host.OnEntityDeactivated, ent.id)
	})
	e.game = nil
	e.world = nil
	e.printf(windowEditor, "exited game mode")
}

func remapEntityRefs(n *fields.Node, remap map[models.EntityID]models.EntityID) {
	if n.Kind == fields.KindEntity {
		if id, ok := n.Value.(models.EntityID); ok {
			n.Value = remap[id]
		}
		return
	}
	for _, c := range n.Children {
		remapEntityRefs(c, remap)
	}
}
