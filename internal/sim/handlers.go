package sim

import (
	"fmt"
	"slices"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/host"
)

func (e *Engine) buildMethods() map[string]map[string]method {
	broadcast := func(fn func(r *request) (any, error)) method { return method{fn: fn} }
	at := func(t target, fn func(r *request) (any, error)) method { return method{target: t, fn: fn} }

	return map[string]map[string]method{
		host.EditorRequestBus: {
			host.OpenLevelNoPrompt: broadcast(e.handleOpenLevel),
			host.IsLevelLoaded: broadcast(func(*request) (any, error) {
				return e.loaded, nil
			}),
			host.GetCurrentLevelName: broadcast(func(*request) (any, error) {
				return e.level, nil
			}),
			host.EnterGameMode: broadcast(e.handleEnterGameMode),
			host.ExitGameMode: broadcast(func(*request) (any, error) {
				if e.game != nil || e.mode == transitionEnter {
					e.mode = transitionExit
				}
				return nil, nil
			}),
			host.IsInGameMode: broadcast(func(*request) (any, error) {
				return e.game != nil, nil
			}),
		},
		host.ToolsApplicationRequestBus: {
			host.CreateNewEntity:               broadcast(e.handleCreateNewEntity),
			host.DeleteEntityByID:              broadcast(e.handleDelete(false)),
			host.DeleteEntityAndAllDescendants: broadcast(e.handleDelete(true)),
			host.GetSelectedEntities: broadcast(func(*request) (any, error) {
				return slices.Clone(e.selected), nil
			}),
			host.SetSelectedEntities: broadcast(func(r *request) (any, error) {
				ids, err := r.entitiesArg(0)
				if err != nil {
					return nil, err
				}
				e.selected = e.selected[:0]
				for _, id := range ids {
					if _, ok := e.editor.get(id); ok && !slices.Contains(e.selected, id) {
						e.selected = append(e.selected, id)
					}
				}
				return nil, nil
			}),
		},
		host.EditorEntityContextRequestBus: {
			host.GetRootEditorEntities: broadcast(func(*request) (any, error) {
				return e.editor.roots(), nil
			}),
		},
		host.EditorEntityInfoRequestBus: {
			host.GetName: at(targetEditor, func(r *request) (any, error) {
				return r.entity.name, nil
			}),
			host.SetName: at(targetEditor, func(r *request) (any, error) {
				name, err := r.stringArg(0)
				if err != nil {
					return nil, err
				}
				r.entity.name = name
				return nil, nil
			}),
			host.GetParent: at(targetEditor, func(r *request) (any, error) {
				return r.entity.parent, nil
			}),
			host.SetParent: at(targetEditor, func(r *request) (any, error) {
				parent, err := r.entityArg(0)
				if err != nil {
					return nil, err
				}
				if !r.scene.setParent(r.entity, parent) {
					e.warnf(windowEditor, "cannot parent %s under %s", r.entity.id, parent)
				}
				return nil, nil
			}),
			host.GetChildren: at(targetEditor, func(r *request) (any, error) {
				return slices.Clone(r.entity.children), nil
			}),
		},
		host.ComponentApplicationBus: {
			host.FindEntitiesByName: broadcast(func(r *request) (any, error) {
				name, err := r.stringArg(0)
				if err != nil {
					return nil, err
				}
				kind, err := r.intArg(1)
				if err != nil {
					return nil, err
				}
				s := e.sceneOf(models.EntityType(kind))
				if s == nil {
					return []models.EntityID{}, nil
				}
				ids := s.findByName(name)
				if ids == nil {
					ids = []models.EntityID{}
				}
				return ids, nil
			}),
			host.GetEntityName: broadcast(func(r *request) (any, error) {
				id, err := r.entityArg(0)
				if err != nil {
					return nil, err
				}
				if ent := e.lookup(id); ent != nil {
					return ent.name, nil
				}
				return "", nil
			}),
			host.IsEntityActive: broadcast(func(r *request) (any, error) {
				id, err := r.entityArg(0)
				if err != nil {
					return nil, err
				}
				ent := e.lookup(id)
				return ent != nil && ent.active, nil
			}),
		},
		host.TransformBus: {
			host.GetWorldTranslation: at(targetAny, func(r *request) (any, error) {
				return r.scene.worldTranslation(r.entity), nil
			}),
			host.SetWorldTranslation: at(targetAny, func(r *request) (any, error) {
				v, err := r.vec3Arg(0)
				if err != nil {
					return nil, err
				}
				r.scene.setWorldTranslation(r.entity, v)
				wakeIfDynamic(r.entity)
				return nil, nil
			}),
			host.GetLocalTranslation: at(targetAny, func(r *request) (any, error) {
				return r.scene.localTranslation(r.entity), nil
			}),
			host.SetLocalTranslation: at(targetAny, func(r *request) (any, error) {
				v, err := r.vec3Arg(0)
				if err != nil {
					return nil, err
				}
				if t := r.entity.transform(); t != nil {
					_ = t.tree.Set(pathTranslate, v, false)
				}
				wakeIfDynamic(r.entity)
				return nil, nil
			}),
			host.GetParentID: at(targetAny, func(r *request) (any, error) {
				return r.entity.parent, nil
			}),
			host.GetChildren: at(targetAny, func(r *request) (any, error) {
				return slices.Clone(r.entity.children), nil
			}),
		},
		host.RigidBodyRequestBus: {
			host.GetLinearVelocity: at(targetBody, func(r *request) (any, error) {
				return r.entity.body.velocity, nil
			}),
			host.SetLinearVelocity: at(targetBody, func(r *request) (any, error) {
				v, err := r.vec3Arg(0)
				if err != nil {
					return nil, err
				}
				r.entity.body.velocity = v
				r.entity.body.wake()
				return nil, nil
			}),
			host.ApplyLinearImpulse: at(targetBody, func(r *request) (any, error) {
				v, err := r.vec3Arg(0)
				if err != nil {
					return nil, err
				}
				b := r.entity.body
				b.velocity = b.velocity.Add(v.Mul(b.invMass()))
				b.wake()
				return nil, nil
			}),
			host.SetGravityEnabled: at(targetBody, func(r *request) (any, error) {
				on, err := r.boolArg(0)
				if err != nil {
					return nil, err
				}
				r.entity.body.gravity = on
				return nil, nil
			}),
			host.IsGravityEnabled: at(targetBody, func(r *request) (any, error) {
				return r.entity.body.gravity, nil
			}),
			host.ForceAwake: at(targetBody, func(r *request) (any, error) {
				r.entity.body.wake()
				return nil, nil
			}),
			host.IsAwake: at(targetBody, func(r *request) (any, error) {
				return r.entity.body.awake, nil
			}),
			host.GetMass: at(targetBody, func(r *request) (any, error) {
				return r.entity.body.mass, nil
			}),
			host.GetCenterOfMassWorld: at(targetBody, func(r *request) (any, error) {
				return r.scene.worldTranslation(r.entity), nil
			}),
		},
		host.EditorComponentAPIBus: {
			host.FindComponentTypeIdsByEntityType: broadcast(e.handleFindTypeIDs),
			host.FindComponentTypeNames: broadcast(func(r *request) (any, error) {
				ids, err := r.typeIDsArg(0)
				if err != nil {
					return nil, err
				}
				names := make([]string, 0, len(ids))
				for _, id := range ids {
					if t, ok := e.types.byID[id]; ok {
						names = append(names, t.name)
					}
				}
				return names, nil
			}),
			host.AddComponentsOfType: broadcast(e.handleAddComponents),
			host.RemoveComponents:    broadcast(e.handleRemoveComponents),
			host.HasComponentOfType: broadcast(func(r *request) (any, error) {
				ent, typ, err := e.entityAndType(r)
				if err != nil {
					return nil, err
				}
				return ent != nil && typ != nil && ent.componentOf(typ) != nil, nil
			}),
			host.GetComponentOfType: broadcast(func(r *request) (any, error) {
				ent, typ, err := e.entityAndType(r)
				if err != nil {
					return nil, err
				}
				if ent == nil {
					return models.Failure[any]("entity not found"), nil
				}
				if typ == nil {
					return models.Failure[any]("unknown component type"), nil
				}
				c := ent.componentOf(typ)
				if c == nil {
					return models.Failure[any](fmt.Sprintf("%s has no %s component", ent.id, typ.name)), nil
				}
				return models.Success[any](c.id), nil
			}),
			host.GetComponentProperty: broadcast(func(r *request) (any, error) {
				c, path, fail, err := e.componentAndPath(r)
				if err != nil {
					return nil, err
				}
				if fail != "" {
					return models.Failure[any](fail), nil
				}
				v, _, gerr := c.tree.Get(path, false)
				if gerr != nil {
					return models.Failure[any](gerr.Error()), nil
				}
				return models.Success[any](v), nil
			}),
			host.SetComponentProperty: broadcast(func(r *request) (any, error) {
				c, path, fail, err := e.componentAndPath(r)
				if err != nil {
					return nil, err
				}
				if fail != "" {
					return models.Failure[any](fail), nil
				}
				v, err := r.arg(2)
				if err != nil {
					return nil, err
				}
				if serr := c.tree.Set(path, v, false); serr != nil {
					return models.Failure[any](serr.Error()), nil
				}
				return models.Success[any](nil), nil
			}),
			host.CompareComponentProperty: broadcast(func(r *request) (any, error) {
				c, path, fail, err := e.componentAndPath(r)
				if err != nil {
					return nil, err
				}
				if fail != "" {
					return false, nil
				}
				v, err := r.arg(2)
				if err != nil {
					return nil, err
				}
				eq, cerr := c.tree.Compare(path, v, false)
				return cerr == nil && eq, nil
			}),
			host.BuildComponentPropertyTreeEditor: broadcast(func(r *request) (any, error) {
				id, err := r.componentIDArg(0)
				if err != nil {
					return nil, err
				}
				c := e.component(id)
				if c == nil {
					return models.Failure[any](fmt.Sprintf("component %s not found", id)), nil
				}
				return models.Success[any](c.tree.Snapshot()), nil
			}),
		},
		host.AssetCatalogRequestBus: {
			host.GetAssetIDByPath: broadcast(func(r *request) (any, error) {
				p, err := r.stringArg(0)
				if err != nil {
					return nil, err
				}
				autoRegister := false
				if len(r.args) > 2 {
					if autoRegister, err = r.boolArg(2); err != nil {
						return nil, err
					}
				}
				if id, ok := e.assets.Lookup(p); ok {
					return id, nil
				}
				if autoRegister {
					return e.assets.Register(p), nil
				}
				e.warnf(windowAsset, "no asset registered for %q", p)
				return models.AssetID{}, nil
			}),
			host.GetAssetPathByID: broadcast(func(r *request) (any, error) {
				id, err := r.assetIDArg(0)
				if err != nil {
					return nil, err
				}
				p, _ := e.assets.Path(id)
				return p, nil
			}),
		},
	}
}

func wakeIfDynamic(ent *entity) {
	if ent.body != nil && ent.body.dynamic() {
		ent.body.wake()
	}
}

func (e *Engine) sceneOf(kind models.EntityType) *scene {
	switch kind {
	case models.EntityTypeEditor:
		return e.editor
	case models.EntityTypeGame:
		return e.game
	}
	return nil
}

// lookup finds an entity in either scene.
func (e *Engine) lookup(id models.EntityID) *entity {
	if ent, ok := e.editor.get(id); ok {
		return ent
	}
	if e.game != nil {
		if ent, ok := e.game.get(id); ok {
			return ent
		}
	}
	return nil
}

// component finds an editor component by id.
func (e *Engine) component(id models.ComponentID) *component {
	ent, ok := e.editor.get(id.Entity)
	if !ok {
		return nil
	}
	for _, c := range ent.components {
		if c.id == id {
			return c
		}
	}
	return nil
}

func (e *Engine) entityAndType(r *request) (*entity, *componentType, error) {
	id, err := r.entityArg(0)
	if err != nil {
		return nil, nil, err
	}
	tid, err := r.typeIDArg(1)
	if err != nil {
		return nil, nil, err
	}
	ent, _ := e.editor.get(id)
	return ent, e.types.byID[tid], nil
}

func (e *Engine) componentAndPath(r *request) (*component, string, string, error) {
	id, err := r.componentIDArg(0)
	if err != nil {
		return nil, "", "", err
	}
	path, err := r.stringArg(1)
	if err != nil {
		return nil, "", "", err
	}
	c := e.component(id)
	if c == nil {
		return nil, "", fmt.Sprintf("component %s not found", id), nil
	}
	return c, path, "", nil
}

func (e *Engine) handleOpenLevel(r *request) (any, error) {
	category, err := r.stringArg(0)
	if err != nil {
		return nil, err
	}
	name, err := r.stringArg(1)
	if err != nil {
		return nil, err
	}
	return e.openLevel(category, name), nil
}

func (e *Engine) handleEnterGameMode(*request) (any, error) {
	switch {
	case !e.loaded:
		e.errorf(windowEditor, "cannot enter game mode: no level is loaded")
	case e.game == nil:
		e.mode = transitionEnter
	case e.mode == transitionExit:
		e.mode = transitionNone
	}
	return nil, nil
}

func (e *Engine) handleCreateNewEntity(r *request) (any, error) {
	parent := models.InvalidEntityID
	if len(r.args) > 0 {
		var err error
		if parent, err = r.entityArg(0); err != nil {
			return nil, err
		}
	}
	ent := e.createEditorEntity("", parent)
	ent.name = fmt.Sprintf("Entity%d", uint64(ent.id))
	return ent.id, nil
}

func (e *Engine) handleDelete(descendants bool) func(r *request) (any, error) {
	return func(r *request) (any, error) {
		id, err := r.entityArg(0)
		if err != nil {
			return nil, err
		}
		ent, ok := e.editor.get(id)
		if !ok {
			e.warnf(windowEditor, "cannot delete %s: no such editor entity", id)
			return nil, nil
		}
		doomed := []*entity{ent}
		if descendants {
			doomed = e.editor.subtree(ent)
			slices.Reverse(doomed)
		}
		e.deleteEditorEntities(doomed)
		return nil, nil
	}
}

func (e *Engine) handleFindTypeIDs(r *request) (any, error) {
	names, err := r.stringsArg(0)
	if err != nil {
		return nil, err
	}
	kind := models.EntityTypeGame
	if len(r.args) > 1 {
		k, err := r.intArg(1)
		if err != nil {
			return nil, err
		}
		kind = models.EntityType(k)
	}
	ids := make([]models.TypeID, 0, len(names))
	for _, n := range names {
		if t, ok := e.types.lookup(n, kind); ok {
			ids = append(ids, t.id)
		}
	}
	return ids, nil
}

// handleAddComponents attaches all requested types or none. A set the entity
// cannot host yields an empty list.
func (e *Engine) handleAddComponents(r *request) (any, error) {
	id, err := r.entityArg(0)
	if err != nil {
		return nil, err
	}
	tids, err := r.typeIDsArg(1)
	if err != nil {
		return nil, err
	}
	ent, ok := e.editor.get(id)
	if !ok {
		return models.Failure[any](fmt.Sprintf("entity %s not found", id)), nil
	}
	types := make([]*componentType, 0, len(tids))
	for _, tid := range tids {
		t, ok := e.types.byID[tid]
		if !ok {
			return models.Failure[any](fmt.Sprintf("unknown component type %s", tid)), nil
		}
		if !t.multiple && (ent.componentOf(t) != nil || slices.Contains(types, t)) {
			e.warnf(windowEditor, "%s %q cannot host another %s component", ent.id, ent.name, t.name)
			return models.Success[any]([]models.ComponentID{}), nil
		}
		types = append(types, t)
	}
	ids := make([]models.ComponentID, 0, len(types))
	for _, t := range types {
		ids = append(ids, e.attach(ent, t).id)
	}
	return models.Success[any](ids), nil
}

// handleRemoveComponents removes every listed component or none.
func (e *Engine) handleRemoveComponents(r *request) (any, error) {
	ids, err := r.componentIDsArg(0)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		c := e.component(id)
		if c == nil || c.typ.name == TypeTransform {
			return false, nil
		}
	}
	for _, id := range ids {
		ent, _ := e.editor.get(id.Entity)
		ent.components = slices.DeleteFunc(ent.components, func(c *component) bool { return c.id == id })
	}
	return true, nil
}
