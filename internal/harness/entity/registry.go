// Package entity finds, creates and inspects engine entities through the bus
// proxy. Entity ids are only ever obtained from the engine.
package entity

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/busproxy"
	"github.com/zeusync/editorharness/internal/host"
)

var ErrInvalidEntity = errors.New("invalid entity id")

type Registry struct {
	proxy  *busproxy.Proxy
	logger log.Log
}

func New(proxy *busproxy.Proxy, logger log.Log) *Registry {
	return &Registry{proxy: proxy, logger: logger.Named("entity")}
}

// FindGameEntity returns the first active game entity named name, or the
// invalid id when none exists.
func (r *Registry) FindGameEntity(ctx context.Context, name string) (models.EntityID, error) {
	return r.find(ctx, name, models.EntityTypeGame)
}

// FindEditorEntity returns the first editor entity named name, or the invalid id.
func (r *Registry) FindEditorEntity(ctx context.Context, name string) (models.EntityID, error) {
	return r.find(ctx, name, models.EntityTypeEditor)
}

func (r *Registry) find(ctx context.Context, name string, kind models.EntityType) (models.EntityID, error) {
	ids, err := busproxy.Value[[]models.EntityID](r.proxy.Broadcast(ctx, host.ComponentApplicationBus, host.FindEntitiesByName, name, int(kind)))
	if err != nil {
		return models.InvalidEntityID, err
	}
	if len(ids) == 0 {
		r.logger.Debug("entity not found", log.String("name", name), log.Stringer("type", kind))
		return models.InvalidEntityID, nil
	}
	return ids[0], nil
}

// FindAll returns every entity of kind named name.
func (r *Registry) FindAll(ctx context.Context, name string, kind models.EntityType) ([]models.EntityID, error) {
	return busproxy.Value[[]models.EntityID](r.proxy.Broadcast(ctx, host.ComponentApplicationBus, host.FindEntitiesByName, name, int(kind)))
}

// CreateEditorEntity creates and names a new editor entity. An invalid parent
// creates a root entity.
func (r *Registry) CreateEditorEntity(ctx context.Context, name string, parent models.EntityID) (models.EntityID, error) {
	id, err := busproxy.Value[models.EntityID](r.proxy.Broadcast(ctx, host.ToolsApplicationRequestBus, host.CreateNewEntity, parent))
	if err != nil {
		return models.InvalidEntityID, err
	}
	if !id.IsValid() {
		return models.InvalidEntityID, fmt.Errorf("create %q: engine returned %w", name, ErrInvalidEntity)
	}
	if _, err := r.proxy.Event(ctx, host.EditorEntityInfoRequestBus, id, host.SetName, name); err != nil {
		return models.InvalidEntityID, err
	}
	if parent.IsValid() {
		got, err := r.Entity(id).Parent(ctx)
		if err != nil {
			return models.InvalidEntityID, err
		}
		if got != parent {
			if _, err := r.proxy.Event(ctx, host.EditorEntityInfoRequestBus, id, host.SetParent, parent); err != nil {
				return models.InvalidEntityID, err
			}
		}
	}
	r.logger.Debug("editor entity created", log.String("name", name), log.Stringer("id", id))
	return id, nil
}

// Delete removes one editor entity; its children move to its parent.
func (r *Registry) Delete(ctx context.Context, id models.EntityID) error {
	if !id.IsValid() {
		return ErrInvalidEntity
	}
	_, err := r.proxy.Broadcast(ctx, host.ToolsApplicationRequestBus, host.DeleteEntityByID, id)
	return err
}

// DeleteWithDescendants removes an editor entity and its whole subtree.
func (r *Registry) DeleteWithDescendants(ctx context.Context, id models.EntityID) error {
	if !id.IsValid() {
		return ErrInvalidEntity
	}
	_, err := r.proxy.Broadcast(ctx, host.ToolsApplicationRequestBus, host.DeleteEntityAndAllDescendants, id)
	return err
}

// RootEditorEntities lists the editor entities without a parent.
func (r *Registry) RootEditorEntities(ctx context.Context) ([]models.EntityID, error) {
	return busproxy.Value[[]models.EntityID](r.proxy.Broadcast(ctx, host.EditorEntityContextRequestBus, host.GetRootEditorEntities))
}

// Selected returns the editor selection.
func (r *Registry) Selected(ctx context.Context) ([]models.EntityID, error) {
	return busproxy.Value[[]models.EntityID](r.proxy.Broadcast(ctx, host.ToolsApplicationRequestBus, host.GetSelectedEntities))
}

func (r *Registry) Select(ctx context.Context, ids ...models.EntityID) error {
	_, err := r.proxy.Broadcast(ctx, host.ToolsApplicationRequestBus, host.SetSelectedEntities, ids)
	return err
}

// Entity wraps id in a handle. The id is validated on every use.
func (r *Registry) Entity(id models.EntityID) Entity {
	return Entity{ID: id, registry: r}
}
