// Package component reads and edits editor components through the
// EditorComponentAPIBus.
package component

import (
	"context"
	"fmt"

	"github.com/zeusync/editorharness/internal/core/fields"
	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/busproxy"
	"github.com/zeusync/editorharness/internal/host"
)

type Proxy struct {
	proxy  *busproxy.Proxy
	logger log.Log
}

func New(proxy *busproxy.Proxy, logger log.Log) *Proxy {
	return &Proxy{proxy: proxy, logger: logger.Named("component")}
}

func (p *Proxy) broadcast(ctx context.Context, method string, args ...any) (any, error) {
	return p.proxy.Broadcast(ctx, host.EditorComponentAPIBus, method, args...)
}

// FindTypeIDs resolves type names for an entity type. Unknown names are
// skipped, so the result may be shorter than names.
func (p *Proxy) FindTypeIDs(ctx context.Context, names []string, kind models.EntityType) ([]models.TypeID, error) {
	ids, err := busproxy.Value[[]models.TypeID](p.broadcast(ctx, host.FindComponentTypeIdsByEntityType, names, int(kind)))
	if err != nil {
		return nil, err
	}
	if len(ids) != len(names) {
		p.logger.Debug("some component types not found", log.Strings("names", names), log.Int("found", len(ids)))
	}
	return ids, nil
}

// FindTypeID resolves a single type name; the zero TypeID when unknown.
func (p *Proxy) FindTypeID(ctx context.Context, name string, kind models.EntityType) (models.TypeID, error) {
	ids, err := p.FindTypeIDs(ctx, []string{name}, kind)
	if err != nil || len(ids) == 0 {
		return models.TypeID{}, err
	}
	return ids[0], nil
}

func (p *Proxy) TypeNames(ctx context.Context, ids []models.TypeID) ([]string, error) {
	return busproxy.Value[[]string](p.broadcast(ctx, host.FindComponentTypeNames, ids))
}

// AddComponents attaches types to an editor entity. The outcome holds an
// empty list when the entity cannot host that set.
func (p *Proxy) AddComponents(ctx context.Context, entity models.EntityID, types []models.TypeID) (models.Outcome[[]models.ComponentID], error) {
	o, err := p.proxy.BroadcastOutcome(ctx, host.EditorComponentAPIBus, host.AddComponentsOfType, entity, types)
	if err != nil {
		return models.Outcome[[]models.ComponentID]{}, err
	}
	return models.Cast[[]models.ComponentID](o), nil
}

// RemoveComponents removes every component or none.
func (p *Proxy) RemoveComponents(ctx context.Context, ids []models.ComponentID) (bool, error) {
	return busproxy.Value[bool](p.broadcast(ctx, host.RemoveComponents, ids))
}

func (p *Proxy) HasComponentOfType(ctx context.Context, entity models.EntityID, typ models.TypeID) (bool, error) {
	return busproxy.Value[bool](p.broadcast(ctx, host.HasComponentOfType, entity, typ))
}

func (p *Proxy) GetComponentOfType(ctx context.Context, entity models.EntityID, typ models.TypeID) (models.Outcome[models.ComponentID], error) {
	o, err := p.proxy.BroadcastOutcome(ctx, host.EditorComponentAPIBus, host.GetComponentOfType, entity, typ)
	if err != nil {
		return models.Outcome[models.ComponentID]{}, err
	}
	return models.Cast[models.ComponentID](o), nil
}

// GetProperty reads a leaf by raw path. A path with a missing segment fails.
func (p *Proxy) GetProperty(ctx context.Context, c models.ComponentID, path string) (models.AnyOutcome, error) {
	return p.proxy.BroadcastOutcome(ctx, host.EditorComponentAPIBus, host.GetComponentProperty, c, path)
}

// SetProperty writes a leaf. The value must agree with the leaf's type.
func (p *Proxy) SetProperty(ctx context.Context, c models.ComponentID, path string, value any) (models.AnyOutcome, error) {
	o, err := p.proxy.BroadcastOutcome(ctx, host.EditorComponentAPIBus, host.SetComponentProperty, c, path, value)
	if err == nil && !o.IsSuccess() {
		p.logger.Debug("set property failed", log.Stringer("component", c), log.String("path", path), log.String("reason", o.Reason()))
	}
	return o, err
}

func (p *Proxy) CompareProperty(ctx context.Context, c models.ComponentID, path string, value any) (bool, error) {
	return busproxy.Value[bool](p.broadcast(ctx, host.CompareComponentProperty, c, path, value))
}

// BuildPropertyTree snapshots a component's properties into an editor.
func (p *Proxy) BuildPropertyTree(ctx context.Context, c models.ComponentID) (models.Outcome[*PropertyTreeEditor], error) {
	entries, err := p.snapshot(ctx, c)
	if err != nil {
		return models.Outcome[*PropertyTreeEditor]{}, err
	}
	if !entries.IsSuccess() {
		return models.Failure[*PropertyTreeEditor](entries.Reason()), nil
	}
	return models.Success(newPropertyTreeEditor(p, c, entries.Value())), nil
}

func (p *Proxy) snapshot(ctx context.Context, c models.ComponentID) (models.Outcome[[]fields.Entry], error) {
	o, err := p.proxy.BroadcastOutcome(ctx, host.EditorComponentAPIBus, host.BuildComponentPropertyTreeEditor, c)
	if err != nil {
		return models.Outcome[[]fields.Entry]{}, err
	}
	return models.Cast[[]fields.Entry](o), nil
}

// AssetIDByPath resolves an asset path through the catalog. The zero AssetID
// is returned when nothing is registered under path.
func (p *Proxy) AssetIDByPath(ctx context.Context, path string) (models.AssetID, error) {
	id, err := busproxy.Value[models.AssetID](p.proxy.Broadcast(ctx, host.AssetCatalogRequestBus, host.GetAssetIDByPath, path, "", false))
	if err != nil {
		return models.AssetID{}, fmt.Errorf("asset %q: %w", path, err)
	}
	return id, nil
}

func (p *Proxy) AssetPathByID(ctx context.Context, id models.AssetID) (string, error) {
	return busproxy.Value[string](p.proxy.Broadcast(ctx, host.AssetCatalogRequestBus, host.GetAssetPathByID, id))
}
