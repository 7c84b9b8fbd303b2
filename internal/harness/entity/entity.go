package entity

import (
	"context"
	"fmt"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/harness/busproxy"
	"github.com/zeusync/editorharness/internal/host"
)

// Entity is a handle on one engine entity.
type Entity struct {
	ID       models.EntityID
	registry *Registry
}

func (e Entity) IsValid() bool { return e.ID.IsValid() }

func (e Entity) String() string { return e.ID.String() }

func (e Entity) event(ctx context.Context, bus, method string, args ...any) (any, error) {
	if !e.ID.IsValid() {
		return nil, fmt.Errorf("%s.%s: %w", bus, method, ErrInvalidEntity)
	}
	return e.registry.proxy.Event(ctx, bus, e.ID, method, args...)
}

func (e Entity) Name(ctx context.Context) (string, error) {
	if !e.ID.IsValid() {
		return "", ErrInvalidEntity
	}
	return busproxy.Value[string](e.registry.proxy.Broadcast(ctx, host.ComponentApplicationBus, host.GetEntityName, e.ID))
}

// SetName renames an editor entity.
func (e Entity) SetName(ctx context.Context, name string) error {
	_, err := e.event(ctx, host.EditorEntityInfoRequestBus, host.SetName, name)
	return err
}

// IsActive reports whether the entity exists and is active in either scene.
func (e Entity) IsActive(ctx context.Context) (bool, error) {
	if !e.ID.IsValid() {
		return false, ErrInvalidEntity
	}
	return busproxy.Value[bool](e.registry.proxy.Broadcast(ctx, host.ComponentApplicationBus, host.IsEntityActive, e.ID))
}

func (e Entity) Parent(ctx context.Context) (models.EntityID, error) {
	return busproxy.Value[models.EntityID](e.event(ctx, host.TransformBus, host.GetParentID))
}

// SetParent reparents an editor entity; the invalid id makes it a root.
func (e Entity) SetParent(ctx context.Context, parent models.EntityID) error {
	_, err := e.event(ctx, host.EditorEntityInfoRequestBus, host.SetParent, parent)
	return err
}

func (e Entity) Children(ctx context.Context) ([]models.EntityID, error) {
	return busproxy.Value[[]models.EntityID](e.event(ctx, host.TransformBus, host.GetChildren))
}

func (e Entity) WorldTranslation(ctx context.Context) (models.Vector3, error) {
	return busproxy.Value[models.Vector3](e.event(ctx, host.TransformBus, host.GetWorldTranslation))
}

func (e Entity) SetWorldTranslation(ctx context.Context, v models.Vector3) error {
	_, err := e.event(ctx, host.TransformBus, host.SetWorldTranslation, v)
	return err
}

func (e Entity) LocalTranslation(ctx context.Context) (models.Vector3, error) {
	return busproxy.Value[models.Vector3](e.event(ctx, host.TransformBus, host.GetLocalTranslation))
}

func (e Entity) SetLocalTranslation(ctx context.Context, v models.Vector3) error {
	_, err := e.event(ctx, host.TransformBus, host.SetLocalTranslation, v)
	return err
}

func (e Entity) LinearVelocity(ctx context.Context) (models.Vector3, error) {
	return busproxy.Value[models.Vector3](e.event(ctx, host.RigidBodyRequestBus, host.GetLinearVelocity))
}

func (e Entity) SetLinearVelocity(ctx context.Context, v models.Vector3) error {
	_, err := e.event(ctx, host.RigidBodyRequestBus, host.SetLinearVelocity, v)
	return err
}

func (e Entity) ApplyLinearImpulse(ctx context.Context, impulse models.Vector3) error {
	_, err := e.event(ctx, host.RigidBodyRequestBus, host.ApplyLinearImpulse, impulse)
	return err
}

func (e Entity) GravityEnabled(ctx context.Context) (bool, error) {
	return busproxy.Value[bool](e.event(ctx, host.RigidBodyRequestBus, host.IsGravityEnabled))
}

func (e Entity) SetGravityEnabled(ctx context.Context, on bool) error {
	_, err := e.event(ctx, host.RigidBodyRequestBus, host.SetGravityEnabled, on)
	return err
}

func (e Entity) ForceAwake(ctx context.Context) error {
	_, err := e.event(ctx, host.RigidBodyRequestBus, host.ForceAwake)
	return err
}

func (e Entity) IsAwake(ctx context.Context) (bool, error) {
	return busproxy.Value[bool](e.event(ctx, host.RigidBodyRequestBus, host.IsAwake))
}

func (e Entity) Mass(ctx context.Context) (float64, error) {
	return busproxy.Value[float64](e.event(ctx, host.RigidBodyRequestBus, host.GetMass))
}

func (e Entity) CenterOfMass(ctx context.Context) (models.Vector3, error) {
	return busproxy.Value[models.Vector3](e.event(ctx, host.RigidBodyRequestBus, host.GetCenterOfMassWorld))
}
