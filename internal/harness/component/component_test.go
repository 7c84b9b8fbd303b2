package component

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/busproxy"
	"github.com/zeusync/editorharness/internal/harness/entity"
	"github.com/zeusync/editorharness/internal/sim/simtest"
)

type fixture struct {
	components *Proxy
	entities   *entity.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p := busproxy.New(simtest.Loaded(t, "Basic"), log.Nop())
	return &fixture{components: New(p, log.Nop()), entities: entity.New(p, log.Nop())}
}

func (f *fixture) entity(t *testing.T, name string) models.EntityID {
	t.Helper()
	id, err := f.entities.FindEditorEntity(context.Background(), name)
	require.NoError(t, err)
	require.True(t, id.IsValid())
	return id
}

func (f *fixture) typeID(t *testing.T, name string) models.TypeID {
	t.Helper()
	id, err := f.components.FindTypeID(context.Background(), name, models.EntityTypeEditor)
	require.NoError(t, err)
	require.True(t, id.IsValid(), name)
	return id
}

func (f *fixture) component(t *testing.T, entityName, typeName string) models.ComponentID {
	t.Helper()
	o, err := f.components.GetComponentOfType(context.Background(), f.entity(t, entityName), f.typeID(t, typeName))
	require.NoError(t, err)
	require.True(t, o.IsSuccess(), o.Reason())
	return o.Value()
}

func TestFindTypeIDsSkipsUnknownNames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ids, err := f.components.FindTypeIDs(ctx, []string{"Mesh", "No Such Component", "Rigid Body"}, models.EntityTypeEditor)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	names, err := f.components.TypeNames(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mesh", "Rigid Body"}, names)

	ids, err = f.components.FindTypeIDs(ctx, []string{"Comment"}, models.EntityTypeGame)
	require.NoError(t, err)
	assert.Empty(t, ids, "editor-only types are not found for game entities")
}

func TestAddRemoveRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lamp := f.entity(t, "Lamp")
	body := f.typeID(t, "Rigid Body")

	added, err := f.components.AddComponents(ctx, lamp, []models.TypeID{body})
	require.NoError(t, err)
	require.True(t, added.IsSuccess(), added.Reason())
	require.Len(t, added.Value(), 1)

	has, err := f.components.HasComponentOfType(ctx, lamp, body)
	require.NoError(t, err)
	assert.True(t, has)

	again, err := f.components.AddComponents(ctx, lamp, []models.TypeID{body})
	require.NoError(t, err)
	assert.True(t, again.IsSuccess())
	assert.Empty(t, again.Value(), "a second rigid body cannot be hosted")

	ok, err := f.components.RemoveComponents(ctx, added.Value())
	require.NoError(t, err)
	assert.True(t, ok)

	has, err = f.components.HasComponentOfType(ctx, lamp, body)
	require.NoError(t, err)
	assert.False(t, has)

	ok, err = f.components.RemoveComponents(ctx, added.Value())
	require.NoError(t, err)
	assert.False(t, ok, "a removed component id is no longer valid")

	name, err := f.entities.Entity(lamp).Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", name)

	missing, err := f.components.AddComponents(ctx, models.EntityID(9999), []models.TypeID{body})
	require.NoError(t, err)
	assert.False(t, missing.IsSuccess())
}

func TestPropertyGetSetCompare(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	collider := f.component(t, "Ball", "Collider")
	const restitution = "Collider Configuration|Physics Material|Restitution"

	set, err := f.components.SetProperty(ctx, collider, restitution, 0.25)
	require.NoError(t, err)
	require.True(t, set.IsSuccess(), set.Reason())

	got, err := f.components.GetProperty(ctx, collider, restitution)
	require.NoError(t, err)
	require.True(t, got.IsSuccess())
	assert.Equal(t, 0.25, got.Value())

	eq, err := f.components.CompareProperty(ctx, collider, restitution, 0.25)
	require.NoError(t, err)
	assert.True(t, eq)
	eq, err = f.components.CompareProperty(ctx, collider, restitution, 0.5)
	require.NoError(t, err)
	assert.False(t, eq)

	bad, err := f.components.GetProperty(ctx, collider, "Collider Configuration|Nope|Restitution")
	require.NoError(t, err)
	assert.False(t, bad.IsSuccess(), "a missing segment is a failure, not a partial walk")

	mismatch, err := f.components.SetProperty(ctx, collider, restitution, "bouncy")
	require.NoError(t, err)
	assert.False(t, mismatch.IsSuccess())
}

func TestAssetReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mesh := f.component(t, "Crate", "Mesh")
	const slot = "Controller|Configuration|Mesh Asset"

	cube, err := f.components.AssetIDByPath(ctx, "Objects/Cube.azmodel")
	require.NoError(t, err)
	require.True(t, cube.IsValid(), "asset paths are case-insensitive")

	got, err := f.components.GetProperty(ctx, mesh, slot)
	require.NoError(t, err)
	assert.Equal(t, cube, got.Value())

	same, err := f.components.SetProperty(ctx, mesh, slot, cube)
	require.NoError(t, err)
	require.True(t, same.IsSuccess())
	got, err = f.components.GetProperty(ctx, mesh, slot)
	require.NoError(t, err)
	assert.Equal(t, cube, got.Value())

	none, err := f.components.AssetIDByPath(ctx, "objects/missing.azmodel")
	require.NoError(t, err)
	assert.False(t, none.IsValid())

	cleared, err := f.components.SetProperty(ctx, mesh, slot, none)
	require.NoError(t, err)
	require.True(t, cleared.IsSuccess())
	got, err = f.components.GetProperty(ctx, mesh, slot)
	require.NoError(t, err)
	assert.False(t, got.Value().(models.AssetID).IsValid())

	p, err := f.components.AssetPathByID(ctx, cube)
	require.NoError(t, err)
	assert.Equal(t, "objects/cube.azmodel", p)
}

func TestPropertyTreeEditor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	collider := f.component(t, "Ball", "Collider")

	o, err := f.components.BuildPropertyTree(ctx, collider)
	require.NoError(t, err)
	require.True(t, o.IsSuccess(), o.Reason())
	tree := o.Value()

	assert.Equal(t, "Sphere", tree.GetValue("Shape Configuration|Shape").Value())
	assert.Equal(t, 0.5, tree.GetValue("Shape Configuration|Sphere|Radius").Value())
	assert.True(t, tree.GetValue("Shape Configuration|Box|Dimensions").IsSuccess(), "raw paths reach hidden leaves")
	assert.True(t, tree.GetValue("Collider Configuration|Tag").IsSuccess())

	tree.SetVisibleEnforcement(true)
	assert.False(t, tree.GetValue("Collider Configuration|Trigger").IsSuccess())
	assert.Equal(t, false, tree.GetValue("Trigger").Value())
	assert.True(t, tree.GetValue("Physics Material|Restitution").IsSuccess())
	assert.False(t, tree.GetValue("Shape Configuration|Box|Dimensions").IsSuccess())
	assert.False(t, tree.GetValue("Tag").IsSuccess())
	assert.Contains(t, tree.BuildPathsListWithTypes(), "Shape Configuration|Sphere|Radius (float)")
	assert.NotContains(t, tree.BuildPathsListWithTypes(), "Shape Configuration|Box|Dimensions (Vector3)")

	set, err := tree.SetValue(ctx, "Shape Configuration|Shape", "Box")
	require.NoError(t, err)
	require.True(t, set.IsSuccess(), set.Reason())
	assert.True(t, tree.GetValue("Shape Configuration|Box|Dimensions").IsSuccess(), "the write refreshed visibility")
	assert.False(t, tree.GetValue("Shape Configuration|Sphere|Radius").IsSuccess())

	got, err := f.components.GetProperty(ctx, collider, "Shape Configuration|Shape")
	require.NoError(t, err)
	assert.Equal(t, "Box", got.Value(), "writes go through to the component")

	set, err = tree.SetValue(ctx, "Shape Configuration|Box|Dimensions", []any{2.0, 2.0, 2.0})
	require.NoError(t, err)
	require.True(t, set.IsSuccess())
	assert.True(t, tree.CompareValue("Shape Configuration|Box|Dimensions", models.Vec3(2, 2, 2)))
	assert.False(t, tree.CompareValue("Shape Configuration|Box|Dimensions", models.Vec3(1, 1, 1)))
	assert.False(t, tree.CompareValue("No|Such|Path", 1.0))

	tree.SetVisibleEnforcement(false)
	assert.Contains(t, tree.BuildPathsListWithTypes(), "Collider Configuration|Tag (AZStd::string)")

	missing, err := tree.SetValue(ctx, "No|Such|Path", 1.0)
	require.NoError(t, err)
	assert.False(t, missing.IsSuccess())

	gone, err := f.components.BuildPropertyTree(ctx, models.ComponentID{Entity: 9999, Local: 1})
	require.NoError(t, err)
	assert.False(t, gone.IsSuccess())
}
