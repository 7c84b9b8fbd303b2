package entity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/busproxy"
	"github.com/zeusync/editorharness/internal/host"
	"github.com/zeusync/editorharness/internal/sim"
	"github.com/zeusync/editorharness/internal/sim/simtest"
)

type fixture struct {
	engine   *sim.Engine
	proxy    *busproxy.Proxy
	registry *Registry
}

func newFixture(t *testing.T, level string) *fixture {
	t.Helper()
	e := simtest.Loaded(t, level)
	p := busproxy.New(e, log.Nop())
	return &fixture{engine: e, proxy: p, registry: New(p, log.Nop())}
}

func (f *fixture) editor(t *testing.T, name string) models.EntityID {
	t.Helper()
	id, err := f.registry.FindEditorEntity(context.Background(), name)
	require.NoError(t, err)
	require.True(t, id.IsValid(), "editor entity %s", name)
	return id
}

func (f *fixture) typeID(t *testing.T, name string) models.TypeID {
	t.Helper()
	ids, err := busproxy.Value[[]models.TypeID](f.proxy.Broadcast(context.Background(),
		host.EditorComponentAPIBus, host.FindComponentTypeIdsByEntityType, []string{name}, int(models.EntityTypeEditor)))
	require.NoError(t, err)
	require.Len(t, ids, 1)
	return ids[0]
}

func TestFindEditorAndGameEntities(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "Basic")

	ball := f.editor(t, "Ball")
	missing, err := f.registry.FindEditorEntity(ctx, "Nope")
	require.NoError(t, err)
	assert.False(t, missing.IsValid())
	assert.NotEqual(t, ball, missing)

	game, err := f.registry.FindGameEntity(ctx, "Ball")
	require.NoError(t, err)
	assert.False(t, game.IsValid(), "no game entities before game mode")

	_, err = f.proxy.Broadcast(ctx, host.EditorRequestBus, host.EnterGameMode)
	require.NoError(t, err)
	require.NoError(t, f.engine.Tick(ctx))

	game, err = f.registry.FindGameEntity(ctx, "Ball")
	require.NoError(t, err)
	require.True(t, game.IsValid())
	assert.NotEqual(t, ball, game)

	active, err := f.registry.Entity(game).IsActive(ctx)
	require.NoError(t, err)
	assert.True(t, active)

	lamp, err := f.registry.FindGameEntity(ctx, "Lamp")
	require.NoError(t, err)
	assert.True(t, lamp.IsValid(), "entities with only editor components still clone")
}

func TestCreateAndDeleteEditorEntities(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "Empty")

	parent, err := f.registry.CreateEditorEntity(ctx, "Parent", models.InvalidEntityID)
	require.NoError(t, err)
	child, err := f.registry.CreateEditorEntity(ctx, "Child", parent)
	require.NoError(t, err)
	grandchild, err := f.registry.CreateEditorEntity(ctx, "Grandchild", child)
	require.NoError(t, err)

	name, err := f.registry.Entity(child).Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Child", name)

	got, err := f.registry.Entity(child).Parent(ctx)
	require.NoError(t, err)
	assert.Equal(t, parent, got)

	children, err := f.registry.Entity(parent).Children(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.EntityID{child}, children)

	roots, err := f.registry.RootEditorEntities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.EntityID{parent}, roots)

	require.NoError(t, f.registry.Delete(ctx, child))
	got, err = f.registry.Entity(grandchild).Parent(ctx)
	require.NoError(t, err)
	assert.Equal(t, parent, got, "children of a deleted entity move up")

	require.NoError(t, f.registry.DeleteWithDescendants(ctx, parent))
	roots, err = f.registry.RootEditorEntities(ctx)
	require.NoError(t, err)
	assert.Empty(t, roots)

	active, err := f.registry.Entity(grandchild).IsActive(ctx)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestInvalidEntityIsFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "Empty")
	e := f.registry.Entity(models.InvalidEntityID)

	_, err := e.WorldTranslation(ctx)
	assert.ErrorIs(t, err, ErrInvalidEntity)
	assert.ErrorIs(t, e.SetLinearVelocity(ctx, models.Vec3(1, 0, 0)), ErrInvalidEntity)
	_, err = e.Name(ctx)
	assert.ErrorIs(t, err, ErrInvalidEntity)
	assert.ErrorIs(t, f.registry.Delete(ctx, models.InvalidEntityID), ErrInvalidEntity)
	_, err = f.registry.Search(ctx, Filter{Roots: []models.EntityID{models.InvalidEntityID}})
	assert.ErrorIs(t, err, ErrInvalidEntity)
}

func TestEntityHandleTransformsAndBodies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "Basic")
	crate := f.registry.Entity(f.editor(t, "Crate"))

	pos, err := crate.WorldTranslation(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Vec3(5, 5, 2), pos)

	require.NoError(t, crate.SetWorldTranslation(ctx, models.Vec3(1, 2, 3)))
	pos, err = crate.LocalTranslation(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Vec3(1, 2, 3), pos)

	_, err = crate.GravityEnabled(ctx)
	assert.ErrorIs(t, err, host.ErrNotAddressable, "bodies only exist in game mode")

	_, err = f.proxy.Broadcast(ctx, host.EditorRequestBus, host.EnterGameMode)
	require.NoError(t, err)
	require.NoError(t, f.engine.Tick(ctx))
	id, err := f.registry.FindGameEntity(ctx, "Crate")
	require.NoError(t, err)
	game := f.registry.Entity(id)

	on, err := game.GravityEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	mass, err := game.Mass(ctx)
	require.NoError(t, err)
	assert.Greater(t, mass, 0.0)

	require.NoError(t, game.SetLinearVelocity(ctx, models.Vec3(0, 1, 0)))
	v, err := game.LinearVelocity(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Vec3(0, 1, 0), v)

	lamp, err := f.registry.FindGameEntity(ctx, "Lamp")
	require.NoError(t, err)
	_, err = f.registry.Entity(lamp).LinearVelocity(ctx)
	assert.ErrorIs(t, err, host.ErrNotAddressable)
}

// buildCity creates City|Street|{Car, Car, SportsCar} where the cars carry
// five Passengers and one Driver between them.
func buildCity(t *testing.T, f *fixture) map[string][]models.EntityID {
	t.Helper()
	ctx := context.Background()
	ids := make(map[string][]models.EntityID)
	create := func(name string, parent models.EntityID) models.EntityID {
		id, err := f.registry.CreateEditorEntity(ctx, name, parent)
		require.NoError(t, err)
		ids[name] = append(ids[name], id)
		return id
	}
	city := create("City", models.InvalidEntityID)
	street := create("Street", city)
	for _, car := range []string{"Car", "Car", "SportsCar"} {
		c := create(car, street)
		create("Passenger", c)
		if car == "SportsCar" {
			create("Driver", c)
		} else {
			create("Passenger", c)
		}
	}
	create("Passenger", models.InvalidEntityID)
	return ids
}

func TestSearchByNamesAndPaths(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "Empty")
	ids := buildCity(t, f)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"path with glob", Filter{Names: []string{"City|Street|*Car|Passenger"}}, 5},
		{"single name", Filter{Names: []string{"Passenger"}}, 6},
		{"question mark", Filter{Names: []string{"C?r"}}, 2},
		{"case insensitive default", Filter{Names: []string{"city|street"}}, 1},
		{"case sensitive", Filter{Names: []string{"city|street"}, NamesCaseSensitive: true}, 0},
		{"any of several", Filter{Names: []string{"Driver", "SportsCar"}}, 2},
		{"tail match", Filter{Names: []string{"Street|Car"}}, 2},
		{"root based needs the root", Filter{Names: []string{"Street|Car"}, NamesAreRootBased: true}, 0},
		{"root based full path", Filter{Names: []string{"City|*|*"}, NamesAreRootBased: true}, 3},
		{"everything", Filter{}, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.registry.Search(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	t.Run("roots restrict the walk", func(t *testing.T) {
		got, err := f.registry.Search(ctx, Filter{Names: []string{"Passenger"}, Roots: ids["SportsCar"]})
		require.NoError(t, err)
		assert.Len(t, got, 1)

		got, err = f.registry.Search(ctx, Filter{Names: []string{"SportsCar|*"}, Roots: ids["SportsCar"], NamesAreRootBased: true})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Contains(t, got, ids["Driver"][0])
	})
}

func TestSearchByComponentsAndBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "Basic")
	body := f.typeID(t, "Rigid Body")
	mesh := f.typeID(t, "Mesh")
	comment := f.typeID(t, "Comment")

	names := func(ids []models.EntityID) []string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			n, err := f.registry.Entity(id).Name(ctx)
			require.NoError(t, err)
			out = append(out, n)
		}
		return out
	}

	got, err := f.registry.Search(ctx, Filter{Components: map[models.TypeID]map[string]any{body: {}}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Ball", "Crate"}, names(got))

	got, err = f.registry.Search(ctx, Filter{Components: map[models.TypeID]map[string]any{
		body: {"Configuration|Gravity Enabled": false},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Crate"}, names(got))

	either := map[models.TypeID]map[string]any{mesh: {}, comment: {}}
	got, err = f.registry.Search(ctx, Filter{Components: either})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Crate", "Lamp"}, names(got))

	got, err = f.registry.Search(ctx, Filter{Components: either, ComponentsMatchAll: true})
	require.NoError(t, err)
	assert.Empty(t, got)

	box := models.AABB{Min: models.Vec3(-1, -1, -1), Max: models.Vec3(1, 1, 4)}
	got, err = f.registry.Search(ctx, Filter{AABB: &box})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Ground", "Ball"}, names(got))
}

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		pattern, name string
		want          bool
	}{
		{"*", "", true},
		{"*", "anything", true},
		{"*Car", "Car", true},
		{"*Car", "SportsCar", true},
		{"*Car", "Cart", false},
		{"C?r", "Car", true},
		{"C?r", "Cr", false},
		{"a*b*c", "aXXbYYc", true},
		{"a*b*c", "aXXbYY", false},
		{"[x]", "[x]", true},
		{`a\*`, `a\bc`, true},
		{`a\b`, "ab", false},
		{"", "", true},
		{"", "a", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchGlob(tt.pattern, tt.name), "%q vs %q", tt.pattern, tt.name)
	}
}
