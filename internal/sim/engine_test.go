package sim

import (
	"context"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/editorharness/internal/core/fields"
	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/host"
)

const dropLevel = `
name: Drop
entities:
  - name: Ground
    translation: [0, 0, -0.5]
    components:
      - type: Collider
        properties:
          "Shape Configuration|Box|Dimensions": [20, 20, 1]
          "Collider Configuration|Physics Material|Restitution": 0
  - name: Ball
    translation: [0, 0, 5]
    components:
      - type: Rigid Body
      - type: Collider
        properties:
          "Shape Configuration|Shape": Sphere
          "Shape Configuration|Sphere|Radius": 0.5
          "Collider Configuration|Physics Material|Restitution": 0
  - name: Floating
    translation: [5, 0, 5]
    components:
      - type: Rigid Body
        properties:
          "Configuration|Gravity Enabled": false
      - type: Collider
        properties:
          "Shape Configuration|Shape": Sphere
  - name: Marker
    parent: Ball
    translation: [0, 0, 1]
    components:
      - type: Mesh
        properties:
          "Controller|Configuration|Mesh Asset": objects/Sphere.azmodel
`

const regionLevel = `
name: Region
entities:
  - name: Region
    components:
      - type: Collider
        properties:
          "Collider Configuration|Trigger": true
          "Shape Configuration|Box|Dimensions": [10, 10, 1]
      - type: Force Region
        properties:
          "Forces|World Space|Magnitude": 1000
  - name: Ball
    translation: [0, 0, 1]
    components:
      - type: Rigid Body
      - type: Collider
        properties:
          "Shape Configuration|Shape": Sphere
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"Levels/Physics/Drop.yaml":   {Data: []byte(dropLevel)},
		"Levels/Physics/Region.yaml": {Data: []byte(regionLevel)},
		AssetCatalogFile:             {Data: []byte("- objects/sphere.azmodel\n- objects/cube.azmodel\n")},
	}
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(testFS(), DefaultConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func call(t *testing.T, e *Engine, bus, method string, args ...any) any {
	t.Helper()
	v, err := e.Invoke(context.Background(), host.Call{Bus: bus, Method: method, Args: args, Broadcast: true})
	require.NoError(t, err)
	return v
}

func callAt(t *testing.T, e *Engine, bus string, id models.EntityID, method string, args ...any) any {
	t.Helper()
	v, err := e.Invoke(context.Background(), host.Call{Bus: bus, Method: method, Address: id, Args: args})
	require.NoError(t, err)
	return v
}

func tick(t *testing.T, e *Engine, frames int) {
	t.Helper()
	for i := 0; i < frames; i++ {
		require.NoError(t, e.Tick(context.Background()))
	}
}

func load(t *testing.T, e *Engine, name string) {
	t.Helper()
	require.True(t, call(t, e, host.EditorRequestBus, host.OpenLevelNoPrompt, "Physics", name).(bool))
	assert.False(t, call(t, e, host.EditorRequestBus, host.IsLevelLoaded).(bool))
	tick(t, e, DefaultConfig().LevelLoadFrames)
	require.True(t, call(t, e, host.EditorRequestBus, host.IsLevelLoaded).(bool))
}

func enterGame(t *testing.T, e *Engine) {
	t.Helper()
	call(t, e, host.EditorRequestBus, host.EnterGameMode)
	tick(t, e, 1)
	require.True(t, call(t, e, host.EditorRequestBus, host.IsInGameMode).(bool))
}

func find(t *testing.T, e *Engine, name string, kind models.EntityType) models.EntityID {
	t.Helper()
	ids := call(t, e, host.ComponentApplicationBus, host.FindEntitiesByName, name, int(kind)).([]models.EntityID)
	require.Len(t, ids, 1, "entity %q", name)
	return ids[0]
}

func TestUnknownBusAndMethodAreErrors(t *testing.T) {
	e := newEngine(t)
	_, err := e.Invoke(context.Background(), host.Call{Bus: "NoSuchBus", Method: "X", Broadcast: true})
	assert.ErrorIs(t, err, host.ErrBusNotFound)
	_, err = e.Invoke(context.Background(), host.Call{Bus: host.EditorRequestBus, Method: "X", Broadcast: true})
	assert.ErrorIs(t, err, host.ErrMethodNotFound)
	_, err = e.Connect("NoSuchBus", nil, func(host.Notification) {})
	assert.ErrorIs(t, err, host.ErrBusNotFound)
	_, err = e.Invoke(context.Background(), host.Call{Bus: host.TransformBus, Method: host.GetWorldTranslation, Address: models.EntityID(999)})
	assert.ErrorIs(t, err, host.ErrNotAddressable)
}

func TestMissingLevelIsReportedOnTraceBus(t *testing.T) {
	e := newEngine(t)
	var errs []string
	_, err := e.Connect(host.TraceMessageBus, nil, func(n host.Notification) {
		if n.Callback == host.OnPreError {
			errs = append(errs, n.Args[1].(string))
		}
	})
	require.NoError(t, err)
	assert.False(t, call(t, e, host.EditorRequestBus, host.OpenLevelNoPrompt, "Physics", "Nope").(bool))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Levels/Physics/Nope.yaml")
}

func TestLevelLoadBuildsEditorScene(t *testing.T) {
	e := newEngine(t)
	var created []models.EntityID
	_, err := e.Connect(host.EditorEntityContextNotificationBus, nil, func(n host.Notification) {
		if n.Callback == host.OnEditorEntityCreated {
			created = append(created, n.Args[0].(models.EntityID))
		}
	})
	require.NoError(t, err)
	load(t, e, "Drop")
	assert.Len(t, created, 4)
	assert.Equal(t, "Drop", call(t, e, host.EditorRequestBus, host.GetCurrentLevelName))

	ball := find(t, e, "Ball", models.EntityTypeEditor)
	marker := find(t, e, "Marker", models.EntityTypeEditor)
	assert.Equal(t, []models.EntityID{marker}, callAt(t, e, host.EditorEntityInfoRequestBus, ball, host.GetChildren))
	assert.Equal(t, models.Vec3(0, 0, 6), callAt(t, e, host.TransformBus, marker, host.GetWorldTranslation))
	roots := call(t, e, host.EditorEntityContextRequestBus, host.GetRootEditorEntities).([]models.EntityID)
	assert.Len(t, roots, 3)
}

func TestGameModeClonesEntities(t *testing.T) {
	e := newEngine(t)
	load(t, e, "Drop")
	editorBall := find(t, e, "Ball", models.EntityTypeEditor)

	var activated int
	_, err := e.Connect(host.EntityBus, nil, func(n host.Notification) {
		if n.Callback == host.OnEntityActivated {
			activated++
		}
	})
	require.NoError(t, err)
	enterGame(t, e)
	assert.Equal(t, 4, activated)

	gameBall := find(t, e, "Ball", models.EntityTypeGame)
	assert.NotEqual(t, editorBall, gameBall)
	assert.True(t, call(t, e, host.ComponentApplicationBus, host.IsEntityActive, gameBall).(bool))

	tick(t, e, 10)
	assert.Less(t, callAt(t, e, host.TransformBus, gameBall, host.GetWorldTranslation).(models.Vector3).Z(), 5.0)
	// The editor scene is untouched by the simulation.
	assert.Equal(t, models.Vec3(0, 0, 5), callAt(t, e, host.TransformBus, editorBall, host.GetWorldTranslation))

	call(t, e, host.EditorRequestBus, host.ExitGameMode)
	tick(t, e, 1)
	assert.False(t, call(t, e, host.EditorRequestBus, host.IsInGameMode).(bool))
	_, err = e.Invoke(context.Background(), host.Call{Bus: host.TransformBus, Method: host.GetWorldTranslation, Address: gameBall})
	assert.ErrorIs(t, err, host.ErrNotAddressable)
}

func TestBallComesToRestOnGround(t *testing.T) {
	e := newEngine(t)
	load(t, e, "Drop")
	enterGame(t, e)
	ball := find(t, e, "Ball", models.EntityTypeGame)
	ground := find(t, e, "Ground", models.EntityTypeGame)

	var seq []string
	_, err := e.Connect(host.CollisionNotificationBus, ball, func(n host.Notification) {
		if n.Args[0] == ground {
			seq = append(seq, n.Callback)
		}
	})
	require.NoError(t, err)

	tick(t, e, 240)
	pos := callAt(t, e, host.TransformBus, ball, host.GetWorldTranslation).(models.Vector3)
	assert.InDelta(t, 0.5, pos.Z(), 0.05)
	assert.False(t, callAt(t, e, host.RigidBodyRequestBus, ball, host.IsAwake).(bool))
	require.NotEmpty(t, seq)
	assert.Equal(t, host.OnCollisionBegin, seq[0])
	assert.NotContains(t, seq, host.OnCollisionEnd)
}

func TestGravityDisabledBodyStaysPutUntilWoken(t *testing.T) {
	e := newEngine(t)
	load(t, e, "Drop")
	enterGame(t, e)
	id := find(t, e, "Floating", models.EntityTypeGame)

	tick(t, e, 60)
	pos := callAt(t, e, host.TransformBus, id, host.GetWorldTranslation).(models.Vector3)
	assert.True(t, models.VectorsClose(models.Vec3(5, 0, 5), pos, 1e-9))
	assert.False(t, callAt(t, e, host.RigidBodyRequestBus, id, host.IsAwake).(bool))

	callAt(t, e, host.RigidBodyRequestBus, id, host.SetGravityEnabled, true)
	tick(t, e, 5)
	assert.Equal(t, 5.0, callAt(t, e, host.TransformBus, id, host.GetWorldTranslation).(models.Vector3).Z(), "sleeping bodies ignore gravity")

	callAt(t, e, host.RigidBodyRequestBus, id, host.ForceAwake)
	tick(t, e, 5)
	assert.Less(t, callAt(t, e, host.TransformBus, id, host.GetWorldTranslation).(models.Vector3).Z(), 5.0)
}

func TestImpulseScalesWithMass(t *testing.T) {
	e := newEngine(t)
	load(t, e, "Drop")
	enterGame(t, e)
	id := find(t, e, "Floating", models.EntityTypeGame)
	callAt(t, e, host.RigidBodyRequestBus, id, host.ApplyLinearImpulse, models.Vec3(2, 0, 0))
	assert.Equal(t, models.Vec3(2, 0, 0), callAt(t, e, host.RigidBodyRequestBus, id, host.GetLinearVelocity))
}

func TestForceRegionFiresOncePerSubStepInside(t *testing.T) {
	e := newEngine(t)
	load(t, e, "Region")
	enterGame(t, e)
	region := find(t, e, "Region", models.EntityTypeGame)
	ball := find(t, e, "Ball", models.EntityTypeGame)

	var calls []host.Notification
	_, err := e.Connect(host.ForceRegionNotificationBus, region, func(n host.Notification) { calls = append(calls, n) })
	require.NoError(t, err)

	for i := 0; i < 120 && len(calls) == 0; i++ {
		tick(t, e, 1)
	}
	require.Len(t, calls, 1)
	n := calls[0]
	assert.Equal(t, region, n.Args[0])
	assert.Equal(t, ball, n.Args[1])
	assert.InDelta(t, 1000, n.Args[3].(float64), 1)
	force := n.Args[2].(models.Vector3)
	assert.Greater(t, force.Z(), 0.0)
	assert.Greater(t, callAt(t, e, host.RigidBodyRequestBus, ball, host.GetLinearVelocity).(models.Vector3).Z(), 0.0)
}

func TestComponentAPI(t *testing.T) {
	e := newEngine(t)
	load(t, e, "Drop")
	ent := call(t, e, host.ToolsApplicationRequestBus, host.CreateNewEntity, models.InvalidEntityID).(models.EntityID)
	require.True(t, ent.IsValid())

	ids := call(t, e, host.EditorComponentAPIBus, host.FindComponentTypeIdsByEntityType,
		[]string{TypeCollider, "Nonexistent", TypeComment}, int(models.EntityTypeEditor)).([]models.TypeID)
	require.Len(t, ids, 2)
	gameIDs := call(t, e, host.EditorComponentAPIBus, host.FindComponentTypeIdsByEntityType,
		[]string{TypeComment}, int(models.EntityTypeGame)).([]models.TypeID)
	assert.Empty(t, gameIDs)

	out := call(t, e, host.EditorComponentAPIBus, host.AddComponentsOfType, ent, ids[:1]).(models.AnyOutcome)
	require.True(t, out.IsSuccess())
	comps := models.Cast[[]models.ComponentID](out).Value()
	require.Len(t, comps, 1)
	collider := comps[0]

	set := call(t, e, host.EditorComponentAPIBus, host.SetComponentProperty, collider, "Shape Configuration|Shape", "Sphere").(models.AnyOutcome)
	assert.True(t, set.IsSuccess())
	get := call(t, e, host.EditorComponentAPIBus, host.GetComponentProperty, collider, "Shape Configuration|Shape").(models.AnyOutcome)
	assert.Equal(t, "Sphere", get.Value())
	assert.True(t, call(t, e, host.EditorComponentAPIBus, host.CompareComponentProperty, collider, "Shape Configuration|Shape", "Sphere").(bool))

	missing := call(t, e, host.EditorComponentAPIBus, host.GetComponentProperty, collider, "Shape Configuration|Nope").(models.AnyOutcome)
	assert.False(t, missing.IsSuccess())

	tree := call(t, e, host.EditorComponentAPIBus, host.BuildComponentPropertyTreeEditor, collider).(models.AnyOutcome)
	entries := models.Cast[[]fields.Entry](tree).Value()
	assert.NotEmpty(t, entries)

	rb := models.TypeIDFromName(TypeRigidBody)
	first := call(t, e, host.EditorComponentAPIBus, host.AddComponentsOfType, ent, []models.TypeID{rb, rb}).(models.AnyOutcome)
	require.True(t, first.IsSuccess())
	assert.Empty(t, models.Cast[[]models.ComponentID](first).Value(), "a second Rigid Body cannot be hosted")

	assert.True(t, call(t, e, host.EditorComponentAPIBus, host.RemoveComponents, []models.ComponentID{collider}).(bool))
	assert.False(t, call(t, e, host.EditorComponentAPIBus, host.HasComponentOfType, ent, ids[0]).(bool))
	assert.False(t, call(t, e, host.EditorComponentAPIBus, host.RemoveComponents, []models.ComponentID{collider}).(bool))
	assert.Equal(t, fmt.Sprintf("Entity%d", uint64(ent)), callAt(t, e, host.EditorEntityInfoRequestBus, ent, host.GetName))
}

func TestAssetCatalog(t *testing.T) {
	e := newEngine(t)
	id := call(t, e, host.AssetCatalogRequestBus, host.GetAssetIDByPath, `Objects\Sphere.azmodel`, "", false).(models.AssetID)
	require.True(t, id.IsValid())
	assert.Equal(t, "objects/sphere.azmodel", call(t, e, host.AssetCatalogRequestBus, host.GetAssetPathByID, id))

	unknown := call(t, e, host.AssetCatalogRequestBus, host.GetAssetIDByPath, "objects/none.azmodel", "", false).(models.AssetID)
	assert.False(t, unknown.IsValid())
	registered := call(t, e, host.AssetCatalogRequestBus, host.GetAssetIDByPath, "objects/none.azmodel", "", true).(models.AssetID)
	assert.True(t, registered.IsValid())

	load(t, e, "Drop")
	marker := find(t, e, "Marker", models.EntityTypeEditor)
	mesh := call(t, e, host.EditorComponentAPIBus, host.GetComponentOfType, marker, models.TypeIDFromName(TypeMesh)).(models.AnyOutcome)
	require.True(t, mesh.IsSuccess())
	v := call(t, e, host.EditorComponentAPIBus, host.GetComponentProperty, mesh.Value(), pathMesh).(models.AnyOutcome)
	assert.Equal(t, id, v.Value())
}

func TestDeleteWithDescendants(t *testing.T) {
	e := newEngine(t)
	load(t, e, "Drop")
	ball := find(t, e, "Ball", models.EntityTypeEditor)
	var deleted []models.EntityID
	_, err := e.Connect(host.EditorEntityContextNotificationBus, nil, func(n host.Notification) {
		if n.Callback == host.OnEditorEntityDeleted {
			deleted = append(deleted, n.Args[0].(models.EntityID))
		}
	})
	require.NoError(t, err)
	call(t, e, host.ToolsApplicationRequestBus, host.DeleteEntityAndAllDescendants, ball)
	assert.Len(t, deleted, 2)
	assert.Equal(t, ball, deleted[1], "children go first")
	ids := call(t, e, host.ComponentApplicationBus, host.FindEntitiesByName, "Marker", int(models.EntityTypeEditor)).([]models.EntityID)
	assert.Empty(t, ids)
}

func TestClosedEngineRejectsCalls(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.Close())
	_, err := e.Invoke(context.Background(), host.Call{Bus: host.EditorRequestBus, Method: host.IsInGameMode, Broadcast: true})
	assert.ErrorIs(t, err, host.ErrHostClosed)
	assert.ErrorIs(t, e.Tick(context.Background()), host.ErrHostClosed)
}
