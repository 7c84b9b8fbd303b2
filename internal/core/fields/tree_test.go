package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/editorharness/internal/core/models"
)

func colliderTree() *Tree {
	isBox := func(t *Tree) bool { return t.Lookup("Shape Configuration|Shape") == "Box" }
	isSphere := func(t *Tree) bool { return t.Lookup("Shape Configuration|Shape") == "Sphere" }
	return NewTree(
		Container("Collider Configuration",
			Leaf("Trigger", KindBool, false),
			Leaf("Tag", KindString, "").WithVisibility(Hidden),
		).WithVisibility(ChildrenOnly),
		Container("Shape Configuration",
			Enum("Shape", "Box", "Box", "Sphere"),
			Container("Box", Leaf("Dimensions", KindVector3, models.Vec3(1, 1, 1))).WithShowIf(isBox),
			Container("Sphere", Leaf("Radius", KindFloat, 0.5)).WithShowIf(isSphere),
		),
	)
}

func TestParsePath(t *testing.T) {
	p, err := ParsePath("Shape Configuration|Box|Dimensions")
	require.NoError(t, err)
	assert.Equal(t, Path{"Shape Configuration", "Box", "Dimensions"}, p)
	assert.Equal(t, "Shape Configuration|Box|Dimensions", p.String())

	_, err = ParsePath("")
	assert.ErrorIs(t, err, ErrEmptyPath)
	_, err = ParsePath("A||B")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestGetSetCompareRoundTrip(t *testing.T) {
	tree := colliderTree()

	require.NoError(t, tree.Set("Shape Configuration|Box|Dimensions", []any{2.0, 3, 4.5}, false))
	v, kind, err := tree.Get("Shape Configuration|Box|Dimensions", false)
	require.NoError(t, err)
	assert.Equal(t, KindVector3, kind)
	assert.Equal(t, models.Vec3(2, 3, 4.5), v)

	eq, err := tree.Compare("Shape Configuration|Box|Dimensions", models.Vec3(2, 3, 4.5+1e-8), false)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestMissingSegmentFailsWholePath(t *testing.T) {
	tree := colliderTree()
	_, _, err := tree.Get("Shape Configuration|Cylinder|Height", false)
	assert.ErrorIs(t, err, ErrPathNotFound)

	_, _, err = tree.Get("Shape Configuration", false)
	assert.ErrorIs(t, err, ErrNotLeaf)
}

func TestVisibleEnforcementElidesChildrenOnlyNodes(t *testing.T) {
	tree := colliderTree()

	_, _, err := tree.Get("Trigger", true)
	require.NoError(t, err)
	_, _, err = tree.Get("Trigger", false)
	assert.ErrorIs(t, err, ErrPathNotFound)

	// the raw path still reaches the leaf
	_, _, err = tree.Get("Collider Configuration|Trigger", false)
	require.NoError(t, err)
	_, _, err = tree.Get("Collider Configuration|Trigger", true)
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestHiddenLeavesReadableOnlyWithoutEnforcement(t *testing.T) {
	tree := colliderTree()
	_, _, err := tree.Get("Collider Configuration|Tag", false)
	require.NoError(t, err)
	_, _, err = tree.Get("Tag", true)
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestDynamicVisibilityFollowsShape(t *testing.T) {
	tree := colliderTree()
	_, _, err := tree.Get("Shape Configuration|Sphere|Radius", true)
	assert.ErrorIs(t, err, ErrPathNotFound)

	require.NoError(t, tree.Set("Shape Configuration|Shape", "Sphere", false))
	_, _, err = tree.Get("Shape Configuration|Sphere|Radius", true)
	require.NoError(t, err)
	_, _, err = tree.Get("Shape Configuration|Box|Dimensions", true)
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestSnapshotCarriesBothViews(t *testing.T) {
	entries := colliderTree().Snapshot()
	byPath := map[string]Entry{}
	for _, e := range entries {
		byPath[e.Path] = e
	}

	assert.Equal(t, "Trigger", byPath["Collider Configuration|Trigger"].VisiblePath)
	assert.Empty(t, byPath["Collider Configuration|Tag"].VisiblePath)
	assert.Equal(t, "Shape Configuration|Box|Dimensions", byPath["Shape Configuration|Box|Dimensions"].VisiblePath)
	assert.Empty(t, byPath["Shape Configuration|Sphere|Radius"].VisiblePath)
	assert.Len(t, entries, 5)
}

func TestCoerceRejectsMismatches(t *testing.T) {
	_, err := Coerce(KindBool, 1.0, nil)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = Coerce(KindEnum, "Capsule", []string{"Box", "Sphere"})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	v, err := Coerce(KindEnum, 1, []string{"Box", "Sphere"})
	require.NoError(t, err)
	assert.Equal(t, "Sphere", v)

	none, err := Coerce(KindAsset, nil, nil)
	require.NoError(t, err)
	assert.False(t, none.(models.AssetID).IsValid())
}

func TestCloneIsIndependent(t *testing.T) {
	tree := colliderTree()
	clone := tree.Clone()
	require.NoError(t, clone.Set("Collider Configuration|Trigger", true, false))

	v, _, err := tree.Get("Collider Configuration|Trigger", false)
	require.NoError(t, err)
	assert.Equal(t, false, v)
}
