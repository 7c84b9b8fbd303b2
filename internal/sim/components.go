package sim

import (
	"github.com/zeusync/editorharness/internal/core/fields"
	"github.com/zeusync/editorharness/internal/core/models"
)

// Component type names understood by the simulated editor.
const (
	TypeTransform   = "Transform"
	TypeRigidBody   = "Rigid Body"
	TypeCollider    = "Collider"
	TypeForceRegion = "Force Region"
	TypeBallJoint   = "Ball Joint"
	TypeMesh        = "Mesh"
	TypeComment     = "Comment"
)

// Property paths read by the physics step.
const (
	pathTranslate = "Values|Translate"
	pathScale     = "Values|Uniform Scale"

	pathGravity  = "Configuration|Gravity Enabled"
	pathMass     = "Configuration|Mass Configuration|Mass"
	pathDamping  = "Configuration|Linear Damping"
	pathInitVel  = "Configuration|Initial Linear Velocity"
	pathAsleep   = "Configuration|Start Asleep"
	pathKinemat  = "Configuration|Kinematic"
	pathTrigger  = "Collider Configuration|Trigger"
	pathFriction = "Collider Configuration|Physics Material|Dynamic Friction"
	pathRestit   = "Collider Configuration|Physics Material|Restitution"
	pathShape    = "Shape Configuration|Shape"
	pathBoxDims  = "Shape Configuration|Box|Dimensions"
	pathRadius   = "Shape Configuration|Sphere|Radius"
	pathRegDir   = "Forces|World Space|Direction"
	pathRegMag   = "Forces|World Space|Magnitude"
	pathLead     = "Lead Entity"
	pathMaxDist  = "Max Distance"
	pathMesh     = "Controller|Configuration|Mesh Asset"
)

type componentType struct {
	name     string
	id       models.TypeID
	multiple bool
	// editorOnly types cannot be looked up for game entities.
	editorOnly bool
	newTree    func() *fields.Tree
}

type typeRegistry struct {
	byName map[string]*componentType
	byID   map[models.TypeID]*componentType
}

func newTypeRegistry() *typeRegistry {
	r := &typeRegistry{
		byName: make(map[string]*componentType),
		byID:   make(map[models.TypeID]*componentType),
	}
	for _, t := range builtinTypes() {
		t.id = models.TypeIDFromName(t.name)
		r.byName[t.name] = t
		r.byID[t.id] = t
	}
	return r
}

func (r *typeRegistry) lookup(name string, et models.EntityType) (*componentType, bool) {
	t, ok := r.byName[name]
	if !ok || (t.editorOnly && et == models.EntityTypeGame) {
		return nil, false
	}
	return t, true
}

func builtinTypes() []*componentType {
	shapeIs := func(shape string) func(*fields.Tree) bool {
		return func(t *fields.Tree) bool { return t.Lookup(pathShape) == shape }
	}
	return []*componentType{
		{name: TypeTransform, newTree: func() *fields.Tree {
			return fields.NewTree(fields.Container("Values",
				fields.Leaf("Translate", fields.KindVector3, models.Vec3(0, 0, 0)),
				fields.Leaf("Rotate", fields.KindVector3, models.Vec3(0, 0, 0)),
				fields.Leaf("Uniform Scale", fields.KindFloat, 1.0),
			))
		}},
		{name: TypeRigidBody, newTree: func() *fields.Tree {
			return fields.NewTree(fields.Container("Configuration",
				fields.Leaf("Gravity Enabled", fields.KindBool, true),
				fields.Leaf("Kinematic", fields.KindBool, false),
				fields.Leaf("Start Asleep", fields.KindBool, false),
				fields.Leaf("Linear Damping", fields.KindFloat, 0.05),
				fields.Leaf("Initial Linear Velocity", fields.KindVector3, models.Vec3(0, 0, 0)),
				fields.Container("Mass Configuration",
					fields.Leaf("Mass", fields.KindFloat, 1.0),
				).WithVisibility(fields.ChildrenOnly),
			))
		}},
		{name: TypeCollider, newTree: func() *fields.Tree {
			return fields.NewTree(
				fields.Container("Collider Configuration",
					fields.Leaf("Trigger", fields.KindBool, false),
					fields.Leaf("Tag", fields.KindString, "").WithVisibility(fields.Hidden),
					fields.Container("Physics Material",
						fields.Leaf("Dynamic Friction", fields.KindFloat, 0.5),
						fields.Leaf("Restitution", fields.KindFloat, 0.5),
					),
				).WithVisibility(fields.ChildrenOnly),
				fields.Container("Shape Configuration",
					fields.Enum("Shape", "Box", "Box", "Sphere"),
					fields.Container("Box",
						fields.Leaf("Dimensions", fields.KindVector3, models.Vec3(1, 1, 1)),
					).WithShowIf(shapeIs("Box")),
					fields.Container("Sphere",
						fields.Leaf("Radius", fields.KindFloat, 0.5),
					).WithShowIf(shapeIs("Sphere")),
				),
			)
		}, multiple: true},
		{name: TypeForceRegion, newTree: func() *fields.Tree {
			return fields.NewTree(fields.Container("Forces",
				fields.Container("World Space",
					fields.Leaf("Direction", fields.KindVector3, models.Vec3(0, 0, 1)),
					fields.Leaf("Magnitude", fields.KindFloat, 10.0),
				),
			))
		}},
		{name: TypeBallJoint, newTree: func() *fields.Tree {
			return fields.NewTree(
				fields.Leaf("Lead Entity", fields.KindEntity, models.InvalidEntityID),
				fields.Leaf("Max Distance", fields.KindFloat, 0.0),
			)
		}},
		{name: TypeMesh, newTree: func() *fields.Tree {
			return fields.NewTree(fields.Container("Controller",
				fields.Container("Configuration",
					fields.Leaf("Mesh Asset", fields.KindAsset, models.AssetID{}),
					fields.Leaf("Tint", fields.KindColor, models.Color{R: 1, G: 1, B: 1, A: 1}),
				),
			).WithVisibility(fields.ChildrenOnly))
		}},
		{name: TypeComment, editorOnly: true, multiple: true, newTree: func() *fields.Tree {
			return fields.NewTree(fields.Leaf("Comment", fields.KindString, ""))
		}},
	}
}

type component struct {
	id   models.ComponentID
	typ  *componentType
	tree *fields.Tree
}

func (c *component) float(path string) float64 {
	v, _ := c.tree.Lookup(path).(float64)
	return v
}

func (c *component) bool(path string) bool {
	v, _ := c.tree.Lookup(path).(bool)
	return v
}

func (c *component) vec3(path string) models.Vector3 {
	v, _ := c.tree.Lookup(path).(models.Vector3)
	return v
}

func (c *component) entity(path string) models.EntityID {
	v, _ := c.tree.Lookup(path).(models.EntityID)
	return v
}

func (c *component) string(path string) string {
	v, _ := c.tree.Lookup(path).(string)
	return v
}
