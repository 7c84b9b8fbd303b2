package fields

import "fmt"

// Kind is the semantic type of a leaf value.
type Kind uint8

const (
	KindContainer Kind = iota
	KindBool
	KindFloat
	KindInt
	KindString
	KindVector3
	KindColor
	KindAsset
	KindEnum
	KindEntity
)

var kindNames = [...]string{
	KindContainer: "Container",
	KindBool:      "bool",
	KindFloat:     "float",
	KindInt:       "int",
	KindString:    "AZStd::string",
	KindVector3:   "Vector3",
	KindColor:     "Color",
	KindAsset:     "AssetId",
	KindEnum:      "Enum",
	KindEntity:    "EntityId",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Visibility mirrors the editor's property visibility rules.
type Visibility uint8

const (
	// Visible nodes appear in both path views.
	Visible Visibility = iota
	// ChildrenOnly nodes are elided from visible paths; their children are
	// promoted to the parent.
	ChildrenOnly
	// Hidden nodes and their subtrees are absent from the visible view.
	Hidden
)

// Entry is one leaf of a tree snapshot. VisiblePath is empty when the leaf is
// unreachable under visible-enforcement.
type Entry struct {
	Path        string
	VisiblePath string
	Kind        Kind
	Value       any
	Options     []string
}
