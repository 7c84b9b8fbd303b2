package fields

import "fmt"

// Node is one node of a property tree. Containers have Children; leaves carry
// a Value of their Kind.
type Node struct {
	Name       string
	Kind       Kind
	Visibility Visibility
	ReadOnly   bool
	Value      any
	Options    []string
	Children   []*Node

	// ShowIf, when set, hides the node from the visible view while it
	// returns false. It is evaluated against the owning tree.
	ShowIf func(t *Tree) bool
}

// Container builds a container node.
func Container(name string, children ...*Node) *Node {
	return &Node{Name: name, Kind: KindContainer, Children: children}
}

// Leaf builds a leaf node.
func Leaf(name string, kind Kind, value any) *Node {
	return &Node{Name: name, Kind: kind, Value: value}
}

// Enum builds an enum leaf whose value is one of options.
func Enum(name string, value string, options ...string) *Node {
	return &Node{Name: name, Kind: KindEnum, Value: value, Options: options}
}

// WithVisibility sets the static visibility and returns n.
func (n *Node) WithVisibility(v Visibility) *Node {
	n.Visibility = v
	return n
}

// WithShowIf sets the dynamic visibility predicate and returns n.
func (n *Node) WithShowIf(fn func(t *Tree) bool) *Node {
	n.ShowIf = fn
	return n
}

// IsLeaf reports whether n holds a value.
func (n *Node) IsLeaf() bool { return n.Kind != KindContainer }

func (n *Node) child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Tree is a component's property tree. The root is an unnamed container.
type Tree struct {
	Root *Node
}

// NewTree wraps top-level nodes.
func NewTree(nodes ...*Node) *Tree {
	return &Tree{Root: Container("", nodes...)}
}

func (t *Tree) shown(n *Node) bool {
	if n.Visibility == Hidden {
		return false
	}
	if n.ShowIf != nil && !n.ShowIf(t) {
		return false
	}
	return true
}

// Find resolves a path. With enforce set, the walk follows the visible view:
// hidden nodes do not exist and ChildrenOnly nodes are transparent. A path
// with a missing segment fails as a whole.
func (t *Tree) Find(p Path, enforce bool) (*Node, error) {
	if len(p) == 0 {
		return nil, ErrEmptyPath
	}
	if !enforce {
		n := t.Root
		for _, seg := range p {
			if n = n.child(seg); n == nil {
				return nil, fmt.Errorf("%w: %q", ErrPathNotFound, p.String())
			}
		}
		return n, nil
	}
	n := t.findVisible(t.Root, p)
	if n == nil {
		return nil, fmt.Errorf("%w: %q", ErrPathNotFound, p.String())
	}
	return n, nil
}

func (t *Tree) findVisible(parent *Node, p Path) *Node {
	for _, c := range t.visibleChildren(parent) {
		if c.Name != p[0] {
			continue
		}
		if len(p) == 1 {
			return c
		}
		if found := t.findVisible(c, p[1:]); found != nil {
			return found
		}
	}
	return nil
}

// visibleChildren flattens ChildrenOnly nodes and drops hidden ones.
func (t *Tree) visibleChildren(n *Node) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if !t.shown(c) {
			continue
		}
		if c.Visibility == ChildrenOnly && !c.IsLeaf() {
			out = append(out, t.visibleChildren(c)...)
			continue
		}
		out = append(out, c)
	}
	return out
}

// Lookup returns the leaf value at a raw path, for use inside ShowIf.
func (t *Tree) Lookup(path string) any {
	p, err := ParsePath(path)
	if err != nil {
		return nil
	}
	n, err := t.Find(p, false)
	if err != nil || !n.IsLeaf() {
		return nil
	}
	return n.Value
}

// Get reads a leaf value.
func (t *Tree) Get(path string, enforce bool) (any, Kind, error) {
	n, err := t.leaf(path, enforce)
	if err != nil {
		return nil, KindContainer, err
	}
	return n.Value, n.Kind, nil
}

// Set coerces value to the leaf's kind and stores it.
func (t *Tree) Set(path string, value any, enforce bool) error {
	n, err := t.leaf(path, enforce)
	if err != nil {
		return err
	}
	if n.ReadOnly {
		return fmt.Errorf("%w: %q", ErrReadOnly, path)
	}
	v, err := Coerce(n.Kind, value, n.Options)
	if err != nil {
		return fmt.Errorf("%q: %w", path, err)
	}
	n.Value = v
	return nil
}

// Compare reports equality of the stored value and value under the engine comparator.
func (t *Tree) Compare(path string, value any, enforce bool) (bool, error) {
	n, err := t.leaf(path, enforce)
	if err != nil {
		return false, err
	}
	v, err := Coerce(n.Kind, value, n.Options)
	if err != nil {
		return false, nil
	}
	return Equal(n.Kind, n.Value, v), nil
}

func (t *Tree) leaf(path string, enforce bool) (*Node, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	n, err := t.Find(p, enforce)
	if err != nil {
		return nil, err
	}
	if !n.IsLeaf() {
		return nil, fmt.Errorf("%w: %q", ErrNotLeaf, path)
	}
	return n, nil
}

// Snapshot lists every leaf with its raw and visible paths, depth first.
func (t *Tree) Snapshot() []Entry {
	var out []Entry
	var walk func(n *Node, raw, vis Path, visible bool)
	walk = func(n *Node, raw, vis Path, visible bool) {
		for _, c := range n.Children {
			shown := visible && t.shown(c)
			cRaw := raw.Child(c.Name)
			cVis := vis
			if !(c.Visibility == ChildrenOnly && !c.IsLeaf()) {
				cVis = vis.Child(c.Name)
			}
			if c.IsLeaf() {
				e := Entry{Path: cRaw.String(), Kind: c.Kind, Value: c.Value, Options: c.Options}
				if shown {
					e.VisiblePath = cVis.String()
				}
				out = append(out, e)
				continue
			}
			walk(c, cRaw, cVis, shown)
		}
	}
	walk(t.Root, nil, nil, true)
	return out
}

// Clone deep-copies the tree. ShowIf closures are shared; they only read the
// tree they are handed.
func (t *Tree) Clone() *Tree {
	return &Tree{Root: cloneNode(t.Root)}
}

func cloneNode(n *Node) *Node {
	c := *n
	if n.Options != nil {
		c.Options = append([]string(nil), n.Options...)
	}
	c.Children = make([]*Node, len(n.Children))
	for i, ch := range n.Children {
		c.Children[i] = cloneNode(ch)
	}
	return &c
}
