package quarkgl

import "github.com/go-gl/mathgl/mgl32"

// NodeKind is a coarse node classification used by tree dumps.
type NodeKind string

const (
	KindGroup NodeKind = "Group"
	KindMesh  NodeKind = "Mesh"
)

// Node is an element of the scene graph.
//
// Position, Orientation and Scale are relative to the parent. A zero Scale or a
// zero Orientation are treated as identity so struct literals stay usable.
type Node struct {
	Name    string
	Visible bool

	Position    mgl32.Vec3
	Orientation mgl32.Quat
	Scale       mgl32.Vec3

	Mesh *Mesh

	parent   *Node
	children []*Node
}

// NewGroup returns an empty visible node.
func NewGroup(name string) *Node {
	return &Node{
		Name:        name,
		Visible:     true,
		Orientation: mgl32.QuatIdent(),
		Scale:       unitScale,
	}
}

// NewMeshNode returns a visible node that draws m.
func NewMeshNode(name string, m *Mesh) *Node {
	n := NewGroup(name)
	n.Mesh = m
	return n
}

// Kind reports whether the node draws geometry.
func (n *Node) Kind() NodeKind {
	if n.Mesh != nil {
		return KindMesh
	}
	return KindGroup
}

func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) Children() []*Node { return n.children }

// Add attaches child to n, detaching it from a previous parent first.
// Adding an ancestor of n is ignored; it would make the tree a cycle.
func (n *Node) Add(child *Node) {
	if n == nil || child == nil || n.hasAncestor(child) {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// hasAncestor reports whether a is n or one of its parents.
func (n *Node) hasAncestor(a *Node) bool {
	for p := n; p != nil; p = p.parent {
		if p == a {
			return true
		}
	}
	return false
}

// Remove detaches child from n. It reports whether child was attached.
func (n *Node) Remove(child *Node) bool {
	if n == nil || child == nil {
		return false
	}
	for i, c := range n.children {
		if c != child {
			continue
		}
		copy(n.children[i:], n.children[i+1:])
		n.children[len(n.children)-1] = nil
		n.children = n.children[:len(n.children)-1]
		child.parent = nil
		return true
	}
	return false
}

// SetTransform replaces the local position and orientation.
func (n *Node) SetTransform(pos mgl32.Vec3, rot mgl32.Quat) {
	n.Position = pos
	n.Orientation = rot
}

// SetEuler sets the local orientation from XYZ Euler angles in radians.
func (n *Node) SetEuler(x, y, z float32) {
	n.Orientation = Euler(x, y, z)
}

// SetUniformScale sets the same scale on all three axes.
func (n *Node) SetUniformScale(s float32) {
	n.Scale = mgl32.Vec3{s, s, s}
}

// Local returns the node's local transform matrix.
func (n *Node) Local() mgl32.Mat4 {
	scale := n.Scale
	if scale == (mgl32.Vec3{}) {
		scale = unitScale
	}
	return Compose(n.Position, normalizeQuat(n.Orientation), scale)
}

// World returns the node's transform in scene space.
func (n *Node) World() mgl32.Mat4 {
	m := n.Local()
	for p := n.parent; p != nil; p = p.parent {
		m = p.Local().Mul4(m)
	}
	return m
}

// FindByName returns the first node named name in depth-first order.
func (n *Node) FindByName(name string) *Node {
	if n == nil {
		return nil
	}
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.FindByName(name); found != nil {
			return found
		}
	}
	return nil
}

// Clone deep-copies the subtree rooted at n. Meshes are shared.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.parent = nil
	out.children = nil
	for _, c := range n.children {
		out.Add(c.Clone())
	}
	return &out
}

// Walk visits visible nodes depth-first with their scene-space transform.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(n *Node, world mgl32.Mat4) bool) {
	if n == nil {
		return
	}
	var parent mgl32.Mat4
	if n.parent != nil {
		parent = n.parent.World()
	} else {
		parent = mgl32.Ident4()
	}
	n.walk(parent, fn)
}

func (n *Node) walk(parent mgl32.Mat4, fn func(*Node, mgl32.Mat4) bool) {
	if !n.Visible {
		return
	}
	world := parent.Mul4(n.Local())
	if !fn(n, world) {
		return
	}
	for _, c := range n.children {
		c.walk(world, fn)
	}
}
