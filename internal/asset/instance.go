package asset

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"tumble/internal/bind"
	"tumble/quarkgl"
)

// Placement is the transform a loaded model root starts with.
type Placement struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3 // XYZ Euler angles, radians
	Scale    float32    // uniform; zero keeps the model's own scale
}

// Instance attaches a loaded model to a parent node the first time it is
// polled after the load completed. It must be polled from the goroutine that
// owns the scene.
type Instance struct {
	h      *Handle
	parent *quarkgl.Node
	place  Placement

	root *quarkgl.Node
	err  error
}

// Place returns an instance that will put h's model under parent.
func Place(h *Handle, parent *quarkgl.Node, p Placement) *Instance {
	return &Instance{h: h, parent: parent, place: p}
}

// Root returns the attached model root, or nil while it is not attached.
func (in *Instance) Root() *quarkgl.Node { return in.root }

// Err returns the load error, if the load failed.
func (in *Instance) Err() error { return in.err }

// poll returns (nil, nil) while the model is pending.
func (in *Instance) poll() (*quarkgl.Node, error) {
	if in.root != nil || in.err != nil {
		return in.root, in.err
	}
	n, err := in.h.Poll()
	if errors.Is(err, ErrPending) {
		return nil, nil
	}
	if err != nil {
		in.err = err
		return nil, err
	}
	n.Position = in.place.Position
	n.SetEuler(in.place.Rotation.X(), in.place.Rotation.Y(), in.place.Rotation.Z())
	if in.place.Scale > 0 {
		n.SetUniformScale(in.place.Scale)
	}
	if in.parent != nil {
		in.parent.Add(n)
	}
	in.root = n
	return n, nil
}

// RootResolver resolves to the model root once it is attached.
func (in *Instance) RootResolver() bind.Resolver {
	return bind.Func(func() (bind.Sink, error) {
		n, err := in.poll()
		if n == nil || err != nil {
			return nil, err
		}
		return n, nil
	})
}

// PartResolver resolves to the node called name inside the model.
func (in *Instance) PartResolver(name string) bind.Resolver {
	return bind.Func(func() (bind.Sink, error) {
		root, err := in.poll()
		if root == nil || err != nil {
			return nil, err
		}
		part := root.FindByName(name)
		if part == nil {
			return nil, fmt.Errorf("%s: %q: %w", in.h.Path(), name, ErrNodeNotFound)
		}
		return part, nil
	})
}

// CloneResolver copies the template node called name under parent and
// resolves to the copy. The copy is visible, starts at the origin and carries
// the model root's scale, so it can be driven in parent space.
func (in *Instance) CloneResolver(name string, parent *quarkgl.Node) bind.Resolver {
	return bind.Func(func() (bind.Sink, error) {
		root, err := in.poll()
		if root == nil || err != nil {
			return nil, err
		}
		tmpl := root.FindByName(name)
		if tmpl == nil {
			return nil, fmt.Errorf("%s: %q: %w", in.h.Path(), name, ErrNodeNotFound)
		}
		c := tmpl.Clone()
		c.Visible = true
		c.Position = mgl32.Vec3{}
		c.Orientation = mgl32.QuatIdent()
		c.Scale = mulVec(scaleOf(root), scaleOf(tmpl))
		if parent != nil {
			parent.Add(c)
		}
		return c, nil
	})
}

func scaleOf(n *quarkgl.Node) mgl32.Vec3 {
	if n.Scale == (mgl32.Vec3{}) {
		return mgl32.Vec3{1, 1, 1}
	}
	return n.Scale
}

func mulVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}
