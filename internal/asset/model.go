// Package asset loads model descriptions into scene-graph nodes.
//
// Models are YAML node trees built from primitive meshes. Loading runs on its
// own goroutine and is observed through a Handle that the frame loop polls.
package asset

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"tumble/quarkgl"
)

// ModelNode is one node of a model file.
type ModelNode struct {
	Name     string      `yaml:"name"`
	Hidden   bool        `yaml:"hidden"`
	Position []float32   `yaml:"position"`
	Rotation []float32   `yaml:"rotation"` // XYZ Euler angles, radians
	Scale    []float32   `yaml:"scale"`
	Mesh     *ModelMesh  `yaml:"mesh"`
	Children []ModelNode `yaml:"children"`
}

// MaxSegments bounds cylinder tessellation so indices fit the mesh's uint16.
const MaxSegments = 256

// ModelMesh selects a primitive mesh.
type ModelMesh struct {
	Shape    string    `yaml:"shape"` // box | cylinder | plane
	Size     []float32 `yaml:"size"`  // box half extents, or plane half size
	Radius   float32   `yaml:"radius"`
	Width    float32   `yaml:"width"`
	Segments int       `yaml:"segments"`
	Color    string    `yaml:"color"`
}

// Parse decodes a YAML model and builds its node tree.
func Parse(raw []byte) (*quarkgl.Node, error) {
	var m ModelNode
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	return m.Build()
}

// Build converts the description into scene nodes.
func (m ModelNode) Build() (*quarkgl.Node, error) {
	n := quarkgl.NewGroup(m.Name)
	n.Visible = !m.Hidden

	var err error
	if n.Position, err = vec3(m.Position, mgl32.Vec3{}); err != nil {
		return nil, fmt.Errorf("node %q position: %w", m.Name, err)
	}
	rot, err := vec3(m.Rotation, mgl32.Vec3{})
	if err != nil {
		return nil, fmt.Errorf("node %q rotation: %w", m.Name, err)
	}
	n.SetEuler(rot.X(), rot.Y(), rot.Z())
	if n.Scale, err = vec3(m.Scale, mgl32.Vec3{1, 1, 1}); err != nil {
		return nil, fmt.Errorf("node %q scale: %w", m.Name, err)
	}

	if m.Mesh != nil {
		if n.Mesh, err = m.Mesh.build(); err != nil {
			return nil, fmt.Errorf("node %q mesh: %w", m.Name, err)
		}
	}
	for _, c := range m.Children {
		child, err := c.Build()
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

func (m *ModelMesh) build() (*quarkgl.Mesh, error) {
	c := quarkgl.RGB(0xCC, 0xCC, 0xCC)
	if m.Color != "" {
		var err error
		if c, err = quarkgl.ParseColor(m.Color); err != nil {
			return nil, err
		}
	}
	switch m.Shape {
	case "box":
		h, err := vec3(m.Size, mgl32.Vec3{0.5, 0.5, 0.5})
		if err != nil {
			return nil, err
		}
		return quarkgl.NewBoxMesh(h.X(), h.Y(), h.Z(), c), nil
	case "cylinder":
		if m.Radius <= 0 || m.Width <= 0 {
			return nil, fmt.Errorf("cylinder needs radius and width")
		}
		seg := m.Segments
		if seg == 0 {
			seg = 12
		}
		if seg < 3 || seg > MaxSegments {
			return nil, fmt.Errorf("cylinder segments %d out of range [3,%d]", seg, MaxSegments)
		}
		return quarkgl.NewCylinderMesh(m.Radius, m.Width, seg, c), nil
	case "plane":
		half := float32(1)
		if len(m.Size) > 0 {
			half = m.Size[0]
		}
		return quarkgl.NewPlaneMesh(half, c), nil
	default:
		return nil, fmt.Errorf("unknown shape %q", m.Shape)
	}
}

func vec3(v []float32, def mgl32.Vec3) (mgl32.Vec3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 1:
		return mgl32.Vec3{v[0], v[0], v[0]}, nil
	case 3:
		return mgl32.Vec3{v[0], v[1], v[2]}, nil
	default:
		return mgl32.Vec3{}, fmt.Errorf("want 1 or 3 components, got %d", len(v))
	}
}
