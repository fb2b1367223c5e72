package quarkgl

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Material is a minimal surface description.
type Material struct {
	BaseColor Color
	Opacity   uint8 // 0..255. 255 means opaque.
}

// LightKind selects how a light contributes to shading.
type LightKind uint8

const (
	LightAmbient LightKind = iota
	LightDirectional
)

// Light is an ambient or directional light.
//
// A directional light shines from Position towards Target, like a sun placed
// far above the scene.
type Light struct {
	Kind      LightKind
	Intensity float32

	Position mgl32.Vec3
	Target   mgl32.Vec3
}

// Camera is a perspective camera.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	FOVYRad float32
	Aspect  float32
	Near    float32
	Far     float32
}

// NewPerspectiveCamera returns a camera looking at the origin.
func NewPerspectiveCamera(fovYDeg, aspect, near, far float32) *Camera {
	return &Camera{
		Position: mgl32.Vec3{0, 0, 5},
		Up:       worldUp,
		FOVYRad:  mgl32.DegToRad(fovYDeg),
		Aspect:   aspect,
		Near:     near,
		Far:      far,
	}
}

// SetViewport updates the aspect ratio after a resize.
func (c *Camera) SetViewport(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	c.Aspect = float32(w) / float32(h)
}

// View returns the camera view matrix.
func (c *Camera) View() mgl32.Mat4 {
	up := c.Up
	if up == (mgl32.Vec3{}) {
		up = worldUp
	}
	return mgl32.LookAtV(c.Position, c.Target, up)
}

// Projection returns the projection matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	fov := c.FOVYRad
	if fov == 0 {
		fov = 1
	}
	aspect := c.Aspect
	if aspect == 0 {
		aspect = 1
	}
	return mgl32.Perspective(fov, aspect, c.Near, c.Far)
}

// Vertex is a mesh vertex.
type Vertex struct {
	Pos   mgl32.Vec3
	Color Color
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint16
	Material Material
}

// Scene is the root of a scene graph plus its lighting.
type Scene struct {
	Root       *Node
	Lights     []Light
	Background Color
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{
		Root:       NewGroup("Scene"),
		Background: RGB(0, 0, 0),
	}
}

// Add attaches n to the scene root.
func (s *Scene) Add(n *Node) {
	if s == nil || s.Root == nil {
		return
	}
	s.Root.Add(n)
}

// AddLight appends a light.
func (s *Scene) AddLight(l Light) {
	s.Lights = append(s.Lights, l)
}

// Intensity returns the diffuse shading factor for a world-space normal.
func (s *Scene) Intensity(n mgl32.Vec3) float32 {
	if len(s.Lights) == 0 {
		return 1
	}
	var sum float32
	for _, l := range s.Lights {
		switch l.Kind {
		case LightAmbient:
			sum += l.Intensity
		case LightDirectional:
			dir := l.Position.Sub(l.Target)
			if dir.Len() == 0 {
				continue
			}
			if d := n.Dot(dir.Normalize()); d > 0 {
				sum += d * l.Intensity
			}
		}
	}
	return clamp01(sum)
}

// NewBoxMesh returns a box centered on the origin with the given half extents.
func NewBoxMesh(hx, hy, hz float32, c Color) *Mesh {
	v := func(x, y, z float32) Vertex {
		return Vertex{Pos: mgl32.Vec3{x * hx, y * hy, z * hz}, Color: c}
	}
	verts := []Vertex{
		v(-1, -1, -1), v(1, -1, -1), v(1, 1, -1), v(-1, 1, -1),
		v(-1, -1, 1), v(1, -1, 1), v(1, 1, 1), v(-1, 1, 1),
	}
	// Counter-clockwise when seen from outside.
	idx := []uint16{
		4, 5, 6, 4, 6, 7, // +z
		1, 0, 3, 1, 3, 2, // -z
		5, 1, 2, 5, 2, 6, // +x
		0, 4, 7, 0, 7, 3, // -x
		7, 6, 2, 7, 2, 3, // +y
		0, 1, 5, 0, 5, 4, // -y
	}
	return &Mesh{Vertices: verts, Indices: idx, Material: Material{BaseColor: c, Opacity: 0xFF}}
}

// NewCylinderMesh returns a closed cylinder whose axis is Z, as used for wheels.
func NewCylinderMesh(radius, width float32, segments int, c Color) *Mesh {
	if segments < 3 {
		segments = 3
	}
	half := width / 2
	verts := make([]Vertex, 0, segments*2+2)
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		x := radius * float32(math.Cos(a))
		y := radius * float32(math.Sin(a))
		verts = append(verts,
			Vertex{Pos: mgl32.Vec3{x, y, -half}, Color: c},
			Vertex{Pos: mgl32.Vec3{x, y, half}, Color: c},
		)
	}
	back := uint16(len(verts))
	verts = append(verts, Vertex{Pos: mgl32.Vec3{0, 0, -half}, Color: c})
	front := uint16(len(verts))
	verts = append(verts, Vertex{Pos: mgl32.Vec3{0, 0, half}, Color: c})

	idx := make([]uint16, 0, segments*12)
	for i := 0; i < segments; i++ {
		j := (i + 1) % segments
		b0, f0 := uint16(i*2), uint16(i*2+1)
		b1, f1 := uint16(j*2), uint16(j*2+1)
		idx = append(idx, b0, b1, f1, b0, f1, f0)
		idx = append(idx, back, b1, b0)
		idx = append(idx, front, f0, f1)
	}
	return &Mesh{Vertices: verts, Indices: idx, Material: Material{BaseColor: c, Opacity: 0xFF}}
}

// NewPlaneMesh returns a square in the XZ plane facing +Y.
func NewPlaneMesh(half float32, c Color) *Mesh {
	verts := []Vertex{
		{Pos: mgl32.Vec3{-half, 0, -half}, Color: c},
		{Pos: mgl32.Vec3{half, 0, -half}, Color: c},
		{Pos: mgl32.Vec3{half, 0, half}, Color: c},
		{Pos: mgl32.Vec3{-half, 0, half}, Color: c},
	}
	return &Mesh{
		Vertices: verts,
		Indices:  []uint16{0, 2, 1, 0, 3, 2},
		Material: Material{BaseColor: c, Opacity: 0xFF},
	}
}
