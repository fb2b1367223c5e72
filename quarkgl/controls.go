package quarkgl

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitController orbits a camera around a target point.
//
// It does not depend on any input system; callers translate keys or mouse
// motion into Rotate and Zoom calls and then Apply the result.
type OrbitController struct {
	Target mgl32.Vec3
	Yaw    float32
	Pitch  float32
	Radius float32

	MinRadius float32
	MaxRadius float32
}

// NewOrbitController derives yaw, pitch and radius from the current camera placement.
func NewOrbitController(cam *Camera, target mgl32.Vec3) *OrbitController {
	c := &OrbitController{Target: target, Radius: 3}
	if cam == nil {
		return c
	}
	off := cam.Position.Sub(target)
	r := off.Len()
	if r == 0 {
		return c
	}
	c.Radius = r
	c.Yaw = float32(math.Atan2(float64(off.X()), float64(off.Z())))
	c.Pitch = -float32(math.Asin(float64(off.Y() / r)))
	return c
}

func (c *OrbitController) Apply(cam *Camera) {
	if cam == nil {
		return
	}
	r := c.Radius
	if r == 0 {
		r = 3
	}
	if c.MinRadius != 0 && r < c.MinRadius {
		r = c.MinRadius
	}
	if c.MaxRadius != 0 && r > c.MaxRadius {
		r = c.MaxRadius
	}

	m := mgl32.HomogRotate3DY(c.Yaw).Mul4(mgl32.HomogRotate3DX(c.Pitch))
	p := m.Mul4x1(mgl32.Vec4{0, 0, r, 1})

	cam.Position = c.Target.Add(p.Vec3())
	cam.Target = c.Target
	if cam.Up == (mgl32.Vec3{}) {
		cam.Up = worldUp
	}
}

// Rotate changes yaw and pitch. Pitch is clamped short of the poles.
func (c *OrbitController) Rotate(deltaYaw, deltaPitch float32) {
	const limit = math.Pi/2 - 0.05
	c.Yaw += deltaYaw
	c.Pitch += deltaPitch
	if c.Pitch > limit {
		c.Pitch = limit
	}
	if c.Pitch < -limit {
		c.Pitch = -limit
	}
}

func (c *OrbitController) Zoom(delta float32) {
	c.Radius += delta
	if c.MinRadius != 0 && c.Radius < c.MinRadius {
		c.Radius = c.MinRadius
	}
	if c.MaxRadius != 0 && c.Radius > c.MaxRadius {
		c.Radius = c.MaxRadius
	}
}
