package app

import (
	"github.com/go-gl/mathgl/mgl32"

	"tumble/internal/config"
	"tumble/quarkgl"
)

const (
	cameraFOV  = 75
	cameraNear = 0.1
	cameraFar  = 1000
	groundHalf = 20
)

var (
	skyColor    = quarkgl.Hex(0x20242C)
	groundColor = quarkgl.Hex(0x3A5F3A)
	boxColor    = quarkgl.Hex(0x4FA3E0)
)

// newScene builds the lit scene, its camera and an orbit controller around
// the origin. The ground plane is only added when the physics has one.
func newScene(cfg *config.Config, w, h int) (*quarkgl.Scene, *quarkgl.Camera, *quarkgl.OrbitController) {
	s := quarkgl.NewScene()
	s.Background = skyColor
	s.AddLight(quarkgl.Light{Kind: quarkgl.LightAmbient, Intensity: 1})
	s.AddLight(quarkgl.Light{
		Kind:      quarkgl.LightDirectional,
		Intensity: 1,
		Position:  mgl32.Vec3{0, 100, 0},
	})

	if cfg.Physics.Ground {
		g := quarkgl.NewMeshNode("Ground", quarkgl.NewPlaneMesh(groundHalf, groundColor))
		g.Position = mgl32.Vec3{0, cfg.Physics.GroundY, 0}
		s.Add(g)
	}

	aspect := float32(1)
	if w > 0 && h > 0 {
		aspect = float32(w) / float32(h)
	}
	cam := quarkgl.NewPerspectiveCamera(cameraFOV, aspect, cameraNear, cameraFar)
	cam.Position = mgl32.Vec3{0, 5, 5}

	orbit := quarkgl.NewOrbitController(cam, mgl32.Vec3{})
	orbit.MinRadius = 2
	orbit.MaxRadius = 60
	orbit.Apply(cam)
	return s, cam, orbit
}

func vec3(v [3]float32) mgl32.Vec3 { return mgl32.Vec3{v[0], v[1], v[2]} }
