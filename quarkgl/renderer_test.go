package quarkgl

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func newTestTarget(w, h int) *RGB565Target {
	return &RGB565Target{Buf: make([]byte, w*h*2), Stride: w * 2, W: w, H: h}
}

func TestRenderDrawsBoxAtCenter(t *testing.T) {
	const w, h = 64, 64
	tgt := newTestTarget(w, h)

	s := NewScene()
	s.Background = RGB(0, 0, 0)
	s.Add(NewMeshNode("box", NewBoxMesh(1, 1, 1, RGB(0xFF, 0xFF, 0xFF))))

	cam := NewPerspectiveCamera(60, 1, 0.1, 100)
	cam.Position = mgl32.Vec3{0, 0, 5}

	r := NewRenderer(w, h, true)
	r.Render(tgt, s, cam)

	if got := tgt.At(w/2, h/2); got == (RGB(0, 0, 0)) {
		t.Fatalf("center pixel is background, want box")
	}
	if got := tgt.At(0, 0); got != (RGB(0, 0, 0)) {
		t.Fatalf("corner pixel = %+v, want background", got)
	}
	if st := r.Stats(); st.Meshes != 1 || st.Triangles != 12 {
		t.Fatalf("Stats() = %+v, want 1 mesh and 12 triangles", st)
	}
}

func TestRenderFollowsNodeTransform(t *testing.T) {
	const w, h = 64, 64
	tgt := newTestTarget(w, h)

	s := NewScene()
	box := NewMeshNode("box", NewBoxMesh(0.5, 0.5, 0.5, RGB(0xFF, 0, 0)))
	s.Add(box)

	cam := NewPerspectiveCamera(60, 1, 0.1, 100)
	cam.Position = mgl32.Vec3{0, 0, 5}
	r := NewRenderer(w, h, true)

	box.SetTransform(mgl32.Vec3{-20, 0, 0}, mgl32.QuatIdent())
	r.Render(tgt, s, cam)
	if got := tgt.At(w/2, h/2); got != (Color{}) && got != RGB(0, 0, 0) {
		t.Fatalf("center pixel = %+v with box moved away, want background", got)
	}

	box.SetTransform(mgl32.Vec3{}, mgl32.QuatIdent())
	r.Render(tgt, s, cam)
	if got := tgt.At(w/2, h/2); got == RGB(0, 0, 0) {
		t.Fatalf("center pixel is background after moving box back")
	}
}

func TestRenderDropsGeometryBehindCamera(t *testing.T) {
	const w, h = 32, 32
	tgt := newTestTarget(w, h)

	s := NewScene()
	box := NewMeshNode("box", NewBoxMesh(1, 1, 1, RGB(0xFF, 0xFF, 0xFF)))
	box.Position = mgl32.Vec3{0, 0, 10}
	s.Add(box)

	cam := NewPerspectiveCamera(60, 1, 0.1, 100)
	cam.Position = mgl32.Vec3{0, 0, 5}

	r := NewRenderer(w, h, true)
	r.Render(tgt, s, cam)
	if st := r.Stats(); st.Triangles != 0 || st.Culled != 12 {
		t.Fatalf("Stats() = %+v, want every triangle culled", st)
	}
}

func TestSceneIntensity(t *testing.T) {
	s := NewScene()
	s.AddLight(Light{Kind: LightAmbient, Intensity: 0.25})
	s.AddLight(Light{Kind: LightDirectional, Intensity: 0.5, Position: mgl32.Vec3{0, 100, 0}})

	if got := s.Intensity(mgl32.Vec3{0, 1, 0}); got != 0.75 {
		t.Fatalf("Intensity(up) = %v, want 0.75", got)
	}
	if got := s.Intensity(mgl32.Vec3{0, -1, 0}); got != 0.25 {
		t.Fatalf("Intensity(down) = %v, want 0.25", got)
	}
}
