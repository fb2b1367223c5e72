package script

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl32"
)

type fakeHost struct {
	boxes   []BoxSpec
	gravity mgl32.Vec3
	fail    error
}

func (h *fakeHost) SpawnBox(b BoxSpec) error {
	if h.fail != nil {
		return h.fail
	}
	h.boxes = append(h.boxes, b)
	return nil
}

func (h *fakeHost) SetGravity(g mgl32.Vec3) { h.gravity = g }

func TestSpawnBoxAndGravity(t *testing.T) {
	h := &fakeHost{}
	e := NewEngine(h, nil)
	defer e.Close()

	err := e.RunString(`
set_gravity(0, -1.5, 0)
for i = 1, 3 do
  spawn_box{name = "crate" .. i, position = {i, 5, 0}, size = {0.25, 0.25, 0.25}, spin = {0, i, 0}, damping = 0.1}
end
log("spawned " .. API_VERSION)
`)
	if err != nil {
		t.Fatalf("RunString: %v", err)
	}
	if h.gravity != (mgl32.Vec3{0, -1.5, 0}) {
		t.Fatalf("gravity=%v", h.gravity)
	}
	if len(h.boxes) != 3 {
		t.Fatalf("boxes=%d", len(h.boxes))
	}
	b := h.boxes[2]
	if b.Name != "crate3" || b.Position != (mgl32.Vec3{3, 5, 0}) || b.AngularVelocity != (mgl32.Vec3{0, 3, 0}) {
		t.Fatalf("box=%+v", b)
	}
	if b.Mass != 1 || b.HalfExtents != (mgl32.Vec3{0.25, 0.25, 0.25}) || b.AngularDamping != 0.1 {
		t.Fatalf("box=%+v", b)
	}
}

func TestSpawnBoxDefaults(t *testing.T) {
	h := &fakeHost{}
	e := NewEngine(h, nil)
	defer e.Close()
	if err := e.RunString(`spawn_box{}`); err != nil {
		t.Fatalf("RunString: %v", err)
	}
	if b := h.boxes[0]; b.HalfExtents != (mgl32.Vec3{0.5, 0.5, 0.5}) || b.Mass != 1 {
		t.Fatalf("box=%+v", b)
	}
}

func TestHostErrorSurfaces(t *testing.T) {
	e := NewEngine(&fakeHost{fail: errors.New("scene full")}, nil)
	defer e.Close()
	if err := e.RunString(`spawn_box{name = "x"}`); err == nil {
		t.Fatalf("host error swallowed")
	}
}

func TestRunFile(t *testing.T) {
	fsys := fstest.MapFS{"scripts/a.lua": {Data: []byte(`set_gravity(0, 0, 0)`)}}
	h := &fakeHost{gravity: mgl32.Vec3{1, 1, 1}}
	e := NewEngine(h, nil)
	defer e.Close()
	if err := e.RunFile(fsys, "scripts/a.lua"); err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if h.gravity != (mgl32.Vec3{}) {
		t.Fatalf("gravity=%v", h.gravity)
	}
	if err := e.RunFile(fsys, "scripts/missing.lua"); err == nil {
		t.Fatalf("missing script ran")
	}
	if err := e.RunString(`set_gravity("a")`); err == nil {
		t.Fatalf("bad arguments accepted")
	}
}
