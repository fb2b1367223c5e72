package app

import (
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"tumble/hal"
	"tumble/internal/config"
	"tumble/quarkgl"
)

type fakeFB struct {
	w, h     int
	buf      []byte
	presents int
}

func newFakeFB(w, h int) *fakeFB { return &fakeFB{w: w, h: h, buf: make([]byte, w*h*2)} }

func (f *fakeFB) Width() int              { return f.w }
func (f *fakeFB) Height() int             { return f.h }
func (f *fakeFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *fakeFB) StrideBytes() int        { return f.w * 2 }
func (f *fakeFB) Buffer() []byte          { return f.buf }
func (f *fakeFB) Present() error          { f.presents++; return nil }

func (f *fakeFB) ClearRGB(r, g, b uint8) {
	p := rgb565From888(r, g, b)
	for i := 0; i+1 < len(f.buf); i += 2 {
		f.buf[i] = byte(p)
		f.buf[i+1] = byte(p >> 8)
	}
}

func (f *fakeFB) pixel(x, y int) uint16 {
	off := y*f.StrideBytes() + x*2
	return uint16(f.buf[off]) | uint16(f.buf[off+1])<<8
}

type fakeKeyboard chan hal.KeyEvent

func (k fakeKeyboard) Events() <-chan hal.KeyEvent { return k }

type fakeHAL struct {
	fb    *fakeFB
	keys  fakeKeyboard
	probe error
}

func newFakeHAL(w, h int) *fakeHAL {
	return &fakeHAL{fb: newFakeFB(w, h), keys: make(fakeKeyboard, 16)}
}

func (h *fakeHAL) Logger() *zap.Logger          { return zap.NewNop() }
func (h *fakeHAL) Display() hal.Display         { return h }
func (h *fakeHAL) Input() hal.Input             { return h }
func (h *fakeHAL) Probe() error                 { return h.probe }
func (h *fakeHAL) Framebuffer() hal.Framebuffer { return h.fb }
func (h *fakeHAL) Keyboard() hal.Keyboard       { return h.keys }

// testConfig is the default scene without the vehicle and the script.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Scene.Vehicle = false
	cfg.Scene.Script = ""
	cfg.Scene.HUD = false
	return cfg
}

const carYAML = `
name: Car
children:
  - name: Body
    mesh: {shape: box, size: [6.67, 1.67, 3.33], color: "#cc2222"}
  - name: Wheel
    hidden: true
    mesh: {shape: cylinder, radius: 1.667, width: 1, segments: 8}
`

func TestFramesPropagateBoxTransform(t *testing.T) {
	h := newFakeHAL(64, 48)
	a, err := New(h, testConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	node := a.Scene().Root.FindByName("box")
	if node == nil {
		t.Fatalf("box node missing")
	}
	for i := 1; i <= 3; i++ {
		if err := a.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
		if node.Position != a.Box().Position() || node.Orientation != a.Box().Orientation() {
			t.Fatalf("frame %d: node %v %v, body %v %v", i, node.Position, node.Orientation, a.Box().Position(), a.Box().Orientation())
		}
	}
	if got := a.Stats().Frames; got != 3 {
		t.Fatalf("frames=%d want 3", got)
	}
	if got := a.World().Steps(); got != 3 {
		t.Fatalf("steps=%d want 3", got)
	}
	if h.fb.presents != 3 {
		t.Fatalf("presents=%d want 3", h.fb.presents)
	}
}

func TestFailedProbeShowsDiagnostic(t *testing.T) {
	h := newFakeHAL(64, 48)
	h.probe = errors.New("no gpu")
	a, err := New(h, testConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if h.fb.presents != 1 {
		t.Fatalf("diagnostic presents=%d want 1", h.fb.presents)
	}
	if got := h.fb.pixel(63, 47); got != 0xFFFF {
		t.Fatalf("background pixel=%#04x want white", got)
	}

	for i := 0; i < 3; i++ {
		if err := a.Step(); !errors.Is(err, h.probe) {
			t.Fatalf("Step err=%v want %v", err, h.probe)
		}
	}
	if a.World().Steps() != 0 || a.Stats().Frames != 0 {
		t.Fatalf("loop ran after failed check: steps=%d frames=%d", a.World().Steps(), a.Stats().Frames)
	}
	if h.fb.presents != 1 {
		t.Fatalf("frames presented after failed check: %d", h.fb.presents)
	}
}

func TestHeadlessHostRunsFrames(t *testing.T) {
	h := hal.New(nil, 32, 24)
	a, err := New(h, testConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if err := a.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if a.Stats().Propagated != 1 {
		t.Fatalf("propagated=%d want 1", a.Stats().Propagated)
	}
}

func TestVehicleModelPendingThenResolved(t *testing.T) {
	assets := fstest.MapFS{"models/ae86.yaml": {Data: []byte(carYAML)}}
	cfg := testConfig()
	cfg.Scene.Vehicle = true

	a, err := New(newFakeHAL(64, 48), cfg, assets)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	chassis := a.Vehicle().Chassis()
	var resolved bool
	for i := 0; i < 500; i++ {
		if err := a.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
		if a.Bindings().Counts().Pending == 0 {
			resolved = true
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !resolved {
		t.Fatalf("model never resolved: %+v", a.Bindings().Counts())
	}
	if c := a.Bindings().Counts(); c.Resolved != 6 || c.Failed != 0 {
		t.Fatalf("counts=%+v want 6 resolved", c)
	}

	car := a.Scene().Root.FindByName("Car")
	if car == nil {
		t.Fatalf("model root not attached")
	}
	if car.Position != chassis.Position() || car.Orientation != chassis.Orientation() {
		t.Fatalf("model root %v not driven by chassis %v", car.Position, chassis.Position())
	}
	if car.Scale != (mgl32.Vec3{0.3, 0.3, 0.3}) {
		t.Fatalf("model scale=%v", car.Scale)
	}

	wheels := 0
	for _, n := range a.Scene().Root.Children() {
		if n.Name == wheelNode {
			wheels++
			if !n.Visible {
				t.Fatalf("wheel copy hidden")
			}
		}
	}
	if wheels != 4 {
		t.Fatalf("wheel copies=%d want 4", wheels)
	}
}

func TestVehicleModelPendingSkipsBindings(t *testing.T) {
	assets := fstest.MapFS{"models/ae86.yaml": {Data: []byte(carYAML)}}
	cfg := testConfig()
	cfg.Scene.Vehicle = true
	cfg.Scene.AssetDelay = time.Hour

	a, err := New(newFakeHAL(64, 48), cfg, assets)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	for i := 0; i < 5; i++ {
		if err := a.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	st := a.Stats()
	if st.Propagated != 1 || st.Pending != 5 {
		t.Fatalf("stats=%+v want 1 propagated, 5 pending", st)
	}
	if a.Scene().Root.FindByName("Car") != nil {
		t.Fatalf("model attached before load")
	}
}

func TestMissingModelRetiresBindings(t *testing.T) {
	cfg := testConfig()
	cfg.Scene.Vehicle = true

	a, err := New(newFakeHAL(64, 48), cfg, fstest.MapFS{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	for i := 0; i < 500 && a.Bindings().Counts().Failed == 0; i++ {
		if err := a.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
	if c := a.Bindings().Counts(); c.Failed != 5 || c.Resolved != 1 {
		t.Fatalf("counts=%+v want 5 failed", c)
	}
	if err := a.Step(); err != nil {
		t.Fatalf("Step after failure: %v", err)
	}
}

func TestSceneScriptSpawnsBoxes(t *testing.T) {
	assets := fstest.MapFS{"scripts/scene.lua": {Data: []byte(`
set_gravity(0, -5, 0)
spawn_box{name = "crate", position = {3, 2, 0}, size = {0.5, 0.5, 0.5}, color = "#ff8800"}
`)}}
	cfg := testConfig()
	cfg.Scene.Script = "scripts/scene.lua"

	a, err := New(newFakeHAL(64, 48), cfg, assets)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if g := a.World().Gravity(); g != (mgl32.Vec3{0, -5, 0}) {
		t.Fatalf("gravity=%v", g)
	}
	if a.Scene().Root.FindByName("crate") == nil {
		t.Fatalf("crate node missing")
	}
	if err := a.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if a.Stats().Propagated != 2 {
		t.Fatalf("propagated=%d want 2", a.Stats().Propagated)
	}
}

func TestSceneScriptErrorFailsNew(t *testing.T) {
	assets := fstest.MapFS{"scripts/scene.lua": {Data: []byte(`spawn_box{size = {0, 1, 1}}`)}}
	cfg := testConfig()
	cfg.Scene.Script = "scripts/scene.lua"
	if _, err := New(newFakeHAL(64, 48), cfg, assets); err == nil {
		t.Fatalf("New succeeded with a failing script")
	}
}

func TestKeysDriveVehicleAndToggleModes(t *testing.T) {
	cfg := testConfig()
	cfg.Scene.Vehicle = true
	h := newFakeHAL(64, 48)
	a, err := New(h, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	h.keys <- hal.KeyEvent{Code: hal.KeyUp, Press: true}
	h.keys <- hal.KeyEvent{Code: hal.KeyLeft, Press: true}
	h.keys <- hal.KeyEvent{Press: true, Rune: 'w'}
	if err := a.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	w := a.Vehicle().Wheels()
	if w[0].EngineForce() != maxEngineForce || w[2].Steering() != maxSteer {
		t.Fatalf("engine=%v steer=%v", w[0].EngineForce(), w[2].Steering())
	}
	if w[2].EngineForce() != 0 {
		t.Fatalf("front wheel driven: %v", w[2].EngineForce())
	}
	if a.renderer.Mode != quarkgl.RenderWireframe {
		t.Fatalf("mode=%v want wireframe", a.renderer.Mode)
	}

	h.keys <- hal.KeyEvent{Code: hal.KeyUp, Press: false}
	h.keys <- hal.KeyEvent{Code: hal.KeySpace, Press: true}
	if err := a.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if w[0].EngineForce() != 0 || w[3].Brake() != brakeForce {
		t.Fatalf("engine=%v brake=%v", w[0].EngineForce(), w[3].Brake())
	}

	h.keys <- hal.KeyEvent{Code: hal.KeyEscape, Press: true}
	if err := a.Step(); !errors.Is(err, hal.ErrStop) {
		t.Fatalf("Step err=%v want ErrStop", err)
	}
}

func TestOrbitKeysMoveCamera(t *testing.T) {
	h := newFakeHAL(64, 48)
	a, err := New(h, testConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	before := a.Camera().Position
	h.keys <- hal.KeyEvent{Press: true, Rune: 'd'}
	if err := a.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	after := a.Camera().Position
	if before.ApproxEqualThreshold(after, 1e-4) {
		t.Fatalf("camera did not move: %v", after)
	}
	if d := before.Len() - after.Len(); d > 1e-3 || d < -1e-3 {
		t.Fatalf("orbit changed radius: %v -> %v", before.Len(), after.Len())
	}
}

func TestHUDDrawsOverlay(t *testing.T) {
	cfg := testConfig()
	cfg.Scene.HUD = true
	h := newFakeHAL(160, 120)
	a, err := New(h, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if err := a.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	bg := quarkgl.RGB565(skyColor)
	if got := h.fb.pixel(1, 1); got == bg {
		t.Fatalf("HUD panel not drawn at (1,1)")
	}
	if lines := a.hudLines(); len(lines) != 3 {
		t.Fatalf("hud lines=%v", lines)
	}
}

func TestSceneScriptRejectsDampingAboveOne(t *testing.T) {
	assets := fstest.MapFS{"scripts/scene.lua": {Data: []byte(`spawn_box{name = "crate", spin = {0, 5, 0}, damping = 1.5}`)}}
	cfg := testConfig()
	cfg.Scene.Script = "scripts/scene.lua"
	if _, err := New(newFakeHAL(64, 48), cfg, assets); err == nil {
		t.Fatalf("New accepted damping 1.5")
	}
}

func TestConfigDampingAboveOneFailsNew(t *testing.T) {
	cfg := testConfig()
	cfg.Scene.BoxAngularDamping = 1.5
	if _, err := New(newFakeHAL(64, 48), cfg, nil); err == nil {
		t.Fatalf("New accepted box_angular_damping 1.5")
	}
}
