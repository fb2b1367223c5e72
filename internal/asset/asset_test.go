package asset

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"tumble/quarkgl"
)

const carYAML = `
name: Car
children:
  - name: Body
    position: [0, 1, 0]
    mesh: {shape: box, size: [2, 0.5, 1], color: "#cc2222"}
  - name: Wheel
    hidden: true
    scale: [2]
    mesh: {shape: cylinder, radius: 0.5, width: 0.4, segments: 8}
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"models/car.yaml": {Data: []byte(carYAML)},
		"models/bad.yaml": {Data: []byte("name: X\nmesh: {shape: torus}\n")},
	}
}

func TestParseModel(t *testing.T) {
	root, err := Parse([]byte(carYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Name != "Car" || len(root.Children()) != 2 {
		t.Fatalf("root=%q children=%d", root.Name, len(root.Children()))
	}
	body := root.FindByName("Body")
	if body == nil || body.Mesh == nil || len(body.Mesh.Indices) != 36 {
		t.Fatalf("body=%+v", body)
	}
	if body.Position != (mgl32.Vec3{0, 1, 0}) {
		t.Fatalf("body position=%v", body.Position)
	}
	if body.Mesh.Material.BaseColor != quarkgl.RGB(0xcc, 0x22, 0x22) {
		t.Fatalf("color=%v", body.Mesh.Material.BaseColor)
	}
	wheel := root.FindByName("Wheel")
	if wheel == nil || wheel.Visible {
		t.Fatalf("wheel template should be hidden: %+v", wheel)
	}
	if wheel.Scale != (mgl32.Vec3{2, 2, 2}) {
		t.Fatalf("wheel scale=%v", wheel.Scale)
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"name: X\nmesh: {shape: torus}\n",
		"name: X\nposition: [1, 2]\n",
		"name: X\nmesh: {shape: cylinder}\n",
		"name: X\nmesh: {shape: box, color: nope}\n",
		"name: X\nmesh: {shape: cylinder, radius: 1, width: 1, segments: 40000}\n",
		"name: X\nmesh: {shape: cylinder, radius: 1, width: 1, segments: 2}\n",
		"name: [\n",
	} {
		if _, err := Parse([]byte(src)); err == nil {
			t.Fatalf("Parse(%q) succeeded", src)
		}
	}
}

func TestLoaderLoadsModel(t *testing.T) {
	l := NewLoader(testFS(), nil)
	h := l.Load(context.Background(), "models/car.yaml")
	n, err := h.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if n.Name != "Car" {
		t.Fatalf("name=%q", n.Name)
	}
	select {
	case <-h.Done():
	default:
		t.Fatalf("Done not closed after Wait")
	}
	if again, err := h.Poll(); err != nil || again != n {
		t.Fatalf("Poll=%v,%v", again, err)
	}
}

func TestLoaderMissingFile(t *testing.T) {
	l := NewLoader(testFS(), nil)
	_, err := l.Load(context.Background(), "models/none.yaml").Wait(context.Background())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err=%v want fs.ErrNotExist", err)
	}
}

func TestLoaderPendingThenTimeout(t *testing.T) {
	l := NewLoader(testFS(), nil, WithDelay(time.Second), WithTimeout(20*time.Millisecond))
	h := l.Load(context.Background(), "models/car.yaml")
	if _, err := h.Poll(); !errors.Is(err, ErrPending) {
		t.Fatalf("Poll err=%v want ErrPending", err)
	}
	_, err := h.Wait(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v want deadline exceeded", err)
	}
}

func TestInstanceAttachesOnce(t *testing.T) {
	scene := quarkgl.NewScene()
	l := NewLoader(testFS(), nil, WithDelay(50*time.Millisecond))
	h := l.Load(context.Background(), "models/car.yaml")
	in := Place(h, scene.Root, Placement{Position: mgl32.Vec3{2, 0, 8}, Scale: 0.3})
	r := in.RootResolver()

	if sink, err := r.Resolve(); sink != nil || err != nil {
		t.Fatalf("pending resolve=%v,%v", sink, err)
	}
	if _, err := h.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	sink, err := r.Resolve()
	if err != nil || sink == nil {
		t.Fatalf("resolve=%v,%v", sink, err)
	}
	root := in.Root()
	if sink != root || root.Parent() != scene.Root {
		t.Fatalf("root not attached to scene")
	}
	if root.Position != (mgl32.Vec3{2, 0, 8}) || root.Scale != (mgl32.Vec3{0.3, 0.3, 0.3}) {
		t.Fatalf("placement pos=%v scale=%v", root.Position, root.Scale)
	}
	if _, err := in.RootResolver().Resolve(); err != nil {
		t.Fatalf("second resolver: %v", err)
	}
	if n := len(scene.Root.Children()); n != 1 {
		t.Fatalf("scene children=%d, want 1", n)
	}
}

func TestInstanceCloneAndPart(t *testing.T) {
	scene := quarkgl.NewScene()
	h := NewLoader(testFS(), nil).Load(context.Background(), "models/car.yaml")
	if _, err := h.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	in := Place(h, scene.Root, Placement{Scale: 0.5})

	sink, err := in.CloneResolver("Wheel", scene.Root).Resolve()
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	wheel := sink.(*quarkgl.Node)
	if !wheel.Visible || wheel.Parent() != scene.Root {
		t.Fatalf("clone not visible under scene root")
	}
	if wheel.Scale != (mgl32.Vec3{1, 1, 1}) {
		t.Fatalf("clone scale=%v", wheel.Scale)
	}
	if tmpl := in.Root().FindByName("Wheel"); tmpl.Visible || tmpl == wheel {
		t.Fatalf("template changed")
	}

	if sink, err := in.PartResolver("Body").Resolve(); err != nil || sink.(*quarkgl.Node).Name != "Body" {
		t.Fatalf("part=%v,%v", sink, err)
	}
	if _, err := in.PartResolver("Spoiler").Resolve(); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("err=%v want ErrNodeNotFound", err)
	}
}

func TestInstanceLoadFailure(t *testing.T) {
	h := NewLoader(testFS(), nil).Load(context.Background(), "models/bad.yaml")
	if _, err := h.Wait(context.Background()); err == nil {
		t.Fatalf("bad model loaded")
	}
	in := Place(h, nil, Placement{})
	if _, err := in.RootResolver().Resolve(); err == nil {
		t.Fatalf("resolver did not report load failure")
	}
	if in.Err() == nil || in.Root() != nil {
		t.Fatalf("instance state err=%v root=%v", in.Err(), in.Root())
	}
}
