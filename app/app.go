// Package app assembles a tumble simulation on top of a hal.HAL: the physics
// world, the scene graph, the bindings between them and the frame loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"tumble/hal"
	"tumble/internal/asset"
	"tumble/internal/bind"
	"tumble/internal/config"
	"tumble/internal/loop"
	"tumble/internal/script"
	"tumble/physics"
	"tumble/quarkgl"
)

// App is one running simulation. All methods must be called from the
// goroutine that runs the host's frame callback.
type App struct {
	h   hal.HAL
	cfg *config.Config
	log *zap.Logger

	world    *physics.World
	box      *physics.Body
	vehicle  *physics.RaycastVehicle
	car      *asset.Instance
	bindings *bind.Table

	scene    *quarkgl.Scene
	cam      *quarkgl.Camera
	orbit    *quarkgl.OrbitController
	renderer *quarkgl.Renderer
	target   quarkgl.RGB565Target

	loop *loop.Loop
	ctrl controls
	hud  bool

	cancel context.CancelFunc
	extra  []loop.Renderer
}

type Option func(*App)

// WithRenderer adds a renderer that runs after the framebuffer renderer,
// for example a stream.Hub.
func WithRenderer(r loop.Renderer) Option {
	return func(a *App) {
		if r != nil {
			a.extra = append(a.extra, r)
		}
	}
}

// New builds the simulation and runs the startup capability check. When the
// check fails New still returns the App: the diagnostic is already on screen
// and Step keeps returning the check error.
func New(h hal.HAL, cfg *config.Config, assets fs.FS, opts ...Option) (*App, error) {
	if h == nil {
		return nil, errors.New("app: nil hal")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	log := h.Logger()
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{h: h, cfg: cfg, log: log.Named("app"), hud: cfg.Scene.HUD}
	for _, o := range opts {
		o(a)
	}

	a.bindings = bind.NewTable(bind.WithFailureHook(func(src bind.Source, err error) {
		a.log.Warn("binding retired", zap.String("source", sourceName(src)), zap.Error(err))
	}))
	a.world = physics.NewWorld(physics.WorldOptions{
		Step:    cfg.Physics.Step,
		Gravity: vec3(cfg.Physics.Gravity),
		Ground: physics.Ground{
			Enabled:     cfg.Physics.Ground,
			Y:           cfg.Physics.GroundY,
			Restitution: cfg.Physics.Restitution,
			Friction:    cfg.Physics.Friction,
		},
		SolverIterations: cfg.Physics.SolverIterations,
	})

	w, ht := 0, 0
	if fb := framebufferOf(h); fb != nil {
		w, ht = fb.Width(), fb.Height()
	}
	a.scene, a.cam, a.orbit = newScene(cfg, w, ht)
	a.renderer = quarkgl.NewRenderer(w, ht, true)
	if cfg.Scene.Wireframe {
		a.renderer.SetRenderMode(quarkgl.RenderWireframe)
	}

	a.box = physics.NewBody(physics.BodyOptions{
		Name:            "box",
		Mass:            1,
		Shape:           physics.Box{HalfExtents: mgl32.Vec3{1, 1, 1}},
		Position:        vec3(cfg.Scene.BoxPosition),
		AngularVelocity: vec3(cfg.Scene.BoxAngularVelocity),
		AngularDamping:  cfg.Scene.BoxAngularDamping,
	})
	a.addBox(a.box, mgl32.Vec3{1, 1, 1}, boxColor)

	if cfg.Scene.Vehicle {
		a.vehicle = newVehicle(cfg.Scene)
		a.vehicle.AddToWorld(a.world)
		if assets != nil && cfg.Scene.VehicleModel != "" {
			a.loadVehicleModel(assets)
		}
	}

	if assets != nil && cfg.Scene.Script != "" {
		if err := a.runScript(assets, cfg.Scene.Script); err != nil {
			a.Close()
			return nil, err
		}
	}

	renderers := append([]loop.Renderer{loop.RendererFunc(a.draw)}, a.extra...)
	a.loop = loop.New(loop.Context{
		Physics:   a.world,
		Bindings:  a.bindings,
		Scene:     a.scene,
		Camera:    a.cam,
		Renderers: renderers,
	}, log, loop.WithDiagnostic(func(err error) { showDiagnostic(h, a.log, err) }))

	if err := a.loop.Start(func() error { return hal.CheckDisplay(h) }); err != nil {
		// Step keeps returning err.
		return a, nil
	}
	a.log.Info("simulation ready",
		zap.Int("bodies", len(a.world.Bodies())),
		zap.Int("bindings", a.bindings.Len()),
		zap.Int("width", w), zap.Int("height", ht))
	return a, nil
}

// Runner adapts New to the hal runners. A construction error is returned by
// the first step.
func Runner(cfg *config.Config, assets fs.FS, opts ...Option) (newApp func(hal.HAL) func() error, closeApp func()) {
	var a *App
	newApp = func(h hal.HAL) func() error {
		var err error
		a, err = New(h, cfg, assets, opts...)
		if err != nil {
			return func() error { return err }
		}
		return a.Step
	}
	closeApp = func() {
		if a != nil {
			a.Close()
		}
	}
	return newApp, closeApp
}

func (a *App) World() *physics.World            { return a.world }
func (a *App) Box() *physics.Body               { return a.box }
func (a *App) Vehicle() *physics.RaycastVehicle { return a.vehicle }
func (a *App) Scene() *quarkgl.Scene            { return a.scene }
func (a *App) Camera() *quarkgl.Camera          { return a.cam }
func (a *App) Bindings() *bind.Table            { return a.bindings }
func (a *App) Stats() loop.Stats                { return a.loop.Stats() }

// Step is the host frame callback: input and camera first, then one loop frame.
func (a *App) Step() error {
	if !a.loop.Running() {
		return a.loop.Frame()
	}
	if err := a.pollInput(); err != nil {
		return err
	}
	if a.vehicle != nil {
		drive(a.vehicle, a.ctrl)
	}
	if fb := framebufferOf(a.h); fb != nil {
		a.cam.SetViewport(fb.Width(), fb.Height())
	}
	a.orbit.Apply(a.cam)
	return a.loop.Frame()
}

// Close stops the loop and abandons pending asset loads.
func (a *App) Close() {
	if a.loop != nil {
		a.loop.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}
}

// SpawnBox adds a dynamic box and its mesh. It is called by scene scripts.
func (a *App) SpawnBox(s script.BoxSpec) error {
	if s.HalfExtents.X() <= 0 || s.HalfExtents.Y() <= 0 || s.HalfExtents.Z() <= 0 {
		return fmt.Errorf("spawn_box %q: half extents must be positive, got %v", s.Name, s.HalfExtents)
	}
	if s.AngularDamping < 0 || s.AngularDamping > 1 {
		return fmt.Errorf("spawn_box %q: damping must be in [0,1], got %v", s.Name, s.AngularDamping)
	}
	c := boxColor
	if s.Color != "" {
		parsed, err := quarkgl.ParseColor(s.Color)
		if err != nil {
			return fmt.Errorf("spawn_box %q: %w", s.Name, err)
		}
		c = parsed
	}
	b := physics.NewBody(physics.BodyOptions{
		Name:            s.Name,
		Mass:            s.Mass,
		Shape:           physics.Box{HalfExtents: s.HalfExtents},
		Position:        s.Position,
		Velocity:        s.Velocity,
		AngularVelocity: s.AngularVelocity,
		AngularDamping:  s.AngularDamping,
	})
	a.addBox(b, s.HalfExtents, c)
	return nil
}

func (a *App) SetGravity(g mgl32.Vec3) { a.world.SetGravity(g) }

// addBox puts b in the world and binds it to a new mesh node.
func (a *App) addBox(b *physics.Body, half mgl32.Vec3, c quarkgl.Color) {
	a.world.AddBody(b)
	name := b.Name()
	if name == "" {
		name = fmt.Sprintf("box%d", b.ID())
	}
	n := quarkgl.NewMeshNode(name, quarkgl.NewBoxMesh(half.X(), half.Y(), half.Z(), c))
	n.SetTransform(b.Position(), b.Orientation())
	a.scene.Add(n)
	a.bindings.Register(b, bind.Ready(n))
}

// loadVehicleModel starts the model load and binds the chassis to the model
// root and every wheel to a copy of the model's wheel node.
func (a *App) loadVehicleModel(assets fs.FS) {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	loader := asset.NewLoader(assets, a.h.Logger(),
		asset.WithTimeout(a.cfg.Scene.AssetTimeout),
		asset.WithDelay(a.cfg.Scene.AssetDelay))
	handle := loader.Load(ctx, a.cfg.Scene.VehicleModel)

	a.car = asset.Place(handle, a.scene.Root, asset.Placement{
		Position: vec3(a.cfg.Scene.VehiclePosition),
		Rotation: vec3(a.cfg.Scene.VehicleRotation),
		Scale:    a.cfg.Scene.VehicleScale,
	})

	root := a.car.RootResolver()
	a.bindings.Register(a.vehicle.Chassis(), bind.Func(func() (bind.Sink, error) {
		s, err := root.Resolve()
		if s != nil && a.log.Core().Enabled(zap.DebugLevel) {
			for _, line := range quarkgl.Dump(a.car.Root()) {
				a.log.Debug("model", zap.String("path", handle.Path()), zap.String("node", line))
			}
		}
		return s, err
	}))
	for _, w := range a.vehicle.Wheels() {
		a.bindings.Register(w, a.car.CloneResolver(wheelNode, a.scene.Root))
	}
}

const wheelNode = "Wheel"

func (a *App) runScript(assets fs.FS, path string) error {
	if _, err := fs.Stat(assets, path); errors.Is(err, fs.ErrNotExist) {
		a.log.Debug("no scene script", zap.String("path", path))
		return nil
	}
	e := script.NewEngine(a, a.h.Logger())
	defer e.Close()
	if err := e.RunFile(assets, path); err != nil {
		return fmt.Errorf("scene script: %w", err)
	}
	return nil
}

// draw renders the scene into the host framebuffer, overlays the HUD and
// presents.
func (a *App) draw(scene *quarkgl.Scene, cam *quarkgl.Camera) error {
	fb := framebufferOf(a.h)
	if fb == nil {
		return hal.ErrNoDisplay
	}
	a.target = quarkgl.RGB565Target{
		Buf:    fb.Buffer(),
		Stride: fb.StrideBytes(),
		W:      fb.Width(),
		H:      fb.Height(),
	}
	a.renderer.Render(&a.target, scene, cam)
	if a.hud {
		a.drawHUD(fb)
	}
	return fb.Present()
}

func sourceName(src bind.Source) string {
	switch s := src.(type) {
	case *physics.Body:
		return s.Name()
	case *physics.Wheel:
		return "wheel"
	}
	return fmt.Sprintf("%T", src)
}
