package physics

import "github.com/go-gl/mathgl/mgl32"

// DefaultStep is the fixed integration step, 60 Hz.
const DefaultStep = float32(1.0 / 60.0)

// Ground is an infinite horizontal plane bodies rest on.
type Ground struct {
	Enabled     bool
	Y           float32
	Restitution float32
	Friction    float32
}

// WorldOptions configures NewWorld.
type WorldOptions struct {
	Step    float32
	Gravity mgl32.Vec3
	Ground  Ground
	// SolverIterations is the number of contact passes per step.
	SolverIterations int
}

// StepHook runs inside FixedStep. Vehicles use pre-step hooks to apply
// suspension and friction impulses and post-step hooks to update wheels.
type StepHook func(dt float32)

// World is the simulation state: bodies, the ground plane and step hooks.
//
// World is not safe for concurrent use; all mutation happens inside FixedStep
// or from the goroutine that owns the world.
type World struct {
	step       float32
	gravity    mgl32.Vec3
	ground     Ground
	iterations int

	bodies []*Body
	nextID int

	preStep  []StepHook
	postStep []StepHook

	steps uint64
	time  float64
}

// NewWorld returns an empty world.
func NewWorld(opts WorldOptions) *World {
	if opts.Step <= 0 {
		opts.Step = DefaultStep
	}
	if opts.SolverIterations <= 0 {
		opts.SolverIterations = 10
	}
	return &World{
		step:       opts.Step,
		gravity:    opts.Gravity,
		ground:     opts.Ground,
		iterations: opts.SolverIterations,
	}
}

func (w *World) Step() float32           { return w.step }
func (w *World) Gravity() mgl32.Vec3     { return w.gravity }
func (w *World) Ground() Ground          { return w.ground }
func (w *World) Bodies() []*Body         { return w.bodies }
func (w *World) Steps() uint64           { return w.steps }
func (w *World) Time() float64           { return w.time }
func (w *World) SetGravity(g mgl32.Vec3) { w.gravity = g }

// AddBody starts simulating b.
func (w *World) AddBody(b *Body) {
	if b == nil {
		return
	}
	w.nextID++
	b.id = w.nextID
	w.bodies = append(w.bodies, b)
}

// RemoveBody stops simulating b. It reports whether b was in the world.
func (w *World) RemoveBody(b *Body) bool {
	for i, cur := range w.bodies {
		if cur != b {
			continue
		}
		copy(w.bodies[i:], w.bodies[i+1:])
		w.bodies[len(w.bodies)-1] = nil
		w.bodies = w.bodies[:len(w.bodies)-1]
		return true
	}
	return false
}

// OnPreStep registers a hook that runs after contacts are solved and before integration.
func (w *World) OnPreStep(h StepHook) { w.preStep = append(w.preStep, h) }

// OnPostStep registers a hook that runs after integration.
func (w *World) OnPostStep(h StepHook) { w.postStep = append(w.postStep, h) }

// FixedStep advances the world by exactly one step.
//
// Order: gravity, ground contacts, damping, pre-step hooks, integration,
// force clearing, post-step hooks.
func (w *World) FixedStep() {
	dt := w.step
	for _, b := range w.bodies {
		if !b.Static() {
			b.force = b.force.Add(w.gravity.Mul(b.mass))
		}
	}
	if w.ground.Enabled {
		for _, b := range w.bodies {
			if !b.Static() {
				w.solveGround(b)
			}
		}
	}
	for _, b := range w.bodies {
		b.applyDamping(dt)
	}
	for _, h := range w.preStep {
		h(dt)
	}
	for _, b := range w.bodies {
		b.integrate(dt)
		b.clearForces()
	}
	for _, h := range w.postStep {
		h(dt)
	}
	w.steps++
	w.time += float64(dt)
}
