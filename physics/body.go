// Package physics is a small rigid-body simulator: box bodies, a ground plane,
// linear/angular damping and a raycast vehicle, advanced in fixed steps.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Defaults applied to bodies created with zero damping options.
const (
	DefaultLinearDamping  = 0.01
	DefaultAngularDamping = 0.01
)

// Box is an axis-aligned box shape in body space.
type Box struct {
	HalfExtents mgl32.Vec3
}

// corners returns the eight box corners in body space.
func (b Box) corners() [8]mgl32.Vec3 {
	h := b.HalfExtents
	var out [8]mgl32.Vec3
	i := 0
	for _, sx := range [2]float32{-1, 1} {
		for _, sy := range [2]float32{-1, 1} {
			for _, sz := range [2]float32{-1, 1} {
				out[i] = mgl32.Vec3{sx * h.X(), sy * h.Y(), sz * h.Z()}
				i++
			}
		}
	}
	return out
}

// inertia returns the principal moments of a solid box of mass m.
func (b Box) inertia(m float32) mgl32.Vec3 {
	e := b.HalfExtents.Mul(2)
	return mgl32.Vec3{
		m / 12 * (e.Y()*e.Y() + e.Z()*e.Z()),
		m / 12 * (e.X()*e.X() + e.Z()*e.Z()),
		m / 12 * (e.X()*e.X() + e.Y()*e.Y()),
	}
}

// BodyOptions configures NewBody. A zero Mass makes the body static.
type BodyOptions struct {
	Name     string
	Mass     float32
	Shape    Box
	Position mgl32.Vec3
	// Orientation defaults to identity when zero.
	Orientation     mgl32.Quat
	Velocity        mgl32.Vec3
	AngularVelocity mgl32.Vec3
	// Damping defaults to DefaultLinearDamping/DefaultAngularDamping when zero.
	// Use NoDamping to disable it explicitly.
	LinearDamping  float32
	AngularDamping float32
}

// NoDamping disables damping when used as a BodyOptions damping value.
const NoDamping = float32(-1)

// Body is a simulated rigid box. It is owned by a World and mutated only
// inside World.FixedStep.
type Body struct {
	id   int
	name string

	mass    float32
	invMass float32
	shape   Box

	invInertia      mgl32.Vec3
	invInertiaWorld mgl32.Mat3

	position        mgl32.Vec3
	orientation     mgl32.Quat
	velocity        mgl32.Vec3
	angularVelocity mgl32.Vec3

	force  mgl32.Vec3
	torque mgl32.Vec3

	linearDamping  float32
	angularDamping float32
}

// NewBody creates a body. It is not simulated until added to a World.
func NewBody(opts BodyOptions) *Body {
	b := &Body{
		name:            opts.Name,
		mass:            opts.Mass,
		shape:           opts.Shape,
		position:        opts.Position,
		orientation:     opts.Orientation,
		velocity:        opts.Velocity,
		angularVelocity: opts.AngularVelocity,
		linearDamping:   dampingOrDefault(opts.LinearDamping, DefaultLinearDamping),
		angularDamping:  dampingOrDefault(opts.AngularDamping, DefaultAngularDamping),
	}
	if b.orientation.W == 0 && b.orientation.V == (mgl32.Vec3{}) {
		b.orientation = mgl32.QuatIdent()
	}
	b.orientation = b.orientation.Normalize()
	if b.mass > 0 {
		b.invMass = 1 / b.mass
		in := b.shape.inertia(b.mass)
		b.invInertia = mgl32.Vec3{invOrZero(in.X()), invOrZero(in.Y()), invOrZero(in.Z())}
	}
	b.updateInertiaWorld()
	return b
}

// dampingOrDefault maps a damping option into [0,1]. Values above 1 would
// make (1-d)^dt undefined.
func dampingOrDefault(v, def float32) float32 {
	switch {
	case v < 0:
		return 0
	case v == 0:
		return def
	case v > 1:
		return 1
	default:
		return v
	}
}

func invOrZero(v float32) float32 {
	if v == 0 {
		return 0
	}
	return 1 / v
}

func (b *Body) ID() int                     { return b.id }
func (b *Body) Name() string                { return b.name }
func (b *Body) Mass() float32               { return b.mass }
func (b *Body) Shape() Box                  { return b.shape }
func (b *Body) Static() bool                { return b.invMass == 0 }
func (b *Body) Position() mgl32.Vec3        { return b.position }
func (b *Body) Orientation() mgl32.Quat     { return b.orientation }
func (b *Body) Velocity() mgl32.Vec3        { return b.velocity }
func (b *Body) AngularVelocity() mgl32.Vec3 { return b.angularVelocity }
func (b *Body) LinearDamping() float32      { return b.linearDamping }
func (b *Body) AngularDamping() float32     { return b.angularDamping }

func (b *Body) SetPosition(p mgl32.Vec3)        { b.position = p }
func (b *Body) SetVelocity(v mgl32.Vec3)        { b.velocity = v }
func (b *Body) SetAngularVelocity(w mgl32.Vec3) { b.angularVelocity = w }

func (b *Body) SetOrientation(q mgl32.Quat) {
	b.orientation = q.Normalize()
	b.updateInertiaWorld()
}

// ApplyForce accumulates a force applied at rel, a body-relative world-space offset.
func (b *Body) ApplyForce(f, rel mgl32.Vec3) {
	if b.Static() {
		return
	}
	b.force = b.force.Add(f)
	b.torque = b.torque.Add(rel.Cross(f))
}

// ApplyImpulse changes velocities immediately, as if impulse hit the body at rel.
func (b *Body) ApplyImpulse(impulse, rel mgl32.Vec3) {
	if b.Static() {
		return
	}
	b.velocity = b.velocity.Add(impulse.Mul(b.invMass))
	b.angularVelocity = b.angularVelocity.Add(b.invInertiaWorld.Mul3x1(rel.Cross(impulse)))
}

// VelocityAt returns the world velocity of the body point at rel.
func (b *Body) VelocityAt(rel mgl32.Vec3) mgl32.Vec3 {
	return b.velocity.Add(b.angularVelocity.Cross(rel))
}

// effectiveInvMass is the inverse mass seen by an impulse along n at rel.
func (b *Body) effectiveInvMass(rel, n mgl32.Vec3) float32 {
	rn := rel.Cross(n)
	return b.invMass + n.Dot(b.invInertiaWorld.Mul3x1(rn).Cross(rel))
}

func (b *Body) updateInertiaWorld() {
	r := b.orientation.Mat4().Mat3()
	b.invInertiaWorld = r.Mul3(mgl32.Diag3(b.invInertia)).Mul3(r.Transpose())
}

func (b *Body) applyDamping(dt float32) {
	b.velocity = b.velocity.Mul(dampingFactor(b.linearDamping, dt))
	b.angularVelocity = b.angularVelocity.Mul(dampingFactor(b.angularDamping, dt))
}

func dampingFactor(d, dt float32) float32 {
	return float32(math.Pow(float64(1-d), float64(dt)))
}

// integrate advances the body with semi-implicit Euler.
func (b *Body) integrate(dt float32) {
	if b.Static() {
		return
	}
	b.velocity = b.velocity.Add(b.force.Mul(b.invMass * dt))
	b.angularVelocity = b.angularVelocity.Add(b.invInertiaWorld.Mul3x1(b.torque).Mul(dt))
	b.position = b.position.Add(b.velocity.Mul(dt))
	b.orientation = IntegrateOrientation(b.orientation, b.angularVelocity, dt)
	b.updateInertiaWorld()
}

// IntegrateOrientation returns normalize(q + dt/2 * (w ⊗ q)).
func IntegrateOrientation(q mgl32.Quat, w mgl32.Vec3, dt float32) mgl32.Quat {
	spin := mgl32.Quat{W: 0, V: w}.Mul(q).Scale(dt / 2)
	return q.Add(spin).Normalize()
}

func (b *Body) clearForces() {
	b.force = mgl32.Vec3{}
	b.torque = mgl32.Vec3{}
}
