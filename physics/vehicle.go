package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Chassis-local axes: X forward, Y up, Z to the right.
var (
	forwardLocal = mgl32.Vec3{1, 0, 0}
	upLocal      = mgl32.Vec3{0, 1, 0}
)

const (
	sideFrictionDamping = 0.2
	forwardSlipFactor   = 0.5
	spinDecay           = 0.99
)

// WheelOptions describes one raycast wheel.
type WheelOptions struct {
	Radius float32

	DirectionLocal              mgl32.Vec3
	AxleLocal                   mgl32.Vec3
	ChassisConnectionPointLocal mgl32.Vec3

	SuspensionStiffness  float32
	SuspensionRestLength float32
	MaxSuspensionTravel  float32
	MaxSuspensionForce   float32
	DampingRelaxation    float32
	DampingCompression   float32

	FrictionSlip  float32
	RollInfluence float32

	CustomSlidingRotationalSpeed    float32
	UseCustomSlidingRotationalSpeed bool
}

// DefaultWheelOptions returns a soft road-car wheel with the connection point
// left at the chassis origin.
func DefaultWheelOptions() WheelOptions {
	return WheelOptions{
		Radius:                          0.5,
		DirectionLocal:                  mgl32.Vec3{0, -1, 0},
		AxleLocal:                       mgl32.Vec3{0, 0, 1},
		SuspensionStiffness:             30,
		SuspensionRestLength:            0.3,
		MaxSuspensionTravel:             0.3,
		MaxSuspensionForce:              100000,
		DampingRelaxation:               2.3,
		DampingCompression:              4.4,
		FrictionSlip:                    1.4,
		RollInfluence:                   0.01,
		CustomSlidingRotationalSpeed:    -30,
		UseCustomSlidingRotationalSpeed: true,
	}
}

// Wheel is the simulated state of one vehicle wheel. Its Position and
// Orientation are world-space and refreshed after every step.
type Wheel struct {
	opts WheelOptions

	steering    float32
	engineForce float32
	brake       float32

	rotation      float32
	deltaRotation float32

	suspensionLength  float32
	suspensionForce   float32
	suspensionRelVel  float32
	clippedInvContact float32

	inContact bool
	sliding   bool
	hitPoint  mgl32.Vec3

	connWorld mgl32.Vec3
	dirWorld  mgl32.Vec3

	position    mgl32.Vec3
	orientation mgl32.Quat
}

func (w *Wheel) Options() WheelOptions      { return w.opts }
func (w *Wheel) Position() mgl32.Vec3       { return w.position }
func (w *Wheel) Orientation() mgl32.Quat    { return w.orientation }
func (w *Wheel) InContact() bool            { return w.inContact }
func (w *Wheel) Sliding() bool              { return w.sliding }
func (w *Wheel) SuspensionLength() float32  { return w.suspensionLength }
func (w *Wheel) SuspensionForce() float32   { return w.suspensionForce }
func (w *Wheel) Rotation() float32          { return w.rotation }
func (w *Wheel) Steering() float32          { return w.steering }
func (w *Wheel) EngineForce() float32       { return w.engineForce }
func (w *Wheel) Brake() float32             { return w.brake }
func (w *Wheel) ContactPoint() mgl32.Vec3   { return w.hitPoint }

// RaycastVehicle is a chassis body held up by raycast wheels against the
// world's ground plane.
type RaycastVehicle struct {
	chassis *Body
	wheels  []*Wheel
	world   *World
}

// NewRaycastVehicle wraps chassis. Add wheels, then call AddToWorld.
func NewRaycastVehicle(chassis *Body) *RaycastVehicle {
	return &RaycastVehicle{chassis: chassis}
}

func (v *RaycastVehicle) Chassis() *Body   { return v.chassis }
func (v *RaycastVehicle) Wheels() []*Wheel { return v.wheels }

// AddWheel appends a wheel and returns its index.
func (v *RaycastVehicle) AddWheel(o WheelOptions) int {
	w := &Wheel{
		opts:             o,
		suspensionLength: o.SuspensionRestLength,
		orientation:      mgl32.QuatIdent(),
	}
	v.wheels = append(v.wheels, w)
	if v.world != nil {
		v.updateWheelTransform(w)
	}
	return len(v.wheels) - 1
}

// AddToWorld adds the chassis to world and hooks the vehicle into its step.
func (v *RaycastVehicle) AddToWorld(world *World) {
	v.world = world
	world.AddBody(v.chassis)
	world.OnPreStep(v.update)
	world.OnPostStep(func(float32) { v.updateWheelTransforms() })
	v.updateWheelTransforms()
}

func (v *RaycastVehicle) wheel(i int) *Wheel {
	if i < 0 || i >= len(v.wheels) {
		return nil
	}
	return v.wheels[i]
}

// ApplyEngineForce sets the drive force on wheel i.
func (v *RaycastVehicle) ApplyEngineForce(force float32, i int) {
	if w := v.wheel(i); w != nil {
		w.engineForce = force
	}
}

// SetBrake sets the brake force on wheel i.
func (v *RaycastVehicle) SetBrake(brake float32, i int) {
	if w := v.wheel(i); w != nil {
		w.brake = brake
	}
}

// SetSteeringValue sets the steering angle of wheel i in radians.
func (v *RaycastVehicle) SetSteeringValue(angle float32, i int) {
	if w := v.wheel(i); w != nil {
		w.steering = angle
	}
}

// Speed returns the chassis speed along its forward axis.
func (v *RaycastVehicle) Speed() float32 {
	fwd := v.chassis.orientation.Rotate(forwardLocal)
	return v.chassis.velocity.Dot(fwd)
}

func (v *RaycastVehicle) update(dt float32) {
	c := v.chassis
	for _, w := range v.wheels {
		v.updateWheelWorld(w)
		v.castRay(w)
	}

	for _, w := range v.wheels {
		w.suspensionForce = 0
		if !w.inContact {
			continue
		}
		o := w.opts
		force := o.SuspensionStiffness * (o.SuspensionRestLength - w.suspensionLength) * w.clippedInvContact
		damping := o.DampingRelaxation
		if w.suspensionRelVel < 0 {
			damping = o.DampingCompression
		}
		force -= damping * w.suspensionRelVel
		force *= c.mass
		if force < 0 {
			force = 0
		}
		if o.MaxSuspensionForce > 0 && force > o.MaxSuspensionForce {
			force = o.MaxSuspensionForce
		}
		w.suspensionForce = force
		c.ApplyImpulse(groundNormal.Mul(force*dt), w.hitPoint.Sub(c.position))
	}

	v.updateFriction(dt)

	fwdWorld := c.orientation.Rotate(forwardLocal)
	for _, w := range v.wheels {
		if w.inContact {
			fwd := fwdWorld.Sub(groundNormal.Mul(fwdWorld.Dot(groundNormal)))
			vel := c.VelocityAt(w.connWorld.Sub(c.position))
			w.deltaRotation = fwd.Dot(vel) * dt / w.opts.Radius
		}
		if (w.sliding || !w.inContact) && w.engineForce != 0 && w.opts.UseCustomSlidingRotationalSpeed {
			sign := float32(1)
			if w.engineForce < 0 {
				sign = -1
			}
			w.deltaRotation = sign * w.opts.CustomSlidingRotationalSpeed * dt
		}
		w.rotation = float32(math.Mod(float64(w.rotation+w.deltaRotation), 2*math.Pi))
		w.deltaRotation *= spinDecay
	}
}

func (v *RaycastVehicle) updateWheelWorld(w *Wheel) {
	c := v.chassis
	w.connWorld = c.position.Add(c.orientation.Rotate(w.opts.ChassisConnectionPointLocal))
	w.dirWorld = c.orientation.Rotate(w.opts.DirectionLocal)
}

// castRay intersects the suspension ray with the ground plane.
func (v *RaycastVehicle) castRay(w *Wheel) {
	o := w.opts
	w.inContact = false
	w.suspensionLength = o.SuspensionRestLength
	w.suspensionRelVel = 0
	w.clippedInvContact = 1

	if v.world == nil || !v.world.ground.Enabled || w.dirWorld.Y() >= -1e-6 {
		return
	}
	t := (v.world.ground.Y - w.connWorld.Y()) / w.dirWorld.Y()
	if t < 0 || t > o.SuspensionRestLength+o.Radius {
		return
	}
	w.inContact = true
	w.hitPoint = w.connWorld.Add(w.dirWorld.Mul(t))

	length := t - o.Radius
	lo := o.SuspensionRestLength - o.MaxSuspensionTravel
	hi := o.SuspensionRestLength + o.MaxSuspensionTravel
	if length < lo {
		length = lo
	}
	if length > hi {
		length = hi
	}
	w.suspensionLength = length

	c := v.chassis
	denom := groundNormal.Dot(w.dirWorld)
	projVel := groundNormal.Dot(c.VelocityAt(w.hitPoint.Sub(c.position)))
	if denom >= -0.1 {
		w.clippedInvContact = 10
		return
	}
	inv := -1 / denom
	w.suspensionRelVel = projVel * inv
	w.clippedInvContact = inv
}

func (v *RaycastVehicle) steeredAxle(w *Wheel) mgl32.Vec3 {
	up := w.opts.DirectionLocal.Mul(-1)
	steer := mgl32.QuatRotate(w.steering, up)
	return v.chassis.orientation.Mul(steer).Rotate(w.opts.AxleLocal)
}

func (v *RaycastVehicle) updateFriction(dt float32) {
	c := v.chassis
	n := len(v.wheels)
	if n == 0 {
		return
	}
	side := make([]float32, n)
	forward := make([]float32, n)
	axles := make([]mgl32.Vec3, n)
	fwds := make([]mgl32.Vec3, n)

	for i, w := range v.wheels {
		w.sliding = false
		if !w.inContact {
			continue
		}
		axle := v.steeredAxle(w)
		axle = axle.Sub(groundNormal.Mul(axle.Dot(groundNormal)))
		if axle.Len() < 1e-6 {
			continue
		}
		axle = axle.Normalize()
		fwd := groundNormal.Cross(axle).Normalize()
		axles[i], fwds[i] = axle, fwd

		rel := w.hitPoint.Sub(c.position)
		if k := c.effectiveInvMass(rel, axle); k > 0 {
			side[i] = -sideFrictionDamping * c.VelocityAt(rel).Dot(axle) / k
		}

		switch {
		case w.engineForce != 0:
			forward[i] = w.engineForce * dt
		case w.brake > 0:
			if k := c.effectiveInvMass(rel, fwd); k > 0 {
				imp := -c.VelocityAt(rel).Dot(fwd) / k
				limit := w.brake * dt
				if imp > limit {
					imp = limit
				}
				if imp < -limit {
					imp = -limit
				}
				forward[i] = imp
			}
		}

		maxImp := w.suspensionForce * dt * w.opts.FrictionSlip
		x := forward[i] * forwardSlipFactor
		y := side[i]
		sq := x*x + y*y
		if sq > maxImp*maxImp {
			w.sliding = true
			f := maxImp / float32(math.Sqrt(float64(sq)))
			forward[i] *= f
			side[i] *= f
		}
	}

	chassisUp := c.orientation.Rotate(upLocal)
	for i, w := range v.wheels {
		if !w.inContact {
			continue
		}
		rel := w.hitPoint.Sub(c.position)
		if forward[i] != 0 {
			c.ApplyImpulse(fwds[i].Mul(forward[i]), rel)
		}
		if side[i] != 0 {
			roll := rel.Sub(chassisUp.Mul(rel.Dot(chassisUp) * (1 - w.opts.RollInfluence)))
			c.ApplyImpulse(axles[i].Mul(side[i]), roll)
		}
	}
}

func (v *RaycastVehicle) updateWheelTransforms() {
	for _, w := range v.wheels {
		v.updateWheelTransform(w)
	}
}

func (v *RaycastVehicle) updateWheelTransform(w *Wheel) {
	v.updateWheelWorld(w)
	w.position = w.connWorld.Add(w.dirWorld.Mul(w.suspensionLength))

	up := w.opts.DirectionLocal.Mul(-1)
	steer := mgl32.QuatRotate(w.steering, up)
	spin := mgl32.QuatRotate(w.rotation, w.opts.AxleLocal)
	w.orientation = v.chassis.orientation.Mul(steer).Mul(spin).Normalize()
}
