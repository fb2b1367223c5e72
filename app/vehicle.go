package app

import (
	"github.com/go-gl/mathgl/mgl32"

	"tumble/internal/config"
	"tumble/physics"
)

const (
	chassisMass = 150

	maxEngineForce = 300
	brakeForce     = 10
	maxSteer       = 0.5
)

var (
	chassisHalfExtents = mgl32.Vec3{2, 0.5, 1}

	// Rear wheels first; drive and steering index into this order.
	wheelConnections = []mgl32.Vec3{
		{-1, 0, 1},
		{-1, 0, -1},
		{1, 0, 1},
		{1, 0, -1},
	}
	rearWheels  = []int{0, 1}
	frontWheels = []int{2, 3}
)

func newVehicle(cfg config.SceneConfig) *physics.RaycastVehicle {
	chassis := physics.NewBody(physics.BodyOptions{
		Name:            "chassis",
		Mass:            chassisMass,
		Shape:           physics.Box{HalfExtents: chassisHalfExtents},
		Position:        vec3(cfg.ChassisPosition),
		AngularVelocity: vec3(cfg.ChassisSpin),
	})
	v := physics.NewRaycastVehicle(chassis)
	for _, p := range wheelConnections {
		o := physics.DefaultWheelOptions()
		o.ChassisConnectionPointLocal = p
		v.AddWheel(o)
	}
	return v
}

// drive applies the held controls to the vehicle.
func drive(v *physics.RaycastVehicle, c controls) {
	var force float32
	switch {
	case c.forward && !c.back:
		force = maxEngineForce
	case c.back && !c.forward:
		force = -maxEngineForce / 2
	}
	for _, i := range rearWheels {
		v.ApplyEngineForce(force, i)
	}

	var steer float32
	switch {
	case c.left && !c.right:
		steer = maxSteer
	case c.right && !c.left:
		steer = -maxSteer
	}
	for _, i := range frontWheels {
		v.SetSteeringValue(steer, i)
	}

	var brake float32
	if c.brake {
		brake = brakeForce
	}
	for i := range v.Wheels() {
		v.SetBrake(brake, i)
	}
}
