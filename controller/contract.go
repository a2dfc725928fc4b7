// Package controller implements the online-learning standing controller:
// sensor encoding, fitness evaluation, action selection, action smoothing,
// experience curation, the episodic training loop and model lifecycle.
//
// The physics engine is an external collaborator. The controller only
// requires the narrow read/write contract below and tolerates any handle
// being transiently unavailable by skipping the tick.
package controller

import "github.com/pthm-cable/standup/components"

// Body is the per-part read contract required from the physics engine.
type Body interface {
	// Live reports whether the underlying rigid body can be read. A false
	// return is not an error; the caller skips the tick.
	Live() bool
	Translation() components.Vec3
	Linvel() components.Vec3
	Angvel() components.Vec3
	Rotation() components.Quat
}

// PhysicsFrame is the controller's view of the physics world for one
// control tick.
type PhysicsFrame interface {
	Body(name string) (Body, bool)
	GroundLevel(x, z float32) float32
}

// Actuator writes motor commands back into the physics world, one joint
// per motor index, and exposes joint angles for sensing.
type Actuator interface {
	MotorCount() int
	JointAngle(motor int) float32
	AddTorque(motor int, t components.Vec3, wake bool) error
	AddForce(motor int, f components.Vec3, wake bool) error
}
