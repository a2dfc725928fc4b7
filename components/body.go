// Package components defines the ECS components and shared value types for
// robot body parts.
package components

// Vec3 is a 3-component vector used for positions, velocities and torques.
type Vec3 struct {
	X, Y, Z float32
}

// Quat is a unit quaternion rotation.
type Quat struct {
	X, Y, Z, W float32
}

// Identity returns the identity rotation.
func Identity() Quat {
	return Quat{W: 1}
}

// Translation is a body part's world position.
type Translation struct {
	X, Y, Z float32
}

// LinVel is a body part's linear velocity.
type LinVel struct {
	X, Y, Z float32
}

// AngVel is a body part's angular velocity.
type AngVel struct {
	X, Y, Z float32
}

// Orientation is a body part's rotation as a unit quaternion.
type Orientation struct {
	X, Y, Z, W float32
}

// Part carries a body part's static identity and lifecycle state.
type Part struct {
	Name     string
	RestX    float32
	RestY    float32
	RestZ    float32
	Mass     float32
	Disposed bool
}
