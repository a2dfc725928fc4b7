// Package world provides a minimal rigid-body stand-in for the physics
// engine the controller normally runs against. It implements the same
// read/write contract (translation, velocities, rotation per body part;
// torque and force per joint) so the controller, trainer and tests can run
// headlessly. It is deliberately crude: the controller does not depend on
// solver quality, only on the contract.
package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/standup/components"
	"github.com/pthm-cable/standup/morphology"
)

// ErrBodyDisposed is returned when actuating a part that has been disposed.
var ErrBodyDisposed = errors.New("body disposed")

// ErrNotLive is returned when actuating before the robot has been spawned.
var ErrNotLive = errors.New("world not live")

// Options holds the world's integration parameters.
type Options struct {
	Gravity        float32
	JointStiffness float32
	JointDamping   float32
	LinearDamping  float32
	Terrain        *Terrain // nil = flat ground at y=0
}

// jointState tracks the integrated state of one actuated joint.
type jointState struct {
	angle   float32
	angVel  float32
	torque  float32 // accumulated this step, consumed by Step
	spec    morphology.JointSpec
	part    ecs.Entity
	hasPart bool
}

// World simulates one robot built from a morphology.
type World struct {
	morph *morphology.Morphology
	opts  Options

	ecs    *ecs.World
	mapper *ecs.Map5[
		components.Translation,
		components.LinVel,
		components.AngVel,
		components.Orientation,
		components.Part,
	]
	posMap  *ecs.Map1[components.Translation]
	velMap  *ecs.Map1[components.LinVel]
	angMap  *ecs.Map1[components.AngVel]
	rotMap  *ecs.Map1[components.Orientation]
	partMap *ecs.Map1[components.Part]

	parts  map[string]ecs.Entity
	joints []jointState
	live   bool
}

// New creates a world for the given morphology. The robot is not live
// until Spawn is called; body reads before that report unavailable.
func New(m *morphology.Morphology, opts Options) *World {
	w := ecs.NewWorld()
	return &World{
		morph: m,
		opts:  opts,
		ecs:   w,
		mapper: ecs.NewMap5[
			components.Translation,
			components.LinVel,
			components.AngVel,
			components.Orientation,
			components.Part,
		](w),
		posMap:  ecs.NewMap1[components.Translation](w),
		velMap:  ecs.NewMap1[components.LinVel](w),
		angMap:  ecs.NewMap1[components.AngVel](w),
		rotMap:  ecs.NewMap1[components.Orientation](w),
		partMap: ecs.NewMap1[components.Part](w),
		parts:   make(map[string]ecs.Entity, len(m.Parts)),
	}
}

// Spawn creates the robot's body parts at their rest pose and marks the
// world live.
func (w *World) Spawn() {
	for _, p := range w.morph.Parts {
		pos := components.Translation{X: p.RestOffset[0], Y: p.RestOffset[1], Z: p.RestOffset[2]}
		vel := components.LinVel{}
		ang := components.AngVel{}
		rot := components.Orientation{W: 1}
		part := components.Part{
			Name:  p.Name,
			RestX: p.RestOffset[0],
			RestY: p.RestOffset[1],
			RestZ: p.RestOffset[2],
			Mass:  p.Mass,
		}
		e := w.mapper.NewEntity(&pos, &vel, &ang, &rot, &part)
		w.parts[p.Name] = e
	}

	w.joints = make([]jointState, len(w.morph.Joints))
	for i, j := range w.morph.Joints {
		w.joints[i] = jointState{spec: j}
		if e, ok := w.parts[j.Part]; ok {
			w.joints[i].part = e
			w.joints[i].hasPart = true
		}
	}
	w.live = true
}

// Live reports whether the robot has been spawned.
func (w *World) Live() bool { return w.live }

// GroundLevel returns the ground height under (x, z).
func (w *World) GroundLevel(x, z float32) float32 {
	return w.opts.Terrain.Height(x, z)
}

// Handle is a read handle to one part, satisfying the controller's Body contract.
type Handle struct {
	w *World
	e ecs.Entity
}

func (b Handle) Live() bool {
	if !b.w.live || !b.w.ecs.Alive(b.e) {
		return false
	}
	return !b.w.partMap.Get(b.e).Disposed
}

func (b Handle) Translation() components.Vec3 {
	p := b.w.posMap.Get(b.e)
	return components.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

func (b Handle) Linvel() components.Vec3 {
	v := b.w.velMap.Get(b.e)
	return components.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

func (b Handle) Angvel() components.Vec3 {
	a := b.w.angMap.Get(b.e)
	return components.Vec3{X: a.X, Y: a.Y, Z: a.Z}
}

func (b Handle) Rotation() components.Quat {
	r := b.w.rotMap.Get(b.e)
	return components.Quat{X: r.X, Y: r.Y, Z: r.Z, W: r.W}
}

// Body returns a handle to a named part. The second return is false until
// the robot is spawned or if the part does not exist.
func (w *World) Body(name string) (Handle, bool) {
	if !w.live {
		return Handle{}, false
	}
	e, ok := w.parts[name]
	if !ok {
		return Handle{}, false
	}
	return Handle{w: w, e: e}, true
}

// MotorCount returns the number of actuated joints.
func (w *World) MotorCount() int { return len(w.morph.Joints) }

// JointAngle returns the current angle of a joint in radians.
func (w *World) JointAngle(motor int) float32 {
	if motor < 0 || motor >= len(w.joints) {
		return 0
	}
	return w.joints[motor].angle
}

// AddTorque applies a torque to a joint's body part. Only the component
// along the joint axis drives the joint. The wake flag is accepted for
// contract compatibility and ignored.
func (w *World) AddTorque(motor int, t components.Vec3, wake bool) error {
	_ = wake
	if !w.live {
		return ErrNotLive
	}
	if motor < 0 || motor >= len(w.joints) {
		return fmt.Errorf("joint %d out of range", motor)
	}
	j := &w.joints[motor]
	if j.hasPart && w.partMap.Get(j.part).Disposed {
		return fmt.Errorf("joint %s: %w", j.spec.Name, ErrBodyDisposed)
	}
	axis := j.spec.Axis
	j.torque += t.X*axis[0] + t.Y*axis[1] + t.Z*axis[2]
	return nil
}

// AddForce applies a linear force to a joint's body part.
func (w *World) AddForce(motor int, f components.Vec3, wake bool) error {
	_ = wake
	if !w.live {
		return ErrNotLive
	}
	if motor < 0 || motor >= len(w.joints) {
		return fmt.Errorf("joint %d out of range", motor)
	}
	j := &w.joints[motor]
	if !j.hasPart {
		return nil
	}
	part := w.partMap.Get(j.part)
	if part.Disposed {
		return fmt.Errorf("joint %s: %w", j.spec.Name, ErrBodyDisposed)
	}
	mass := part.Mass
	if mass <= 0 {
		mass = 1
	}
	vel := w.velMap.Get(j.part)
	vel.X += f.X / mass
	vel.Y += f.Y / mass
	vel.Z += f.Z / mass
	return nil
}

// DisposePart marks a part disposed, for exercising actuation-error paths.
func (w *World) DisposePart(name string) {
	if e, ok := w.parts[name]; ok {
		w.partMap.Get(e).Disposed = true
	}
}

// Step advances the world by dt seconds.
func (w *World) Step(dt float32) {
	if !w.live {
		return
	}

	// Joint dynamics: torque against a spring-damper, angle clamped to the
	// joint's soft range.
	var activity, asymmetry float32
	for i := range w.joints {
		j := &w.joints[i]
		acc := j.torque - w.opts.JointStiffness*j.angle - w.opts.JointDamping*j.angVel
		j.angVel += acc * dt
		j.angle += j.angVel * dt
		if j.angle > j.spec.Range {
			j.angle = j.spec.Range
			j.angVel = 0
		} else if j.angle < -j.spec.Range {
			j.angle = -j.spec.Range
			j.angVel = 0
		}
		j.torque = 0

		activity += abs32(j.angVel)
		if i%2 == 0 {
			asymmetry += j.angle
		} else {
			asymmetry -= j.angle
		}
	}

	// Support: the robot is held up in proportion to how many feet are on
	// the ground and how straight its legs are.
	grounded := 0
	for _, leg := range w.morph.Legs {
		if e, ok := w.parts[leg.Foot]; ok {
			p := w.posMap.Get(e)
			if p.Y <= w.GroundLevel(p.X, p.Z)+0.08 {
				grounded++
			}
		}
	}
	support := float32(grounded) / float32(max(1, len(w.morph.Legs)))
	var meanBend float32
	for i := range w.joints {
		meanBend += abs32(w.joints[i].angle)
	}
	meanBend /= float32(max(1, len(w.joints)))
	support *= 1 - clamp01(meanBend)

	damping := float32(math.Exp(float64(-w.opts.LinearDamping * dt)))

	for name, e := range w.parts {
		pos := w.posMap.Get(e)
		vel := w.velMap.Get(e)
		ang := w.angMap.Get(e)
		rot := w.rotMap.Get(e)
		part := w.partMap.Get(e)
		if part.Disposed {
			continue
		}

		// Gravity, counteracted by leg support pushing the part back toward
		// its rest height.
		vel.Y -= w.opts.Gravity * dt
		vel.Y += support * w.opts.Gravity * dt * (1 + 0.5*(part.RestY-pos.Y))

		// Joint churn leaks into lateral drift and torso tilt.
		if name == "torso" || name == "head" {
			vel.X += asymmetry * 0.02 * dt
			ang.X += asymmetry * 0.05 * dt
			ang.Z += (activity*0.01 - ang.Z*0.5) * dt
			if support < 0.5 {
				ang.X += (0.5 - support) * 0.4 * dt
			}
		}

		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
		pos.Z += vel.Z * dt

		// Ground contact: feet and any fallen part rest on the terrain.
		ground := w.GroundLevel(pos.X, pos.Z)
		if pos.Y < ground+0.02 {
			pos.Y = ground + 0.02
			if vel.Y < 0 {
				vel.Y = 0
			}
			vel.X *= 0.8
			vel.Z *= 0.8
		}

		vel.X *= damping
		vel.Z *= damping
		ang.Y *= damping

		integrateQuat(rot, ang, dt)
	}
}

// ResetPose returns every part to its rest offset with zero velocities and
// zeroed joints. Disposed parts stay disposed.
func (w *World) ResetPose() {
	for _, e := range w.parts {
		part := w.partMap.Get(e)
		pos := w.posMap.Get(e)
		vel := w.velMap.Get(e)
		ang := w.angMap.Get(e)
		rot := w.rotMap.Get(e)
		pos.X, pos.Y, pos.Z = part.RestX, part.RestY, part.RestZ
		*vel = components.LinVel{}
		*ang = components.AngVel{}
		*rot = components.Orientation{W: 1}
	}
	for i := range w.joints {
		w.joints[i].angle = 0
		w.joints[i].angVel = 0
		w.joints[i].torque = 0
	}
}

// integrateQuat applies an angular velocity over dt to a quaternion and
// renormalizes.
func integrateQuat(q *components.Orientation, av *components.AngVel, dt float32) {
	hx := av.X * dt * 0.5
	hy := av.Y * dt * 0.5
	hz := av.Z * dt * 0.5
	nx := q.X + hx*q.W + hy*q.Z - hz*q.Y
	ny := q.Y - hx*q.Z + hy*q.W + hz*q.X
	nz := q.Z + hx*q.Y - hy*q.X + hz*q.W
	nw := q.W - hx*q.X - hy*q.Y - hz*q.Z
	mag := float32(math.Sqrt(float64(nx*nx + ny*ny + nz*nz + nw*nw)))
	if mag < 1e-8 {
		q.X, q.Y, q.Z, q.W = 0, 0, 0, 1
		return
	}
	q.X, q.Y, q.Z, q.W = nx/mag, ny/mag, nz/mag, nw/mag
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
