package controller

import (
	"github.com/pthm-cable/standup/components"
	"github.com/pthm-cable/standup/morphology"
)

// Canonical sensor vector layout. The common block is identical for every
// morphology; per-limb features follow it and vary by body plan. The
// fitness evaluator reads only the common block.
const (
	idxTorsoX    = 0
	idxTorsoY    = 1
	idxTorsoZ    = 2
	idxHeadY     = 3
	idxTorsoVelX = 4
	idxTorsoVelY = 5
	idxTorsoVelZ = 6
	idxTorsoAccX = 7
	idxTorsoAccY = 8
	idxTorsoAccZ = 9
	idxRotX      = 10
	idxRotY      = 11
	idxRotZ      = 12
	idxRotW      = 13
	idxAngVelX   = 14
	idxAngVelY   = 15
	idxAngVelZ   = 16
	idxKneeL     = 17
	idxKneeR     = 18
	idxContactL  = 19
	idxContactR  = 20

	// commonLen is the minimum vector length the fitness evaluator scores.
	commonLen = 21
)

// GroundContact is the out-of-band contact summary attached to each sensor
// vector: one continuous contact value per leg plus an aggregate flag.
type GroundContact struct {
	Contacts []float32 // per leg, 1 = foot at or below ground
	Stable   bool      // at least two feet in firm contact
}

// SensorVector is one tick's encoded physics state.
type SensorVector struct {
	Values  []float32
	Contact GroundContact
}

// SensorEncoder converts raw body-part kinematics into the fixed-length
// vector the policy and fitness evaluator consume. It keeps the previous
// tick's torso and head velocities to derive acceleration.
type SensorEncoder struct {
	morph            *morphology.Morphology
	contactThreshold float32

	prevTorsoVel components.Vec3
	prevHeadVel  components.Vec3
	havePrev     bool
}

// NewSensorEncoder creates an encoder for one morphology.
// contactThreshold is the height band above ground over which foot contact
// fades from 1 to 0.
func NewSensorEncoder(m *morphology.Morphology, contactThreshold float32) *SensorEncoder {
	if contactThreshold <= 0 {
		contactThreshold = 0.08
	}
	return &SensorEncoder{morph: m, contactThreshold: contactThreshold}
}

// Reset clears the previous-velocity snapshot. The next Encode reports
// zero acceleration.
func (e *SensorEncoder) Reset() {
	e.havePrev = false
	e.prevTorsoVel = components.Vec3{}
	e.prevHeadVel = components.Vec3{}
}

// Encode reads the physics frame and produces a sensor vector sized to the
// morphology's SensorCount. The second return is false when required
// handles are not live yet; callers skip the tick.
//
// Side effect: updates the previous-velocity snapshot used for the next
// tick's acceleration estimate.
func (e *SensorEncoder) Encode(frame PhysicsFrame, act Actuator, dt float32) (SensorVector, bool) {
	torso, ok := frame.Body("torso")
	if !ok || !torso.Live() {
		return SensorVector{}, false
	}
	head, ok := frame.Body("head")
	if !ok || !head.Live() {
		return SensorVector{}, false
	}

	pos := torso.Translation()
	vel := torso.Linvel()
	ang := torso.Angvel()
	rot := torso.Rotation()
	headPos := head.Translation()
	headVel := head.Linvel()

	var acc components.Vec3
	if e.havePrev && dt > 0 {
		acc.X = (vel.X - e.prevTorsoVel.X) / dt
		acc.Y = (vel.Y - e.prevTorsoVel.Y) / dt
		acc.Z = (vel.Z - e.prevTorsoVel.Z) / dt
	}
	e.prevTorsoVel = vel
	e.prevHeadVel = headVel
	e.havePrev = true

	// Per-leg contact and heights. Legs beyond the first pair contribute
	// extra morphology-specific features after the common block.
	contacts := make([]float32, len(e.morph.Legs))
	thighHeights := make([]float32, len(e.morph.Legs))
	footHeights := make([]float32, len(e.morph.Legs))
	for i, leg := range e.morph.Legs {
		if foot, ok := frame.Body(leg.Foot); ok && foot.Live() {
			fp := foot.Translation()
			ground := frame.GroundLevel(fp.X, fp.Z)
			contacts[i] = contactValue(ground, fp.Y, e.contactThreshold)
			footHeights[i] = fp.Y - ground
		}
		if thigh, ok := frame.Body(leg.Thigh); ok && thigh.Live() {
			thighHeights[i] = thigh.Translation().Y
		}
	}

	kneeL, kneeR := e.kneeAngles(act)

	features := make([]float32, 0, e.morph.SensorCount+8)
	features = append(features,
		pos.X, pos.Y, pos.Z,
		headPos.Y,
		vel.X, vel.Y, vel.Z,
		acc.X, acc.Y, acc.Z,
		rot.X, rot.Y, rot.Z, rot.W,
		ang.X, ang.Y, ang.Z,
		kneeL, kneeR,
	)
	features = append(features, first(contacts, 0), first(contacts, 1))
	features = append(features, thighHeights...)
	features = append(features, footHeights...)
	for i := 2; i < len(contacts); i++ {
		features = append(features, contacts[i])
	}

	// Pad or truncate to the network's fixed input width, so minor
	// feature-list drift never changes the model shape.
	values := make([]float32, e.morph.SensorCount)
	copy(values, features)

	firm := 0
	for _, c := range contacts {
		if c >= 0.5 {
			firm++
		}
	}

	return SensorVector{
		Values: values,
		Contact: GroundContact{
			Contacts: contacts,
			Stable:   firm >= 2,
		},
	}, true
}

// kneeAngles reads the two fitness-scored knee joints from the actuator.
func (e *SensorEncoder) kneeAngles(act Actuator) (float32, float32) {
	if act == nil {
		return 0, 0
	}
	return act.JointAngle(e.morph.PrimaryKnees[0]), act.JointAngle(e.morph.PrimaryKnees[1])
}

// contactValue grades foot contact continuously: 1 at or below ground,
// fading to 0 over the threshold band. A hard boolean here would put a
// cliff in the reward.
func contactValue(ground, footY, threshold float32) float32 {
	return clamp32((ground-footY+threshold)/threshold, 0, 1)
}

func first(s []float32, i int) float32 {
	if i < len(s) {
		return s[i]
	}
	return 0
}

func clamp32(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
