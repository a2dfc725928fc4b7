// Package morphology describes the supported robot body plans.
//
// Each morphology fixes the dimensionality of the controller: how many
// sensor values the encoder produces, how many motors the policy drives,
// and which network capacity tier fits the task. Morphologies are defined
// at process start and never mutated; look them up by id.
package morphology

import "fmt"

// CapacityTier selects the neural network size for a morphology.
type CapacityTier int

const (
	TierSmall CapacityTier = iota
	TierMedium
	TierLarge
)

// String returns the tier name used in logs and export metadata.
func (t CapacityTier) String() string {
	switch t {
	case TierSmall:
		return "small"
	case TierMedium:
		return "medium"
	case TierLarge:
		return "large"
	default:
		return "unknown"
	}
}

// PartSpec describes one tracked rigid body of the robot.
// RestOffset is the part's position relative to the spawn point when the
// robot stands in its rest pose.
type PartSpec struct {
	Name       string
	RestOffset [3]float32
	Mass       float32
}

// JointSpec describes one actuated joint. Each joint is one motor: the
// action vector has exactly one component per joint, in declaration order.
type JointSpec struct {
	Name  string
	Part  string     // body part the torque acts on
	Axis  [3]float32 // torque axis in world frame
	Range float32    // soft angle limit in radians
}

// LegSpec names the parts of one leg used for per-limb sensor features.
type LegSpec struct {
	Thigh string
	Foot  string
}

// Morphology is the static description of one robot variant.
type Morphology struct {
	ID          string
	DisplayName string
	SensorCount int
	MotorCount  int
	Tier        CapacityTier

	Parts  []PartSpec
	Joints []JointSpec
	Legs   []LegSpec

	// PrimaryKnees are indices into Joints for the two knees scored by the
	// fitness evaluator (front pair for quadruped and spider).
	PrimaryKnees [2]int
}

// Part looks up a body part by name.
func (m *Morphology) Part(name string) (PartSpec, bool) {
	for _, p := range m.Parts {
		if p.Name == name {
			return p, true
		}
	}
	return PartSpec{}, false
}

var registry = map[string]*Morphology{
	"biped":     biped(),
	"quadruped": quadruped(),
	"spider":    spider(),
}

// ByID looks up a morphology by its string id.
func ByID(id string) (*Morphology, error) {
	m, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("unknown morphology %q", id)
	}
	return m, nil
}

// IDs returns the registered morphology ids in a stable order.
func IDs() []string {
	return []string{"biped", "quadruped", "spider"}
}

func biped() *Morphology {
	return &Morphology{
		ID:          "biped",
		DisplayName: "Biped",
		SensorCount: 26,
		MotorCount:  6,
		Tier:        TierSmall,
		Parts: []PartSpec{
			{Name: "torso", RestOffset: [3]float32{0, 1.0, 0}, Mass: 8},
			{Name: "head", RestOffset: [3]float32{0, 1.8, 0}, Mass: 2},
			{Name: "thigh_l", RestOffset: [3]float32{-0.15, 0.7, 0}, Mass: 3},
			{Name: "thigh_r", RestOffset: [3]float32{0.15, 0.7, 0}, Mass: 3},
			{Name: "shin_l", RestOffset: [3]float32{-0.15, 0.3, 0}, Mass: 2},
			{Name: "shin_r", RestOffset: [3]float32{0.15, 0.3, 0}, Mass: 2},
			{Name: "foot_l", RestOffset: [3]float32{-0.15, 0.05, 0.05}, Mass: 1},
			{Name: "foot_r", RestOffset: [3]float32{0.15, 0.05, 0.05}, Mass: 1},
		},
		Joints: []JointSpec{
			{Name: "hip_l", Part: "thigh_l", Axis: [3]float32{1, 0, 0}, Range: 1.2},
			{Name: "hip_r", Part: "thigh_r", Axis: [3]float32{1, 0, 0}, Range: 1.2},
			{Name: "knee_l", Part: "shin_l", Axis: [3]float32{1, 0, 0}, Range: 1.6},
			{Name: "knee_r", Part: "shin_r", Axis: [3]float32{1, 0, 0}, Range: 1.6},
			{Name: "ankle_l", Part: "foot_l", Axis: [3]float32{1, 0, 0}, Range: 0.8},
			{Name: "ankle_r", Part: "foot_r", Axis: [3]float32{1, 0, 0}, Range: 0.8},
		},
		Legs: []LegSpec{
			{Thigh: "thigh_l", Foot: "foot_l"},
			{Thigh: "thigh_r", Foot: "foot_r"},
		},
		PrimaryKnees: [2]int{2, 3},
	}
}

func quadruped() *Morphology {
	parts := []PartSpec{
		{Name: "torso", RestOffset: [3]float32{0, 0.6, 0}, Mass: 10},
		{Name: "head", RestOffset: [3]float32{0, 0.8, 0.4}, Mass: 2},
	}
	legs := make([]LegSpec, 0, 4)
	joints := make([]JointSpec, 0, 8)
	for _, leg := range []struct {
		suffix string
		x, z   float32
	}{
		{"fl", -0.25, 0.35}, {"fr", 0.25, 0.35},
		{"bl", -0.25, -0.35}, {"br", 0.25, -0.35},
	} {
		thigh := "thigh_" + leg.suffix
		foot := "foot_" + leg.suffix
		parts = append(parts,
			PartSpec{Name: thigh, RestOffset: [3]float32{leg.x, 0.4, leg.z}, Mass: 2},
			PartSpec{Name: foot, RestOffset: [3]float32{leg.x, 0.05, leg.z}, Mass: 1},
		)
		joints = append(joints,
			JointSpec{Name: "hip_" + leg.suffix, Part: thigh, Axis: [3]float32{1, 0, 0}, Range: 1.2},
			JointSpec{Name: "knee_" + leg.suffix, Part: foot, Axis: [3]float32{1, 0, 0}, Range: 1.6},
		)
		legs = append(legs, LegSpec{Thigh: thigh, Foot: foot})
	}
	return &Morphology{
		ID:           "quadruped",
		DisplayName:  "Quadruped",
		SensorCount:  32,
		MotorCount:   8,
		Tier:         TierMedium,
		Parts:        parts,
		Joints:       joints,
		Legs:         legs,
		PrimaryKnees: [2]int{1, 3}, // knee_fl, knee_fr
	}
}

func spider() *Morphology {
	parts := []PartSpec{
		{Name: "torso", RestOffset: [3]float32{0, 0.5, 0}, Mass: 8},
		{Name: "head", RestOffset: [3]float32{0, 0.65, 0.3}, Mass: 1},
	}
	legs := make([]LegSpec, 0, 6)
	joints := make([]JointSpec, 0, 12)
	for _, leg := range []struct {
		suffix string
		x, z   float32
	}{
		{"l1", -0.35, 0.4}, {"r1", 0.35, 0.4},
		{"l2", -0.45, 0.0}, {"r2", 0.45, 0.0},
		{"l3", -0.35, -0.4}, {"r3", 0.35, -0.4},
	} {
		thigh := "thigh_" + leg.suffix
		foot := "foot_" + leg.suffix
		parts = append(parts,
			PartSpec{Name: thigh, RestOffset: [3]float32{leg.x, 0.35, leg.z}, Mass: 1.5},
			PartSpec{Name: foot, RestOffset: [3]float32{leg.x * 1.4, 0.05, leg.z}, Mass: 0.5},
		)
		joints = append(joints,
			JointSpec{Name: "hip_" + leg.suffix, Part: thigh, Axis: [3]float32{0, 0, 1}, Range: 1.0},
			JointSpec{Name: "knee_" + leg.suffix, Part: foot, Axis: [3]float32{0, 0, 1}, Range: 1.8},
		)
		legs = append(legs, LegSpec{Thigh: thigh, Foot: foot})
	}
	return &Morphology{
		ID:           "spider",
		DisplayName:  "Spider",
		SensorCount:  38,
		MotorCount:   12,
		Tier:         TierLarge,
		Parts:        parts,
		Joints:       joints,
		Legs:         legs,
		PrimaryKnees: [2]int{1, 3}, // knee_l1, knee_r1
	}
}
