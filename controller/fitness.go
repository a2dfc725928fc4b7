package controller

import "math"

// FitnessParams holds the posture targets for the evaluator.
type FitnessParams struct {
	TargetHeadHeight  float64
	TargetTorsoHeight float64
}

// DefaultFitnessParams returns the canonical standing targets.
func DefaultFitnessParams() FitnessParams {
	return FitnessParams{TargetHeadHeight: 1.8, TargetTorsoHeight: 1.0}
}

// Fitness maps a sensor vector to a scalar reward in [0,100] describing how
// upright and stable the robot currently is. The score is additive: each
// aspect of good posture earns points, so a stumbling robot still receives
// graded credit instead of a cliff-edge loss.
//
// A structurally short vector scores 100: before any real sample exists,
// "no information" must not poison early training as a worst case.
func Fitness(values []float32, p FitnessParams) float64 {
	if len(values) < commonLen {
		return 100
	}
	if p.TargetHeadHeight <= 0 {
		p.TargetHeadHeight = 1.8
	}
	if p.TargetTorsoHeight <= 0 {
		p.TargetTorsoHeight = 1.0
	}

	headY := float64(values[idxHeadY])
	torsoX := float64(values[idxTorsoX])
	torsoY := float64(values[idxTorsoY])
	velX := float64(values[idxTorsoVelX])
	velY := float64(values[idxTorsoVelY])
	velZ := float64(values[idxTorsoVelZ])
	rotX := float64(values[idxRotX])
	rotZ := float64(values[idxRotZ])
	kneeL := float64(values[idxKneeL])
	kneeR := float64(values[idxKneeR])
	angX := float64(values[idxAngVelX])
	angZ := float64(values[idxAngVelZ])

	headHeightScore := math.Max(0, 40*headY/p.TargetHeadHeight)
	torsoHeightScore := math.Max(0, 30*torsoY/p.TargetTorsoHeight)
	positionStability := math.Max(0, 15*(1-math.Min(1, math.Abs(torsoX)/2)))

	speed := math.Sqrt(velX*velX + velY*velY + velZ*velZ)
	stillnessBonus := math.Max(0, 10*(1-math.Min(1, speed/2)))

	uprightBonus := math.Max(0, 15*(1-math.Abs(rotX)-math.Abs(rotZ)))
	groundContactBonus := contactBonus(values[idxContactL], values[idxContactR])
	jointStabilityBonus := math.Max(0, 10*(1-(math.Abs(kneeL)+math.Abs(kneeR))/2))
	angularStabilityBonus := math.Max(0, 10*(1-(math.Abs(angX)+math.Abs(angZ))/2))

	total := headHeightScore + torsoHeightScore + positionStability +
		stillnessBonus + uprightBonus + groundContactBonus +
		jointStabilityBonus + angularStabilityBonus

	return math.Min(100, math.Max(0, total))
}

// contactBonus awards 20 points with both main feet in contact, 10 with
// exactly one, 0 otherwise. A contact value of 0.5 or more counts.
func contactBonus(left, right float32) float64 {
	n := 0
	if left >= 0.5 {
		n++
	}
	if right >= 0.5 {
		n++
	}
	return float64(n * 10)
}
