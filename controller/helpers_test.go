package controller

import (
	"github.com/pthm-cable/standup/components"
	"github.com/pthm-cable/standup/config"
	"github.com/pthm-cable/standup/morphology"
)

// fakeBody is a scriptable Body for tests.
type fakeBody struct {
	live bool
	pos  components.Vec3
	vel  components.Vec3
	ang  components.Vec3
	rot  components.Quat
}

func (b *fakeBody) Live() bool                    { return b.live }
func (b *fakeBody) Translation() components.Vec3 { return b.pos }
func (b *fakeBody) Linvel() components.Vec3      { return b.vel }
func (b *fakeBody) Angvel() components.Vec3      { return b.ang }
func (b *fakeBody) Rotation() components.Quat    { return b.rot }

// fakeFrame is a scriptable PhysicsFrame over named fake bodies.
type fakeFrame struct {
	bodies map[string]*fakeBody
}

func (f *fakeFrame) Body(name string) (Body, bool) {
	b, ok := f.bodies[name]
	if !ok {
		return nil, false
	}
	return b, true
}

func (f *fakeFrame) GroundLevel(x, z float32) float32 { return 0 }

// fakeActuator satisfies Actuator with fixed joint angles.
type fakeActuator struct {
	motors int
	angles []float32
}

func (a *fakeActuator) MotorCount() int { return a.motors }

func (a *fakeActuator) JointAngle(motor int) float32 {
	if motor < 0 || motor >= len(a.angles) {
		return 0
	}
	return a.angles[motor]
}

func (a *fakeActuator) AddTorque(int, components.Vec3, bool) error { return nil }
func (a *fakeActuator) AddForce(int, components.Vec3, bool) error  { return nil }

// standingFrame builds a frame with every part of the morphology live and in
// a near-perfect standing pose, feet planted on the ground.
func standingFrame(m *morphology.Morphology) *fakeFrame {
	bodies := make(map[string]*fakeBody, len(m.Parts))
	for _, p := range m.Parts {
		bodies[p.Name] = &fakeBody{
			live: true,
			pos:  components.Vec3{X: p.RestOffset[0], Y: p.RestOffset[1], Z: p.RestOffset[2]},
			rot:  components.Quat{W: 1},
		}
	}
	for _, leg := range m.Legs {
		if b, ok := bodies[leg.Foot]; ok {
			b.pos.Y = 0.01
		}
	}
	return &fakeFrame{bodies: bodies}
}

// testConfig loads the embedded defaults.
func testConfig() *config.Config {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

// mustMorph resolves a morphology or panics.
func mustMorph(id string) *morphology.Morphology {
	m, err := morphology.ByID(id)
	if err != nil {
		panic(err)
	}
	return m
}
