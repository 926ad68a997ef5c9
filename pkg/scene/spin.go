package scene

import "github.com/charmbracelet/harmonica"

// DefaultSpin is the rotation per frame of the demo, in radians.
const DefaultSpin = 0.01

// Spin drives the model's rotation speed. Impulses kick the speed away
// from Target and a critically damped spring pulls it back.
type Spin struct {
	Velocity float64 // radians per frame
	Target   float64 // resting speed

	rest   float64
	spring harmonica.Spring
	accel  float64 // spring velocity of Velocity
}

// NewSpin creates a spin already turning at target radians per frame.
// fps sets the spring's time step.
func NewSpin(fps int, target float64) *Spin {
	return &Spin{
		Velocity: target,
		Target:   target,
		rest:     target,
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
		spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Step returns the rotation for this frame and moves Velocity towards
// Target.
func (s *Spin) Step() float32 {
	delta := s.Velocity
	s.Velocity, s.accel = s.spring.Update(s.Velocity, s.accel, s.Target)
	return float32(delta)
}

// Impulse adds to the current speed.
func (s *Spin) Impulse(v float64) {
	s.Velocity += v
}

// Pause toggles Target between zero and the speed given to NewSpin. The
// model eases to a stop or back up to speed.
func (s *Spin) Pause() {
	if s.Target != 0 {
		s.Target = 0
	} else {
		s.Target = s.rest
	}
}
