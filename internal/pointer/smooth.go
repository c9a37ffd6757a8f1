package pointer

import (
	"github.com/charmbracelet/harmonica"

	"github.com/olivierh59500/particle-flow/internal/sim"
)

// Smoother damps jitter in detected positions with one spring per axis
type Smoother struct {
	spring  harmonica.Spring
	enabled bool

	x, vx  float64
	y, vy  float64
	primed bool
}

// NewSmoother steps the springs once per frame at fps. A non-positive
// frequency disables smoothing.
func NewSmoother(fps int, frequency, damping float64) *Smoother {
	return &Smoother{
		spring:  harmonica.NewSpring(harmonica.FPS(fps), frequency, damping),
		enabled: frequency > 0,
	}
}

// Smooth advances the springs toward p. The first detected sample after a
// loss snaps into place instead of sliding in from the old position.
func (s *Smoother) Smooth(p sim.Pointer) sim.Pointer {
	if !p.Detected {
		s.primed = false
		return p
	}
	if !s.enabled {
		return p
	}
	if !s.primed {
		s.x, s.vx = p.X, 0
		s.y, s.vy = p.Y, 0
		s.primed = true
		return p
	}
	s.x, s.vx = s.spring.Update(s.x, s.vx, p.X)
	s.y, s.vy = s.spring.Update(s.y, s.vy, p.Y)
	p.X = clamp01(s.x)
	p.Y = clamp01(s.y)
	return p
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
