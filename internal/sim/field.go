package sim

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Gesture is the discrete hand state reported with a pointer sample
type Gesture int

const (
	GestureNone Gesture = iota
	GestureOpen
	GestureClosed
)

func (g Gesture) String() string {
	switch g {
	case GestureOpen:
		return "open"
	case GestureClosed:
		return "closed"
	default:
		return "none"
	}
}

// Pointer is the normalized control signal for one frame.
// X and Y are in [0,1]; Gesture is meaningful only when Detected.
type Pointer struct {
	X, Y     float64
	Detected bool
	Gesture  Gesture
}

// Pixel returns the pointer position in canvas space
func (p Pointer) Pixel(b Bounds) r2.Vec {
	return r2.Vec{X: p.X * b.Width, Y: p.Y * b.Height}
}

// TrailDamping scales the field in Trail mode
const TrailDamping = 0.1

// Influence is the effective field behaviour after gesture overrides
type Influence struct {
	Mode   Mode
	Force  float64
	Radius float64
}

type override struct {
	mode        Mode
	forceScale  float64
	radiusScale float64
}

// gestureOverrides maps a gesture to the field it forces, regardless of the configured mode
var gestureOverrides = map[Gesture]override{
	GestureClosed: {mode: Attract, forceScale: 1.5, radiusScale: 1.2},
	GestureOpen:   {mode: Repel, forceScale: 1.2, radiusScale: 1.0},
}

// Resolve returns the effective mode, force and radius for this pointer state
func Resolve(ptr Pointer, cfg Config) Influence {
	inf := Influence{
		Mode:   cfg.InteractionMode,
		Force:  cfg.InteractionForce,
		Radius: cfg.InteractionRadius,
	}
	if !ptr.Detected {
		return inf
	}
	if o, ok := gestureOverrides[ptr.Gesture]; ok {
		inf.Mode = o.mode
		inf.Force *= o.forceScale
		inf.Radius *= o.radiusScale
	}
	return inf
}

// Field returns the velocity delta the pointer applies to a particle at pos.
// The boolean reports whether pos lies inside the influence disc; outside it,
// or with no pointer detected, the delta is zero.
func Field(pos r2.Vec, b Bounds, ptr Pointer, cfg Config) (r2.Vec, bool) {
	if !ptr.Detected {
		return r2.Vec{}, false
	}
	inf := Resolve(ptr, cfg)

	d := r2.Sub(ptr.Pixel(b), pos)
	dist := r2.Norm(d)
	if dist >= inf.Radius {
		return r2.Vec{}, false
	}
	// Particle sits on the pointer, no direction to push along
	if dist == 0 {
		return r2.Vec{}, true
	}

	falloff := (inf.Radius - dist) / inf.Radius
	power := falloff * inf.Force
	unit := r2.Vec{X: d.X / dist, Y: d.Y / dist}

	switch inf.Mode {
	case Attract:
		return r2.Scale(power, unit), true
	case Trail:
		return r2.Scale(power*TrailDamping, unit), true
	default:
		return r2.Scale(-power, unit), true
	}
}
