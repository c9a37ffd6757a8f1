package sim

import (
	"image/color"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

// Emission constants for Trail mode respawns
const (
	EmitJitter     = 10.0 // Max pixel offset from the pointer on each axis
	EmitSpeedScale = 2.0  // Emitted velocity spans [-speed, speed]
)

// Particle is one simulated point. Size and Color are fixed for the
// particle's lifetime; only position and velocity change between frames.
type Particle struct {
	X, Y   float64
	VX, VY float64
	Size   float64
	Color  color.RGBA
	Life   float64 // Reset to 1 on respawn, not decayed yet
}

// Spawn creates a fresh particle uniformly placed on the canvas
func Spawn(b Bounds, cfg Config, rng *rand.Rand) Particle {
	p := Particle{
		X:    rng.Float64() * b.Width,
		Y:    rng.Float64() * b.Height,
		VX:   (rng.Float64() - 0.5) * cfg.Speed,
		VY:   (rng.Float64() - 0.5) * cfg.Speed,
		Size: cfg.MinSize + rng.Float64()*(cfg.MaxSize-cfg.MinSize),
		Life: 1,
	}
	p.Color = cfg.Colors[rng.Intn(len(cfg.Colors))]
	return p
}

// Step advances p by one frame and returns the new state.
// rng is only consulted when the particle leaves the canvas.
func Step(p Particle, b Bounds, cfg Config, ptr Pointer, rng *rand.Rand) Particle {
	p.VY += cfg.Gravity
	p.VX *= cfg.Friction
	p.VY *= cfg.Friction

	if delta, ok := Field(r2.Vec{X: p.X, Y: p.Y}, b, ptr, cfg); ok {
		p.VX += delta.X
		p.VY += delta.Y
	}

	p.X += p.VX
	p.Y += p.VY

	if !b.Contains(p.X, p.Y) {
		p = respawn(p, b, cfg, ptr, rng)
	}
	return p
}

// respawn resets position and velocity in place, keeping size and color
func respawn(p Particle, b Bounds, cfg Config, ptr Pointer, rng *rand.Rand) Particle {
	if cfg.InteractionMode == Trail && ptr.Detected {
		at := ptr.Pixel(b)
		p.X = clampOpen(at.X+(rng.Float64()*2-1)*EmitJitter, b.Width)
		p.Y = clampOpen(at.Y+(rng.Float64()*2-1)*EmitJitter, b.Height)
		p.VX = (rng.Float64() - 0.5) * cfg.Speed * EmitSpeedScale
		p.VY = (rng.Float64() - 0.5) * cfg.Speed * EmitSpeedScale
	} else {
		p.X = rng.Float64() * b.Width
		p.Y = rng.Float64() * b.Height
		p.VX = (rng.Float64() - 0.5) * cfg.Speed
		p.VY = (rng.Float64() - 0.5) * cfg.Speed
	}
	p.Life = 1
	return p
}

// clampOpen keeps v inside [0, limit)
func clampOpen(v, limit float64) float64 {
	if v < 0 {
		return 0
	}
	if v >= limit {
		return math.Nextafter(limit, 0)
	}
	return v
}
