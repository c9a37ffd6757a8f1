package sim

import (
	"fmt"
	"image/color"
	"math/rand"
)

// Frame is the consistent set of inputs read for one frame
type Frame struct {
	Config  Config
	Pointer Pointer
}

// Snapshot is the read-only view of a particle handed to renderers
type Snapshot struct {
	X, Y  float64
	Size  float64
	Color color.RGBA
}

// Cursor describes the pointer overlay for renderers
type Cursor struct {
	X, Y    float64 // Canvas pixels
	Visible bool
	Closed  bool
	Radius  float64 // Effective interaction radius
}

// Engine owns a fixed-size particle population and advances it frame by frame.
// It is not safe for concurrent use; producers publish through Inputs instead.
type Engine struct {
	bounds    Bounds
	particles []Particle
	shape     shape
	rng       *rand.Rand
}

// NewEngine builds the initial population for cfg
func NewEngine(cfg Config, b Bounds, rng *rand.Rand) (*Engine, error) {
	e := &Engine{bounds: b, rng: rng}
	if err := e.rebuild(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// rebuild replaces the whole population with freshly sampled particles
func (e *Engine) rebuild(cfg Config) error {
	s := cfg.shape()
	if err := s.validate(); err != nil {
		return fmt.Errorf("rebuild population: %w", err)
	}
	particles := make([]Particle, s.count)
	for i := range particles {
		particles[i] = Spawn(e.bounds, cfg, e.rng)
	}
	e.particles = particles
	s.colors = append([]color.RGBA(nil), s.colors...)
	e.shape = s
	return nil
}

// Advance moves every particle one frame forward.
// The population is rebuilt first when the count, palette or size range changed;
// if that new shape is invalid the frame is skipped and the old population kept.
func (e *Engine) Advance(f Frame) error {
	if !e.shape.equal(f.Config.shape()) {
		if err := e.rebuild(f.Config); err != nil {
			return err
		}
	}
	for i := range e.particles {
		e.particles[i] = Step(e.particles[i], e.bounds, f.Config, f.Pointer, e.rng)
	}
	return nil
}

// Reseed rebuilds the population with the current shape
func (e *Engine) Reseed(cfg Config) error {
	return e.rebuild(cfg)
}

// Resize changes the canvas bounds without touching the population
func (e *Engine) Resize(b Bounds) {
	e.bounds = b
}

func (e *Engine) Bounds() Bounds { return e.bounds }

func (e *Engine) Len() int { return len(e.particles) }

// Particle returns a copy of the i-th particle
func (e *Engine) Particle(i int) Particle { return e.particles[i] }

// Snapshots appends a drawable view of every particle to dst
func (e *Engine) Snapshots(dst []Snapshot) []Snapshot {
	for _, p := range e.particles {
		dst = append(dst, Snapshot{X: p.X, Y: p.Y, Size: p.Size, Color: p.Color})
	}
	return dst
}

// Cursor resolves the pointer overlay for the frame
func (e *Engine) Cursor(f Frame) Cursor {
	if !f.Pointer.Detected {
		return Cursor{}
	}
	at := f.Pointer.Pixel(e.bounds)
	return Cursor{
		X:       at.X,
		Y:       at.Y,
		Visible: true,
		Closed:  f.Pointer.Gesture == GestureClosed,
		Radius:  Resolve(f.Pointer, f.Config).Radius,
	}
}
