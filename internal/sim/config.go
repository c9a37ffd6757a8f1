package sim

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"slices"
	"strings"
)

// Mode selects how the pointer field acts on particles
type Mode int

const (
	Repel Mode = iota
	Attract
	Trail
)

var modeNames = [...]string{"repel", "attract", "trail"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Next cycles Repel -> Attract -> Trail -> Repel
func (m Mode) Next() Mode {
	return (m + 1) % Mode(len(modeNames))
}

// MarshalText encodes the mode as its lower-case name
func (m Mode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(modeNames) {
		return nil, fmt.Errorf("unknown interaction mode %d", int(m))
	}
	return []byte(modeNames[m]), nil
}

// UnmarshalText accepts the mode name in any case
func (m *Mode) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range modeNames {
		if n == name {
			*m = Mode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown interaction mode %q", string(text))
}

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid simulation config")

// Config holds the tunable physical parameters for one frame.
// A Config is replaced as a whole between frames, never patched.
type Config struct {
	Gravity           float64 // Vertical acceleration per frame, negative is upward
	Friction          float64 // Velocity multiplier per frame, (0,1]
	Speed             float64 // Spawn/respawn velocity scale
	ParticleCount     int
	InteractionRadius float64
	InteractionForce  float64
	InteractionMode   Mode
	Colors            []color.RGBA
	MinSize, MaxSize  float64
	FadeRate          float64 // Consumed by renderers only
}

// Clone returns a copy that shares no memory with c
func (c Config) Clone() Config {
	c.Colors = slices.Clone(c.Colors)
	return c
}

// Validate checks the documented parameter ranges
func (c Config) Validate() error {
	var problems []string
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"gravity", c.Gravity},
		{"friction", c.Friction},
		{"speed", c.Speed},
		{"interaction radius", c.InteractionRadius},
		{"interaction force", c.InteractionForce},
		{"fade rate", c.FadeRate},
	} {
		if !finite(f.v) {
			problems = append(problems, fmt.Sprintf("%s %v is not a finite number", f.name, f.v))
		}
	}
	if c.Gravity < -1 || c.Gravity > 1 {
		problems = append(problems, fmt.Sprintf("gravity %v outside [-1,1]", c.Gravity))
	}
	if c.Friction <= 0 || c.Friction > 1 {
		problems = append(problems, fmt.Sprintf("friction %v outside (0,1]", c.Friction))
	}
	if c.Speed < 0 {
		problems = append(problems, fmt.Sprintf("speed %v is negative", c.Speed))
	}
	if c.InteractionRadius <= 0 {
		problems = append(problems, fmt.Sprintf("interaction radius %v must be positive", c.InteractionRadius))
	}
	if c.InteractionForce <= 0 {
		problems = append(problems, fmt.Sprintf("interaction force %v must be positive", c.InteractionForce))
	}
	if c.InteractionMode < Repel || c.InteractionMode > Trail {
		problems = append(problems, fmt.Sprintf("unknown interaction mode %d", int(c.InteractionMode)))
	}
	if c.FadeRate < 0 || c.FadeRate > 1 {
		problems = append(problems, fmt.Sprintf("fade rate %v outside [0,1]", c.FadeRate))
	}
	problems = append(problems, c.shape().problems()...)
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// shape is the part of a Config that determines the population
type shape struct {
	count            int
	colors           []color.RGBA
	minSize, maxSize float64
}

func (c Config) shape() shape {
	return shape{
		count:   c.ParticleCount,
		colors:  c.Colors,
		minSize: c.MinSize,
		maxSize: c.MaxSize,
	}
}

func (s shape) equal(o shape) bool {
	return s.count == o.count &&
		s.minSize == o.minSize &&
		s.maxSize == o.maxSize &&
		slices.Equal(s.colors, o.colors)
}

func (s shape) validate() error {
	if problems := s.problems(); len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func (s shape) problems() []string {
	var problems []string
	if s.count <= 0 {
		problems = append(problems, fmt.Sprintf("particle count %d must be positive", s.count))
	}
	if len(s.colors) == 0 {
		problems = append(problems, "palette is empty")
	}
	if !finite(s.minSize) || !finite(s.maxSize) {
		problems = append(problems, fmt.Sprintf("size range [%v,%v] is not finite", s.minSize, s.maxSize))
	}
	if s.minSize < 0 {
		problems = append(problems, fmt.Sprintf("min size %v is negative", s.minSize))
	}
	if s.minSize > s.maxSize {
		problems = append(problems, fmt.Sprintf("min size %v exceeds max size %v", s.minSize, s.maxSize))
	}
	return problems
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Bounds is the canvas size in pixels
type Bounds struct {
	Width, Height float64
}

// Contains reports whether (x,y) lies on the canvas, edges included
func (b Bounds) Contains(x, y float64) bool {
	return x >= 0 && x <= b.Width && y >= 0 && y <= b.Height
}
