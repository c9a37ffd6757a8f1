package sim

import (
	"sync/atomic"
)

// Inputs is where producers publish the config and pointer the render loop reads.
// Each publish swaps a whole value, so Frame never observes a partial update.
type Inputs struct {
	cfg atomic.Pointer[Config]
	ptr atomic.Pointer[Pointer]
}

// NewInputs starts with cfg and no pointer detected
func NewInputs(cfg Config) (*Inputs, error) {
	in := &Inputs{}
	if err := in.PublishConfig(cfg); err != nil {
		return nil, err
	}
	in.PublishPointer(Pointer{})
	return in, nil
}

// PublishConfig replaces the config, rejecting out-of-range values
func (in *Inputs) PublishConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c := cfg.Clone()
	in.cfg.Store(&c)
	return nil
}

// PublishPointer replaces the pointer signal
func (in *Inputs) PublishPointer(p Pointer) {
	p = normalize(p)
	in.ptr.Store(&p)
}

// Config returns the most recently published config
func (in *Inputs) Config() Config {
	return *in.cfg.Load()
}

// Frame returns one consistent snapshot for the next frame
func (in *Inputs) Frame() Frame {
	return Frame{
		Config:  *in.cfg.Load(),
		Pointer: *in.ptr.Load(),
	}
}

// normalize clamps coordinates and drops the gesture of an undetected pointer
func normalize(p Pointer) Pointer {
	if !p.Detected {
		return Pointer{}
	}
	p.X = clamp01(p.X)
	p.Y = clamp01(p.Y)
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
