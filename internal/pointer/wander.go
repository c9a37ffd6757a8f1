package pointer

import (
	"context"
	"sync"

	"github.com/aquilax/go-perlin"

	"github.com/olivierh59500/particle-flow/internal/sim"
)

// Perlin parameters for the autopilot tracks
const (
	wanderAlpha  = 2.0
	wanderBeta   = 2.0
	wanderOctave = 3
	wanderGain   = 1.4 // Stretches noise output toward the canvas edges

	// Track offsets keep the x, y, gesture and presence tracks uncorrelated
	trackY        = 1000.0
	trackGesture  = 2000.0
	trackPresence = 3000.0

	gestureBand  = 0.2  // |noise| above this holds a gesture
	presenceDrop = -0.4 // Noise below this drops the hand
)

// Wander is a Detector that walks a virtual hand along perlin noise.
// It stands in for camera tracking in demos and headless runs.
type Wander struct {
	mu    sync.Mutex
	noise *perlin.Perlin
	step  float64
	t     float64
}

// NewWander advances step noise units per Detect call
func NewWander(seed int64, step float64) *Wander {
	return &Wander{
		noise: perlin.NewPerlin(wanderAlpha, wanderBeta, wanderOctave, seed),
		step:  step,
	}
}

// Detect returns the next autopilot sample
func (w *Wander) Detect(ctx context.Context) (sim.Pointer, error) {
	if err := ctx.Err(); err != nil {
		return sim.Pointer{}, err
	}
	w.mu.Lock()
	t := w.t
	w.t += w.step
	w.mu.Unlock()

	if w.noise.Noise1D(t+trackPresence) < presenceDrop {
		return sim.Pointer{}, nil
	}
	p := sim.Pointer{
		X:        clamp01(0.5 + w.noise.Noise1D(t)*wanderGain),
		Y:        clamp01(0.5 + w.noise.Noise1D(t+trackY)*wanderGain),
		Detected: true,
	}
	switch g := w.noise.Noise1D(t + trackGesture); {
	case g > gestureBand:
		p.Gesture = sim.GestureClosed
	case g < -gestureBand:
		p.Gesture = sim.GestureOpen
	}
	return p, nil
}
