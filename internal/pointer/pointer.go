// Package pointer produces the pointer signal that drives the particle field.
// Producers run at their own cadence; the render loop only reads the latest value.
package pointer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/olivierh59500/particle-flow/internal/sim"
)

// DefaultMaxAge is how long a sample stays valid without a refresh
const DefaultMaxAge = 250 * time.Millisecond

// Detector reports where the hand is right now
type Detector interface {
	Detect(ctx context.Context) (sim.Pointer, error)
}

// Latest keeps the most recent sample. A sample older than MaxAge reads as
// undetected so a stalled producer never freezes the field in place.
type Latest struct {
	MaxAge time.Duration

	mu  sync.Mutex
	ptr sim.Pointer
	at  time.Time
}

func NewLatest(maxAge time.Duration) *Latest {
	return &Latest{MaxAge: maxAge}
}

// Set records p as observed at the given time
func (l *Latest) Set(p sim.Pointer, at time.Time) {
	l.mu.Lock()
	l.ptr = p
	l.at = at
	l.mu.Unlock()
}

// Get returns the sample valid at now
func (l *Latest) Get(now time.Time) sim.Pointer {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.ptr.Detected || l.at.IsZero() {
		return sim.Pointer{}
	}
	if l.MaxAge > 0 && now.Sub(l.at) > l.MaxAge {
		return sim.Pointer{}
	}
	return l.ptr
}

// Poll runs d every interval and hands each sample to publish until ctx is done.
// A failing detector yields an undetected sample for that tick.
func Poll(ctx context.Context, d Detector, interval time.Duration, publish func(sim.Pointer)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failing := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		p, err := d.Detect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !failing {
				log.Printf("pointer: detector failed, reporting no hand: %v", err)
			}
			failing = true
			p = sim.Pointer{}
		} else if failing {
			log.Printf("pointer: detector recovered")
			failing = false
		}
		publish(p)
	}
}
