package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/olivierh59500/particle-flow/internal/pointer"
	"github.com/olivierh59500/particle-flow/internal/sim"
	"github.com/olivierh59500/particle-flow/internal/theme"
)

// Host tuning
const (
	FPS              = 60
	SmoothFrequency  = 8.0 // Pointer spring angular frequency
	SmoothDamping    = 1.0
	AutopilotStep    = 0.004 // Noise units per autopilot sample
	AutopilotPeriod  = 33 * time.Millisecond
	ThemeTimeout     = 20 * time.Second
	statusMessageTTL = 3 * time.Second
)

// options collects the command line flags shared by every host
type options struct {
	ThemePath string
	Seed      int64
	Width     int
	Height    int
	Autopilot bool
	Endpoint  string
	Describe  string
	Timeout   time.Duration
	Smoothing float64
	LogPath   string
}

func defaultOptions() *options {
	return &options{
		Width:     800,
		Height:    600,
		Timeout:   ThemeTimeout,
		Smoothing: SmoothFrequency,
	}
}

// session is the state one host loop drives: the engine, the inputs producers
// publish into, and the UI toggles
type session struct {
	engine   *sim.Engine
	inputs   *sim.Inputs
	latest   *pointer.Latest
	smoother *pointer.Smoother

	Autopilot   bool
	Paused      bool
	ShowOverlay bool

	frame  sim.Frame
	cursor sim.Cursor

	mu          sync.Mutex // Guards the fields below, written by background producers
	themeName   string
	themeDesc   string
	themeLoaded bool
	message     string
	messageAt   time.Time
}

// newSession loads the starting theme and builds the population for bounds.
// fps is the host's frame rate, which the pointer springs step at.
func newSession(opts *options, bounds sim.Bounds, fps int, maxAge time.Duration) (*session, error) {
	t := theme.DefaultTheme()
	loaded := false
	if opts.ThemePath != "" {
		lt, err := theme.Load(opts.ThemePath)
		if err != nil {
			log.Printf("theme: %v, using default", err)
		} else {
			t, loaded = lt, true
		}
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	inputs, err := sim.NewInputs(t.Config)
	if err != nil {
		return nil, err
	}
	engine, err := sim.NewEngine(t.Config, bounds, rng)
	if err != nil {
		return nil, err
	}

	s := &session{
		engine:      engine,
		inputs:      inputs,
		latest:      pointer.NewLatest(maxAge),
		smoother:    pointer.NewSmoother(fps, opts.Smoothing, SmoothDamping),
		Autopilot:   opts.Autopilot,
		ShowOverlay: true,
		themeName:   t.Name,
		themeDesc:   t.Description,
		themeLoaded: loaded,
	}
	s.frame = inputs.Frame()
	return s, nil
}

// start launches the background producers: the autopilot hand and the theme service
func (s *session) start(ctx context.Context, opts *options) {
	if s.Autopilot {
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		wander := pointer.NewWander(seed, AutopilotStep)
		go func() {
			err := pointer.Poll(ctx, wander, AutopilotPeriod, func(p sim.Pointer) {
				s.latest.Set(p, time.Now())
			})
			if err != nil && ctx.Err() == nil {
				log.Printf("autopilot stopped: %v", err)
			}
		}()
	}

	if opts.Describe != "" {
		go s.generateTheme(ctx, opts)
	}
}

// generateTheme asks the theme service for a config and publishes it.
// On failure a loaded theme file is kept; otherwise the default applies.
func (s *session) generateTheme(ctx context.Context, opts *options) {
	var gen theme.Generator
	if opts.Endpoint != "" {
		gen = theme.NewClient(opts.Endpoint, opts.Timeout)
	}
	s.notify("Generating theme...")

	t, err := theme.Resolve(ctx, gen, opts.Describe)
	if err != nil {
		log.Printf("theme service failed: %v", err)
		s.mu.Lock()
		keep := s.themeLoaded
		s.mu.Unlock()
		if keep {
			s.notify("Theme service failed, keeping current theme")
			return
		}
		s.notify("Theme service failed, using default theme")
	}
	if err := s.applyTheme(t, false); err != nil {
		log.Printf("theme %q rejected: %v", t.Name, err)
	}
}

// applyTheme publishes t's config for the next frame. A theme read from a
// file is kept if a theme generation in flight later fails.
func (s *session) applyTheme(t theme.Theme, fromFile bool) error {
	if err := s.inputs.PublishConfig(t.Config); err != nil {
		return err
	}
	s.mu.Lock()
	s.themeName = t.Name
	s.themeDesc = t.Description
	if fromFile {
		s.themeLoaded = true
	}
	s.mu.Unlock()
	s.notify("Theme: " + t.Name)
	return nil
}

// currentTheme returns the active theme with the latest published config
func (s *session) currentTheme() theme.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return theme.Theme{
		Name:        s.themeName,
		Description: s.themeDesc,
		Config:      s.inputs.Config(),
	}
}

// feed publishes a sample from an input device the host reads itself
func (s *session) feed(p sim.Pointer, now time.Time) {
	if s.Autopilot {
		return
	}
	s.latest.Set(p, now)
}

// tick takes one consistent input snapshot and advances the engine
func (s *session) tick(now time.Time) error {
	p := s.smoother.Smooth(s.latest.Get(now))
	s.inputs.PublishPointer(p)

	s.frame = s.inputs.Frame()
	s.cursor = s.engine.Cursor(s.frame)
	if s.Paused {
		return nil
	}
	return s.engine.Advance(s.frame)
}

// step runs one frame for a host loop. A rejected population shape is logged
// and the old particles stay on screen.
func (s *session) step(now time.Time) {
	if err := s.tick(now); err != nil {
		log.Printf("frame skipped: %v", err)
	}
}

// cycleMode switches the default interaction mode
func (s *session) cycleMode() {
	cfg := s.inputs.Config()
	cfg.InteractionMode = cfg.InteractionMode.Next()
	if err := s.inputs.PublishConfig(cfg); err != nil {
		log.Printf("cycle mode: %v", err)
		return
	}
	s.notify("Mode: " + cfg.InteractionMode.String())
}

// reseed scatters a fresh population
func (s *session) reseed() {
	if err := s.engine.Reseed(s.inputs.Config()); err != nil {
		log.Printf("reseed: %v", err)
	}
}

func (s *session) resize(b sim.Bounds) {
	if b != s.engine.Bounds() {
		s.engine.Resize(b)
	}
}

func (s *session) notify(msg string) {
	s.mu.Lock()
	s.message = msg
	s.messageAt = time.Now()
	s.mu.Unlock()
}

// status is the one-line summary hosts print over the canvas
func (s *session) status(now time.Time) string {
	s.mu.Lock()
	name := s.themeName
	msg := s.message
	if now.Sub(s.messageAt) > statusMessageTTL {
		msg = ""
	}
	s.mu.Unlock()

	hand := "no hand"
	if p := s.frame.Pointer; p.Detected {
		hand = "hand " + p.Gesture.String()
	}
	if s.Autopilot {
		hand += " (autopilot)"
	}
	line := fmt.Sprintf("%s | %s | %d particles | %s",
		name, s.frame.Config.InteractionMode, s.engine.Len(), hand)
	if s.Paused {
		line += " | paused"
	}
	if msg != "" {
		line += " | " + msg
	}
	return line
}
