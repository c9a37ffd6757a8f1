package main

import (
	"bytes"
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/olivierh59500/particle-flow/internal/pointer"
	"github.com/olivierh59500/particle-flow/internal/sim"
	"github.com/olivierh59500/particle-flow/internal/theme"
)

var testCanvas = sim.Bounds{Width: 320, Height: 240}

func newTestSession(t *testing.T, opts *options) *session {
	t.Helper()
	return newTestSessionAt(t, opts, FPS)
}

func newTestSessionAt(t *testing.T, opts *options, fps int) *session {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	s, err := newSession(opts, testCanvas, fps, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func writeThemeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "theme.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewSession_Defaults(t *testing.T) {
	s := newTestSession(t, defaultOptions())
	if s.engine.Len() != theme.Default().ParticleCount {
		t.Errorf("population = %d, want default %d", s.engine.Len(), theme.Default().ParticleCount)
	}
	if got := s.currentTheme().Name; got != theme.DefaultTheme().Name {
		t.Errorf("theme = %q", got)
	}
}

func TestNewSession_ThemeFile(t *testing.T) {
	opts := defaultOptions()
	opts.ThemePath = writeThemeFile(t, `{"name": "Sparse", "config": {"particleCount": 12, "interactionMode": "attract"}}`)
	s := newTestSession(t, opts)
	if s.engine.Len() != 12 || s.currentTheme().Name != "Sparse" {
		t.Errorf("got %d particles, theme %q", s.engine.Len(), s.currentTheme().Name)
	}

	opts.ThemePath = writeThemeFile(t, `{"config": {"colors": []}}`)
	s = newTestSession(t, opts)
	if s.currentTheme().Name != theme.DefaultTheme().Name {
		t.Errorf("broken theme file not replaced by default: %q", s.currentTheme().Name)
	}
}

func TestSession_TickUsesFedPointer(t *testing.T) {
	opts := defaultOptions()
	opts.Smoothing = 0
	s := newTestSession(t, opts)

	now := time.Unix(100, 0)
	s.feed(sim.Pointer{X: 0.5, Y: 0.25, Detected: true, Gesture: sim.GestureClosed}, now)
	if err := s.tick(now); err != nil {
		t.Fatal(err)
	}
	if !s.cursor.Visible || !s.cursor.Closed || s.cursor.X != 160 || s.cursor.Y != 60 {
		t.Errorf("cursor = %+v", s.cursor)
	}

	// Stale sample reads as no hand
	if err := s.tick(now.Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	if s.cursor.Visible || s.frame.Pointer.Detected {
		t.Errorf("stale pointer still active: %+v", s.frame.Pointer)
	}
}

func TestSession_AutopilotIgnoresDevice(t *testing.T) {
	opts := defaultOptions()
	opts.Autopilot = true
	s := newTestSession(t, opts)

	now := time.Unix(100, 0)
	s.feed(sim.Pointer{X: 0.5, Y: 0.5, Detected: true}, now)
	if err := s.tick(now); err != nil {
		t.Fatal(err)
	}
	if s.frame.Pointer.Detected {
		t.Error("device sample leaked through while on autopilot")
	}
}

func TestSession_PausedFreezesParticles(t *testing.T) {
	s := newTestSession(t, defaultOptions())
	s.Paused = true
	before := s.engine.Snapshots(nil)
	for i := 0; i < 10; i++ {
		if err := s.tick(time.Unix(100, 0)); err != nil {
			t.Fatal(err)
		}
	}
	after := s.engine.Snapshots(nil)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("particle %d moved while paused", i)
		}
	}
}

func TestSession_StepAdvancesEngine(t *testing.T) {
	s := newTestSession(t, defaultOptions())
	before := s.engine.Snapshots(nil)
	s.step(time.Unix(100, 0))
	after := s.engine.Snapshots(nil)
	moved := false
	for i := range before {
		if before[i] != after[i] {
			moved = true
			break
		}
	}
	if !moved {
		t.Error("step did not advance any particle")
	}
}

func TestSession_SmoothingFollowsHostFrameRate(t *testing.T) {
	samples := []sim.Pointer{
		{X: 0.1, Y: 0.1, Detected: true},
		{X: 0.9, Y: 0.5, Detected: true},
	}
	run := func(fps int) sim.Cursor {
		s := newTestSessionAt(t, defaultOptions(), fps)
		now := time.Unix(100, 0)
		for _, p := range samples {
			s.feed(p, now)
			if err := s.tick(now); err != nil {
				t.Fatal(err)
			}
		}
		return s.cursor
	}

	want := pointer.NewSmoother(TUIFPS, SmoothFrequency, SmoothDamping)
	var p sim.Pointer
	for _, sample := range samples {
		p = want.Smooth(sample)
	}
	got := run(TUIFPS)
	if math.Abs(got.X-p.X*testCanvas.Width) > 1e-9 || math.Abs(got.Y-p.Y*testCanvas.Height) > 1e-9 {
		t.Errorf("cursor at %d fps = (%v,%v), want (%v,%v)",
			TUIFPS, got.X, got.Y, p.X*testCanvas.Width, p.Y*testCanvas.Height)
	}
	if fast := run(FPS); fast.X >= got.X {
		t.Errorf("%d fps spring moved as far as %d fps: %v >= %v", FPS, TUIFPS, fast.X, got.X)
	}
}

func TestSession_CycleMode(t *testing.T) {
	s := newTestSession(t, defaultOptions())
	s.cycleMode()
	if got := s.inputs.Config().InteractionMode; got != sim.Attract {
		t.Errorf("mode = %v, want attract", got)
	}
	if !strings.Contains(s.status(time.Now()), "Mode: attract") {
		t.Errorf("status = %q", s.status(time.Now()))
	}
}

func TestSession_ApplyThemeRejectsInvalid(t *testing.T) {
	s := newTestSession(t, defaultOptions())
	bad := theme.DefaultTheme()
	bad.Name = "Broken"
	bad.Config.Colors = nil
	if err := s.applyTheme(bad, false); err == nil {
		t.Fatal("applyTheme accepted an empty palette")
	}
	if s.currentTheme().Name == "Broken" {
		t.Error("rejected theme renamed the session")
	}
}

func TestSession_GenerateTheme(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			http.Error(w, "unavailable", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"name": "Aurora", "config": {"particleCount": 30, "colors": ["#00ff99", "#6633ff"]}}`))
	}))
	defer srv.Close()

	t.Run("success", func(t *testing.T) {
		opts := defaultOptions()
		opts.Endpoint = srv.URL
		opts.Describe = "northern lights"
		s := newTestSession(t, opts)
		s.generateTheme(context.Background(), opts)
		if got := s.currentTheme(); got.Name != "Aurora" || got.Config.ParticleCount != 30 {
			t.Errorf("theme = %q with %d particles", got.Name, got.Config.ParticleCount)
		}
		if err := s.tick(time.Now()); err != nil {
			t.Fatal(err)
		}
		if s.engine.Len() != 30 {
			t.Errorf("population = %d after theme change, want 30", s.engine.Len())
		}
	})

	t.Run("failure falls back to default", func(t *testing.T) {
		opts := defaultOptions()
		opts.Endpoint = srv.URL + "/down"
		opts.Describe = "anything"
		s := newTestSession(t, opts)
		cfg := s.inputs.Config()
		cfg.InteractionMode = sim.Trail
		if err := s.inputs.PublishConfig(cfg); err != nil {
			t.Fatal(err)
		}
		s.generateTheme(context.Background(), opts)
		if got := s.inputs.Config().InteractionMode; got != sim.Repel {
			t.Errorf("mode = %v, want default repel", got)
		}
	})

	t.Run("failure keeps loaded file", func(t *testing.T) {
		opts := defaultOptions()
		opts.Endpoint = srv.URL + "/down"
		opts.Describe = "anything"
		opts.ThemePath = writeThemeFile(t, `{"name": "Mine", "config": {"particleCount": 7}}`)
		s := newTestSession(t, opts)
		s.generateTheme(context.Background(), opts)
		if got := s.currentTheme().Name; got != "Mine" {
			t.Errorf("theme = %q, want Mine", got)
		}
	})
}

func TestSession_GenerateFailureKeepsThemeLoadedLater(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	opts := defaultOptions()
	opts.Endpoint = srv.URL
	opts.Describe = "anything"
	s := newTestSession(t, opts)

	picked, err := theme.Load(writeThemeFile(t, `{"name": "Picked", "config": {"particleCount": 9}}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.applyTheme(picked, true); err != nil {
		t.Fatal(err)
	}
	s.generateTheme(context.Background(), opts)
	if got := s.currentTheme(); got.Name != "Picked" || got.Config.ParticleCount != 9 {
		t.Errorf("theme = %q with %d particles, want Picked with 9", got.Name, got.Config.ParticleCount)
	}
}

func TestCellPointer(t *testing.T) {
	b := tuiBounds(40, 11) // 40x10 usable cells
	if b.Width != 320 || b.Height != 160 {
		t.Fatalf("bounds = %+v", b)
	}

	tests := []struct {
		name    string
		x, y    int
		buttons tcell.ButtonMask
		want    sim.Pointer
	}{
		{"status row", 5, 0, tcell.ButtonNone, sim.Pointer{}},
		{"top left", 0, 1, tcell.ButtonNone, sim.Pointer{X: 4.0 / 320, Y: 8.0 / 160, Detected: true}},
		{"closed", 19, 5, tcell.Button1, sim.Pointer{X: 156.0 / 320, Y: 72.0 / 160, Detected: true, Gesture: sim.GestureClosed}},
		{"open", 39, 10, tcell.Button3, sim.Pointer{X: 316.0 / 320, Y: 152.0 / 160, Detected: true, Gesture: sim.GestureOpen}},
		{"off grid", 40, 3, tcell.ButtonNone, sim.Pointer{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cellPointer(tt.x, tt.y, tt.buttons, b); got != tt.want {
				t.Errorf("cellPointer() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestThemeCommands(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"theme", "default"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	got, err := theme.Decode(out.Bytes())
	if err != nil {
		t.Fatalf("default output does not decode: %v", err)
	}
	if got.Config.ParticleCount != theme.Default().ParticleCount {
		t.Errorf("printed default = %+v", got.Config)
	}

	path := writeThemeFile(t, out.String())
	out.Reset()
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"theme", "check", path})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "Default: 200 particles, repel") {
		t.Errorf("check output = %q", out.String())
	}
}

func TestThemeGenerate_WritesFallbackWithoutEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	root := newRootCmd()
	root.SetArgs([]string{"theme", "generate", "-o", path, "stormy", "sea"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	got, err := theme.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != theme.DefaultTheme().Name {
		t.Errorf("generated %q, want the default theme", got.Name)
	}
}
