package main

import (
	"context"
	"errors"
	"image/color"
	"log"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/ncruces/zenity"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/particle-flow/internal/pointer"
	"github.com/olivierh59500/particle-flow/internal/sim"
	"github.com/olivierh59500/particle-flow/internal/theme"
)

// Rendering constants
const (
	MinTrailAlpha = 0.1 // Background alpha at fadeRate 0, keeps trails decaying
	CursorDot     = 4.0
	HeatmapStep   = 10.0 // Heatmap cell size in pixels
	HeatmapAlpha  = 0.35
)

var (
	background    = color.RGBA{0, 0, 0, 255}
	overlayOpen   = color.NRGBA{90, 160, 255, 160}
	overlayClosed = color.NRGBA{255, 120, 60, 200}
	themeFilters  = zenity.FileFilters{{Name: "Theme", Patterns: []string{"*.json"}}}
)

// Simulation is the ebiten host: it reads the mouse as the pointer producer
// and draws the engine's snapshots every frame
type Simulation struct {
	*session
	snapshots     []sim.Snapshot
	width, height int
	heatmap       bool
	quit          bool
}

// NewSimulation creates the window host for a width x height canvas
func NewSimulation(opts *options) (*Simulation, error) {
	bounds := sim.Bounds{Width: float64(opts.Width), Height: float64(opts.Height)}
	s, err := newSession(opts, bounds, FPS, pointer.DefaultMaxAge)
	if err != nil {
		return nil, err
	}
	return &Simulation{
		session: s,
		width:   opts.Width,
		height:  opts.Height,
	}, nil
}

// Update is called each tick by Ebitengine
func (g *Simulation) Update() error {
	g.handleInput()
	if g.quit {
		return ebiten.Termination
	}

	g.resize(sim.Bounds{Width: float64(g.width), Height: float64(g.height)})

	now := time.Now()
	g.feed(g.mousePointer(), now)
	g.step(now)
	return nil
}

// Draw is called each frame by Ebitengine
func (g *Simulation) Draw(screen *ebiten.Image) {
	w := float32(screen.Bounds().Dx())
	h := float32(screen.Bounds().Dy())

	// Screen is not cleared between frames; a translucent fill fades old particles
	alpha := MinTrailAlpha + (1-MinTrailAlpha)*g.frame.Config.FadeRate
	fade := color.RGBA{background.R, background.G, background.B, uint8(math.Round(alpha * 255))}
	vector.DrawFilledRect(screen, 0, 0, w, h, fade, false)

	if g.heatmap {
		g.drawHeatmap(screen)
	}

	g.snapshots = g.engine.Snapshots(g.snapshots[:0])
	for _, p := range g.snapshots {
		vector.DrawFilledCircle(screen, float32(p.X), float32(p.Y), float32(p.Size), p.Color, true)
	}

	if g.ShowOverlay && g.cursor.Visible {
		col := overlayOpen
		if g.cursor.Closed {
			col = overlayClosed
		}
		cx, cy := float32(g.cursor.X), float32(g.cursor.Y)
		vector.StrokeCircle(screen, cx, cy, float32(g.cursor.Radius), 1, col, true)
		vector.DrawFilledCircle(screen, cx, cy, CursorDot, col, true)
	}

	// Status bar background so text stays legible over trails
	vector.DrawFilledRect(screen, 0, 0, w, 20, background, false)
	ebitenutil.DebugPrintAt(screen, g.status(time.Now()), 8, 2)
}

// drawHeatmap shades each grid cell by the field strength at its centre
func (g *Simulation) drawHeatmap(screen *ebiten.Image) {
	if !g.frame.Pointer.Detected {
		return
	}
	b := g.engine.Bounds()
	// Strongest delta is at the pointer, where falloff is 1
	peak := sim.Resolve(g.frame.Pointer, g.frame.Config).Force
	if peak <= 0 {
		return
	}
	for x := 0.0; x < b.Width; x += HeatmapStep {
		for y := 0.0; y < b.Height; y += HeatmapStep {
			pos := r2.Vec{X: x + HeatmapStep/2, Y: y + HeatmapStep/2}
			delta, ok := sim.Field(pos, b, g.frame.Pointer, g.frame.Config)
			if !ok {
				continue
			}
			mag := r2.Norm(delta)
			if g.frame.Config.InteractionMode == sim.Trail && g.frame.Pointer.Gesture == sim.GestureNone {
				mag /= sim.TrailDamping
			}
			intensity := uint8(math.Min(mag/peak*255, 255))
			alpha := HeatmapAlpha * 255
			col := color.NRGBA{intensity, 0, 255 - intensity, uint8(alpha)}
			vector.DrawFilledRect(screen, float32(x), float32(y), HeatmapStep, HeatmapStep, col, false)
		}
	}
}

// Layout tracks the window size; the canvas always matches it
func (g *Simulation) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 {
		g.width, g.height = outsideWidth, outsideHeight
	}
	return g.width, g.height
}

// handleInput processes keyboard shortcuts
func (g *Simulation) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		g.quit = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.Paused = !g.Paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.reseed()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		g.cycleMode()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		g.ShowOverlay = !g.ShowOverlay
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.heatmap = !g.heatmap
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.saveTheme()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.loadTheme()
	}
}

// mousePointer maps the cursor to a pointer sample: inside the window is a
// detected hand, left button closes it, right button opens it
func (g *Simulation) mousePointer() sim.Pointer {
	mx, my := ebiten.CursorPosition()
	if !ebiten.IsFocused() || mx < 0 || my < 0 || mx >= g.width || my >= g.height {
		return sim.Pointer{}
	}
	p := sim.Pointer{
		X:        float64(mx) / float64(g.width),
		Y:        float64(my) / float64(g.height),
		Detected: true,
	}
	switch {
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		p.Gesture = sim.GestureClosed
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight):
		p.Gesture = sim.GestureOpen
	}
	return p
}

// saveTheme writes the active theme to a file picked by the user
func (g *Simulation) saveTheme() {
	path, err := zenity.SelectFileSave(
		zenity.Title("Save Theme"),
		zenity.Filename("theme.json"),
		zenity.ConfirmOverwrite(),
		themeFilters,
	)
	if err != nil {
		if !errors.Is(err, zenity.ErrCanceled) {
			log.Printf("save theme: %v", err)
		}
		return
	}
	if err := theme.Save(path, g.currentTheme()); err != nil {
		log.Printf("save theme: %v", err)
		g.notify("Save failed")
		return
	}
	g.notify("Saved " + path)
}

// loadTheme replaces the config with a theme file picked by the user
func (g *Simulation) loadTheme() {
	path, err := zenity.SelectFile(zenity.Title("Open Theme"), themeFilters)
	if err != nil {
		if !errors.Is(err, zenity.ErrCanceled) {
			log.Printf("load theme: %v", err)
		}
		return
	}
	t, err := theme.Load(path)
	if err != nil {
		log.Printf("load theme: %v", err)
		g.notify("Invalid theme file")
		return
	}
	if err := g.applyTheme(t, true); err != nil {
		log.Printf("load theme: %v", err)
	}
}

// runWindow opens the ebiten window and blocks until it closes
func runWindow(ctx context.Context, opts *options) error {
	g, err := NewSimulation(opts)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g.start(ctx, opts)

	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowTitle("Particle Flow")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(FPS)
	ebiten.SetScreenClearedEveryFrame(false)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
