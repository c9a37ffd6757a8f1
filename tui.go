package main

import (
	"context"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/olivierh59500/particle-flow/internal/sim"
)

// Terminal canvas geometry: each cell stands for a block of canvas pixels
const (
	CellWidth       = 8.0
	CellHeight      = 16.0
	TUIFPS          = 30
	TUIMouseMaxAge  = 2 * time.Second // Terminals report no "mouse left" event
	overlaySegments = 96
)

// glyphFor picks a heavier glyph for larger particles
func glyphFor(size float64) rune {
	switch {
	case size < 1.5:
		return '·'
	case size < 2.5:
		return '•'
	default:
		return '●'
	}
}

// tuiBounds maps a terminal grid to canvas pixels, leaving the status row out
func tuiBounds(cols, rows int) sim.Bounds {
	if rows > 1 {
		rows--
	}
	return sim.Bounds{Width: float64(cols) * CellWidth, Height: float64(rows) * CellHeight}
}

// cellPointer converts a mouse cell into a pointer sample
func cellPointer(x, y int, buttons tcell.ButtonMask, b sim.Bounds) sim.Pointer {
	// Row 0 is the status line
	y--
	if x < 0 || y < 0 || b.Width <= 0 || b.Height <= 0 {
		return sim.Pointer{}
	}
	px := (float64(x) + 0.5) * CellWidth
	py := (float64(y) + 0.5) * CellHeight
	if px >= b.Width || py >= b.Height {
		return sim.Pointer{}
	}
	p := sim.Pointer{X: px / b.Width, Y: py / b.Height, Detected: true}
	switch {
	case buttons&tcell.Button1 != 0:
		p.Gesture = sim.GestureClosed
	case buttons&(tcell.Button2|tcell.Button3) != 0:
		p.Gesture = sim.GestureOpen
	}
	return p
}

// runTUI drives the simulation inside the terminal until ctx ends or the user quits
func runTUI(ctx context.Context, opts *options) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	cols, rows := screen.Size()
	s, err := newSession(opts, tuiBounds(cols, rows), TUIFPS, TUIMouseMaxAge)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.start(ctx, opts)

	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second / TUIFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
				cols, rows = screen.Size()
				s.resize(tuiBounds(cols, rows))
			case *tcell.EventKey:
				if quit := handleKey(s, ev); quit {
					return nil
				}
			case *tcell.EventMouse:
				x, y := ev.Position()
				s.feed(cellPointer(x, y, ev.Buttons(), s.engine.Bounds()), ev.When())
			}

		case now := <-ticker.C:
			s.step(now)
			drawTUI(screen, s, now)
		}
	}
}

// handleKey applies a key press and reports whether the user asked to quit
func handleKey(s *session, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return true
		case ' ':
			s.Paused = !s.Paused
		case 'r', 'R':
			s.reseed()
		case 'm', 'M':
			s.cycleMode()
		case 'v', 'V':
			s.ShowOverlay = !s.ShowOverlay
		}
	}
	return false
}

func drawTUI(screen tcell.Screen, s *session, now time.Time) {
	screen.Clear()
	cols, rows := screen.Size()

	if s.ShowOverlay && s.cursor.Visible {
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(90, 160, 255))
		if s.cursor.Closed {
			style = tcell.StyleDefault.Foreground(tcell.NewRGBColor(255, 120, 60))
		}
		for i := 0; i < overlaySegments; i++ {
			a := 2 * math.Pi * float64(i) / overlaySegments
			x := s.cursor.X + math.Cos(a)*s.cursor.Radius
			y := s.cursor.Y + math.Sin(a)*s.cursor.Radius
			putCell(screen, cols, rows, x, y, '.', style)
		}
		putCell(screen, cols, rows, s.cursor.X, s.cursor.Y, '+', style)
	}

	for _, p := range s.engine.Snapshots(nil) {
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(p.Color.R), int32(p.Color.G), int32(p.Color.B)))
		putCell(screen, cols, rows, p.X, p.Y, glyphFor(p.Size), style)
	}

	status := tcell.StyleDefault.Reverse(true)
	line := []rune(" " + s.status(now))
	for x := 0; x < cols; x++ {
		r := ' '
		if x < len(line) {
			r = line[x]
		}
		screen.SetContent(x, 0, r, nil, status)
	}
	screen.Show()
}

// putCell draws r at the cell under canvas point (x,y), below the status row
func putCell(screen tcell.Screen, cols, rows int, x, y float64, r rune, style tcell.Style) {
	cx := int(x / CellWidth)
	cy := int(y/CellHeight) + 1
	if x < 0 || y < 0 || cx >= cols || cy >= rows {
		return
	}
	screen.SetContent(cx, cy, r, nil, style)
}
