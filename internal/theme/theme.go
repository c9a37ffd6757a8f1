package theme

import (
	"encoding/json"
	"fmt"
	"image/color"
	"log"
	"reflect"
	"sort"
	"strings"

	"github.com/olivierh59500/particle-flow/internal/sim"
)

// Theme is a named configuration as produced by the theme service
type Theme struct {
	Name        string
	Description string
	Config      sim.Config
}

// Default is the configuration used whenever no theme could be obtained
func Default() sim.Config {
	return sim.Config{
		Gravity:           0,
		Friction:          0.95,
		Speed:             1,
		ParticleCount:     200,
		InteractionRadius: 150,
		InteractionForce:  1,
		InteractionMode:   sim.Repel,
		Colors: []color.RGBA{
			{R: 255, G: 255, B: 255, A: 255},
			{R: 128, G: 128, B: 128, A: 255},
		},
		MinSize:  1,
		MaxSize:  3,
		FadeRate: 0.02,
	}
}

func DefaultTheme() Theme {
	return Theme{
		Name:        "Default",
		Description: "Monochrome particles gently pushed away from the hand",
		Config:      Default(),
	}
}

type document struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Config      configDocument `json:"config"`
}

type configDocument struct {
	Gravity           float64  `json:"gravity"`
	Friction          float64  `json:"friction"`
	Speed             float64  `json:"speed"`
	ParticleCount     int      `json:"particleCount"`
	InteractionRadius float64  `json:"interactionRadius"`
	InteractionForce  float64  `json:"interactionForce"`
	InteractionMode   sim.Mode `json:"interactionMode"`
	Colors            []string `json:"colors"`
	MinSize           float64  `json:"minSize"`
	MaxSize           float64  `json:"maxSize"`
	FadeRate          float64  `json:"fadeRate"`
}

func toDocument(t Theme) document {
	c := t.Config
	return document{
		Name:        t.Name,
		Description: t.Description,
		Config: configDocument{
			Gravity:           c.Gravity,
			Friction:          c.Friction,
			Speed:             c.Speed,
			ParticleCount:     c.ParticleCount,
			InteractionRadius: c.InteractionRadius,
			InteractionForce:  c.InteractionForce,
			InteractionMode:   c.InteractionMode,
			Colors:            formatPalette(c.Colors),
			MinSize:           c.MinSize,
			MaxSize:           c.MaxSize,
			FadeRate:          c.FadeRate,
		},
	}
}

// Encode renders t as an indented JSON document
func Encode(t Theme) ([]byte, error) {
	return json.MarshalIndent(toDocument(t), "", "  ")
}

// Decode parses a theme document. Config keys missing from the document keep
// their default values, a missing name reads as "Untitled", unknown keys and out-of-range numbers are logged and
// repaired, and an empty palette or inverted size range is an error.
func Decode(data []byte) (Theme, error) {
	warnUnknownKeys(data)

	doc := document{Config: toDocument(DefaultTheme()).Config}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Theme{}, fmt.Errorf("decode theme: %w", err)
	}

	colors, err := parsePalette(doc.Config.Colors)
	if err != nil {
		return Theme{}, fmt.Errorf("decode theme %q: %w", doc.Name, err)
	}
	d := doc.Config
	cfg := sim.Config{
		Gravity:           d.Gravity,
		Friction:          d.Friction,
		Speed:             d.Speed,
		ParticleCount:     d.ParticleCount,
		InteractionRadius: d.InteractionRadius,
		InteractionForce:  d.InteractionForce,
		InteractionMode:   d.InteractionMode,
		Colors:            colors,
		MinSize:           d.MinSize,
		MaxSize:           d.MaxSize,
		FadeRate:          d.FadeRate,
	}
	cfg = Clamp(cfg)
	if err := cfg.Validate(); err != nil {
		return Theme{}, fmt.Errorf("decode theme %q: %w", doc.Name, err)
	}

	name := strings.TrimSpace(doc.Name)
	if name == "" {
		name = "Untitled"
	}
	return Theme{Name: name, Description: doc.Description, Config: cfg}, nil
}

// Clamp pulls numeric fields back into their documented ranges, logging each repair.
// Palette and size-range problems are left for Validate to reject.
func Clamp(c sim.Config) sim.Config {
	def := Default()
	fix := func(field string, got, want float64) float64 {
		log.Printf("theme: %s %v out of range, using %v", field, got, want)
		return want
	}

	switch {
	case c.Gravity < -1:
		c.Gravity = fix("gravity", c.Gravity, -1)
	case c.Gravity > 1:
		c.Gravity = fix("gravity", c.Gravity, 1)
	}
	switch {
	case c.Friction <= 0:
		c.Friction = fix("friction", c.Friction, def.Friction)
	case c.Friction > 1:
		c.Friction = fix("friction", c.Friction, 1)
	}
	if c.Speed < 0 {
		c.Speed = fix("speed", c.Speed, 0)
	}
	if c.ParticleCount <= 0 {
		c.ParticleCount = int(fix("particleCount", float64(c.ParticleCount), float64(def.ParticleCount)))
	}
	if c.InteractionRadius <= 0 {
		c.InteractionRadius = fix("interactionRadius", c.InteractionRadius, def.InteractionRadius)
	}
	if c.InteractionForce <= 0 {
		c.InteractionForce = fix("interactionForce", c.InteractionForce, def.InteractionForce)
	}
	switch {
	case c.FadeRate < 0:
		c.FadeRate = fix("fadeRate", c.FadeRate, 0)
	case c.FadeRate > 1:
		c.FadeRate = fix("fadeRate", c.FadeRate, 1)
	}
	if c.MinSize < 0 {
		c.MinSize = fix("minSize", c.MinSize, 0)
	}
	return c
}

// warnUnknownKeys logs keys the document carries that no field consumes
func warnUnknownKeys(data []byte) {
	var raw struct {
		Config map[string]json.RawMessage `json:"config"`
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return
	}
	for _, key := range unknownKeys(top, document{}) {
		log.Printf("theme: warning: unrecognised key '%s'", key)
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return
	}
	for _, key := range unknownKeys(raw.Config, configDocument{}) {
		log.Printf("theme: warning: unrecognised config key '%s'", key)
	}
}

func unknownKeys(raw map[string]json.RawMessage, v any) []string {
	known := knownKeys(v)
	var out []string
	for key := range raw {
		if !known[key] {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func knownKeys(v any) map[string]bool {
	keys := make(map[string]bool)
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("json"); tag != "" {
			name := strings.Split(tag, ",")[0]
			if name != "-" {
				keys[name] = true
			}
		}
	}
	return keys
}
