// Package colormap provides the color-lookup contract the Tile Renderer
// (C7) composes with the CDF byte mapping. Parsing a colormap definition
// file is explicitly excluded from the core (§1, external collaborator
// (c)); this package only defines the Colormap interface, the fixed name
// enumeration from §6, and small procedural fallbacks so the core is
// runnable without that external parser wired in.
package colormap

import (
	"math"

	"github.com/lsst-camera-visualization/fpmosaic/errs"
)

// RGB is one composited output pixel's color.
type RGB struct {
	R, G, B uint8
}

// Colormap maps a normalized intensity in [0, 1] to a color.
type Colormap interface {
	RGB(t float64) RGB
}

// Name enumerates the fixed colormap menu (§6). Unknown names fail with
// errs.UnknownStrategy.
type Name string

const (
	Grey       Name = "grey"
	A          Name = "a"
	B          Name = "b"
	BB         Name = "bb"
	Cubehelix0 Name = "cubehelix0"
	Cubehelix1 Name = "cubehelix1"
	Rainbow    Name = "rainbow"
	Standard   Name = "standard"
	Null       Name = "null"
)

// Registry resolves colormap names to implementations. A host application
// that owns the real color-table file parser (§1) registers its loaded
// tables here; Default() below is pre-populated with procedural
// approximations so the core has sane behavior out of the box.
type Registry struct {
	maps map[Name]Colormap
}

// Default returns a Registry seeded with a procedural implementation of
// every name in the §6 menu. Host applications may Register real
// file-backed tables over these before use.
func Default() *Registry {
	r := &Registry{maps: make(map[Name]Colormap)}
	r.maps[Grey] = greyscale{}
	r.maps[Standard] = greyscale{}
	r.maps[Null] = identity{}
	r.maps[A] = gradient{lo: RGB{0, 0, 40}, hi: RGB{255, 220, 40}}
	r.maps[B] = gradient{lo: RGB{10, 0, 30}, hi: RGB{255, 60, 120}}
	r.maps[BB] = gradient{lo: RGB{0, 10, 20}, hi: RGB{120, 255, 255}}
	r.maps[Cubehelix0] = cubehelix{start: 0.5, rotations: -1.5, gamma: 1.0}
	r.maps[Cubehelix1] = cubehelix{start: 1.0, rotations: 1.0, gamma: 1.2}
	r.maps[Rainbow] = rainbow{}
	return r
}

// Register installs (or overrides) the implementation for name.
func (r *Registry) Register(name Name, cm Colormap) {
	r.maps[name] = cm
}

// Get resolves name to a Colormap, failing with errs.UnknownStrategy if it
// is outside the fixed enumeration and has not been registered.
func (r *Registry) Get(name Name) (Colormap, error) {
	if cm, ok := r.maps[name]; ok {
		return cm, nil
	}
	return nil, &errs.UnknownStrategy{Menu: "colormap", Name: string(name)}
}

type greyscale struct{}

func (greyscale) RGB(t float64) RGB {
	v := clampByte(t)
	return RGB{v, v, v}
}

// identity passes the scaled byte through unchanged on every channel,
// matching "null" colormap semantics used when no lookup should be applied.
type identity struct{}

func (identity) RGB(t float64) RGB {
	v := clampByte(t)
	return RGB{v, v, v}
}

type gradient struct{ lo, hi RGB }

func (g gradient) RGB(t float64) RGB {
	t = clamp01(t)
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + t*(float64(b)-float64(a)))
	}
	return RGB{lerp(g.lo.R, g.hi.R), lerp(g.lo.G, g.hi.G), lerp(g.lo.B, g.hi.B)}
}

type rainbow struct{}

func (rainbow) RGB(t float64) RGB {
	t = clamp01(t)
	h := t * 300 // red at t=0 through to violet at t=1
	return hsvToRGB(h, 1, 1)
}

// cubehelix implements Green (2011)'s cubehelix colour scheme, the way
// astronomy visualization tools conventionally do perceptually-uniform
// greyscale-friendly palettes.
type cubehelix struct {
	start, rotations, gamma float64
}

func (c cubehelix) RGB(t float64) RGB {
	t = clamp01(t)
	lambda := math.Pow(t, c.gamma)
	phi := 2 * math.Pi * (c.start/3 + c.rotations*t)
	amp := 0.5 * lambda * (1 - lambda)
	r := lambda + amp*(-0.14861*math.Cos(phi)+1.78277*math.Sin(phi))
	g := lambda + amp*(-0.29227*math.Cos(phi)-0.90649*math.Sin(phi))
	b := lambda + amp*(1.97294 * math.Cos(phi))
	return RGB{clampByte(r), clampByte(g), clampByte(b)}
}

func hsvToRGB(h, s, v float64) RGB {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return RGB{clampByte(r + m), clampByte(g + m), clampByte(b + m)}
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func clampByte(t float64) uint8 {
	t = clamp01(t)
	return uint8(t * 255)
}
