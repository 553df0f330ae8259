package fits

// Affine is the 2D affine transform used by the WCS translation: it maps a
// segment-local pixel coordinate to a focal-plane coordinate.
//
//	x' = a*x + b*y + tx
//	y' = c*x + d*y + ty
//
// This is intentionally a plain value type rather than a general matrix
// library type: the pipeline only ever composes two affines (the WCS
// rotation/scale from the header, then a translation to the datasec
// origin) and never needs inversion, decomposition or anything a geometry
// package would otherwise earn its keep providing.
type Affine struct {
	A, B, C, D float64
	Tx, Ty     float64
}

// Identity returns the identity affine.
func Identity() Affine {
	return Affine{A: 1, D: 1}
}

// Apply maps (x, y) through the affine.
func (t Affine) Apply(x, y float64) (float64, float64) {
	return t.A*x + t.B*y + t.Tx, t.C*x + t.D*y + t.Ty
}

// Translated returns a new affine whose translation component is offset by
// (dx, dy) applied in the pre-image (segment-local) space, i.e. the affine
// that results from first translating by (dx, dy) and then applying t.
func (t Affine) Translated(dx, dy float64) Affine {
	tx, ty := t.Apply(dx, dy)
	return Affine{A: t.A, B: t.B, C: t.C, D: t.D, Tx: tx, Ty: ty}
}

// Shifted returns a new affine with its output translated by (dx, dy),
// independent of rotation/scale — used for the raft-grid shift applied to
// the 'Q'->'E' WCS special case (§4.2).
func (t Affine) Shifted(dx, dy float64) Affine {
	return Affine{A: t.A, B: t.B, C: t.C, D: t.D, Tx: t.Tx + dx, Ty: t.Ty + dy}
}

// Rect is an axis-aligned rectangle, (X, Y) inclusive origin, half-open in
// width/height — the FITS-convention-to-half-open translation described for
// DATASEC in §4.2 is performed once at parse time, not at every use site.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether (x, y) lies within the half-open rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	if r.Width <= 0 || r.Height <= 0 || o.Width <= 0 || o.Height <= 0 {
		return false
	}
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// FRect is the floating-point counterpart used for the WCS bounding box.
type FRect struct {
	X0, Y0, X1, Y1 float64
}

// BoundingBox returns the axis-aligned bounding box of t applied to the
// corners of a w x h rectangle anchored at the origin.
func BoundingBox(t Affine, w, h float64) FRect {
	corners := [4][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}}
	x0, y0 := t.Apply(corners[0][0], corners[0][1])
	x1, y1 := x0, y0
	for _, c := range corners[1:] {
		x, y := t.Apply(c[0], c[1])
		if x < x0 {
			x0 = x
		}
		if x > x1 {
			x1 = x
		}
		if y < y0 {
			y0 = y
		}
		if y > y1 {
			y1 = y
		}
	}
	return FRect{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// IntersectsRect reports whether the floating-point rectangle overlaps the
// integer source rectangle used for render-request filtering.
func (f FRect) IntersectsRect(r Rect) bool {
	rx0, ry0 := float64(r.X), float64(r.Y)
	rx1, ry1 := float64(r.X+r.Width), float64(r.Y+r.Height)
	return f.X0 < rx1 && rx0 < f.X1 && f.Y0 < ry1 && ry0 < f.Y1
}
