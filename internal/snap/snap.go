// Package snap aligns moving and resizing rectangles to the edges of their
// siblings and of the canvas.
package snap

import (
	"math"

	"github.com/cutsprite/cutsprite/internal/document"
)

// DefaultThreshold is the snap distance in pixels used when none is configured.
const DefaultThreshold = 10.0

// Lines holds the candidate coordinates on each axis.
type Lines struct {
	X []float64
	Y []float64
}

// Orientation of a guide line.
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// Guide is a candidate line close enough to the active rectangle to be shown.
type Guide struct {
	Orientation Orientation `json:"orientation"`
	Position    float64     `json:"position"`
}

// Engine snaps rectangles to candidate lines within a fixed threshold.
// It holds no other state and is safe to share.
type Engine struct {
	threshold float64
}

// New returns an engine with the given threshold. Non-positive or non-finite
// values select DefaultThreshold.
func New(threshold float64) *Engine {
	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		threshold = DefaultThreshold
	}
	return &Engine{threshold: threshold}
}

// Threshold returns the snap distance.
func (e *Engine) Threshold() float64 { return e.threshold }

// Collect builds candidate lines from the sibling rectangles and the canvas
// borders. Siblings come first, in order, each contributing both edges.
func Collect(siblings []document.Rect, canvas document.Size) Lines {
	l := Lines{
		X: make([]float64, 0, len(siblings)*2+2),
		Y: make([]float64, 0, len(siblings)*2+2),
	}
	for _, r := range siblings {
		l.X = append(l.X, r.X, r.Right())
		l.Y = append(l.Y, r.Y, r.Bottom())
	}
	l.X = append(l.X, 0, canvas.Width)
	l.Y = append(l.Y, 0, canvas.Height)
	return l
}

// nearest returns the candidate closest to v within the threshold. On equal
// distances the earlier candidate wins.
func (e *Engine) nearest(v float64, candidates []float64) (float64, float64, bool) {
	best, bestDist := v, e.threshold
	found := false
	for _, c := range candidates {
		d := math.Abs(c - v)
		if d > e.threshold {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, bestDist, found
}

// SnapCoordinate returns the nearest candidate within the threshold, or v.
func (e *Engine) SnapCoordinate(v float64, candidates []float64) float64 {
	c, _, _ := e.nearest(v, candidates)
	return c
}

// Drag snaps a translated rectangle. Each axis is handled independently: the
// leading and trailing edges are matched against the candidates and the
// closer match decides the shift. Equal matches that imply different shifts
// leave the axis alone. The size never changes.
func (e *Engine) Drag(r document.Rect, l Lines) document.Rect {
	r.X += e.axisShift(r.X, r.Right(), l.X)
	r.Y += e.axisShift(r.Y, r.Bottom(), l.Y)
	return r
}

func (e *Engine) axisShift(lead, trail float64, candidates []float64) float64 {
	cl, dl, okL := e.nearest(lead, candidates)
	ct, dt, okT := e.nearest(trail, candidates)
	shiftL, shiftT := cl-lead, ct-trail

	switch {
	case okL && !okT:
		return shiftL
	case okT && !okL:
		return shiftT
	case !okL && !okT:
		return 0
	case dl < dt:
		return shiftL
	case dt < dl:
		return shiftT
	case shiftL == shiftT:
		return shiftL
	default:
		return 0
	}
}

// Resize snaps the edges moved by handle h. The opposite edges keep their
// position; a dimension pushed below the minimum grows back by moving the
// dragged edge.
func (e *Engine) Resize(r document.Rect, h Handle, l Lines) document.Rect {
	left, top := r.X, r.Y
	right, bottom := r.Right(), r.Bottom()

	if h.MovesLeft() {
		left = e.SnapCoordinate(left, l.X)
	}
	if h.MovesRight() {
		right = e.SnapCoordinate(right, l.X)
	}
	if h.MovesTop() {
		top = e.SnapCoordinate(top, l.Y)
	}
	if h.MovesBottom() {
		bottom = e.SnapCoordinate(bottom, l.Y)
	}

	return Floor(document.Rect{X: left, Y: top, Width: right - left, Height: bottom - top}, h)
}

// Floor grows r to the minimum slice size, keeping the edges that h does
// not move in place.
func Floor(r document.Rect, h Handle) document.Rect {
	if r.Width < document.MinSliceSize {
		if h.MovesLeft() {
			r.X = r.Right() - document.MinSliceSize
		}
		r.Width = document.MinSliceSize
	}
	if r.Height < document.MinSliceSize {
		if h.MovesTop() {
			r.Y = r.Bottom() - document.MinSliceSize
		}
		r.Height = document.MinSliceSize
	}
	return r
}

// Guides lists the candidate lines within the threshold of either edge of r,
// vertical lines first. Duplicate positions are reported once.
func (e *Engine) Guides(r document.Rect, l Lines) []Guide {
	var out []Guide
	seen := make(map[float64]bool)
	for _, x := range l.X {
		if seen[x] {
			continue
		}
		if math.Abs(x-r.X) <= e.threshold || math.Abs(x-r.Right()) <= e.threshold {
			seen[x] = true
			out = append(out, Guide{Orientation: Vertical, Position: x})
		}
	}
	clear(seen)
	for _, y := range l.Y {
		if seen[y] {
			continue
		}
		if math.Abs(y-r.Y) <= e.threshold || math.Abs(y-r.Bottom()) <= e.threshold {
			seen[y] = true
			out = append(out, Guide{Orientation: Horizontal, Position: y})
		}
	}
	return out
}
