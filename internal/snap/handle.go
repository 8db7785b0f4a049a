package snap

import (
	"math"
	"strings"

	"github.com/cutsprite/cutsprite/internal/document"
)

// HandleTolerance is the hit distance, in pixels, around a resize handle.
const HandleTolerance = 4.0

// Handle identifies one of the eight resize handles of a rectangle.
type Handle string

const (
	HandleNone Handle = ""
	HandleNW   Handle = "nw"
	HandleNE   Handle = "ne"
	HandleSW   Handle = "sw"
	HandleSE   Handle = "se"
	HandleN    Handle = "n"
	HandleS    Handle = "s"
	HandleW    Handle = "w"
	HandleE    Handle = "e"
)

// Handles lists every handle in hit-test priority order: corners first.
var Handles = []Handle{HandleNW, HandleNE, HandleSW, HandleSE, HandleN, HandleS, HandleW, HandleE}

func (h Handle) MovesLeft() bool   { return strings.Contains(string(h), "w") }
func (h Handle) MovesRight() bool  { return strings.Contains(string(h), "e") }
func (h Handle) MovesTop() bool    { return strings.Contains(string(h), "n") }
func (h Handle) MovesBottom() bool { return strings.Contains(string(h), "s") }

// Cursor returns the CSS cursor shown over the handle.
func (h Handle) Cursor() string {
	switch h {
	case HandleNW, HandleSE:
		return "nw-resize"
	case HandleNE, HandleSW:
		return "ne-resize"
	case HandleN, HandleS:
		return "ns-resize"
	case HandleW, HandleE:
		return "ew-resize"
	}
	return "default"
}

// Point returns the canvas position of the handle on r.
func (h Handle) Point(r document.Rect) (float64, float64) {
	x, y := r.Center()
	if h.MovesLeft() {
		x = r.X
	} else if h.MovesRight() {
		x = r.Right()
	}
	if h.MovesTop() {
		y = r.Y
	} else if h.MovesBottom() {
		y = r.Bottom()
	}
	return x, y
}

// HandleAt returns the handle of r under (x, y), or HandleNone. Corners are
// tested before edges; an edge zone spans the whole side plus the tolerance.
func HandleAt(r document.Rect, x, y, tolerance float64) Handle {
	near := func(a, b float64) bool { return math.Abs(a-b) <= tolerance }
	left, right, top, bottom := r.X, r.Right(), r.Y, r.Bottom()

	switch {
	case near(x, left) && near(y, top):
		return HandleNW
	case near(x, right) && near(y, top):
		return HandleNE
	case near(x, left) && near(y, bottom):
		return HandleSW
	case near(x, right) && near(y, bottom):
		return HandleSE
	}

	withinX := x >= left-tolerance && x <= right+tolerance
	withinY := y >= top-tolerance && y <= bottom+tolerance
	switch {
	case near(y, top) && withinX:
		return HandleN
	case near(y, bottom) && withinX:
		return HandleS
	case near(x, left) && withinY:
		return HandleW
	case near(x, right) && withinY:
		return HandleE
	}
	return HandleNone
}

// Apply moves the edges of start that h controls by (dx, dy) and floors the
// result at the minimum size with the opposite edges fixed.
func (h Handle) Apply(start document.Rect, dx, dy float64) document.Rect {
	r := start
	if h.MovesLeft() {
		r.X += dx
		r.Width -= dx
	}
	if h.MovesRight() {
		r.Width += dx
	}
	if h.MovesTop() {
		r.Y += dy
		r.Height -= dy
	}
	if h.MovesBottom() {
		r.Height += dy
	}
	return Floor(r, h)
}
