package document

import (
	"fmt"
	"math"
)

// MinSliceSize is the smallest width or height a slice may have, in canvas pixels.
const MinSliceSize = 5.0

// MaxSliceSize is the largest width or height a slice may have, in canvas pixels.
// It bounds the pixel buffers an export allocates.
const MaxSliceSize = 8192.0

// ClampSliceSize limits a slice side to [MinSliceSize, MaxSliceSize].
func ClampSliceSize(v float64) float64 {
	return min(max(v, MinSliceSize), MaxSliceSize)
}

// Default canvas dimensions used when none are configured.
const (
	DefaultCanvasWidth  = 1280
	DefaultCanvasHeight = 720
)

// Anchor is a normalized pivot inside a slice's bounding box.
// (0,0) is the top-left corner, (1,1) the bottom-right.
type Anchor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ClampAnchor returns a with both axes clamped to [0,1].
// Non-finite axes fall back to the centre value.
func ClampAnchor(a Anchor) Anchor {
	return Anchor{X: clampUnit(a.X), Y: clampUnit(a.Y)}
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.5
	}
	return max(0, min(1, v))
}

// Size is a canvas or image extent in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned rectangle in canvas pixel space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromPoints returns the rectangle spanned by two opposite corners.
func RectFromPoints(x0, y0, x1, y1 float64) Rect {
	return Rect{
		X:      min(x0, x1),
		Y:      min(y0, y1),
		Width:  math.Abs(x1 - x0),
		Height: math.Abs(y1 - y0),
	}
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains checks if a point is inside the rect (edges inclusive).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.Right(), other.Right())
	maxY := max(r.Bottom(), other.Bottom())

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Offset returns r translated by (dx, dy).
func (r Rect) Offset(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Finite reports whether every component of r is a finite number.
func (r Rect) Finite() bool {
	for _, v := range [4]float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ImageTransform places the background image on the canvas:
// canvas = image*Scale + Offset.
type ImageTransform struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// IdentityTransform is the transform of an image drawn 1:1 at the canvas origin.
func IdentityTransform() ImageTransform {
	return ImageTransform{Scale: 1}
}

// SliceName is the export name of the slice at index (0-based) within its group.
func SliceName(group string, index int) string {
	return fmt.Sprintf("%s_slice_%d", group, index+1)
}
