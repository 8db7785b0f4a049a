package document

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestImageTransformRoundTrip(t *testing.T) {
	tr := ImageTransform{Scale: 2.5, OffsetX: -40, OffsetY: 12}

	cx, cy := tr.Matrix().TransformPoint(10, 20)
	if !almostEqual(cx, -15) || !almostEqual(cy, 62) {
		t.Fatalf("image->canvas = (%v,%v), want (-15,62)", cx, cy)
	}

	ix, iy := tr.ToImage(cx, cy)
	if !almostEqual(ix, 10) || !almostEqual(iy, 20) {
		t.Fatalf("canvas->image = (%v,%v), want (10,20)", ix, iy)
	}
}

func TestTransformRect(t *testing.T) {
	m := Translate(5, -5).Multiply(Scale(2, 3))
	got := m.TransformRect(Rect{X: 1, Y: 1, Width: 4, Height: 2})
	want := Rect{X: 7, Y: -2, Width: 8, Height: 6}
	if got != want {
		t.Fatalf("TransformRect = %+v, want %+v", got, want)
	}
}

func TestInvertSingular(t *testing.T) {
	if got := Scale(0, 0).Invert(); got != Identity() {
		t.Fatalf("Invert of singular matrix = %v", got)
	}
}
