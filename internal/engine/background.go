package engine

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/cutsprite/cutsprite/internal/document"
	"github.com/cutsprite/cutsprite/internal/export"
	"github.com/cutsprite/cutsprite/internal/geometry"
)

var (
	ErrNoImage      = errors.New("no background image")
	ErrOutsideImage = errors.New("point is outside the background image")
)

// Background image scale bounds.
const (
	MinImageScale = 0.1
	MaxImageScale = 5.0
)

// DefaultColorTolerance is the per-channel distance used by RemoveColor when
// none is given.
const DefaultColorTolerance = 10

// SetImage replaces the background image and fits it to the canvas.
func (e *Engine) SetImage(img image.Image, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.image = img
	e.imageName = name
	e.fitImage()
	b := img.Bounds()
	e.log.Info("background image set", "name", name, "width", b.Dx(), "height", b.Dy())
}

// PlaceImage replaces the background image and positions it with t instead
// of fitting it to the canvas. The scale is kept within the scale bounds.
func (e *Engine) PlaceImage(img image.Image, name string, t document.ImageTransform) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.image = img
	e.imageName = name
	t.Scale = max(MinImageScale, min(MaxImageScale, t.Scale))
	e.transform = t
}

// RemoveImage drops the background image and resets its transform.
func (e *Engine) RemoveImage() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.image = nil
	e.imageName = ""
	e.transform = document.IdentityTransform()
}

// ScaleImage multiplies the image scale by factor, within the scale bounds.
func (e *Engine) ScaleImage(factor float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.image == nil || factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return false
	}
	e.transform.Scale = max(MinImageScale, min(MaxImageScale, e.transform.Scale*factor))
	return true
}

// MoveImage shifts the image on the canvas.
func (e *Engine) MoveImage(dx, dy float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.moveImage(dx, dy)
}

func (e *Engine) moveImage(dx, dy float64) bool {
	if e.image == nil {
		return false
	}
	e.transform.OffsetX += dx
	e.transform.OffsetY += dy
	return true
}

// ResetImage fits the image to the canvas again.
func (e *Engine) ResetImage() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.image == nil {
		return false
	}
	e.fitImage()
	return true
}

// fitImage scales the image to fit the canvas and centres it.
func (e *Engine) fitImage() {
	b := e.image.Bounds()
	canvas := e.model.Canvas()
	iw, ih := float64(b.Dx()), float64(b.Dy())
	if iw <= 0 || ih <= 0 {
		e.transform = document.IdentityTransform()
		return
	}

	scale := canvas.Height / ih
	if iw/ih > canvas.Width/canvas.Height {
		scale = canvas.Width / iw
	}
	e.transform = document.ImageTransform{
		Scale:   scale,
		OffsetX: (canvas.Width - iw*scale) / 2,
		OffsetY: (canvas.Height - ih*scale) / 2,
	}
}

// FocusSlice pans the image so that the slice's area of the canvas sits at
// the canvas centre, and selects the slice.
func (e *Engine) FocusSlice(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.image == nil {
		return ErrNoImage
	}
	s, ok := e.model.Slice(id)
	if !ok {
		return fmt.Errorf("focus slice %d: %w", id, geometry.ErrSliceNotFound)
	}
	canvas := e.model.Canvas()
	cx, cy := s.Rect().Center()
	e.transform.OffsetX += canvas.Width/2 - cx
	e.transform.OffsetY += canvas.Height/2 - cy
	e.model.SelectOnly(id)
	return nil
}

// PickColor returns the "#rrggbb" colour of the image under canvas point (x, y).
func (e *Engine) PickColor(x, y float64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.image == nil {
		return "", ErrNoImage
	}
	ix, iy := e.transform.ToImage(x, y)
	p := image.Pt(int(math.Floor(ix)), int(math.Floor(iy)))
	if !p.In(e.image.Bounds()) {
		return "", ErrOutsideImage
	}
	return export.HexColor(e.image.At(p.X, p.Y)), nil
}

// RemoveColor makes every image pixel within tolerance of hex transparent.
// Tolerance is clamped to [0, 255].
func (e *Engine) RemoveColor(hex string, tolerance int) error {
	key, err := export.ParseColor(hex)
	if err != nil {
		return err
	}
	tol := uint8(max(0, min(255, tolerance)))

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.image == nil {
		return ErrNoImage
	}
	e.image = export.RemoveColor(e.image, key, tol)
	e.log.Info("colour removed", "color", hex, "tolerance", tol)
	return nil
}

// Source snapshots the background image and its transform.
func (e *Engine) Source() export.Source {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source()
}

func (e *Engine) source() export.Source {
	return export.Source{Image: e.image, Transform: e.transform}
}

// Thumbnail renders a preview of slice id no larger than limit pixels.
func (e *Engine) Thumbnail(id, limit int) (*image.NRGBA, error) {
	e.mu.Lock()
	s, ok := e.model.Slice(id)
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("thumbnail %d: %w", id, geometry.ErrSliceNotFound)
	}
	src, r := e.source(), s.Rect()
	e.mu.Unlock()

	return export.Thumbnail(src, r, limit), nil
}
