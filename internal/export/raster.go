// Package export renders slices of the background image to PNG, sprite
// sheets and archives.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/cutsprite/cutsprite/internal/atlas"
	"github.com/cutsprite/cutsprite/internal/document"
)

// ErrNothingToExport is returned when the export scope holds no slices.
var ErrNothingToExport = errors.New("no slices to export")

// DefaultThumbnailSize bounds the longer side of a slice preview.
const DefaultThumbnailSize = 80

var (
	placeholderFill   = color.NRGBA{0xf0, 0xf0, 0xf0, 0xff}
	placeholderBorder = color.NRGBA{0xcc, 0xcc, 0xcc, 0xff}
	placeholderText   = color.NRGBA{0x99, 0x99, 0x99, 0xff}
)

// Source is the background image and where it sits on the canvas.
type Source struct {
	Image     image.Image
	Transform document.ImageTransform
}

// imageToDst maps source image pixels into a destination whose origin is the
// canvas point (x, y), enlarged by zoom.
func (s Source) imageToDst(x, y, zoom float64) f64.Aff3 {
	m := document.Scale(zoom, zoom).
		Multiply(document.Translate(-x, -y)).
		Multiply(s.Transform.Matrix())
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}

// Covers reports whether any part of the canvas rect r lies on the image.
func (s Source) Covers(r document.Rect) bool {
	if s.Image == nil {
		return false
	}
	inv := s.Transform.Matrix().Invert()
	ir := inv.TransformRect(r)
	b := s.Image.Bounds()
	return ir.X < float64(b.Max.X) && ir.Right() > float64(b.Min.X) &&
		ir.Y < float64(b.Max.Y) && ir.Bottom() > float64(b.Min.Y)
}

// Crop renders the canvas rect r at one output pixel per canvas pixel.
// Areas outside the image are transparent.
func Crop(src Source, r document.Rect) *image.NRGBA {
	w, h := atlas.Item{Source: r}.Size()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if src.Image == nil {
		return dst
	}
	draw.NearestNeighbor.Transform(dst, src.imageToDst(r.X, r.Y, 1), src.Image, src.Image.Bounds(), draw.Src, nil)
	return dst
}

// Thumbnail renders r scaled down so neither side exceeds limit. Slices that
// miss the image get a "No Image" placeholder.
func Thumbnail(src Source, r document.Rect, limit int) *image.NRGBA {
	if limit <= 0 {
		limit = DefaultThumbnailSize
	}
	limit = min(limit, atlas.MaxSheetSize)
	zoom := min(float64(limit)/r.Width, float64(limit)/r.Height, 1)
	w, h := atlas.Item{Source: document.Rect{Width: r.Width * zoom, Height: r.Height * zoom}}.Size()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	if !src.Covers(r) {
		drawPlaceholder(dst, "No Image")
		return dst
	}
	draw.ApproxBiLinear.Transform(dst, src.imageToDst(r.X, r.Y, zoom), src.Image, src.Image.Bounds(), draw.Src, nil)
	return dst
}

func drawPlaceholder(dst *image.NRGBA, label string) {
	b := dst.Bounds()
	draw.Draw(dst, b, image.NewUniform(placeholderFill), image.Point{}, draw.Src)
	for x := b.Min.X; x < b.Max.X; x++ {
		dst.SetNRGBA(x, b.Min.Y, placeholderBorder)
		dst.SetNRGBA(x, b.Max.Y-1, placeholderBorder)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		dst.SetNRGBA(b.Min.X, y, placeholderBorder)
		dst.SetNRGBA(b.Max.X-1, y, placeholderBorder)
	}

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(placeholderText), Face: basicfont.Face7x13}
	adv := d.MeasureString(label).Ceil()
	d.Dot = fixed.P((b.Dx()-adv)/2, (b.Dy()+basicfont.Face7x13.Ascent-basicfont.Face7x13.Descent)/2)
	d.DrawString(label)
}

// Sheet draws every placement of l into one image.
func Sheet(src Source, l *atlas.Layout) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, l.Width(), l.Height()))
	for _, p := range l.Frames {
		cell := Crop(src, p.Source)
		at := image.Rect(p.X, p.Y, p.X+p.W, p.Y+p.H)
		draw.Draw(dst, at, cell, image.Point{}, draw.Src)
	}
	return dst
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
