package export

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor parses a "#rrggbb" or "#rgb" colour tag.
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(expandShortHex(hex))
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// HexColor formats c as "#rrggbb", ignoring alpha.
func HexColor(c color.Color) string {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		// Fully transparent pixels carry no colour.
		return "#000000"
	}
	return cf.Hex()
}

// RemoveColor returns a copy of img in which every pixel whose red, green
// and blue channels are each within tolerance of key becomes transparent.
func RemoveColor(img image.Image, key color.Color, tolerance uint8) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	k := color.NRGBAModel.Convert(key).(color.NRGBA)
	tol := int(tolerance)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if px.A != 0 && near(px.R, k.R, tol) && near(px.G, k.G, tol) && near(px.B, k.B, tol) {
				px = color.NRGBA{}
			}
			out.SetNRGBA(x-b.Min.X, y-b.Min.Y, px)
		}
	}
	return out
}

func near(a, b uint8, tol int) bool {
	d := int(a) - int(b)
	return d <= tol && -d <= tol
}

func expandShortHex(s string) string {
	if len(s) == 4 && s[0] == '#' {
		return string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	return s
}
