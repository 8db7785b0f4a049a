package asset

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"slices"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrUnsupported is returned for payloads in a format the editor cannot load.
var ErrUnsupported = errors.New("only PNG, JPEG, WebP and BMP images are supported")

// Formats lists the image formats Decode accepts, as reported by image.Decode.
var Formats = []string{"png", "jpeg", "webp", "bmp"}

// Supported reports whether contentType names an accepted image format.
func Supported(contentType string) bool {
	sub, ok := strings.CutPrefix(contentType, "image/")
	if !ok {
		return false
	}
	sub, _, _ = strings.Cut(sub, ";")
	if sub == "x-ms-bmp" {
		sub = "bmp"
	}
	return slices.Contains(Formats, strings.TrimSpace(sub))
}

const dataURLPrefix = "data:image/png;base64,"

// Decode reads an image in one of Formats.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	if !slices.Contains(Formats, format) {
		return nil, "", fmt.Errorf("decode image: %s: %w", format, ErrUnsupported)
	}
	return img, format, nil
}

// DecodeDataURL decodes a base64 image data URL.
func DecodeDataURL(url string) (image.Image, error) {
	meta, payload, ok := strings.Cut(url, ",")
	if !ok || !strings.HasPrefix(meta, "data:image/") || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("decode data url: %w", ErrUnsupported)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	img, _, err := Decode(bytes.NewReader(raw))
	return img, err
}

// EncodeDataURL encodes img as a base64 PNG data URL.
func EncodeDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
