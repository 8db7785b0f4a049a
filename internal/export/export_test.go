package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/cutsprite/cutsprite/internal/atlas"
	"github.com/cutsprite/cutsprite/internal/document"
)

// gradient returns a w×h image whose pixel (x, y) is (x*10, y*10, 0).
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 10), uint8(y * 10), 0, 0xff})
		}
	}
	return img
}

func item(group string, index int, r document.Rect) atlas.Item {
	return atlas.Item{
		Name:   document.SliceName(group, index),
		Group:  group,
		Index:  index,
		Source: r,
		Anchor: document.CenterAnchor,
	}
}

func TestCropFollowsImageTransform(t *testing.T) {
	src := Source{
		Image:     gradient(4, 4),
		Transform: document.ImageTransform{Scale: 2, OffsetX: 10, OffsetY: 10},
	}
	got := Crop(src, document.Rect{X: 12, Y: 14, Width: 4, Height: 2})

	if b := got.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("crop size = %dx%d, want 4x2", b.Dx(), b.Dy())
	}
	tests := []struct {
		x, y   int
		sx, sy uint8
	}{
		{0, 0, 1, 2},
		{1, 0, 1, 2},
		{2, 1, 2, 2},
		{3, 1, 2, 2},
	}
	for _, tt := range tests {
		c := got.NRGBAAt(tt.x, tt.y)
		want := color.NRGBA{tt.sx * 10, tt.sy * 10, 0, 0xff}
		if c != want {
			t.Errorf("crop pixel (%d,%d) = %v, want %v", tt.x, tt.y, c, want)
		}
	}
}

func TestCropOutsideImageIsTransparent(t *testing.T) {
	src := Source{
		Image:     gradient(4, 4),
		Transform: document.ImageTransform{Scale: 1, OffsetX: 10, OffsetY: 10},
	}
	got := Crop(src, document.Rect{X: 0, Y: 0, Width: 3, Height: 3})
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if c := got.NRGBAAt(x, y); c.A != 0 {
				t.Fatalf("pixel (%d,%d) = %v, want transparent", x, y, c)
			}
		}
	}

	if got := Crop(Source{}, document.Rect{Width: 6, Height: 7}); got.Bounds().Dx() != 6 || got.Bounds().Dy() != 7 {
		t.Fatalf("crop without image = %v, want 6x7", got.Bounds())
	}
}

func TestThumbnailSize(t *testing.T) {
	src := Source{Image: gradient(300, 300), Transform: document.IdentityTransform()}

	tests := []struct {
		name  string
		r     document.Rect
		limit int
		w, h  int
	}{
		{"wide", document.Rect{Width: 200, Height: 100}, 80, 80, 40},
		{"tall", document.Rect{Width: 50, Height: 160}, 80, 25, 80},
		{"small kept", document.Rect{Width: 20, Height: 10}, 80, 20, 10},
		{"default limit", document.Rect{Width: 160, Height: 160}, 0, DefaultThumbnailSize, DefaultThumbnailSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Thumbnail(src, tt.r, tt.limit).Bounds()
			if b.Dx() != tt.w || b.Dy() != tt.h {
				t.Fatalf("thumbnail = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.w, tt.h)
			}
		})
	}
}

func TestThumbnailPlaceholder(t *testing.T) {
	src := Source{Image: gradient(10, 10), Transform: document.IdentityTransform()}
	got := Thumbnail(src, document.Rect{X: 500, Y: 500, Width: 60, Height: 40}, 80)

	if c := got.NRGBAAt(0, 0); c != placeholderBorder {
		t.Errorf("corner = %v, want border %v", c, placeholderBorder)
	}
	if c := got.NRGBAAt(2, 2); c != placeholderFill {
		t.Errorf("inside = %v, want fill %v", c, placeholderFill)
	}
}

func TestRemoveColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{250, 5, 9, 255})
	img.SetNRGBA(2, 0, color.NRGBA{240, 0, 0, 255})
	img.SetNRGBA(3, 0, color.NRGBA{0, 0, 255, 255})

	key, err := ParseColor("#f00")
	if err != nil {
		t.Fatalf("ParseColor: %v", err)
	}
	out := RemoveColor(img, key, 10)

	wantAlpha := []uint8{0, 0, 255, 255}
	for x, a := range wantAlpha {
		if got := out.NRGBAAt(x, 0).A; got != a {
			t.Errorf("pixel %d alpha = %d, want %d", x, got, a)
		}
	}
	if img.NRGBAAt(0, 0).A != 255 {
		t.Fatal("source image was modified")
	}
}

func TestParseAndFormatColor(t *testing.T) {
	c, err := ParseColor("#ff6b6b")
	if err != nil {
		t.Fatalf("ParseColor: %v", err)
	}
	if c != (color.NRGBA{0xff, 0x6b, 0x6b, 0xff}) {
		t.Fatalf("ParseColor = %v", c)
	}
	if got := HexColor(c); got != "#ff6b6b" {
		t.Fatalf("HexColor = %q, want #ff6b6b", got)
	}
	if got := HexColor(color.NRGBA{}); got != "#000000" {
		t.Fatalf("HexColor(transparent) = %q", got)
	}
	if _, err := ParseColor("red"); err == nil {
		t.Fatal("ParseColor accepted a colour name")
	}
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		body, _ := io.ReadAll(rc)
		rc.Close()
		if _, err := png.Decode(bytes.NewReader(body)); err != nil {
			t.Fatalf("%s is not a PNG: %v", f.Name, err)
		}
	}
	return names
}

func TestJobArchive(t *testing.T) {
	src := Source{Image: gradient(40, 40), Transform: document.IdentityTransform()}

	single := &Job{Name: "Walk", Source: src, Created: time.Now(), Items: []atlas.Item{
		item("Walk", 0, document.Rect{Width: 10, Height: 10}),
		item("Walk", 1, document.Rect{X: 10, Width: 10, Height: 10}),
	}}
	data, err := single.Archive(context.Background())
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	got := zipNames(t, data)
	want := []string{"Walk/slice_1.png", "Walk/slice_2.png"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("single-group entries = %v, want %v", got, want)
	}

	combined := &Job{Name: "all", Source: src, Created: time.Now(), Items: []atlas.Item{
		item("Walk", 0, document.Rect{Width: 10, Height: 10}),
		item("Idle", 0, document.Rect{Y: 10, Width: 10, Height: 10}),
	}}
	data, err = combined.Archive(context.Background())
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	got = zipNames(t, data)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "Idle/slice_1.png" || got[1] != "Walk/slice_1.png" {
		t.Fatalf("combined entries = %v", got)
	}
}

func TestArchiveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Archive(ctx, "x", []File{{Name: "a.png"}}, time.Now())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Archive on cancelled context = %v, want context.Canceled", err)
	}
}

func TestEmptyJob(t *testing.T) {
	job := &Job{Name: "Empty"}
	ctx := context.Background()

	if _, err := job.Individual(ctx); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("Individual = %v", err)
	}
	if _, err := job.Archive(ctx); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("Archive = %v", err)
	}
	if _, err := job.SpriteSheet(ctx); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("SpriteSheet = %v", err)
	}
	if _, _, err := job.IndividualAtlas(ctx); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("IndividualAtlas = %v", err)
	}
}

func TestJobIndividual(t *testing.T) {
	job := &Job{
		Name:   "Walk",
		Source: Source{Image: gradient(40, 40), Transform: document.IdentityTransform()},
		Items: []atlas.Item{
			item("Walk", 0, document.Rect{Width: 12, Height: 8}),
			item("Walk", 1, document.Rect{X: 12, Width: 6, Height: 9}),
		},
	}
	files, doc, err := job.IndividualAtlas(context.Background())
	if err != nil {
		t.Fatalf("IndividualAtlas: %v", err)
	}
	if len(files) != 2 || files[0].Name != "Walk_slice_1.png" || files[1].Name != "Walk_slice_2.png" {
		t.Fatalf("files = %+v", files)
	}
	img, err := png.Decode(bytes.NewReader(files[1].Data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 6 || b.Dy() != 9 {
		t.Fatalf("slice 2 = %dx%d, want 6x9", b.Dx(), b.Dy())
	}
	if doc.Meta.Image != "" || doc.Meta.Size != nil || len(doc.Meta.FrameTags) != 0 {
		t.Fatalf("individual meta = %+v, want no image, size or tags", doc.Meta)
	}
}

func TestJobSpriteSheet(t *testing.T) {
	job := &Job{
		Name:   "Walk",
		Source: Source{Image: gradient(40, 40), Transform: document.IdentityTransform()},
		Items: []atlas.Item{
			item("Walk", 0, document.Rect{Width: 10, Height: 10}),
			item("Walk", 1, document.Rect{X: 10, Width: 10, Height: 10}),
			item("Walk", 2, document.Rect{X: 20, Width: 10, Height: 10}),
		},
	}
	out, err := job.SpriteSheet(context.Background())
	if err != nil {
		t.Fatalf("SpriteSheet: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out.PNG))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("sheet = %dx%d, want 20x20", b.Dx(), b.Dy())
	}
	if out.ImageName != "Walk_spritesheet.png" || out.Atlas.Meta.Image != out.ImageName {
		t.Fatalf("image name = %q, meta image = %q", out.ImageName, out.Atlas.Meta.Image)
	}

	// Cell (0,1) holds slice 3, sampled from image x 20..29.
	_, _, _, a := img.At(5, 15).RGBA()
	r, _, _, _ := img.At(0, 10).RGBA()
	if a == 0 || r>>8 != 200 {
		t.Fatalf("slice 3 not drawn at its cell: r=%d a=%d", r>>8, a)
	}
	// Cell (1,1) is unused.
	if _, _, _, a := img.At(15, 15).RGBA(); a != 0 {
		t.Fatalf("unused cell alpha = %d, want 0", a)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"Walk":      "Walk",
		"a/b":       "a_b",
		"run: fast": "run_ fast",
		"":          "export",
		"..":        "export",
	}
	for in, want := range tests {
		if got := sanitizeName(in); got != want {
			t.Errorf("sanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestJobRejectsOversizedFrames(t *testing.T) {
	src := Source{Image: gradient(40, 40), Transform: document.IdentityTransform()}
	huge := document.Rect{X: 1e10, Y: 1e10, Width: 1e10, Height: 1e10}
	ctx := context.Background()

	tests := []struct {
		name  string
		items []atlas.Item
	}{
		{"huge frame", []atlas.Item{item("Walk", 0, huge)}},
		{"wide frame", []atlas.Item{item("Walk", 0, document.Rect{Width: atlas.MaxSheetSize + 1, Height: 10})}},
		{"one of many", []atlas.Item{
			item("Walk", 0, document.Rect{Width: 10, Height: 10}),
			item("Walk", 1, huge),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &Job{Name: "Walk", Source: src, Created: time.Now(), Items: tt.items}
			if _, err := job.Individual(ctx); !errors.Is(err, atlas.ErrTooLarge) {
				t.Errorf("Individual = %v, want ErrTooLarge", err)
			}
			if _, err := job.Archive(ctx); !errors.Is(err, atlas.ErrTooLarge) {
				t.Errorf("Archive = %v, want ErrTooLarge", err)
			}
			if _, err := job.SpriteSheet(ctx); !errors.Is(err, atlas.ErrTooLarge) {
				t.Errorf("SpriteSheet = %v, want ErrTooLarge", err)
			}
			if _, _, err := job.IndividualAtlas(ctx); !errors.Is(err, atlas.ErrTooLarge) {
				t.Errorf("IndividualAtlas = %v, want ErrTooLarge", err)
			}
		})
	}
}

func TestJobSpriteSheetTooLarge(t *testing.T) {
	// Each frame fits on its own but four of them cannot share one sheet.
	side := float64(atlas.MaxSheetSize/2 + 1)
	var items []atlas.Item
	for i := range 4 {
		items = append(items, item("Walk", i, document.Rect{Width: side, Height: side}))
	}
	job := &Job{Name: "Walk", Source: Source{}, Created: time.Now(), Items: items}

	if _, err := job.SpriteSheet(context.Background()); !errors.Is(err, atlas.ErrTooLarge) {
		t.Fatalf("SpriteSheet = %v, want ErrTooLarge", err)
	}
}
