// Package atlas lays slices out on a uniform grid and describes the result
// as a TexturePacker-compatible document.
package atlas

import (
	"errors"
	"fmt"
	"math"

	"github.com/cutsprite/cutsprite/internal/document"
)

var (
	// ErrEmpty is returned when there is nothing to pack.
	ErrEmpty = errors.New("no slices to pack")

	// ErrTooLarge is returned when a frame or the packed sheet would exceed
	// MaxSheetSize on either side.
	ErrTooLarge = errors.New("sheet exceeds size limit")
)

// MaxSheetSize is the largest width or height, in pixels, of a frame or of
// a packed sheet.
const MaxSheetSize = 8192

// Item is one slice to place on the sheet.
type Item struct {
	Name   string // frame name, e.g. "Walk_slice_1"
	Group  string
	Index  int // position within its group
	Source document.Rect
	Anchor document.Anchor
}

// Size returns the item's pixel footprint. Sides beyond MaxSheetSize are
// reported as MaxSheetSize+1.
func (it Item) Size() (int, int) {
	return pixels(it.Source.Width), pixels(it.Source.Height)
}

// Check returns ErrTooLarge when the item cannot be rendered.
func (it Item) Check() error {
	if w, h := it.Size(); w > MaxSheetSize || h > MaxSheetSize {
		return fmt.Errorf("frame %s is %.0fx%.0f: %w", it.Name, it.Source.Width, it.Source.Height, ErrTooLarge)
	}
	return nil
}

// Placement is an item with its cell position on the sheet.
type Placement struct {
	Item
	X, Y int
	W, H int
}

// Layout is a packed grid.
type Layout struct {
	Cols, Rows            int
	CellWidth, CellHeight int
	Frames                []Placement
}

// Width returns the sheet width in pixels.
func (l *Layout) Width() int { return l.Cols * l.CellWidth }

// Height returns the sheet height in pixels.
func (l *Layout) Height() int { return l.Rows * l.CellHeight }

// Check returns ErrTooLarge when the sheet is too big to render as one image.
func (l *Layout) Check() error {
	if l.Width() > MaxSheetSize || l.Height() > MaxSheetSize {
		return fmt.Errorf("sheet %dx%d: %w", l.Width(), l.Height(), ErrTooLarge)
	}
	return nil
}

// Pack arranges items in row-major order on a near-square grid sized to
// the largest item. Each item sits at the top-left of its cell. Items larger
// than MaxSheetSize are rejected with ErrTooLarge.
func Pack(items []Item) (*Layout, error) {
	n := len(items)
	if n == 0 {
		return nil, ErrEmpty
	}

	cols, rows := Grid(n)
	l := &Layout{Cols: cols, Rows: rows, Frames: make([]Placement, n)}
	for _, it := range items {
		if err := it.Check(); err != nil {
			return nil, err
		}
		w, h := it.Size()
		l.CellWidth = max(l.CellWidth, w)
		l.CellHeight = max(l.CellHeight, h)
	}

	for i, it := range items {
		w, h := it.Size()
		l.Frames[i] = Placement{
			Item: it,
			X:    (i % cols) * l.CellWidth,
			Y:    (i / cols) * l.CellHeight,
			W:    w,
			H:    h,
		}
	}
	return l, nil
}

// Grid returns the column and row count for n cells.
func Grid(n int) (cols, rows int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	return cols, rows
}

func pixels(v float64) int {
	switch {
	case v > MaxSheetSize || math.IsNaN(v):
		return MaxSheetSize + 1
	case v < 1:
		return 1
	}
	return int(math.Round(v))
}
