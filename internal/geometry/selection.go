package geometry

import "github.com/cutsprite/cutsprite/internal/document"

// Edge names one side of a slice for keyboard resizing.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

// Select marks a slice selected without touching the others.
func (m *Model) Select(id int) error {
	s, ok := m.Slice(id)
	if !ok {
		return ErrSliceNotFound
	}
	s.Selected = true
	return nil
}

// SelectOnly selects id and deselects every other slice.
func (m *Model) SelectOnly(id int) error {
	s, ok := m.Slice(id)
	if !ok {
		return ErrSliceNotFound
	}
	m.ClearSelection()
	s.Selected = true
	return nil
}

// SelectGroup selects exactly the slices of g.
func (m *Model) SelectGroup(g *Group) error {
	if !m.owns(g) {
		return ErrUnknownGroup
	}
	m.ClearSelection()
	for _, s := range g.slices {
		s.Selected = true
	}
	return nil
}

// ClearSelection deselects every slice.
func (m *Model) ClearSelection() {
	for _, s := range m.order {
		s.Selected = false
	}
}

// Selected returns the selected slices in z-order.
func (m *Model) Selected() []*Slice {
	var out []*Slice
	for _, s := range m.order {
		if s.Selected {
			out = append(out, s)
		}
	}
	return out
}

// SelectedSlice returns the topmost selected slice, or nil.
func (m *Model) SelectedSlice() *Slice {
	for i := len(m.order) - 1; i >= 0; i-- {
		if m.order[i].Selected {
			return m.order[i]
		}
	}
	return nil
}

// Nudge moves every selected slice by (dx, dy), keeping each one inside the
// canvas. It reports whether anything was selected.
func (m *Model) Nudge(dx, dy float64) bool {
	sel := m.Selected()
	for _, s := range sel {
		s.X = clampRange(s.X+dx, 0, m.canvas.Width-s.Width)
		s.Y = clampRange(s.Y+dy, 0, m.canvas.Height-s.Height)
	}
	return len(sel) > 0
}

// ResizeSelected moves one edge of every selected slice outward by delta
// (inward when negative). The opposite edge stays put and the size stays
// within the slice size limits.
func (m *Model) ResizeSelected(edge Edge, delta float64) bool {
	sel := m.Selected()
	for _, s := range sel {
		switch edge {
		case EdgeRight:
			s.Width = document.ClampSliceSize(s.Width+delta)
		case EdgeBottom:
			s.Height = document.ClampSliceSize(s.Height+delta)
		case EdgeLeft:
			right := s.X + s.Width
			s.Width = document.ClampSliceSize(s.Width+delta)
			s.X = right - s.Width
		case EdgeTop:
			bottom := s.Y + s.Height
			s.Height = document.ClampSliceSize(s.Height+delta)
			s.Y = bottom - s.Height
		}
	}
	return len(sel) > 0
}

// clampRange clamps v to [lo, hi]; when hi < lo the result is lo.
func clampRange(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(hi, v))
}
