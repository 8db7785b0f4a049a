package geometry

import (
	"math"

	"github.com/cutsprite/cutsprite/internal/document"
)

// EffectiveAnchor returns the slice's own anchor, or its group's default.
func (m *Model) EffectiveAnchor(s *Slice) document.Anchor {
	if s.Anchor != nil {
		return *s.Anchor
	}
	if g := m.GroupOf(s); g != nil {
		return g.DefaultAnchor
	}
	return document.CenterAnchor
}

// SetInherit switches a slice between inheriting the group anchor and owning
// one. Turning inheritance off seeds the slice's anchor with the value it
// currently resolves to.
func (m *Model) SetInherit(id int, inherit bool) error {
	s, ok := m.Slice(id)
	if !ok {
		return ErrSliceNotFound
	}
	if inherit {
		s.Anchor = nil
		return nil
	}
	if s.Anchor == nil {
		a := m.EffectiveAnchor(s)
		s.Anchor = &a
	}
	return nil
}

// SetSliceAnchor gives a slice its own anchor, clamped to the unit square.
func (m *Model) SetSliceAnchor(id int, a document.Anchor) error {
	s, ok := m.Slice(id)
	if !ok {
		return ErrSliceNotFound
	}
	c := document.ClampAnchor(a)
	s.Anchor = &c
	return nil
}

// SetGroupAnchor changes a group's default anchor. Slices that inherit follow it.
func (m *Model) SetGroupAnchor(g *Group, a document.Anchor) error {
	if !m.owns(g) {
		return ErrUnknownGroup
	}
	g.DefaultAnchor = document.ClampAnchor(a)
	return nil
}

// Pivot is the effective anchor in whole pixels relative to the slice's
// top-left corner.
func (m *Model) Pivot(s *Slice) (int, int) {
	a := m.EffectiveAnchor(s)
	return PivotOf(s.Width, s.Height, a)
}

// PivotOf converts an anchor to pixel offsets within a w×h box.
func PivotOf(w, h float64, a document.Anchor) (int, int) {
	return int(math.Round(w * a.X)), int(math.Round(h * a.Y))
}
