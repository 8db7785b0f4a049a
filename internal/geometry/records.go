package geometry

import (
	"fmt"

	"github.com/cutsprite/cutsprite/internal/document"
)

// FromRecords builds a fresh model from decoded group records. Slice ids are
// assigned anew in record order. The current group is resolved by name and
// falls back to the first group.
func FromRecords(canvas document.Size, groups []document.GroupRecord, current string) (*Model, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("build model: %w", document.ErrInvalidFormat)
	}
	m := newEmpty(canvas)
	if err := m.appendRecords(groups); err != nil {
		return nil, err
	}
	m.current = m.groups[0]
	if g := m.GroupByName(current); g != nil {
		m.current = g
	}
	return m, nil
}

// ImportRecords appends groups from records after the existing ones.
// Nothing is added if any record is unusable.
func (m *Model) ImportRecords(groups []document.GroupRecord) error {
	if err := m.appendRecords(groups); err != nil {
		return fmt.Errorf("import groups: %w", err)
	}
	return nil
}

func (m *Model) appendRecords(groups []document.GroupRecord) error {
	for _, rec := range groups {
		for _, s := range rec.Slices {
			if !s.Rect().Finite() {
				return fmt.Errorf("group %q: %w", rec.Name, ErrInvalidGeometry)
			}
		}
	}
	for _, rec := range groups {
		g := m.CreateGroup(rec.Name, rec.Color, rec.DefaultAnchor.Anchor)
		for _, s := range rec.Slices {
			sl := m.newSlice(s.Rect(), g)
			if s.Anchor != nil {
				a := document.ClampAnchor(s.Anchor.Anchor)
				sl.Anchor = &a
			}
		}
	}
	return nil
}

// Records snapshots the groups in serialisable form.
func (m *Model) Records() []document.GroupRecord {
	out := make([]document.GroupRecord, 0, len(m.groups))
	for _, g := range m.groups {
		rec := document.GroupRecord{
			Name:          g.Name,
			Color:         g.Color,
			DefaultAnchor: document.AnchorValue{Anchor: g.DefaultAnchor},
			Slices:        make([]document.SliceRecord, 0, len(g.slices)),
		}
		for _, s := range g.slices {
			sr := document.SliceRecord{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
			if s.Anchor != nil {
				sr.Anchor = &document.AnchorValue{Anchor: *s.Anchor}
			}
			rec.Slices = append(rec.Slices, sr)
		}
		out = append(out, rec)
	}
	return out
}
