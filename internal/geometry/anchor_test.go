package geometry

import (
	"testing"

	"github.com/cutsprite/cutsprite/internal/document"
)

func TestEffectiveAnchorInheritance(t *testing.T) {
	m := New(testCanvas)
	g := m.CurrentGroup()
	s := mustCreate(t, m, document.Rect{Width: 40, Height: 30})

	if got := m.EffectiveAnchor(s); got != document.CenterAnchor {
		t.Fatalf("inherited anchor = %+v", got)
	}

	if err := m.SetGroupAnchor(g, document.Anchor{X: 0.5, Y: 1}); err != nil {
		t.Fatal(err)
	}
	if got := m.EffectiveAnchor(s); got != (document.Anchor{X: 0.5, Y: 1}) {
		t.Fatalf("anchor did not follow group default: %+v", got)
	}

	if err := m.SetInherit(s.ID, false); err != nil {
		t.Fatal(err)
	}
	if s.Anchor == nil || *s.Anchor != (document.Anchor{X: 0.5, Y: 1}) {
		t.Fatalf("own anchor not seeded from effective value: %+v", s.Anchor)
	}

	// Owning the anchor detaches the slice from further group changes.
	if err := m.SetGroupAnchor(g, document.Anchor{}); err != nil {
		t.Fatal(err)
	}
	if got := m.EffectiveAnchor(s); got != (document.Anchor{X: 0.5, Y: 1}) {
		t.Errorf("own anchor changed with group: %+v", got)
	}

	if err := m.SetInherit(s.ID, true); err != nil {
		t.Fatal(err)
	}
	if !s.Inherits() || m.EffectiveAnchor(s) != (document.Anchor{}) {
		t.Errorf("inherit did not fall back to the group default")
	}
}

func TestAnchorsAreClamped(t *testing.T) {
	m := New(testCanvas)
	s := mustCreate(t, m, document.Rect{Width: 10, Height: 10})

	if err := m.SetSliceAnchor(s.ID, document.Anchor{X: -3, Y: 7}); err != nil {
		t.Fatal(err)
	}
	if *s.Anchor != (document.Anchor{X: 0, Y: 1}) {
		t.Errorf("slice anchor = %+v, want clamped", *s.Anchor)
	}

	if err := m.SetGroupAnchor(m.CurrentGroup(), document.Anchor{X: 1.5, Y: -0.1}); err != nil {
		t.Fatal(err)
	}
	if got := m.CurrentGroup().DefaultAnchor; got != (document.Anchor{X: 1, Y: 0}) {
		t.Errorf("group anchor = %+v, want clamped", got)
	}
}

func TestPivot(t *testing.T) {
	tests := []struct {
		w, h   float64
		anchor document.Anchor
		px, py int
	}{
		{64, 64, document.Anchor{X: 0.5, Y: 1}, 32, 64},
		{33, 17, document.CenterAnchor, 17, 9},
		{10, 10, document.Anchor{}, 0, 0},
	}

	for _, tt := range tests {
		px, py := PivotOf(tt.w, tt.h, tt.anchor)
		if px != tt.px || py != tt.py {
			t.Errorf("PivotOf(%v,%v,%+v) = (%d,%d), want (%d,%d)", tt.w, tt.h, tt.anchor, px, py, tt.px, tt.py)
		}
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	m := New(testCanvas)
	g := m.CurrentGroup()
	mustCreate(t, m, document.Rect{X: 1, Y: 2, Width: 30, Height: 40})
	s := mustCreate(t, m, document.Rect{X: 50, Y: 2, Width: 30, Height: 40})
	if err := m.SetSliceAnchor(s.ID, document.Anchor{X: 0.25, Y: 0.75}); err != nil {
		t.Fatal(err)
	}
	second := m.CreateGroup("Idle", "#4ecdc4", document.Anchor{X: 0, Y: 1})

	back, err := FromRecords(testCanvas, m.Records(), second.Name)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}

	if len(back.Groups()) != 2 {
		t.Fatalf("groups = %d, want 2", len(back.Groups()))
	}
	if back.CurrentGroup().Name != "Idle" {
		t.Errorf("current group = %q", back.CurrentGroup().Name)
	}
	bg := back.Groups()[0]
	if bg.Name != g.Name || bg.Color != g.Color || bg.Len() != 2 {
		t.Fatalf("group mismatch: %+v", bg)
	}
	if !bg.Slices()[0].Inherits() {
		t.Errorf("inheriting slice gained an override")
	}
	if a := bg.Slices()[1].Anchor; a == nil || *a != (document.Anchor{X: 0.25, Y: 0.75}) {
		t.Errorf("override lost: %+v", a)
	}
	if back.Groups()[1].DefaultAnchor != (document.Anchor{X: 0, Y: 1}) {
		t.Errorf("default anchor lost")
	}
}

func TestFromRecordsFallsBackToFirstGroup(t *testing.T) {
	recs := []document.GroupRecord{{Name: "A"}, {Name: "B"}}

	m, err := FromRecords(testCanvas, recs, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if m.CurrentGroup().Name != "A" {
		t.Errorf("current = %q, want A", m.CurrentGroup().Name)
	}
}

func TestFromRecordsClampsSliceSize(t *testing.T) {
	recs := []document.GroupRecord{{Name: "A", Slices: []document.SliceRecord{
		{X: 1e10, Y: 1e10, Width: 1e10, Height: 1e10},
		{Width: 2, Height: 30},
	}}}

	m, err := FromRecords(testCanvas, recs, "A")
	if err != nil {
		t.Fatal(err)
	}
	got := m.CurrentGroup().Slices()
	if got[0].Width != document.MaxSliceSize || got[0].Height != document.MaxSliceSize {
		t.Errorf("huge slice = %+v", got[0].Rect())
	}
	if got[1].Width != document.MinSliceSize || got[1].Height != 30 {
		t.Errorf("small slice = %+v", got[1].Rect())
	}
}
