package geometry

import (
	"errors"
	"testing"

	"github.com/cutsprite/cutsprite/internal/document"
)

var testCanvas = document.Size{Width: 1280, Height: 720}

func mustCreate(t *testing.T, m *Model, r document.Rect) *Slice {
	t.Helper()
	s, err := m.CreateSlice(r, m.CurrentGroup())
	if err != nil {
		t.Fatalf("CreateSlice(%+v): %v", r, err)
	}
	return s
}

func TestNewModelHasDefaultGroup(t *testing.T) {
	m := New(testCanvas)

	if len(m.Groups()) != 1 {
		t.Fatalf("expected 1 group, got %d", len(m.Groups()))
	}
	g := m.CurrentGroup()
	if g.Name != "Group 1" || g.Color != DefaultGroupColor {
		t.Errorf("unexpected default group %q %q", g.Name, g.Color)
	}
	if g.DefaultAnchor != document.CenterAnchor {
		t.Errorf("default anchor = %+v, want centre", g.DefaultAnchor)
	}
}

func TestCreateSliceMinimumSize(t *testing.T) {
	tests := []struct {
		name    string
		rect    document.Rect
		wantErr error
	}{
		{"too narrow", document.Rect{Width: 4, Height: 20}, ErrTooSmall},
		{"too short", document.Rect{Width: 20, Height: 4.9}, ErrTooSmall},
		{"exact minimum", document.Rect{Width: 5, Height: 5}, nil},
		{"regular", document.Rect{X: 10, Y: 10, Width: 20, Height: 15}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(testCanvas)
			s, err := m.CreateSlice(tt.rect, m.CurrentGroup())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if len(m.Slices()) != 0 {
					t.Errorf("rejected slice was added")
				}
				return
			}
			if s.Width != tt.rect.Width || s.Height != tt.rect.Height {
				t.Errorf("size = %vx%v, want %vx%v", s.Width, s.Height, tt.rect.Width, tt.rect.Height)
			}
			if s.Color != m.CurrentGroup().Color {
				t.Errorf("slice colour %q does not follow group", s.Color)
			}
		})
	}
}

func TestSliceIDsNeverReused(t *testing.T) {
	m := New(testCanvas)
	a := mustCreate(t, m, document.Rect{Width: 10, Height: 10})
	if err := m.DeleteSlice(a.ID); err != nil {
		t.Fatalf("DeleteSlice: %v", err)
	}
	b := mustCreate(t, m, document.Rect{Width: 10, Height: 10})
	if b.ID == a.ID {
		t.Fatalf("id %d reused after delete", a.ID)
	}
}

func TestCreateSliceRejectsForeignGroup(t *testing.T) {
	m := New(testCanvas)
	other := New(testCanvas)

	_, err := m.CreateSlice(document.Rect{Width: 10, Height: 10}, other.CurrentGroup())
	if !errors.Is(err, ErrUnknownGroup) {
		t.Fatalf("err = %v, want ErrUnknownGroup", err)
	}
}

func TestDuplicateSlice(t *testing.T) {
	m := New(testCanvas)
	src := mustCreate(t, m, document.Rect{X: 30, Y: 40, Width: 25, Height: 35})
	if err := m.SetSliceAnchor(src.ID, document.Anchor{X: 0, Y: 1}); err != nil {
		t.Fatal(err)
	}
	src.Selected = true

	dup, err := m.DuplicateSlice(src.ID)
	if err != nil {
		t.Fatalf("DuplicateSlice: %v", err)
	}

	for _, s := range m.Slices() {
		if s != dup && s.ID == dup.ID {
			t.Fatalf("duplicate id %d collides", dup.ID)
		}
	}
	if dup.X != src.X+10 || dup.Y != src.Y+10 {
		t.Errorf("offset = (%v,%v), want (+10,+10) from (%v,%v)", dup.X, dup.Y, src.X, src.Y)
	}
	if dup.Width != src.Width || dup.Height != src.Height || dup.Color != src.Color {
		t.Errorf("duplicate properties differ: %+v vs %+v", dup, src)
	}
	if m.GroupOf(dup) != m.GroupOf(src) {
		t.Errorf("duplicate landed in a different group")
	}
	if dup.Anchor == nil || *dup.Anchor != *src.Anchor {
		t.Errorf("anchor override not copied")
	}
	if dup.Anchor == src.Anchor {
		t.Errorf("anchor override shared between slices")
	}
	if src.Selected || !dup.Selected {
		t.Errorf("selection: src=%v dup=%v, want false/true", src.Selected, dup.Selected)
	}
}

func TestMoveSliceToGroup(t *testing.T) {
	m := New(testCanvas)
	s := mustCreate(t, m, document.Rect{Width: 10, Height: 10})
	target := m.CreateGroup("Jump", "#45b7d1", document.CenterAnchor)

	if err := m.MoveSliceToGroup(s.ID, target); err != nil {
		t.Fatalf("MoveSliceToGroup: %v", err)
	}

	if m.GroupOf(s) != target {
		t.Fatalf("slice not re-parented")
	}
	if s.Color != target.Color {
		t.Errorf("colour = %q, want %q", s.Color, target.Color)
	}
	if m.Groups()[0].Len() != 0 || target.Len() != 1 {
		t.Errorf("slice lists not updated: %d, %d", m.Groups()[0].Len(), target.Len())
	}
}

func TestDeleteLastGroupFails(t *testing.T) {
	m := New(testCanvas)
	g := m.CurrentGroup()
	s := mustCreate(t, m, document.Rect{Width: 10, Height: 10})

	err := m.DeleteGroup(g)
	if !errors.Is(err, ErrLastGroup) {
		t.Fatalf("err = %v, want ErrLastGroup", err)
	}
	if len(m.Groups()) != 1 || m.CurrentGroup() != g {
		t.Errorf("groups changed after rejected delete")
	}
	if got, ok := m.Slice(s.ID); !ok || got != s || m.GroupOf(s) != g {
		t.Errorf("slices changed after rejected delete")
	}
}

func TestDeleteGroupCascades(t *testing.T) {
	m := New(testCanvas)
	first := m.CurrentGroup()
	second := m.CreateGroup("Run", "", document.CenterAnchor)
	if err := m.SetCurrentGroup(second); err != nil {
		t.Fatal(err)
	}
	gone := mustCreate(t, m, document.Rect{Width: 10, Height: 10})
	kept, err := m.CreateSlice(document.Rect{Width: 10, Height: 10}, first)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.DeleteGroup(second); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}

	if m.CurrentGroup() != first {
		t.Errorf("current group not reassigned to first")
	}
	if _, ok := m.Slice(gone.ID); ok {
		t.Errorf("slice of deleted group still in working set")
	}
	if m.GroupOf(gone) != nil {
		t.Errorf("deleted slice still resolves to a group")
	}
	if _, ok := m.Slice(kept.ID); !ok {
		t.Errorf("slice of surviving group removed")
	}
}

func TestRenameAndRecolorGroup(t *testing.T) {
	m := New(testCanvas)
	g := m.CurrentGroup()
	a := mustCreate(t, m, document.Rect{Width: 10, Height: 10})
	b := mustCreate(t, m, document.Rect{X: 20, Width: 10, Height: 10})

	if err := m.RenameGroup(g, "   "); !errors.Is(err, ErrEmptyName) {
		t.Errorf("blank rename: err = %v, want ErrEmptyName", err)
	}
	if err := m.RenameGroup(g, " Walk "); err != nil || g.Name != "Walk" {
		t.Errorf("rename: err=%v name=%q", err, g.Name)
	}

	if err := m.RecolorGroup(g, "#96ceb4"); err != nil {
		t.Fatal(err)
	}
	for _, s := range []*Slice{a, b} {
		if s.Color != "#96ceb4" {
			t.Errorf("slice %d colour = %q after recolor", s.ID, s.Color)
		}
	}
}

func TestDuplicateGroup(t *testing.T) {
	m := New(testCanvas)
	g := m.CurrentGroup()
	src := mustCreate(t, m, document.Rect{X: 5, Y: 5, Width: 16, Height: 16})
	src.Selected = true
	if err := m.SetSliceAnchor(src.ID, document.Anchor{X: 1, Y: 1}); err != nil {
		t.Fatal(err)
	}

	dup, err := m.DuplicateGroup(g)
	if err != nil {
		t.Fatalf("DuplicateGroup: %v", err)
	}

	if dup.Name != "Group 1 Copy" || dup.Color != g.Color || dup.DefaultAnchor != g.DefaultAnchor {
		t.Errorf("unexpected copy %q %q %+v", dup.Name, dup.Color, dup.DefaultAnchor)
	}
	if dup.Len() != 1 {
		t.Fatalf("copy has %d slices, want 1", dup.Len())
	}
	c := dup.Slices()[0]
	if c.ID == src.ID || c.X != 25 || c.Y != 25 || c.Selected {
		t.Errorf("copied slice = %+v", c)
	}
	if c.Anchor == nil || *c.Anchor != (document.Anchor{X: 1, Y: 1}) {
		t.Errorf("anchor override not copied")
	}
	if m.GroupOf(c) != dup {
		t.Errorf("copied slice points at the wrong group")
	}
}

func TestClearAllKeepsGroups(t *testing.T) {
	m := New(testCanvas)
	m.CreateGroup("B", "", document.CenterAnchor)
	mustCreate(t, m, document.Rect{Width: 10, Height: 10})

	m.ClearAll()

	groups, slices := m.Counts()
	if groups != 2 || slices != 0 {
		t.Fatalf("counts = %d groups, %d slices; want 2, 0", groups, slices)
	}
	for _, g := range m.Groups() {
		if g.Len() != 0 {
			t.Errorf("group %q still has slices", g.Name)
		}
	}
}

func TestSliceAtPrefersTopmost(t *testing.T) {
	m := New(testCanvas)
	mustCreate(t, m, document.Rect{X: 0, Y: 0, Width: 50, Height: 50})
	top := mustCreate(t, m, document.Rect{X: 25, Y: 25, Width: 50, Height: 50})

	if got := m.SliceAt(30, 30); got != top {
		t.Fatalf("SliceAt returned %+v, want topmost", got)
	}
	if got := m.SliceAt(500, 500); got != nil {
		t.Fatalf("SliceAt on empty space returned %+v", got)
	}
}

func TestSetBoundsClampsSize(t *testing.T) {
	tests := []struct {
		name string
		in   document.Rect
		want document.Rect
	}{
		{"floor", document.Rect{X: 3, Y: 4, Width: 1, Height: 2}, document.Rect{X: 3, Y: 4, Width: 5, Height: 5}},
		{"ceiling", document.Rect{X: 3, Y: 4, Width: 1e10, Height: 1e10}, document.Rect{X: 3, Y: 4, Width: document.MaxSliceSize, Height: document.MaxSliceSize}},
		{"in range", document.Rect{Width: 40, Height: document.MaxSliceSize}, document.Rect{Width: 40, Height: document.MaxSliceSize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(testCanvas)
			s := mustCreate(t, m, document.Rect{Width: 10, Height: 10})
			if err := m.SetBounds(s.ID, tt.in); err != nil {
				t.Fatal(err)
			}
			if s.Rect() != tt.want {
				t.Fatalf("bounds = %+v, want %+v", s.Rect(), tt.want)
			}
		})
	}
}

func TestCreateSliceClampsLargeSize(t *testing.T) {
	m := New(testCanvas)
	s := mustCreate(t, m, document.Rect{Width: 1e10, Height: 20})
	if s.Width != document.MaxSliceSize || s.Height != 20 {
		t.Fatalf("bounds = %+v", s.Rect())
	}
}
