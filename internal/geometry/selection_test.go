package geometry

import (
	"testing"

	"github.com/cutsprite/cutsprite/internal/document"
)

func TestNudgeStaysInsideCanvas(t *testing.T) {
	tests := []struct {
		name   string
		rect   document.Rect
		dx, dy float64
		wantX  float64
		wantY  float64
	}{
		{"plain move", document.Rect{X: 10, Y: 10, Width: 20, Height: 20}, 1, -1, 11, 9},
		{"left wall", document.Rect{X: 0, Y: 10, Width: 20, Height: 20}, -1, 0, 0, 10},
		{"top wall", document.Rect{X: 10, Y: 0, Width: 20, Height: 20}, 0, -1, 10, 0},
		{"right wall", document.Rect{X: 1260, Y: 10, Width: 20, Height: 20}, 1, 0, 1260, 10},
		{"bottom wall", document.Rect{X: 10, Y: 700, Width: 20, Height: 20}, 0, 1, 10, 700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(testCanvas)
			s := mustCreate(t, m, tt.rect)
			s.Selected = true

			if !m.Nudge(tt.dx, tt.dy) {
				t.Fatalf("Nudge reported no selection")
			}
			if s.X != tt.wantX || s.Y != tt.wantY {
				t.Errorf("position = (%v,%v), want (%v,%v)", s.X, s.Y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestNudgeIgnoresUnselected(t *testing.T) {
	m := New(testCanvas)
	s := mustCreate(t, m, document.Rect{X: 10, Y: 10, Width: 20, Height: 20})

	if m.Nudge(1, 1) {
		t.Fatalf("Nudge reported a selection")
	}
	if s.X != 10 || s.Y != 10 {
		t.Errorf("unselected slice moved")
	}
}

func TestResizeSelected(t *testing.T) {
	tests := []struct {
		name  string
		edge  Edge
		delta float64
		want  document.Rect
	}{
		{"grow right", EdgeRight, 1, document.Rect{X: 10, Y: 10, Width: 21, Height: 20}},
		{"shrink right", EdgeRight, -1, document.Rect{X: 10, Y: 10, Width: 19, Height: 20}},
		{"grow left", EdgeLeft, 1, document.Rect{X: 9, Y: 10, Width: 21, Height: 20}},
		{"shrink left", EdgeLeft, -1, document.Rect{X: 11, Y: 10, Width: 19, Height: 20}},
		{"grow bottom", EdgeBottom, 1, document.Rect{X: 10, Y: 10, Width: 20, Height: 21}},
		{"grow top", EdgeTop, 1, document.Rect{X: 10, Y: 9, Width: 20, Height: 21}},
		{"floor left", EdgeLeft, -40, document.Rect{X: 25, Y: 10, Width: 5, Height: 20}},
		{"floor bottom", EdgeBottom, -40, document.Rect{X: 10, Y: 10, Width: 20, Height: 5}},
		{"ceiling right", EdgeRight, 1e10, document.Rect{X: 10, Y: 10, Width: document.MaxSliceSize, Height: 20}},
		{"ceiling top", EdgeTop, 1e10, document.Rect{X: 10, Y: 30 - document.MaxSliceSize, Width: 20, Height: document.MaxSliceSize}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(testCanvas)
			s := mustCreate(t, m, document.Rect{X: 10, Y: 10, Width: 20, Height: 20})
			s.Selected = true

			m.ResizeSelected(tt.edge, tt.delta)

			if s.Rect() != tt.want {
				t.Errorf("rect = %+v, want %+v", s.Rect(), tt.want)
			}
		})
	}
}

func TestSelectionQueries(t *testing.T) {
	m := New(testCanvas)
	a := mustCreate(t, m, document.Rect{Width: 10, Height: 10})
	b := mustCreate(t, m, document.Rect{X: 20, Width: 10, Height: 10})

	if err := m.Select(a.ID); err != nil {
		t.Fatal(err)
	}
	if err := m.Select(b.ID); err != nil {
		t.Fatal(err)
	}
	if got := len(m.Selected()); got != 2 {
		t.Fatalf("selected = %d, want 2", got)
	}
	if m.SelectedSlice() != b {
		t.Errorf("SelectedSlice should be the topmost")
	}

	if err := m.SelectOnly(a.ID); err != nil {
		t.Fatal(err)
	}
	if !a.Selected || b.Selected {
		t.Errorf("SelectOnly left others selected")
	}

	if n := m.DeleteSelected(); n != 1 {
		t.Errorf("DeleteSelected removed %d, want 1", n)
	}
	if _, ok := m.Slice(a.ID); ok {
		t.Errorf("selected slice survived delete")
	}
}

func TestSelectGroup(t *testing.T) {
	m := New(testCanvas)
	a := mustCreate(t, m, document.Rect{Width: 10, Height: 10})
	other := m.CreateGroup("B", "", document.CenterAnchor)
	b, err := m.CreateSlice(document.Rect{Width: 10, Height: 10}, other)
	if err != nil {
		t.Fatal(err)
	}
	a.Selected = true

	if err := m.SelectGroup(other); err != nil {
		t.Fatal(err)
	}
	if a.Selected || !b.Selected {
		t.Errorf("SelectGroup selection = a:%v b:%v", a.Selected, b.Selected)
	}
}
