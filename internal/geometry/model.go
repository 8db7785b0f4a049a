// Package geometry owns the slice/group model of one editing session.
//
// A Model is not safe for concurrent use; the engine serialises access.
package geometry

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cutsprite/cutsprite/internal/document"
)

var (
	ErrTooSmall        = errors.New("slice below minimum size")
	ErrSliceNotFound   = errors.New("slice not found")
	ErrUnknownGroup    = errors.New("group is not part of this session")
	ErrLastGroup       = errors.New("cannot delete the last group")
	ErrEmptyName       = errors.New("group name is empty")
	ErrInvalidGeometry = errors.New("slice geometry is not finite")
)

// Offsets applied by the duplicate commands.
const (
	DuplicateSliceOffset = 10.0
	DuplicateGroupOffset = 20.0
)

// DefaultGroupColor is the colour of the group a new session starts with.
const DefaultGroupColor = "#ff6b6b"

// GroupPalette is cycled through when groups are added without a colour.
var GroupPalette = []string{"#ff6b6b", "#4ecdc4", "#45b7d1", "#96ceb4", "#ffeaa7", "#dda0dd", "#98d8c8"}

// Slice is a rectangular region of the source image.
type Slice struct {
	ID       int
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Color    string
	Selected bool
	// Anchor overrides the group default; nil means inherit.
	Anchor *document.Anchor

	// groupID is a non-owning handle; the group's slice list owns the slice.
	groupID int
}

// Rect returns the slice bounds.
func (s *Slice) Rect() document.Rect {
	return document.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

// Inherits reports whether the slice uses its group's default anchor.
func (s *Slice) Inherits() bool { return s.Anchor == nil }

func (s *Slice) setRect(r document.Rect) {
	s.X, s.Y = r.X, r.Y
	s.Width = document.ClampSliceSize(r.Width)
	s.Height = document.ClampSliceSize(r.Height)
}

// Group is a named, coloured, ordered collection of slices.
type Group struct {
	id            int
	Name          string
	Color         string
	DefaultAnchor document.Anchor
	slices        []*Slice
}

// Slices returns the group's slices in order. The returned slice must not be modified.
func (g *Group) Slices() []*Slice { return g.slices }

// Len returns the number of slices in the group.
func (g *Group) Len() int { return len(g.slices) }

// Index returns the position of the slice with the given id, or -1.
func (g *Group) Index(id int) int {
	return slices.IndexFunc(g.slices, func(s *Slice) bool { return s.ID == id })
}

func (g *Group) remove(id int) {
	g.slices = slices.DeleteFunc(g.slices, func(s *Slice) bool { return s.ID == id })
}

// Model is the explicit state of one editing session: groups, the current
// group, the id counter, and the z-ordered working set of slices.
type Model struct {
	groups      []*Group
	current     *Group
	order       []*Slice // creation order; last is topmost
	nextID      int
	nextGroupID int
	canvas      document.Size
}

// New creates a model with a single default group.
func New(canvas document.Size) *Model {
	if canvas.Width <= 0 || canvas.Height <= 0 {
		canvas = document.Size{Width: document.DefaultCanvasWidth, Height: document.DefaultCanvasHeight}
	}
	m := &Model{nextID: 1, nextGroupID: 1, canvas: canvas}
	m.current = m.CreateGroup("Group 1", DefaultGroupColor, document.CenterAnchor)
	return m
}

// newEmpty creates a model with no groups. Callers add at least one group
// before handing the model out.
func newEmpty(canvas document.Size) *Model {
	return &Model{nextID: 1, nextGroupID: 1, canvas: canvas}
}

// Canvas returns the canvas size.
func (m *Model) Canvas() document.Size { return m.canvas }

// Groups returns the groups in order. The returned slice must not be modified.
func (m *Model) Groups() []*Group { return m.groups }

// CurrentGroup returns the active group.
func (m *Model) CurrentGroup() *Group { return m.current }

// SetCurrentGroup makes g the active group.
func (m *Model) SetCurrentGroup(g *Group) error {
	if !m.owns(g) {
		return ErrUnknownGroup
	}
	m.current = g
	return nil
}

// GroupByName returns the first group with the given name.
func (m *Model) GroupByName(name string) *Group {
	for _, g := range m.groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// GroupAt returns the group at index i, or nil.
func (m *Model) GroupAt(i int) *Group {
	if i < 0 || i >= len(m.groups) {
		return nil
	}
	return m.groups[i]
}

// GroupOf resolves the slice's group handle.
func (m *Model) GroupOf(s *Slice) *Group {
	if s == nil {
		return nil
	}
	for _, g := range m.groups {
		if g.id == s.groupID {
			return g
		}
	}
	return nil
}

// Slices returns every slice in z-order (last is topmost).
func (m *Model) Slices() []*Slice { return m.order }

// Slice looks up a slice by id.
func (m *Model) Slice(id int) (*Slice, bool) {
	for _, s := range m.order {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// SliceAt returns the topmost slice containing the point, or nil.
func (m *Model) SliceAt(x, y float64) *Slice {
	for i := len(m.order) - 1; i >= 0; i-- {
		if m.order[i].Rect().Contains(x, y) {
			return m.order[i]
		}
	}
	return nil
}

// CreateSlice adds a slice with bounds r to g.
func (m *Model) CreateSlice(r document.Rect, g *Group) (*Slice, error) {
	if !m.owns(g) {
		return nil, ErrUnknownGroup
	}
	if !r.Finite() {
		return nil, ErrInvalidGeometry
	}
	if r.Width < document.MinSliceSize || r.Height < document.MinSliceSize {
		return nil, fmt.Errorf("create slice %.0fx%.0f: %w", r.Width, r.Height, ErrTooSmall)
	}
	s := m.newSlice(r, g)
	return s, nil
}

func (m *Model) newSlice(r document.Rect, g *Group) *Slice {
	s := &Slice{
		ID:      m.nextID,
		Color:   g.Color,
		groupID: g.id,
	}
	s.setRect(r)
	m.nextID++
	g.slices = append(g.slices, s)
	m.order = append(m.order, s)
	return s
}

// DeleteSlice removes a slice from its group and the working set.
func (m *Model) DeleteSlice(id int) error {
	s, ok := m.Slice(id)
	if !ok {
		return fmt.Errorf("delete slice %d: %w", id, ErrSliceNotFound)
	}
	if g := m.GroupOf(s); g != nil {
		g.remove(id)
	}
	m.order = slices.DeleteFunc(m.order, func(o *Slice) bool { return o.ID == id })
	return nil
}

// DeleteSelected removes every selected slice and returns how many were removed.
func (m *Model) DeleteSelected() int {
	var ids []int
	for _, s := range m.order {
		if s.Selected {
			ids = append(ids, s.ID)
		}
	}
	for _, id := range ids {
		_ = m.DeleteSlice(id)
	}
	return len(ids)
}

// DuplicateSlice copies a slice into its own group, offset by
// (DuplicateSliceOffset, DuplicateSliceOffset). The copy becomes the only
// selected slice.
func (m *Model) DuplicateSlice(id int) (*Slice, error) {
	src, ok := m.Slice(id)
	if !ok {
		return nil, fmt.Errorf("duplicate slice %d: %w", id, ErrSliceNotFound)
	}
	g := m.GroupOf(src)
	if g == nil {
		return nil, fmt.Errorf("duplicate slice %d: %w", id, ErrUnknownGroup)
	}

	m.ClearSelection()
	dup := m.newSlice(src.Rect().Offset(DuplicateSliceOffset, DuplicateSliceOffset), g)
	dup.Color = src.Color
	dup.Anchor = cloneAnchor(src.Anchor)
	dup.Selected = true
	return dup, nil
}

// MoveSliceToGroup re-parents a slice to target and adopts its colour.
func (m *Model) MoveSliceToGroup(id int, target *Group) error {
	if !m.owns(target) {
		return ErrUnknownGroup
	}
	s, ok := m.Slice(id)
	if !ok {
		return fmt.Errorf("move slice %d: %w", id, ErrSliceNotFound)
	}
	if g := m.GroupOf(s); g != nil {
		g.remove(id)
	}
	s.groupID = target.id
	s.Color = target.Color
	target.slices = append(target.slices, s)
	return nil
}

// SetBounds replaces a slice's geometry, clamping each side to
// [document.MinSliceSize, document.MaxSliceSize].
func (m *Model) SetBounds(id int, r document.Rect) error {
	s, ok := m.Slice(id)
	if !ok {
		return fmt.Errorf("set bounds %d: %w", id, ErrSliceNotFound)
	}
	if !r.Finite() {
		return ErrInvalidGeometry
	}
	s.setRect(r)
	return nil
}

// CreateGroup appends a new empty group.
func (m *Model) CreateGroup(name, color string, anchor document.Anchor) *Group {
	if color == "" {
		color = GroupPalette[len(m.groups)%len(GroupPalette)]
	}
	g := &Group{
		id:            m.nextGroupID,
		Name:          name,
		Color:         color,
		DefaultAnchor: document.ClampAnchor(anchor),
	}
	m.nextGroupID++
	m.groups = append(m.groups, g)
	return g
}

// DeleteGroup removes g and all of its slices. The last group cannot be deleted.
func (m *Model) DeleteGroup(g *Group) error {
	if !m.owns(g) {
		return ErrUnknownGroup
	}
	if len(m.groups) <= 1 {
		return ErrLastGroup
	}

	for _, s := range g.slices {
		s.groupID = 0
		id := s.ID
		m.order = slices.DeleteFunc(m.order, func(o *Slice) bool { return o.ID == id })
	}
	g.slices = nil

	m.groups = slices.DeleteFunc(m.groups, func(o *Group) bool { return o == g })
	if m.current == g {
		m.current = m.groups[0]
	}
	return nil
}

// RenameGroup sets the group's name. Surrounding whitespace is trimmed.
func (m *Model) RenameGroup(g *Group, name string) error {
	if !m.owns(g) {
		return ErrUnknownGroup
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	g.Name = name
	return nil
}

// RecolorGroup changes the group colour and every member slice's colour.
func (m *Model) RecolorGroup(g *Group, color string) error {
	if !m.owns(g) {
		return ErrUnknownGroup
	}
	g.Color = color
	for _, s := range g.slices {
		s.Color = color
	}
	return nil
}

// DuplicateGroup copies g and its slices, offset by
// (DuplicateGroupOffset, DuplicateGroupOffset) with fresh ids.
func (m *Model) DuplicateGroup(g *Group) (*Group, error) {
	if !m.owns(g) {
		return nil, ErrUnknownGroup
	}
	dup := m.CreateGroup(g.Name+" Copy", g.Color, g.DefaultAnchor)
	for _, s := range g.slices {
		c := m.newSlice(s.Rect().Offset(DuplicateGroupOffset, DuplicateGroupOffset), dup)
		c.Color = s.Color
		c.Anchor = cloneAnchor(s.Anchor)
	}
	return dup, nil
}

// ClearAll removes every slice from every group. Groups are kept.
func (m *Model) ClearAll() {
	for _, g := range m.groups {
		for _, s := range g.slices {
			s.groupID = 0
		}
		g.slices = nil
	}
	m.order = nil
}

// Counts returns the number of groups and slices.
func (m *Model) Counts() (groups, slices int) {
	return len(m.groups), len(m.order)
}

func (m *Model) owns(g *Group) bool {
	return g != nil && slices.Contains(m.groups, g)
}

func cloneAnchor(a *document.Anchor) *document.Anchor {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
