package engine

import (
	"fmt"

	"github.com/cutsprite/cutsprite/internal/document"
	"github.com/cutsprite/cutsprite/internal/geometry"
)

// Groups are addressed by their position in the group list.

func (e *Engine) group(i int) (*geometry.Group, error) {
	g := e.model.GroupAt(i)
	if g == nil {
		return nil, fmt.Errorf("group %d: %w", i, geometry.ErrUnknownGroup)
	}
	return g, nil
}

// edited keeps playback consistent after the current group may have
// changed size or identity.
func (e *Engine) edited(before *geometry.Group) {
	if e.model.CurrentGroup() != before {
		e.seq.Reset()
		return
	}
	e.seq.Clamp(before.Len())
}

// --- Slices ---

// SelectSlice makes id the only selected slice.
func (e *Engine) SelectSlice(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.model.SelectOnly(id); err != nil {
		return fmt.Errorf("select slice %d: %w", id, err)
	}
	return nil
}

// ClearSelection deselects every slice.
func (e *Engine) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model.ClearSelection()
}

// SetSliceBounds replaces a slice's geometry. Sizes below the minimum are
// grown back to it.
func (e *Engine) SetSliceBounds(id int, r document.Rect) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.SetBounds(id, r)
}

// DeleteSlice removes one slice.
func (e *Engine) DeleteSlice(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.model.CurrentGroup()
	if err := e.model.DeleteSlice(id); err != nil {
		return err
	}
	e.edited(cur)
	return nil
}

// DeleteSelected removes every selected slice and returns the count.
func (e *Engine) DeleteSelected() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deleteSelected()
}

func (e *Engine) deleteSelected() int {
	cur := e.model.CurrentGroup()
	n := e.model.DeleteSelected()
	if n > 0 {
		e.edited(cur)
	}
	return n
}

// DuplicateSlice copies a slice next to the original and selects the copy.
func (e *Engine) DuplicateSlice(id int) (SliceView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	dup, err := e.model.DuplicateSlice(id)
	if err != nil {
		return SliceView{}, err
	}
	return e.sliceView(dup), nil
}

// MoveSliceToGroup re-parents a slice to the group at index group.
func (e *Engine) MoveSliceToGroup(id, group int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.group(group)
	if err != nil {
		return err
	}
	cur := e.model.CurrentGroup()
	if err := e.model.MoveSliceToGroup(id, g); err != nil {
		return err
	}
	e.edited(cur)
	return nil
}

// SetSliceAnchor gives a slice its own anchor.
func (e *Engine) SetSliceAnchor(id int, a document.Anchor) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.SetSliceAnchor(id, a)
}

// SetSliceInherit switches a slice between its own anchor and the group's.
func (e *Engine) SetSliceInherit(id int, inherit bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.SetInherit(id, inherit)
}

// ClearAll removes every slice from every group.
func (e *Engine) ClearAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearAll()
}

func (e *Engine) clearAll() {
	e.model.ClearAll()
	e.resetGesture()
	e.seq.Stop()
}

// --- Groups ---

// CreateGroup appends a group and returns its index. An empty colour picks
// the next palette colour.
func (e *Engine) CreateGroup(name, color string, anchor document.Anchor) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model.CreateGroup(name, color, anchor)
	return len(e.model.Groups()) - 1
}

// DeleteGroup removes the group at index i with its slices. The last group
// cannot be removed.
func (e *Engine) DeleteGroup(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.group(i)
	if err != nil {
		return err
	}
	cur := e.model.CurrentGroup()
	if err := e.model.DeleteGroup(g); err != nil {
		return fmt.Errorf("delete group %q: %w", g.Name, err)
	}
	e.edited(cur)
	e.log.Debug("group deleted", "group", g.Name)
	return nil
}

// RenameGroup renames the group at index i.
func (e *Engine) RenameGroup(i int, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.group(i)
	if err != nil {
		return err
	}
	return e.model.RenameGroup(g, name)
}

// RecolorGroup recolours the group at index i and its slices.
func (e *Engine) RecolorGroup(i int, color string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.group(i)
	if err != nil {
		return err
	}
	return e.model.RecolorGroup(g, color)
}

// DuplicateGroup copies the group at index i and returns the copy's index.
func (e *Engine) DuplicateGroup(i int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.group(i)
	if err != nil {
		return 0, err
	}
	if _, err := e.model.DuplicateGroup(g); err != nil {
		return 0, err
	}
	return len(e.model.Groups()) - 1, nil
}

// SetGroupAnchor changes the default anchor of the group at index i.
func (e *Engine) SetGroupAnchor(i int, a document.Anchor) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.group(i)
	if err != nil {
		return err
	}
	return e.model.SetGroupAnchor(g, a)
}

// SelectGroup selects exactly the slices of the group at index i.
func (e *Engine) SelectGroup(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.group(i)
	if err != nil {
		return err
	}
	return e.model.SelectGroup(g)
}

// SetCurrentGroup switches the active group. Playback stops and rewinds.
func (e *Engine) SetCurrentGroup(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.group(i)
	if err != nil {
		return err
	}
	if g == e.model.CurrentGroup() {
		return nil
	}
	if err := e.model.SetCurrentGroup(g); err != nil {
		return err
	}
	e.seq.Reset()
	return nil
}

// CurrentGroup returns the index of the active group.
func (e *Engine) CurrentGroup() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.groupIndex(e.model.CurrentGroup())
}
