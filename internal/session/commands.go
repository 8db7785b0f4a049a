package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cutsprite/cutsprite/internal/asset"
	"github.com/cutsprite/cutsprite/internal/atlas"
	"github.com/cutsprite/cutsprite/internal/document"
	"github.com/cutsprite/cutsprite/internal/engine"
	"github.com/cutsprite/cutsprite/internal/export"
	"github.com/cutsprite/cutsprite/internal/geometry"
)

var (
	ErrBadPayload     = errors.New("invalid payload")
	ErrUnknownCommand = errors.New("unknown command")
)

func errBadPayload(err error) error {
	return fmt.Errorf("%w: %v", ErrBadPayload, err)
}

// result is the outcome of one command: an optional reply to the sender and
// whether the session changed visibly.
type result struct {
	reply   *Message
	changed bool
}

var changed = result{changed: true}

type command func(r *Room, from string, payload json.RawMessage) (result, error)

var commands = map[string]command{
	TypePointerDown:    pointerDown,
	TypePointerMove:    pointerMove,
	TypePointerUp:      pointerUp,
	TypePointerContext: pointerContext,
	TypeKeyIntent:      keyIntent,
	TypeFocusText:      focusText,

	TypeSliceSelect: sliceCommand(func(e *engine.Engine, p SlicePayload) error { return e.SelectSlice(p.ID) }),
	TypeSliceDuplicate: sliceCommand(func(e *engine.Engine, p SlicePayload) error {
		_, err := e.DuplicateSlice(p.ID)
		return err
	}),
	TypeSliceDelete:  sliceCommand(func(e *engine.Engine, p SlicePayload) error { return e.DeleteSlice(p.ID) }),
	TypeSliceMove:    sliceCommand(func(e *engine.Engine, p SlicePayload) error { return e.MoveSliceToGroup(p.ID, p.Group) }),
	TypeSliceInherit: sliceCommand(func(e *engine.Engine, p SlicePayload) error { return e.SetSliceInherit(p.ID, p.Inherit) }),
	TypeSliceBounds: sliceCommand(func(e *engine.Engine, p SlicePayload) error {
		if p.Bounds == nil {
			return fmt.Errorf("%w: bounds required", ErrBadPayload)
		}
		return e.SetSliceBounds(p.ID, *p.Bounds)
	}),
	TypeSliceAnchor: sliceCommand(func(e *engine.Engine, p SlicePayload) error {
		if p.Anchor == nil {
			return fmt.Errorf("%w: anchor required", ErrBadPayload)
		}
		return e.SetSliceAnchor(p.ID, *p.Anchor)
	}),
	TypeSlicesClear: func(r *Room, _ string, _ json.RawMessage) (result, error) {
		r.engine.ClearAll()
		return changed, nil
	},

	TypeGroupCreate:  groupCreate,
	TypeGroupDelete:  groupCommand(func(e *engine.Engine, p GroupPayload) error { return e.DeleteGroup(p.Index) }),
	TypeGroupRename:  groupCommand(func(e *engine.Engine, p GroupPayload) error { return e.RenameGroup(p.Index, p.Name) }),
	TypeGroupRecolor: groupCommand(func(e *engine.Engine, p GroupPayload) error { return e.RecolorGroup(p.Index, p.Color) }),
	TypeGroupDuplicate: groupCommand(func(e *engine.Engine, p GroupPayload) error {
		_, err := e.DuplicateGroup(p.Index)
		return err
	}),
	TypeGroupSelect:  groupCommand(func(e *engine.Engine, p GroupPayload) error { return e.SelectGroup(p.Index) }),
	TypeGroupCurrent: groupCommand(func(e *engine.Engine, p GroupPayload) error { return e.SetCurrentGroup(p.Index) }),
	TypeGroupAnchor: groupCommand(func(e *engine.Engine, p GroupPayload) error {
		if p.Anchor == nil {
			return fmt.Errorf("%w: anchor required", ErrBadPayload)
		}
		return e.SetGroupAnchor(p.Index, *p.Anchor)
	}),

	TypePlaybackPlay:  playbackCommand(func(e *engine.Engine) { e.Play() }),
	TypePlaybackPause: playbackCommand((*engine.Engine).Pause),
	TypePlaybackStop:  playbackCommand((*engine.Engine).Stop),
	TypePlaybackNext:  playbackCommand(func(e *engine.Engine) { e.NextFrame() }),
	TypePlaybackPrev:  playbackCommand(func(e *engine.Engine) { e.PrevFrame() }),
	TypePlaybackFPS: func(r *Room, _ string, payload json.RawMessage) (result, error) {
		p, err := decode[PlaybackPayload](payload)
		if err != nil {
			return result{}, err
		}
		r.engine.SetFPS(p.FPS)
		return changed, nil
	},

	TypeImageScale: imageCommand(func(e *engine.Engine, p ImagePayload) error {
		if !e.ScaleImage(p.Factor) {
			return engine.ErrNoImage
		}
		return nil
	}),
	TypeImageMove: imageCommand(func(e *engine.Engine, p ImagePayload) error {
		if !e.MoveImage(p.DX, p.DY) {
			return engine.ErrNoImage
		}
		return nil
	}),
	TypeImageReset: imageCommand(func(e *engine.Engine, _ ImagePayload) error {
		if !e.ResetImage() {
			return engine.ErrNoImage
		}
		return nil
	}),
	TypeImageRemove: imageCommand(func(e *engine.Engine, _ ImagePayload) error {
		e.RemoveImage()
		return nil
	}),
	TypeImageFocus: imageCommand(func(e *engine.Engine, p ImagePayload) error { return e.FocusSlice(p.SliceID) }),
	TypeImageRemoveColor: imageCommand(func(e *engine.Engine, p ImagePayload) error {
		tol := engine.DefaultColorTolerance
		if p.Tolerance != nil {
			tol = *p.Tolerance
		}
		return e.RemoveColor(p.Color, tol)
	}),
	TypeImagePick: imagePick,

	TypeProjectLoad: func(r *Room, _ string, payload json.RawMessage) (result, error) {
		if err := r.engine.LoadProject(payload); err != nil {
			return result{}, err
		}
		return changed, nil
	},
	TypeProjectSample: func(r *Room, _ string, _ json.RawMessage) (result, error) {
		if err := r.engine.LoadSample(); err != nil {
			return result{}, err
		}
		return changed, nil
	},
	TypeProjectSave:  projectSave,
	TypeGroupsImport: groupsImport,
	TypeGroupsExport: groupsExport,
}

// Apply runs one client command against the session's engine.
func (r *Room) Apply(from string, msg *Message) (result, error) {
	cmd, ok := commands[msg.Type]
	if !ok {
		return result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, msg.Type)
	}
	return cmd(r, from, msg.Payload)
}

func decode[T any](payload json.RawMessage) (T, error) {
	var v T
	if len(payload) == 0 {
		return v, fmt.Errorf("%w: missing payload", ErrBadPayload)
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, errBadPayload(err)
	}
	return v, nil
}

// --- Pointer and keyboard ---

func pointerDown(r *Room, _ string, payload json.RawMessage) (result, error) {
	p, err := decode[PointerPayload](payload)
	if err != nil {
		return result{}, err
	}
	r.engine.PointerDown(p.X, p.Y)
	return changed, nil
}

// pointerMove updates the gesture and the sender's presence. Hover moves
// outside a gesture only reach the other clients as presence.
func pointerMove(r *Room, from string, payload json.RawMessage) (result, error) {
	p, err := decode[PointerPayload](payload)
	if err != nil {
		return result{}, err
	}
	moved := r.engine.PointerMove(p.X, p.Y)

	presence := &PresencePayload{
		Cursor:      &CursorPos{X: p.X, Y: p.Y},
		CursorStyle: r.engine.Cursor(p.X, p.Y),
	}
	r.presence.Update(from, presence)
	if msg, err := newMessage(TypePresenceUpdate, presence); err == nil {
		msg.ClientID = from
		r.broadcast(msg, from)
	}
	return result{changed: moved}, nil
}

func pointerUp(r *Room, _ string, payload json.RawMessage) (result, error) {
	p, err := decode[PointerPayload](payload)
	if err != nil {
		return result{}, err
	}
	r.engine.PointerUp(p.X, p.Y)
	return changed, nil
}

func pointerContext(r *Room, _ string, payload json.RawMessage) (result, error) {
	p, err := decode[PointerPayload](payload)
	if err != nil {
		return result{}, err
	}
	menu, ok := r.engine.ContextClick(p.X, p.Y)
	if !ok {
		return result{}, nil
	}
	reply, err := newMessage(TypeContextMenu, menu)
	if err != nil {
		return result{}, err
	}
	return result{reply: reply, changed: true}, nil
}

func keyIntent(r *Room, _ string, payload json.RawMessage) (result, error) {
	p, err := decode[KeyPayload](payload)
	if err != nil {
		return result{}, err
	}
	in, ok := engine.DecodeKey(p.Key, p.Modifiers)
	if p.Intent != nil {
		in, ok = *p.Intent, true
	}
	if !ok {
		return result{}, nil
	}
	return result{changed: r.engine.HandleIntent(in)}, nil
}

func focusText(r *Room, _ string, payload json.RawMessage) (result, error) {
	p, err := decode[FocusPayload](payload)
	if err != nil {
		return result{}, err
	}
	r.engine.SetTextInputFocus(p.Focused)
	return result{}, nil
}

// --- Slices and groups ---

func sliceCommand(apply func(*engine.Engine, SlicePayload) error) command {
	return func(r *Room, _ string, payload json.RawMessage) (result, error) {
		p, err := decode[SlicePayload](payload)
		if err != nil {
			return result{}, err
		}
		if err := apply(r.engine, p); err != nil {
			return result{}, err
		}
		return changed, nil
	}
}

func groupCommand(apply func(*engine.Engine, GroupPayload) error) command {
	return func(r *Room, _ string, payload json.RawMessage) (result, error) {
		p, err := decode[GroupPayload](payload)
		if err != nil {
			return result{}, err
		}
		if err := apply(r.engine, p); err != nil {
			return result{}, err
		}
		return changed, nil
	}
}

// groupCreate accepts an empty payload; missing fields get defaults.
func groupCreate(r *Room, _ string, payload json.RawMessage) (result, error) {
	var p GroupPayload
	if len(payload) > 0 {
		var err error
		if p, err = decode[GroupPayload](payload); err != nil {
			return result{}, err
		}
	}
	if p.Name == "" {
		p.Name = "Group " + strconv.Itoa(len(r.engine.Groups())+1)
	}
	anchor := document.CenterAnchor
	if p.Anchor != nil {
		anchor = *p.Anchor
	}
	r.engine.CreateGroup(p.Name, p.Color, anchor)
	return changed, nil
}

// --- Playback and image ---

func playbackCommand(apply func(*engine.Engine)) command {
	return func(r *Room, _ string, _ json.RawMessage) (result, error) {
		apply(r.engine)
		return changed, nil
	}
}

func imageCommand(apply func(*engine.Engine, ImagePayload) error) command {
	return func(r *Room, _ string, payload json.RawMessage) (result, error) {
		var p ImagePayload
		if len(payload) > 0 {
			var err error
			if p, err = decode[ImagePayload](payload); err != nil {
				return result{}, err
			}
		}
		if err := apply(r.engine, p); err != nil {
			return result{}, err
		}
		return changed, nil
	}
}

func imagePick(r *Room, _ string, payload json.RawMessage) (result, error) {
	p, err := decode[ImagePayload](payload)
	if err != nil {
		return result{}, err
	}
	hex, err := r.engine.PickColor(p.X, p.Y)
	if err != nil {
		return result{}, err
	}
	reply, err := newMessage(TypeColor, ColorPayload{Color: hex})
	if err != nil {
		return result{}, err
	}
	return result{reply: reply}, nil
}

// --- Files ---

func projectSave(r *Room, _ string, _ json.RawMessage) (result, error) {
	data, err := r.engine.SaveProject(time.Now())
	if err != nil {
		return result{}, err
	}
	reply, err := newMessage(TypeProject, json.RawMessage(data))
	if err != nil {
		return result{}, err
	}
	return result{reply: reply}, nil
}

func groupsImport(r *Room, _ string, payload json.RawMessage) (result, error) {
	if err := r.engine.ImportGroups(payload); err != nil {
		return result{}, err
	}
	return changed, nil
}

func groupsExport(r *Room, _ string, _ json.RawMessage) (result, error) {
	data, err := r.engine.ExportGroups()
	if err != nil {
		return result{}, err
	}
	reply, err := newMessage(TypeGroups, json.RawMessage(data))
	if err != nil {
		return result{}, err
	}
	return result{reply: reply}, nil
}

// --- Errors ---

// errorCode classifies err for clients.
func errorCode(err error) string {
	switch {
	case errors.Is(err, document.ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, geometry.ErrLastGroup):
		return "last_group"
	case errors.Is(err, geometry.ErrSliceNotFound), errors.Is(err, geometry.ErrUnknownGroup):
		return "not_found"
	case errors.Is(err, ErrUnknownSession):
		return "unknown_session"
	case errors.Is(err, export.ErrNothingToExport):
		return "nothing_to_export"
	case errors.Is(err, atlas.ErrTooLarge):
		return "too_large"
	case errors.Is(err, engine.ErrNoImage), errors.Is(err, engine.ErrOutsideImage):
		return "no_image"
	case errors.Is(err, asset.ErrUnsupported):
		return "unsupported_image"
	case errors.Is(err, ErrBadPayload), errors.Is(err, ErrUnknownCommand):
		return "bad_request"
	}
	return "internal"
}

func errorMessage(seq int64, err error) *Message {
	msg, _ := newMessage(TypeError, ErrorPayload{Code: errorCode(err), Message: err.Error()})
	msg.Seq = seq
	return msg
}
