package session

import (
	"encoding/json"

	"github.com/cutsprite/cutsprite/internal/document"
	"github.com/cutsprite/cutsprite/internal/engine"
)

// Message is the envelope for every WebSocket frame in both directions.
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeError   = "error"

	// Server state
	TypeFrame       = "frame"
	TypeContextMenu = "context.menu"
	TypeProject     = "project"
	TypeGroups      = "groups"
	TypeColor       = "color"

	// Presence
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"

	// Pointer and keyboard
	TypePointerDown    = "pointer.down"
	TypePointerMove    = "pointer.move"
	TypePointerUp      = "pointer.up"
	TypePointerContext = "pointer.context"
	TypeKeyIntent      = "key.intent"
	TypeFocusText      = "focus.text"

	// Slices
	TypeSliceSelect    = "slice.select"
	TypeSliceBounds    = "slice.bounds"
	TypeSliceDuplicate = "slice.duplicate"
	TypeSliceDelete    = "slice.delete"
	TypeSliceMove      = "slice.move"
	TypeSliceAnchor    = "slice.anchor"
	TypeSliceInherit   = "slice.inherit"
	TypeSlicesClear    = "slices.clear"

	// Groups
	TypeGroupCreate    = "group.create"
	TypeGroupDelete    = "group.delete"
	TypeGroupRename    = "group.rename"
	TypeGroupRecolor   = "group.recolor"
	TypeGroupDuplicate = "group.duplicate"
	TypeGroupSelect    = "group.select"
	TypeGroupCurrent   = "group.current"
	TypeGroupAnchor    = "group.anchor"

	// Playback
	TypePlaybackPlay  = "playback.play"
	TypePlaybackPause = "playback.pause"
	TypePlaybackStop  = "playback.stop"
	TypePlaybackNext  = "playback.next"
	TypePlaybackPrev  = "playback.prev"
	TypePlaybackFPS   = "playback.fps"

	// Background image
	TypeImageScale       = "image.scale"
	TypeImageMove        = "image.move"
	TypeImageReset       = "image.reset"
	TypeImageRemove      = "image.remove"
	TypeImageFocus       = "image.focus"
	TypeImageRemoveColor = "image.removeColor"
	TypeImagePick        = "image.pick"

	// Files
	TypeProjectLoad   = "project.load"
	TypeProjectSample = "project.sample"
	TypeProjectSave   = "project.save"
	TypeGroupsImport  = "groups.import"
	TypeGroupsExport  = "groups.export"
)

// --- Client payloads ---

type PointerPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// KeyPayload carries either a pre-decoded intent or a DOM key with its
// modifiers.
type KeyPayload struct {
	Intent    *engine.Intent   `json:"intent,omitempty"`
	Key       string           `json:"key,omitempty"`
	Modifiers engine.Modifiers `json:"modifiers"`
}

type FocusPayload struct {
	Focused bool `json:"focused"`
}

type SlicePayload struct {
	ID      int              `json:"id"`
	Group   int              `json:"group,omitempty"`
	Bounds  *document.Rect   `json:"bounds,omitempty"`
	Anchor  *document.Anchor `json:"anchor,omitempty"`
	Inherit bool             `json:"inherit,omitempty"`
}

type GroupPayload struct {
	Index  int              `json:"index"`
	Name   string           `json:"name,omitempty"`
	Color  string           `json:"color,omitempty"`
	Anchor *document.Anchor `json:"anchor,omitempty"`
}

type PlaybackPayload struct {
	FPS int `json:"fps"`
}

type ImagePayload struct {
	Factor    float64 `json:"factor,omitempty"`
	DX        float64 `json:"dx,omitempty"`
	DY        float64 `json:"dy,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	SliceID   int     `json:"sliceId,omitempty"`
	Color     string  `json:"color,omitempty"`
	Tolerance *int    `json:"tolerance,omitempty"`
}

// --- Server payloads ---

type WelcomePayload struct {
	SessionID string        `json:"sessionId"`
	ClientID  string        `json:"clientId"`
	Frame     *FramePayload `json:"frame"`
}

// FramePayload is a session snapshot plus the draw commands that paint it.
type FramePayload struct {
	*engine.Frame
	Commands []engine.DrawCommand `json:"commands"`
}

type ColorPayload struct {
	Color string `json:"color"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PresencePayload is one client's pointer position and the cursor shown
// there.
type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	CursorStyle string     `json:"cursorStyle,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID string `json:"clientId"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

func newFramePayload(f *engine.Frame) *FramePayload {
	cmds := engine.CompileDrawCommands(f)
	if cmds == nil {
		cmds = []engine.DrawCommand{}
	}
	return &FramePayload{Frame: f, Commands: cmds}
}

// newMessage marshals payload into a message of type typ. A json.RawMessage
// payload is used as is.
func newMessage(typ string, payload interface{}) (*Message, error) {
	var raw json.RawMessage
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		raw = p
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return &Message{Type: typ, Payload: raw}, nil
}
