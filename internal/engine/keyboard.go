package engine

import "github.com/cutsprite/cutsprite/internal/geometry"

// Direction of an arrow-key intent.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

func (d Direction) delta() (float64, float64) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// IntentKind names a keyboard command.
type IntentKind string

const (
	IntentNudge      IntentKind = "nudge"
	IntentResize     IntentKind = "resize"
	IntentDelete     IntentKind = "delete"
	IntentClear      IntentKind = "clear"
	IntentMoveImage  IntentKind = "move_image"
	IntentNextFrame  IntentKind = "next_frame"
	IntentPrevFrame  IntentKind = "prev_frame"
	IntentTogglePlay IntentKind = "toggle_play"
	IntentFPSUp      IntentKind = "fps_up"
	IntentFPSDown    IntentKind = "fps_down"
)

// Intent is a decoded keyboard command.
type Intent struct {
	Kind      IntentKind `json:"kind"`
	Direction Direction  `json:"direction,omitempty"`
	// Opposite moves the left or top edge instead of the right or bottom one.
	Opposite bool `json:"opposite,omitempty"`
}

// Step sizes for keyboard intents, in canvas pixels.
const (
	NudgeStep     = 1.0
	ResizeStep    = 1.0
	MoveImageStep = 10.0
)

// Modifiers held with a key.
type Modifiers struct {
	Shift bool `json:"shift,omitempty"`
	Alt   bool `json:"alt,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty"`
}

var arrowKeys = map[string]Direction{
	"ArrowUp":    Up,
	"ArrowDown":  Down,
	"ArrowLeft":  Left,
	"ArrowRight": Right,
}

// DecodeKey maps a DOM key name and its modifiers to an intent.
func DecodeKey(key string, mods Modifiers) (Intent, bool) {
	if d, ok := arrowKeys[key]; ok {
		switch {
		case mods.Shift:
			return Intent{Kind: IntentMoveImage, Direction: d}, true
		case mods.Ctrl:
			return Intent{Kind: IntentResize, Direction: d, Opposite: true}, true
		case mods.Alt:
			return Intent{Kind: IntentResize, Direction: d}, true
		default:
			return Intent{Kind: IntentNudge, Direction: d}, true
		}
	}

	switch key {
	case "Delete", "Backspace":
		return Intent{Kind: IntentDelete}, true
	case "Escape":
		return Intent{Kind: IntentClear}, true
	case ",":
		return Intent{Kind: IntentPrevFrame}, true
	case ".":
		return Intent{Kind: IntentNextFrame}, true
	case " ":
		return Intent{Kind: IntentTogglePlay}, true
	case "+", "=":
		return Intent{Kind: IntentFPSUp}, true
	case "-":
		return Intent{Kind: IntentFPSDown}, true
	}
	return Intent{}, false
}

// SetTextInputFocus records whether a text field owns the keyboard. While
// it does, every intent is ignored.
func (e *Engine) SetTextInputFocus(focused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.textFocus = focused
}

// HandleIntent applies a keyboard intent. It reports whether the session
// changed.
func (e *Engine) HandleIntent(in Intent) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.textFocus {
		return false
	}

	switch in.Kind {
	case IntentNudge:
		dx, dy := in.Direction.delta()
		return e.model.Nudge(dx*NudgeStep, dy*NudgeStep)

	case IntentResize:
		edge, delta, ok := resizeEdge(in.Direction, in.Opposite)
		if !ok {
			return false
		}
		return e.model.ResizeSelected(edge, delta*ResizeStep)

	case IntentDelete:
		return e.deleteSelected() > 0

	case IntentClear:
		e.clearAll()
		return true

	case IntentMoveImage:
		dx, dy := in.Direction.delta()
		return e.moveImage(dx*MoveImageStep, dy*MoveImageStep)

	case IntentNextFrame:
		return e.step(e.seq.Next)

	case IntentPrevFrame:
		return e.step(e.seq.Prev)

	case IntentTogglePlay:
		if e.seq.Play(e.model.CurrentGroup().Len()) {
			e.selectFrame()
		}
		return true

	case IntentFPSUp:
		e.seq.SetFPS(e.seq.FPS() + 1)
		return true

	case IntentFPSDown:
		e.seq.SetFPS(e.seq.FPS() - 1)
		return true
	}

	e.log.Debug("unknown intent", "kind", in.Kind)
	return false
}

// resizeEdge picks the edge an arrow resizes and the sign of the change.
// Right and Down grow the right and bottom edges, Left and Up shrink them.
// With opposite set, Left and Up grow the left and top edges.
func resizeEdge(d Direction, opposite bool) (geometry.Edge, float64, bool) {
	switch {
	case d == Right && !opposite:
		return geometry.EdgeRight, 1, true
	case d == Left && !opposite:
		return geometry.EdgeRight, -1, true
	case d == Down && !opposite:
		return geometry.EdgeBottom, 1, true
	case d == Up && !opposite:
		return geometry.EdgeBottom, -1, true
	case d == Left:
		return geometry.EdgeLeft, 1, true
	case d == Right:
		return geometry.EdgeLeft, -1, true
	case d == Up:
		return geometry.EdgeTop, 1, true
	case d == Down:
		return geometry.EdgeTop, -1, true
	}
	return 0, 0, false
}
