// Package engine runs one slicing session: it owns the slice model, turns
// pointer and keyboard input into model edits, drives preview playback and
// renders the canvas as draw commands.
package engine

import (
	"image"
	"log/slog"
	"sync"

	"github.com/cutsprite/cutsprite/internal/document"
	"github.com/cutsprite/cutsprite/internal/geometry"
	"github.com/cutsprite/cutsprite/internal/playback"
	"github.com/cutsprite/cutsprite/internal/snap"
)

// State is the pointer interaction state.
type State int

const (
	Idle State = iota
	Drawing
	Dragging
	Resizing
)

func (s State) String() string {
	switch s {
	case Drawing:
		return "drawing"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	}
	return "idle"
}

type options struct {
	canvas    document.Size
	threshold float64
	fps       int
	sched     playback.Scheduler
	logger    *slog.Logger
	onTick    func(*Frame)
}

// Option configures an Engine.
type Option func(*options)

// WithCanvas sets the canvas size in pixels.
func WithCanvas(width, height float64) Option {
	return func(o *options) { o.canvas = document.Size{Width: width, Height: height} }
}

// WithSnapThreshold sets the snap distance in pixels.
func WithSnapThreshold(px float64) Option {
	return func(o *options) { o.threshold = px }
}

// WithFPS sets the initial playback rate.
func WithFPS(fps int) Option {
	return func(o *options) { o.fps = fps }
}

// WithScheduler replaces the playback clock.
func WithScheduler(s playback.Scheduler) Option {
	return func(o *options) { o.sched = s }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTickListener registers f to receive the frame after every playback
// tick. f runs without the engine lock held.
func WithTickListener(f func(*Frame)) Option {
	return func(o *options) { o.onTick = f }
}

// gesture is the transient state of one pointer interaction.
type gesture struct {
	startX, startY float64
	sliceID        int
	handle         snap.Handle
	origin         document.Rect // bounds when the gesture began
	grabX, grabY   float64       // pointer offset from the slice origin
	lines          snap.Lines
	preview        *document.Rect
	guides         []snap.Guide
}

// Engine is one editing session. All methods are safe for concurrent use;
// a single mutex serialises commands, queries and playback ticks.
type Engine struct {
	mu sync.Mutex

	log    *slog.Logger
	model  *geometry.Model
	snap   *snap.Engine
	seq    *playback.Sequencer
	onTick func(*Frame)

	state     State
	g         gesture
	textFocus bool

	image     image.Image
	imageName string
	transform document.ImageTransform

	version uint64 // last frame snapshot
}

// New creates an engine with one empty group.
func New(opts ...Option) *Engine {
	o := options{
		canvas:    document.Size{Width: document.DefaultCanvasWidth, Height: document.DefaultCanvasHeight},
		threshold: snap.DefaultThreshold,
		fps:       playback.DefaultFPS,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	e := &Engine{
		log:       o.logger,
		model:     geometry.New(o.canvas),
		snap:      snap.New(o.threshold),
		onTick:    o.onTick,
		transform: document.IdentityTransform(),
	}
	e.seq = playback.New(o.sched, o.fps, e.tick)
	return e
}

// State returns the current interaction state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Canvas returns the canvas size.
func (e *Engine) Canvas() document.Size {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.Canvas()
}

// --- Pointer input ---

// PointerDown starts a gesture at canvas point (x, y): a resize when it hits
// a handle of the selected slice, a drag when it hits any slice, otherwise
// a new draw.
func (e *Engine) PointerDown(x, y float64) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.g = gesture{startX: x, startY: y}

	if sel := e.model.SelectedSlice(); sel != nil {
		if h := snap.HandleAt(sel.Rect(), x, y, snap.HandleTolerance); h != snap.HandleNone {
			e.state = Resizing
			e.g.sliceID = sel.ID
			e.g.handle = h
			e.g.origin = sel.Rect()
			e.g.lines = e.siblingLines(sel.ID)
			return e.state
		}
	}

	if hit := e.model.SliceAt(x, y); hit != nil {
		e.model.SelectOnly(hit.ID)
		e.state = Dragging
		e.g.sliceID = hit.ID
		e.g.origin = hit.Rect()
		e.g.grabX, e.g.grabY = x-hit.X, y-hit.Y
		e.g.lines = e.siblingLines(hit.ID)
		return e.state
	}

	e.model.ClearSelection()
	e.state = Drawing
	e.g.preview = &document.Rect{X: x, Y: y}
	return e.state
}

// PointerMove updates the active gesture. It reports whether anything
// visible changed.
func (e *Engine) PointerMove(x, y float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case Drawing:
		r := document.RectFromPoints(e.g.startX, e.g.startY, x, y)
		e.g.preview = &r
		return true

	case Dragging:
		candidate := document.Rect{
			X:      x - e.g.grabX,
			Y:      y - e.g.grabY,
			Width:  e.g.origin.Width,
			Height: e.g.origin.Height,
		}
		r := e.snap.Drag(candidate, e.g.lines)
		return e.commitGesture(r)

	case Resizing:
		r := e.g.handle.Apply(e.g.origin, x-e.g.startX, y-e.g.startY)
		r = e.snap.Resize(r, e.g.handle, e.g.lines)
		return e.commitGesture(r)
	}
	return false
}

func (e *Engine) commitGesture(r document.Rect) bool {
	if err := e.model.SetBounds(e.g.sliceID, r); err != nil {
		// The slice went away mid-gesture, e.g. a remote delete.
		e.log.Debug("gesture target lost", "slice", e.g.sliceID, "error", err)
		e.resetGesture()
		return false
	}
	e.g.guides = e.snap.Guides(r, e.g.lines)
	return true
}

// PointerUp ends the gesture. A draw larger than the minimum in both
// directions becomes a new selected slice in the current group, which is
// returned.
func (e *Engine) PointerUp(x, y float64) (SliceView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.resetGesture()

	if e.state != Drawing {
		return SliceView{}, false
	}
	r := document.RectFromPoints(e.g.startX, e.g.startY, x, y)
	if r.Width <= document.MinSliceSize || r.Height <= document.MinSliceSize {
		return SliceView{}, false
	}
	s, err := e.model.CreateSlice(r, e.model.CurrentGroup())
	if err != nil {
		e.log.Warn("create slice failed", "error", err)
		return SliceView{}, false
	}
	e.model.SelectOnly(s.ID)
	e.log.Debug("slice created", "slice", s.ID, "width", s.Width, "height", s.Height)
	return e.sliceView(s), true
}

func (e *Engine) resetGesture() {
	e.state = Idle
	e.g = gesture{}
}

// ContextMenu is the action surface offered for a right-clicked slice.
type ContextMenu struct {
	SliceID int      `json:"sliceId"`
	Actions []string `json:"actions"`
}

// ContextClick selects the slice under (x, y) and returns its actions. The
// interaction state is left alone.
func (e *Engine) ContextClick(x, y float64) (ContextMenu, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	hit := e.model.SliceAt(x, y)
	if hit == nil {
		return ContextMenu{}, false
	}
	e.model.SelectOnly(hit.ID)
	return ContextMenu{SliceID: hit.ID, Actions: []string{"duplicate", "delete"}}, true
}

// Cursor returns the CSS cursor for a pointer hovering at (x, y).
func (e *Engine) Cursor(x, y float64) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case Dragging:
		return "move"
	case Resizing:
		return e.g.handle.Cursor()
	case Drawing:
		return "crosshair"
	}
	if sel := e.model.SelectedSlice(); sel != nil {
		if h := snap.HandleAt(sel.Rect(), x, y, snap.HandleTolerance); h != snap.HandleNone {
			return h.Cursor()
		}
	}
	if e.model.SliceAt(x, y) != nil {
		return "move"
	}
	return "crosshair"
}

// siblingLines collects snap lines from every slice except id.
func (e *Engine) siblingLines(id int) snap.Lines {
	var siblings []document.Rect
	for _, s := range e.model.Slices() {
		if s.ID != id {
			siblings = append(siblings, s.Rect())
		}
	}
	return snap.Collect(siblings, e.model.Canvas())
}

// --- Playback ---

// tick runs on the scheduler's goroutine.
func (e *Engine) tick(token uint64) {
	e.mu.Lock()
	n := e.model.CurrentGroup().Len()
	if !e.seq.Advance(token, n) {
		e.mu.Unlock()
		return
	}
	e.selectFrame()
	var f *Frame
	if e.onTick != nil {
		f = e.frame()
	}
	e.mu.Unlock()

	if f != nil {
		e.onTick(f)
	}
}

// selectFrame selects the slice shown at the current frame.
func (e *Engine) selectFrame() {
	slices := e.model.CurrentGroup().Slices()
	if i := e.seq.Frame(); i < len(slices) {
		e.model.SelectOnly(slices[i].ID)
	}
}

// Play toggles playback of the current group.
func (e *Engine) Play() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	playing := e.seq.Play(e.model.CurrentGroup().Len())
	if playing {
		e.selectFrame()
	}
	return playing
}

// Pause stops playback on the current frame.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq.Pause()
}

// Stop ends playback, rewinds and leaves animation mode.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq.Stop()
}

// NextFrame steps forward one frame and selects it.
func (e *Engine) NextFrame() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step(e.seq.Next)
}

// PrevFrame steps back one frame and selects it.
func (e *Engine) PrevFrame() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step(e.seq.Prev)
}

func (e *Engine) step(move func(n int) bool) bool {
	if !move(e.model.CurrentGroup().Len()) {
		return false
	}
	e.selectFrame()
	return true
}

// SetFPS changes the playback rate, clamped to the supported range.
func (e *Engine) SetFPS(fps int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq.SetFPS(fps)
	return e.seq.FPS()
}

// Close stops any pending playback timer.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq.Stop()
}
