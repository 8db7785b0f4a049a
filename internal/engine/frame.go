package engine

import (
	"github.com/cutsprite/cutsprite/internal/document"
	"github.com/cutsprite/cutsprite/internal/geometry"
	"github.com/cutsprite/cutsprite/internal/snap"
)

// PixelPoint is a whole-pixel offset.
type PixelPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SliceView is a read-only copy of a slice with its derived values.
type SliceView struct {
	ID        int             `json:"id"`
	Group     int             `json:"group"`
	GroupName string          `json:"groupName"`
	Index     int             `json:"index"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Width     float64         `json:"width"`
	Height    float64         `json:"height"`
	Color     string          `json:"color"`
	Selected  bool            `json:"selected"`
	Inherits  bool            `json:"inherits"`
	Anchor    document.Anchor `json:"anchor"`
	Preset    string          `json:"preset"`
	Pivot     PixelPoint      `json:"pivot"`
}

// Rect returns the slice bounds.
func (v SliceView) Rect() document.Rect {
	return document.Rect{X: v.X, Y: v.Y, Width: v.Width, Height: v.Height}
}

type GroupView struct {
	Index         int             `json:"index"`
	Name          string          `json:"name"`
	Color         string          `json:"color"`
	DefaultAnchor document.Anchor `json:"defaultAnchor"`
	Preset        string          `json:"preset"`
	Slices        int             `json:"slices"`
	Current       bool            `json:"current"`
}

type HandleView struct {
	Handle snap.Handle `json:"handle"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
}

type PlaybackView struct {
	Frame         int  `json:"frame"`
	FrameCount    int  `json:"frameCount"`
	Playing       bool `json:"playing"`
	FPS           int  `json:"fps"`
	AnimationMode bool `json:"animationMode"`
}

type ImageView struct {
	HasImage  bool                    `json:"hasImage"`
	Name      string                  `json:"name,omitempty"`
	Width     int                     `json:"width"`
	Height    int                     `json:"height"`
	Transform document.ImageTransform `json:"transform"`
}

// Frame is a consistent snapshot of everything a client needs to draw the
// canvas and its panels.
type Frame struct {
	Canvas   document.Size  `json:"canvas"`
	State    string         `json:"state"`
	Groups   []GroupView    `json:"groups"`
	Slices   []SliceView    `json:"slices"` // visible slices, bottom to top
	Handles  []HandleView   `json:"handles,omitempty"`
	Preview  *document.Rect `json:"preview,omitempty"`
	Guides   []snap.Guide   `json:"guides,omitempty"`
	Playback PlaybackView   `json:"playback"`
	Image    ImageView      `json:"image"`

	// Version increases with every snapshot the engine takes, so a later
	// snapshot always has the higher version.
	Version uint64 `json:"-"`
}

// Frame returns a snapshot of the session.
func (e *Engine) Frame() *Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame()
}

// Slice returns a copy of the slice with id.
func (e *Engine) Slice(id int) (SliceView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.model.Slice(id)
	if !ok {
		return SliceView{}, false
	}
	return e.sliceView(s), true
}

// Slices returns copies of every slice in z-order.
func (e *Engine) Slices() []SliceView {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]SliceView, 0, len(e.model.Slices()))
	for _, s := range e.model.Slices() {
		out = append(out, e.sliceView(s))
	}
	return out
}

// Groups returns copies of every group in order.
func (e *Engine) Groups() []GroupView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.groupViews()
}

func (e *Engine) frame() *Frame {
	e.version++
	f := &Frame{
		Version: e.version,
		Canvas:  e.model.Canvas(),
		State:   e.state.String(),
		Groups:  e.groupViews(),
		Preview: e.g.preview,
		Guides:  e.g.guides,
		Playback: PlaybackView{
			Frame:         e.seq.Frame(),
			FrameCount:    e.model.CurrentGroup().Len(),
			Playing:       e.seq.Playing(),
			FPS:           e.seq.FPS(),
			AnimationMode: e.seq.AnimationMode(),
		},
		Image: e.imageView(),
	}
	if f.Preview != nil {
		p := *f.Preview
		f.Preview = &p
	}

	for _, s := range e.visibleSlices() {
		f.Slices = append(f.Slices, e.sliceView(s))
	}
	if sel := e.model.SelectedSlice(); sel != nil {
		for _, h := range snap.Handles {
			x, y := h.Point(sel.Rect())
			f.Handles = append(f.Handles, HandleView{Handle: h, X: x, Y: y})
		}
	}
	return f
}

// visibleSlices is every slice in z-order, or only the current frame's
// slice while animating.
func (e *Engine) visibleSlices() []*geometry.Slice {
	if !e.seq.AnimationMode() {
		return e.model.Slices()
	}
	slices := e.model.CurrentGroup().Slices()
	if i := e.seq.Frame(); i < len(slices) {
		return slices[i : i+1]
	}
	return nil
}

func (e *Engine) sliceView(s *geometry.Slice) SliceView {
	a := e.model.EffectiveAnchor(s)
	px, py := e.model.Pivot(s)
	v := SliceView{
		ID:       s.ID,
		Group:    -1,
		Index:    -1,
		X:        s.X,
		Y:        s.Y,
		Width:    s.Width,
		Height:   s.Height,
		Color:    s.Color,
		Selected: s.Selected,
		Inherits: s.Inherits(),
		Anchor:   a,
		Preset:   document.PresetName(a),
		Pivot:    PixelPoint{X: px, Y: py},
	}
	if g := e.model.GroupOf(s); g != nil {
		v.Group = e.groupIndex(g)
		v.GroupName = g.Name
		v.Index = g.Index(s.ID)
	}
	return v
}

func (e *Engine) groupViews() []GroupView {
	groups := e.model.Groups()
	out := make([]GroupView, len(groups))
	for i, g := range groups {
		out[i] = GroupView{
			Index:         i,
			Name:          g.Name,
			Color:         g.Color,
			DefaultAnchor: g.DefaultAnchor,
			Preset:        document.PresetName(g.DefaultAnchor),
			Slices:        g.Len(),
			Current:       g == e.model.CurrentGroup(),
		}
	}
	return out
}

func (e *Engine) groupIndex(g *geometry.Group) int {
	for i, o := range e.model.Groups() {
		if o == g {
			return i
		}
	}
	return -1
}

func (e *Engine) imageView() ImageView {
	v := ImageView{Transform: e.transform}
	if e.image != nil {
		b := e.image.Bounds()
		v.HasImage = true
		v.Name = e.imageName
		v.Width, v.Height = b.Dx(), b.Dy()
	}
	return v
}
