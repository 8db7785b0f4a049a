package atlas

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/cutsprite/cutsprite/internal/geometry"
)

// Meta values written to every document.
const (
	AppName     = "CutSprite"
	AppVersion  = "1.0"
	PixelFormat = "RGBA8888"
)

// Mode selects which flavour of document is produced.
type Mode int

const (
	// ModeIndividual pairs the document with one PNG per slice.
	ModeIndividual Mode = iota
	// ModeSheet pairs the document with a single packed PNG.
	ModeSheet
)

type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PixelPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Frame struct {
	Frame            Rect       `json:"frame"`
	Rotated          bool       `json:"rotated"`
	Trimmed          bool       `json:"trimmed"`
	SpriteSourceSize Rect       `json:"spriteSourceSize"`
	SourceSize       Size       `json:"sourceSize"`
	Anchor           Point      `json:"anchor"`
	Pivot            PixelPoint `json:"pivot"`
}

// FrameTag names a contiguous run of frames, one per group.
type FrameTag struct {
	Name      string `json:"name"`
	From      int    `json:"from"`
	To        int    `json:"to"`
	Direction string `json:"direction"`
}

type Meta struct {
	App       string     `json:"app"`
	Version   string     `json:"version"`
	Format    string     `json:"format"`
	Scale     string     `json:"scale"`
	Image     string     `json:"image,omitempty"`
	Size      *Size      `json:"size,omitempty"`
	FrameTags []FrameTag `json:"frameTags,omitempty"`
}

// Document is the TexturePacker "JSON (Hash)" atlas.
type Document struct {
	Frames     map[string]Frame    `json:"frames"`
	Animations map[string][]string `json:"animations"`
	Meta       Meta                `json:"meta"`
}

// DocumentOptions controls Document.
type DocumentOptions struct {
	Mode  Mode
	Image string // sheet file name, used in ModeSheet
}

// Document describes the layout. In ModeIndividual frames are still
// reported at their sheet positions but meta carries no image, size or tags.
func (l *Layout) Document(opts DocumentOptions) *Document {
	doc := &Document{
		Frames:     make(map[string]Frame, len(l.Frames)),
		Animations: make(map[string][]string),
		Meta: Meta{
			App:     AppName,
			Version: AppVersion,
			Format:  PixelFormat,
			Scale:   "1",
		},
	}

	for _, p := range l.Frames {
		px, py := geometry.PivotOf(p.Source.Width, p.Source.Height, p.Anchor)
		doc.Frames[p.Name] = Frame{
			Frame:            Rect{X: p.X, Y: p.Y, W: p.W, H: p.H},
			SpriteSourceSize: Rect{W: p.W, H: p.H},
			SourceSize:       Size{W: p.W, H: p.H},
			Anchor:           Point{X: p.Anchor.X, Y: p.Anchor.Y},
			Pivot:            PixelPoint{X: px, Y: py},
		}
	}

	for _, run := range l.groupRuns() {
		ordered := slices.Clone(run.frames)
		slices.SortStableFunc(ordered, func(a, b Placement) int { return cmp.Compare(a.Index, b.Index) })
		names := make([]string, len(ordered))
		for i, p := range ordered {
			names[i] = p.Name
		}
		doc.Animations[run.name] = names

		if opts.Mode == ModeSheet {
			doc.Meta.FrameTags = append(doc.Meta.FrameTags, FrameTag{
				Name:      run.name,
				From:      run.from,
				To:        run.from + len(run.frames) - 1,
				Direction: "forward",
			})
		}
	}

	if opts.Mode == ModeSheet {
		doc.Meta.Image = opts.Image
		doc.Meta.Size = &Size{W: l.Width(), H: l.Height()}
	}
	return doc
}

// Marshal encodes the document as indented JSON.
func (d *Document) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal atlas: %w", err)
	}
	return data, nil
}

type groupRun struct {
	name   string
	from   int
	frames []Placement
}

// groupRuns splits the frame sequence into consecutive runs of one group.
func (l *Layout) groupRuns() []groupRun {
	var runs []groupRun
	for i, p := range l.Frames {
		if len(runs) == 0 || runs[len(runs)-1].name != p.Group {
			runs = append(runs, groupRun{name: p.Group, from: i})
		}
		last := &runs[len(runs)-1]
		last.frames = append(last.frames, p)
	}
	return runs
}
