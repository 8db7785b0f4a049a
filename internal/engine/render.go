package engine

import (
	"encoding/json"
	"strconv"

	"github.com/cutsprite/cutsprite/internal/document"
	"github.com/cutsprite/cutsprite/internal/snap"
)

// PathCommand is one path segment, e.g. {"M", x, y} or {"Z"}.
type PathCommand []interface{}

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op           string        `json:"op"`                     // Operation: "image" or "path"
	ObjectID     string        `json:"objectId,omitempty"`     // For hit correlation
	Transform    []float64     `json:"transform,omitempty"`    // [a, b, c, d, e, f] affine matrix
	Path         []PathCommand `json:"path,omitempty"`         // Path data for "path" ops
	Fill         string        `json:"fill,omitempty"`         // Fill color
	Stroke       string        `json:"stroke,omitempty"`       // Stroke color
	StrokeWidth  float64       `json:"strokeWidth,omitempty"`  // Stroke width
	Dash         []float64     `json:"dash,omitempty"`         // Line dash pattern
	Opacity      float64       `json:"opacity,omitempty"`      // Global alpha
	Label        string        `json:"label,omitempty"`        // Text drawn at the path origin
	ImageAssetID string        `json:"imageAssetId,omitempty"` // Asset ID for image lookup
	ImageWidth   float64       `json:"imageWidth,omitempty"`   // Image natural width
	ImageHeight  float64       `json:"imageHeight,omitempty"`  // Image natural height
}

const (
	handleSize  = 6.0
	pivotRadius = 4.0
	guideColor  = "#00bcd4"
	previewDash = 5.0
)

// Render returns the draw commands for the current frame as JSON.
func (e *Engine) Render() string {
	e.mu.Lock()
	f := e.frame()
	e.mu.Unlock()

	result, _ := DrawCommandsToJSON(CompileDrawCommands(f))
	return result
}

// CompileDrawCommands lists the operations that paint f, back to front:
// background image, slices with their pivots, selection handles, the draw
// preview and snap guides.
func CompileDrawCommands(f *Frame) []DrawCommand {
	var commands []DrawCommand

	if f.Image.HasImage {
		commands = append(commands, DrawCommand{
			Op:           "image",
			ObjectID:     "background",
			Transform:    f.Image.Transform.Matrix().ToSlice(),
			Opacity:      1,
			ImageAssetID: f.Image.Name,
			ImageWidth:   float64(f.Image.Width),
			ImageHeight:  float64(f.Image.Height),
		})
	}

	for _, s := range f.Slices {
		width := 1.0
		if s.Selected {
			width = 2
		}
		commands = append(commands, DrawCommand{
			Op:          "path",
			ObjectID:    "slice:" + strconv.Itoa(s.ID),
			Transform:   document.Translate(s.X, s.Y).ToSlice(),
			Path:        rectPath(s.Width, s.Height),
			Stroke:      s.Color,
			StrokeWidth: width,
			Opacity:     1,
			Label:       "#" + strconv.Itoa(s.ID),
		})
		commands = append(commands, DrawCommand{
			Op:          "path",
			ObjectID:    "pivot:" + strconv.Itoa(s.ID),
			Transform:   document.Translate(s.X+float64(s.Pivot.X), s.Y+float64(s.Pivot.Y)).ToSlice(),
			Path:        crossPath(pivotRadius),
			Stroke:      s.Color,
			StrokeWidth: 1,
			Opacity:     1,
		})
	}

	for _, h := range f.Handles {
		commands = append(commands, DrawCommand{
			Op:          "path",
			ObjectID:    "handle:" + string(h.Handle),
			Transform:   document.Translate(h.X-handleSize/2, h.Y-handleSize/2).ToSlice(),
			Path:        rectPath(handleSize, handleSize),
			Fill:        "#ffffff",
			Stroke:      "#333333",
			StrokeWidth: 1,
			Opacity:     1,
		})
	}

	if p := f.Preview; p != nil && !p.IsEmpty() {
		commands = append(commands, DrawCommand{
			Op:          "path",
			ObjectID:    "preview",
			Transform:   document.Translate(p.X, p.Y).ToSlice(),
			Path:        rectPath(p.Width, p.Height),
			Stroke:      "#333333",
			StrokeWidth: 1,
			Dash:        []float64{previewDash, previewDash},
			Opacity:     1,
		})
	}

	for _, g := range f.Guides {
		commands = append(commands, DrawCommand{
			Op:          "path",
			ObjectID:    "guide",
			Path:        guidePath(g, f.Canvas),
			Stroke:      guideColor,
			StrokeWidth: 1,
			Dash:        []float64{4, 4},
			Opacity:     1,
		})
	}

	return commands
}

func rectPath(w, h float64) []PathCommand {
	return []PathCommand{
		{"M", 0.0, 0.0},
		{"L", w, 0.0},
		{"L", w, h},
		{"L", 0.0, h},
		{"Z"},
	}
}

func crossPath(r float64) []PathCommand {
	return []PathCommand{
		{"M", -r, 0.0},
		{"L", r, 0.0},
		{"M", 0.0, -r},
		{"L", 0.0, r},
	}
}

func guidePath(g snap.Guide, canvas document.Size) []PathCommand {
	if g.Orientation == snap.Vertical {
		return []PathCommand{{"M", g.Position, 0.0}, {"L", g.Position, canvas.Height}}
	}
	return []PathCommand{{"M", 0.0, g.Position}, {"L", canvas.Width, g.Position}}
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
