package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// FormatVersion is written to every saved project file.
const FormatVersion = "1.0"

// ErrInvalidFormat is returned when a project or group file cannot be used.
var ErrInvalidFormat = errors.New("invalid project file format")

// ProjectFile is the on-disk project document.
type ProjectFile struct {
	Version         string            `json:"version"`
	Timestamp       string            `json:"timestamp,omitempty"`
	Groups          []GroupRecord     `json:"groups"`
	CurrentGroup    *CurrentGroupRef  `json:"currentGroup,omitempty"`
	BackgroundImage *BackgroundRecord `json:"backgroundImage,omitempty"`
}

// GroupRecord is one serialized group.
type GroupRecord struct {
	Name          string        `json:"name"`
	Color         string        `json:"color"`
	DefaultAnchor AnchorValue   `json:"default_anchor"`
	Slices        []SliceRecord `json:"slices"`
}

// SliceRecord is one serialized slice. A nil Anchor means the slice inherits
// its group's default.
type SliceRecord struct {
	X      float64      `json:"x"`
	Y      float64      `json:"y"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Anchor *AnchorValue `json:"anchor,omitempty"`
}

// Rect returns the slice geometry.
func (s SliceRecord) Rect() Rect {
	return Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

// CurrentGroupRef names the group that was active when the project was saved.
type CurrentGroupRef struct {
	Name string `json:"name"`
}

// BackgroundRecord stores the background image and its canvas transform.
// ImageData is a data URL; it is null when HasImage is false.
type BackgroundRecord struct {
	Scale     float64 `json:"scale"`
	OffsetX   float64 `json:"offsetX"`
	OffsetY   float64 `json:"offsetY"`
	HasImage  bool    `json:"hasImage"`
	ImageData *string `json:"imageData"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

// Transform returns the stored canvas transform, defaulting a zero scale to 1.
func (b *BackgroundRecord) Transform() ImageTransform {
	if b == nil {
		return IdentityTransform()
	}
	t := ImageTransform{Scale: b.Scale, OffsetX: b.OffsetX, OffsetY: b.OffsetY}
	if t.Scale <= 0 {
		t.Scale = 1
	}
	return t
}

// GroupData is the version-less group export used by older tooling.
type GroupData struct {
	Groups []GroupRecord `json:"groups"`
}

// EncodeProject serializes p, stamping the version and timestamp.
func EncodeProject(p *ProjectFile, now time.Time) ([]byte, error) {
	out := *p
	out.Version = FormatVersion
	out.Timestamp = now.UTC().Format("2006-01-02T15:04:05.000Z")
	if out.Groups == nil {
		out.Groups = []GroupRecord{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	return data, nil
}

// DecodeProject parses and validates a project file. It never returns a
// partially valid document: any structural problem yields ErrInvalidFormat.
func DecodeProject(data []byte) (*ProjectFile, error) {
	var raw struct {
		Version         json.RawMessage   `json:"version"`
		Timestamp       string            `json:"timestamp"`
		Groups          *[]GroupRecord    `json:"groups"`
		CurrentGroup    *CurrentGroupRef  `json:"currentGroup"`
		BackgroundImage *BackgroundRecord `json:"backgroundImage"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	version, ok := versionString(raw.Version)
	if !ok {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidFormat)
	}
	if raw.Groups == nil {
		return nil, fmt.Errorf("%w: missing groups", ErrInvalidFormat)
	}

	groups, err := normalizeGroups(*raw.Groups)
	if err != nil {
		return nil, err
	}

	return &ProjectFile{
		Version:         version,
		Timestamp:       raw.Timestamp,
		Groups:          groups,
		CurrentGroup:    raw.CurrentGroup,
		BackgroundImage: raw.BackgroundImage,
	}, nil
}

// EncodeGroups serializes groups without project metadata.
func EncodeGroups(groups []GroupRecord) ([]byte, error) {
	if groups == nil {
		groups = []GroupRecord{}
	}
	data, err := json.MarshalIndent(GroupData{Groups: groups}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal groups: %w", err)
	}
	return data, nil
}

// DecodeGroups parses a version-less group export.
func DecodeGroups(data []byte) ([]GroupRecord, error) {
	var raw struct {
		Groups *[]GroupRecord `json:"groups"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if raw.Groups == nil {
		return nil, fmt.Errorf("%w: missing groups", ErrInvalidFormat)
	}
	return normalizeGroups(*raw.Groups)
}

func normalizeGroups(in []GroupRecord) ([]GroupRecord, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: no groups", ErrInvalidFormat)
	}

	out := make([]GroupRecord, len(in))
	for i, g := range in {
		if g.Name == "" {
			g.Name = "Group " + strconv.Itoa(i+1)
		}
		slices := make([]SliceRecord, len(g.Slices))
		for j, s := range g.Slices {
			if !s.Rect().Finite() {
				return nil, fmt.Errorf("%w: group %q slice %d has non-finite geometry", ErrInvalidFormat, g.Name, j)
			}
			s.Width = ClampSliceSize(s.Width)
			s.Height = ClampSliceSize(s.Height)
			slices[j] = s
		}
		g.Slices = slices
		out[i] = g
	}
	return out, nil
}

// versionString reports the version tag as text. Missing, null, empty, false
// and zero values count as absent.
func versionString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch string(raw) {
	case "null", `""`, "false", "0":
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}
