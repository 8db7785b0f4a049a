package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PresetCustom is reported for anchors that match no named preset.
const PresetCustom = "custom"

// presetTolerance is the per-axis distance under which an anchor matches a preset.
const presetTolerance = 0.001

// Preset is a named anchor position.
type Preset struct {
	Name   string
	Anchor Anchor
}

// Presets lists the nine named anchors in grid order.
var Presets = []Preset{
	{"TOP_LEFT", Anchor{0, 0}},
	{"TOP_CENTER", Anchor{0.5, 0}},
	{"TOP_RIGHT", Anchor{1, 0}},
	{"CENTER_LEFT", Anchor{0, 0.5}},
	{"CENTER", Anchor{0.5, 0.5}},
	{"CENTER_RIGHT", Anchor{1, 0.5}},
	{"BOTTOM_LEFT", Anchor{0, 1}},
	{"BOTTOM_CENTER", Anchor{0.5, 1}},
	{"BOTTOM_RIGHT", Anchor{1, 1}},
}

// CenterAnchor is the default group anchor.
var CenterAnchor = Anchor{X: 0.5, Y: 0.5}

// PresetByName looks up a preset anchor by its name.
func PresetByName(name string) (Anchor, bool) {
	for _, p := range Presets {
		if p.Name == name {
			return p.Anchor, true
		}
	}
	return Anchor{}, false
}

// PresetName returns the name of the preset matching a, or PresetCustom.
func PresetName(a Anchor) string {
	for _, p := range Presets {
		if math.Abs(p.Anchor.X-a.X) < presetTolerance && math.Abs(p.Anchor.Y-a.Y) < presetTolerance {
			return p.Name
		}
	}
	return PresetCustom
}

// ParseLegacyAnchor parses the old "x, y" anchor encoding.
func ParseLegacyAnchor(s string) (Anchor, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Anchor{}, fmt.Errorf("legacy anchor %q: want two components", s)
	}
	var vals [2]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Anchor{}, fmt.Errorf("legacy anchor %q: %w", s, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Anchor{}, fmt.Errorf("legacy anchor %q: component not finite", s)
		}
		vals[i] = v
	}
	return ClampAnchor(Anchor{X: vals[0], Y: vals[1]}), nil
}

// FormatLegacyAnchor renders a in the old "x, y" encoding.
func FormatLegacyAnchor(a Anchor) string {
	return strconv.FormatFloat(a.X, 'f', -1, 64) + ", " + strconv.FormatFloat(a.Y, 'f', -1, 64)
}

// AnchorValue is an anchor as it appears in project files. It decodes from
// either {"x":..,"y":..} or the legacy "x, y" string and always encodes as
// the structured form. Unparseable legacy strings decode to the centre.
type AnchorValue struct {
	Anchor
}

// MarshalJSON encodes the structured form.
func (v AnchorValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Anchor)
}

// UnmarshalJSON accepts the structured or legacy string form.
func (v *AnchorValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		v.Anchor = CenterAnchor
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		a, err := ParseLegacyAnchor(s)
		if err != nil {
			a = CenterAnchor
		}
		v.Anchor = a
		return nil
	}

	var raw struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("anchor: %w", err)
	}
	if raw.X == nil || raw.Y == nil {
		v.Anchor = CenterAnchor
		return nil
	}
	v.Anchor = ClampAnchor(Anchor{X: *raw.X, Y: *raw.Y})
	return nil
}
