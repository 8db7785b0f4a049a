package document

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEncodeDecodeProject(t *testing.T) {
	p := NewSampleProject()
	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	data, err := EncodeProject(p, now)
	if err != nil {
		t.Fatalf("EncodeProject: %v", err)
	}
	if !strings.Contains(string(data), `"timestamp": "2024-03-01T12:30:00.000Z"`) {
		t.Errorf("timestamp missing from %s", data)
	}
	if !strings.Contains(string(data), `"default_anchor"`) {
		t.Errorf("default_anchor key missing")
	}

	back, err := DecodeProject(data)
	if err != nil {
		t.Fatalf("DecodeProject: %v", err)
	}

	if back.Version != FormatVersion {
		t.Errorf("version = %q", back.Version)
	}
	if len(back.Groups) != len(p.Groups) {
		t.Fatalf("groups = %d, want %d", len(back.Groups), len(p.Groups))
	}
	for i, g := range p.Groups {
		bg := back.Groups[i]
		if bg.Name != g.Name || bg.Color != g.Color || bg.DefaultAnchor != g.DefaultAnchor {
			t.Errorf("group %d = %+v, want %+v", i, bg, g)
		}
		if len(bg.Slices) != len(g.Slices) {
			t.Fatalf("group %d slices = %d, want %d", i, len(bg.Slices), len(g.Slices))
		}
		for j, s := range g.Slices {
			bs := bg.Slices[j]
			if bs.Rect() != s.Rect() {
				t.Errorf("slice %d/%d geometry = %+v, want %+v", i, j, bs.Rect(), s.Rect())
			}
			if (bs.Anchor == nil) != (s.Anchor == nil) {
				t.Errorf("slice %d/%d override presence changed", i, j)
			} else if s.Anchor != nil && bs.Anchor.Anchor != s.Anchor.Anchor {
				t.Errorf("slice %d/%d anchor = %+v", i, j, bs.Anchor.Anchor)
			}
		}
	}
	if back.CurrentGroup == nil || back.CurrentGroup.Name != "Walk" {
		t.Errorf("current group = %+v", back.CurrentGroup)
	}
}

func TestDecodeProjectRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", `{`},
		{"missing version", `{"groups":[{"name":"A","slices":[]}]}`},
		{"empty version", `{"version":"","groups":[{"name":"A","slices":[]}]}`},
		{"missing groups", `{"version":"1.0"}`},
		{"null groups", `{"version":"1.0","groups":null}`},
		{"empty groups", `{"version":"1.0","groups":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeProject([]byte(tt.json))
			if !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("err = %v, want ErrInvalidFormat", err)
			}
		})
	}
}

func TestDecodeProjectLegacyAnchors(t *testing.T) {
	doc := `{
		"version": "1.0",
		"groups": [{
			"name": "Walk",
			"color": "#ff6b6b",
			"default_anchor": "0.25, 0.75",
			"slices": [
				{"x": 0, "y": 0, "width": 10, "height": 2, "anchor": "0, 1"},
				{"x": 10, "y": 0, "width": 10, "height": 10},
				{"x": 0, "y": 0, "width": 1e10, "height": 10}
			]
		}]
	}`

	p, err := DecodeProject([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeProject: %v", err)
	}

	g := p.Groups[0]
	if g.DefaultAnchor.Anchor != (Anchor{0.25, 0.75}) {
		t.Errorf("default anchor = %+v", g.DefaultAnchor.Anchor)
	}
	if a := g.Slices[0].Anchor; a == nil || a.Anchor != (Anchor{0, 1}) {
		t.Errorf("slice anchor = %+v", a)
	}
	if g.Slices[0].Height != MinSliceSize {
		t.Errorf("sub-minimum height not floored: %v", g.Slices[0].Height)
	}
	if g.Slices[1].Anchor != nil {
		t.Errorf("slice without anchor should inherit")
	}
	if g.Slices[2].Width != MaxSliceSize {
		t.Errorf("oversized width not capped: %v", g.Slices[2].Width)
	}
}

func TestDecodeGroups(t *testing.T) {
	groups, err := DecodeGroups([]byte(`{"groups":[{"name":"","color":"#fff","default_anchor":{"x":0,"y":0},"slices":[]}]}`))
	if err != nil {
		t.Fatalf("DecodeGroups: %v", err)
	}
	if groups[0].Name != "Group 1" {
		t.Errorf("unnamed group = %q, want Group 1", groups[0].Name)
	}

	if _, err := DecodeGroups([]byte(`{}`)); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("missing groups: err = %v", err)
	}
}

func TestBackgroundTransformDefaults(t *testing.T) {
	var b *BackgroundRecord
	if got := b.Transform(); got != IdentityTransform() {
		t.Errorf("nil record transform = %+v", got)
	}
	b = &BackgroundRecord{Scale: 0, OffsetX: 3}
	if got := b.Transform(); got.Scale != 1 || got.OffsetX != 3 {
		t.Errorf("zero scale transform = %+v", got)
	}
}
