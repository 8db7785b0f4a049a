package atlas

import (
	"fmt"

	"github.com/cutsprite/cutsprite/internal/document"
	"github.com/cutsprite/cutsprite/internal/geometry"
)

// Items lists the slices of groups in group order, then slice order, with
// their export names and effective anchors.
//
// Group names need not be unique in the model, but frame names, animation
// keys and archive folders must be. A repeated name keeps its first use and
// later groups become "Name (2)", "Name (3)" and so on, skipping any name
// another group already has.
func Items(m *geometry.Model, groups ...*geometry.Group) []Item {
	taken := make(map[string]bool, len(groups))
	for _, g := range groups {
		taken[g.Name] = true
	}
	used := make(map[string]bool, len(groups))

	var out []Item
	for _, g := range groups {
		name := g.Name
		if used[name] {
			for n := 2; ; n++ {
				name = fmt.Sprintf("%s (%d)", g.Name, n)
				if !taken[name] && !used[name] {
					break
				}
			}
		}
		used[name] = true

		for i, s := range g.Slices() {
			out = append(out, Item{
				Name:   document.SliceName(name, i),
				Group:  name,
				Index:  i,
				Source: s.Rect(),
				Anchor: m.EffectiveAnchor(s),
			})
		}
	}
	return out
}
