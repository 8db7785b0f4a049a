package document

// NewSampleProject returns a small project with two animation groups laid
// out on a regular grid. It is used by playground sessions and tests.
func NewSampleProject() *ProjectFile {
	walk := GroupRecord{
		Name:          "Walk",
		Color:         "#ff6b6b",
		DefaultAnchor: AnchorValue{Anchor{X: 0.5, Y: 1}},
	}
	for i := 0; i < 6; i++ {
		walk.Slices = append(walk.Slices, SliceRecord{
			X:      float64(i * 64),
			Y:      0,
			Width:  64,
			Height: 64,
		})
	}

	idle := GroupRecord{
		Name:          "Idle",
		Color:         "#4ecdc4",
		DefaultAnchor: AnchorValue{CenterAnchor},
	}
	for i := 0; i < 4; i++ {
		s := SliceRecord{
			X:      float64(i * 64),
			Y:      64,
			Width:  64,
			Height: 64,
		}
		if i == 0 {
			// First idle frame pins to the feet like the walk cycle.
			s.Anchor = &AnchorValue{Anchor{X: 0.5, Y: 1}}
		}
		idle.Slices = append(idle.Slices, s)
	}

	return &ProjectFile{
		Version:      FormatVersion,
		Groups:       []GroupRecord{walk, idle},
		CurrentGroup: &CurrentGroupRef{Name: walk.Name},
		BackgroundImage: &BackgroundRecord{
			Scale: 1,
		},
	}
}

// NewEmptyProject returns the project a fresh session starts with: one
// empty group.
func NewEmptyProject() *ProjectFile {
	return &ProjectFile{
		Version: FormatVersion,
		Groups: []GroupRecord{{
			Name:          "Group 1",
			Color:         "#ff6b6b",
			DefaultAnchor: AnchorValue{CenterAnchor},
			Slices:        []SliceRecord{},
		}},
		CurrentGroup: &CurrentGroupRef{Name: "Group 1"},
	}
}
