package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cutsprite/cutsprite/internal/atlas"
)

// Job is a snapshot of everything an export reads. It shares nothing with
// the live model, so it can be rendered after the engine lock is released.
type Job struct {
	Name    string // group name, or the combined scope name
	Source  Source
	Items   []atlas.Item
	Created time.Time
}

// SheetOutput is a packed sheet and its atlas document.
type SheetOutput struct {
	ImageName string
	PNG       []byte
	Layout    *atlas.Layout
	Atlas     *atlas.Document
}

// ImageName returns the file name of the job's packed sheet.
func (j *Job) ImageName() string {
	return sanitizeName(j.Name) + "_spritesheet.png"
}

// ArchiveName returns the file name of the job's ZIP archive.
func (j *Job) ArchiveName() string {
	return sanitizeName(j.Name) + "_slices.zip"
}

// AtlasName returns the file name of the job's sheet atlas document.
func (j *Job) AtlasName() string {
	return sanitizeName(j.Name) + "_spritesheet.json"
}

// Individual renders one PNG per item, named after the frame.
func (j *Job) Individual(ctx context.Context) ([]File, error) {
	if err := j.check(); err != nil {
		return nil, err
	}
	files := make([]File, 0, len(j.Items))
	for _, it := range j.Items {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("export %s: %w", j.Name, err)
		}
		data, err := EncodePNG(Crop(j.Source, it.Source))
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", it.Name, err)
		}
		files = append(files, File{Name: sanitizeName(it.Name) + ".png", Data: data})
	}
	return files, nil
}

// IndividualAtlas renders the per-slice PNGs together with an atlas
// document that names no sheet image.
func (j *Job) IndividualAtlas(ctx context.Context) ([]File, *atlas.Document, error) {
	layout, err := j.pack()
	if err != nil {
		return nil, nil, err
	}
	files, err := j.Individual(ctx)
	if err != nil {
		return nil, nil, err
	}
	return files, layout.Document(atlas.DocumentOptions{Mode: atlas.ModeIndividual}), nil
}

// Archive renders every item and compresses the PNGs into one ZIP. A
// single-group job puts its slices in a folder named after the group;
// a combined job uses one folder per group.
func (j *Job) Archive(ctx context.Context) ([]byte, error) {
	if err := j.check(); err != nil {
		return nil, err
	}

	single := true
	for _, it := range j.Items[1:] {
		if it.Group != j.Items[0].Group {
			single = false
			break
		}
	}

	// All pixel work happens before compression starts.
	files := make([]File, 0, len(j.Items))
	for _, it := range j.Items {
		data, err := EncodePNG(Crop(j.Source, it.Source))
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", it.Name, err)
		}
		name := fmt.Sprintf("slice_%d.png", it.Index+1)
		if !single {
			name = sanitizeName(it.Group) + "/" + name
		}
		files = append(files, File{Name: name, Data: data})
	}

	folder := ""
	if single {
		folder = j.Items[0].Group
	}
	return Archive(ctx, folder, files, j.Created)
}

// SpriteSheet packs the items into one PNG and describes it.
func (j *Job) SpriteSheet(ctx context.Context) (*SheetOutput, error) {
	layout, err := j.pack()
	if err != nil {
		return nil, err
	}
	if err := layout.Check(); err != nil {
		return nil, fmt.Errorf("export %s: %w", j.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("export %s: %w", j.Name, err)
	}

	data, err := EncodePNG(Sheet(j.Source, layout))
	if err != nil {
		return nil, fmt.Errorf("export %s sheet: %w", j.Name, err)
	}

	name := j.ImageName()
	return &SheetOutput{
		ImageName: name,
		PNG:       data,
		Layout:    layout,
		Atlas:     layout.Document(atlas.DocumentOptions{Mode: atlas.ModeSheet, Image: name}),
	}, nil
}

// check rejects jobs with nothing to render or a frame too large to crop.
func (j *Job) check() error {
	if len(j.Items) == 0 {
		return ErrNothingToExport
	}
	for _, it := range j.Items {
		if err := it.Check(); err != nil {
			return fmt.Errorf("export %s: %w", j.Name, err)
		}
	}
	return nil
}

func (j *Job) pack() (*atlas.Layout, error) {
	layout, err := atlas.Pack(j.Items)
	switch {
	case errors.Is(err, atlas.ErrEmpty):
		return nil, ErrNothingToExport
	case err != nil:
		return nil, fmt.Errorf("export %s: %w", j.Name, err)
	}
	return layout, nil
}
