package engine

import (
	"fmt"
	"image"
	"time"

	"github.com/cutsprite/cutsprite/internal/asset"
	"github.com/cutsprite/cutsprite/internal/atlas"
	"github.com/cutsprite/cutsprite/internal/document"
	"github.com/cutsprite/cutsprite/internal/export"
	"github.com/cutsprite/cutsprite/internal/geometry"
)

// backgroundName is the image name used for backgrounds restored from a
// project file.
const backgroundName = "background.png"

// CombinedExportName names exports that span every group.
const CombinedExportName = "all_groups"

// LoadProject replaces the session with a saved project. The file is fully
// validated first; on any error the session is left untouched.
func (e *Engine) LoadProject(data []byte) error {
	p, err := document.DecodeProject(data)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	return e.loadProjectFile(p)
}

// LoadSample replaces the session with the built-in sample project.
func (e *Engine) LoadSample() error {
	return e.loadProjectFile(document.NewSampleProject())
}

func (e *Engine) loadProjectFile(p *document.ProjectFile) error {
	var img image.Image
	if bg := p.BackgroundImage; bg != nil && bg.HasImage && bg.ImageData != nil {
		var err error
		img, err = asset.DecodeDataURL(*bg.ImageData)
		if err != nil {
			return fmt.Errorf("load project: %w: background image: %v", document.ErrInvalidFormat, err)
		}
	}

	current := ""
	if p.CurrentGroup != nil {
		current = p.CurrentGroup.Name
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := geometry.FromRecords(e.model.Canvas(), p.Groups, current)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}

	e.model = m
	e.resetGesture()
	e.seq.Stop()
	e.image, e.imageName = nil, ""
	e.transform = document.IdentityTransform()
	if img != nil {
		e.image, e.imageName = img, backgroundName
		e.transform = p.BackgroundImage.Transform()
	}

	groups, slices := m.Counts()
	e.log.Info("project loaded", "groups", groups, "slices", slices, "image", img != nil)
	return nil
}

// ProjectFile snapshots the session as a project document. The background
// image is embedded as a PNG data URL.
func (e *Engine) ProjectFile() (*document.ProjectFile, error) {
	e.mu.Lock()
	p := &document.ProjectFile{
		Version:      document.FormatVersion,
		Groups:       e.model.Records(),
		CurrentGroup: &document.CurrentGroupRef{Name: e.model.CurrentGroup().Name},
		BackgroundImage: &document.BackgroundRecord{
			Scale:   e.transform.Scale,
			OffsetX: e.transform.OffsetX,
			OffsetY: e.transform.OffsetY,
		},
	}
	img := e.image
	e.mu.Unlock()

	if img != nil {
		url, err := asset.EncodeDataURL(img)
		if err != nil {
			return nil, fmt.Errorf("save project: %w", err)
		}
		b := img.Bounds()
		p.BackgroundImage.HasImage = true
		p.BackgroundImage.ImageData = &url
		p.BackgroundImage.Width, p.BackgroundImage.Height = b.Dx(), b.Dy()
	}
	return p, nil
}

// SaveProject encodes the session as a project file stamped with now.
func (e *Engine) SaveProject(now time.Time) ([]byte, error) {
	p, err := e.ProjectFile()
	if err != nil {
		return nil, err
	}
	return document.EncodeProject(p, now)
}

// ImportGroups appends the groups of a group-data file. Nothing is added if
// the file is invalid.
func (e *Engine) ImportGroups(data []byte) error {
	groups, err := document.DecodeGroups(data)
	if err != nil {
		return fmt.Errorf("import groups: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.model.ImportRecords(groups); err != nil {
		return err
	}
	e.log.Info("groups imported", "groups", len(groups))
	return nil
}

// ExportGroups encodes every group as a group-data file.
func (e *Engine) ExportGroups() ([]byte, error) {
	e.mu.Lock()
	groups := e.model.Records()
	e.mu.Unlock()
	return document.EncodeGroups(groups)
}

// ExportJob snapshots the current group, or every group when all is set,
// for rendering outside the lock.
func (e *Engine) ExportJob(all bool) (*export.Job, error) {
	e.mu.Lock()
	groups := []*geometry.Group{e.model.CurrentGroup()}
	name := groups[0].Name
	if all {
		groups = e.model.Groups()
		name = CombinedExportName
	}
	job := &export.Job{
		Name:    name,
		Source:  e.source(),
		Items:   atlas.Items(e.model, groups...),
		Created: time.Now(),
	}
	e.mu.Unlock()

	if len(job.Items) == 0 {
		return nil, fmt.Errorf("export %s: %w", name, export.ErrNothingToExport)
	}
	return job, nil
}

// ExportGroupJob snapshots the group with the given name.
func (e *Engine) ExportGroupJob(name string) (*export.Job, error) {
	e.mu.Lock()
	g := e.model.GroupByName(name)
	if g == nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("export %q: %w", name, geometry.ErrUnknownGroup)
	}
	job := &export.Job{
		Name:    g.Name,
		Source:  e.source(),
		Items:   atlas.Items(e.model, g),
		Created: time.Now(),
	}
	e.mu.Unlock()

	if len(job.Items) == 0 {
		return nil, fmt.Errorf("export %s: %w", name, export.ErrNothingToExport)
	}
	return job, nil
}
