package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/cutsprite/cutsprite/internal/asset"
	"github.com/cutsprite/cutsprite/internal/document"
	"github.com/cutsprite/cutsprite/internal/engine"
)

var errNoProject = errors.New("--project is required")

// loadEngine reads a project file into a new engine. When imagePath is set
// the image replaces any embedded background and keeps the project's saved
// transform.
func loadEngine(logger *log.Logger, projectPath, imagePath string) (*engine.Engine, error) {
	if projectPath == "" {
		return nil, errNoProject
	}
	data, err := os.ReadFile(projectPath)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	p, err := document.DecodeProject(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", projectPath, err)
	}

	eng := engine.New(engine.WithLogger(engineLogger(logger)))
	if err := eng.LoadProject(data); err != nil {
		eng.Close()
		return nil, fmt.Errorf("%s: %w", projectPath, err)
	}

	if imagePath != "" {
		f, err := os.Open(imagePath)
		if err != nil {
			eng.Close()
			return nil, fmt.Errorf("open image: %w", err)
		}
		defer f.Close()

		img, format, err := asset.Decode(f)
		if err != nil {
			eng.Close()
			return nil, fmt.Errorf("%s: %w", imagePath, err)
		}
		eng.PlaceImage(img, filepath.Base(imagePath), p.BackgroundImage.Transform())
		b := img.Bounds()
		logger.Debug("image attached", "path", imagePath, "format", format, "width", b.Dx(), "height", b.Dy())
	}
	return eng, nil
}
