package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cutsprite/cutsprite/internal/engine"
	"github.com/cutsprite/cutsprite/internal/export"
	"github.com/cutsprite/cutsprite/internal/typeid"
)

const (
	modeSheet      = "sheet"      // packed PNG
	modeAtlas      = "atlas"      // packed PNG plus its atlas JSON
	modeZip        = "zip"        // one ZIP of per-slice PNGs
	modeIndividual = "individual" // loose per-slice PNGs plus an atlas JSON

	individualAtlasName = "atlas.json"
)

var errNoImage = errors.New("project has no background image; pass --image")

// exportOpts holds the flags of the export command.
type exportOpts struct {
	project string
	image   string
	mode    string
	group   string
	all     bool
	out     string
}

func newExportCmd() *cobra.Command {
	opts := exportOpts{mode: modeSheet, out: "."}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the slices of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateMode(opts.mode); err != nil {
				return err
			}
			if opts.all && opts.group != "" {
				return errors.New("--group and --all cannot be combined")
			}
			return runExport(cmd.Context(), cmd.OutOrStdout(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.project, "project", "p", "", "project file (required)")
	cmd.Flags().StringVar(&opts.image, "image", "", "sprite sheet image; overrides the embedded background")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", opts.mode, "export mode: sheet (default), atlas, zip, individual")
	cmd.Flags().StringVarP(&opts.group, "group", "g", "", "export the named group instead of the current one")
	cmd.Flags().BoolVar(&opts.all, "all", false, "export every group")
	cmd.Flags().StringVarP(&opts.out, "out", "o", opts.out, "output directory")
	cmd.MarkFlagRequired("project")

	return cmd
}

func validateMode(mode string) error {
	switch mode {
	case modeSheet, modeAtlas, modeZip, modeIndividual:
		return nil
	}
	return fmt.Errorf("invalid mode: %s (must be 'sheet', 'atlas', 'zip', or 'individual')", mode)
}

func runExport(ctx context.Context, w io.Writer, opts *exportOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	eng, err := loadEngine(logger, opts.project, opts.image)
	if err != nil {
		return err
	}
	defer eng.Close()

	if !eng.Frame().Image.HasImage {
		return errNoImage
	}

	job, err := exportJob(eng, opts)
	if err != nil {
		return err
	}
	exportID := typeid.NewExportID()
	logger.Debug("export started", "id", exportID, "mode", opts.mode, "scope", job.Name, "slices", len(job.Items))

	files, err := renderExport(ctx, job, opts.mode)
	if err != nil {
		return err
	}
	paths, err := writeFiles(opts.out, files)
	if err != nil {
		return err
	}

	logger.Debug("export complete", "id", exportID)
	prog.done(fmt.Sprintf("Rendered %d slice(s) from %s", len(job.Items), job.Name))

	printSuccess(w, "Exported %d file(s)", len(paths))
	for _, p := range paths {
		printFile(w, p)
	}
	return nil
}

func exportJob(eng *engine.Engine, opts *exportOpts) (*export.Job, error) {
	if opts.group != "" {
		return eng.ExportGroupJob(opts.group)
	}
	return eng.ExportJob(opts.all)
}

// renderExport produces the files for one export mode.
func renderExport(ctx context.Context, job *export.Job, mode string) ([]export.File, error) {
	switch mode {
	case modeSheet, modeAtlas:
		out, err := job.SpriteSheet(ctx)
		if err != nil {
			return nil, err
		}
		files := []export.File{{Name: out.ImageName, Data: out.PNG}}
		if mode == modeAtlas {
			data, err := out.Atlas.Marshal()
			if err != nil {
				return nil, fmt.Errorf("encode atlas: %w", err)
			}
			files = append(files, export.File{Name: job.AtlasName(), Data: data})
		}
		return files, nil

	case modeZip:
		data, err := job.Archive(ctx)
		if err != nil {
			return nil, err
		}
		return []export.File{{Name: job.ArchiveName(), Data: data}}, nil

	case modeIndividual:
		files, doc, err := job.IndividualAtlas(ctx)
		if err != nil {
			return nil, err
		}
		data, err := doc.Marshal()
		if err != nil {
			return nil, fmt.Errorf("encode atlas: %w", err)
		}
		return append(files, export.File{Name: individualAtlasName, Data: data}), nil
	}
	return nil, validateMode(mode)
}

// writeFiles writes files into dir and returns their paths.
func writeFiles(dir string, files []export.File) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
