package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cutsprite/cutsprite/internal/engine"
)

type inspectOpts struct {
	project string
	image   string
	slices  bool
	json    bool
}

func newInspectCmd() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the groups and slices of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), cmd.OutOrStdout(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.project, "project", "p", "", "project file (required)")
	cmd.Flags().StringVar(&opts.image, "image", "", "sprite sheet image; overrides the embedded background")
	cmd.Flags().BoolVar(&opts.slices, "slices", false, "list every slice with its anchor and pivot")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the groups and slices as JSON")
	cmd.MarkFlagRequired("project")

	return cmd
}

// inspection is the JSON form of inspect's output.
type inspection struct {
	Image  engine.ImageView   `json:"image"`
	Groups []engine.GroupView `json:"groups"`
	Slices []engine.SliceView `json:"slices,omitempty"`
}

func runInspect(ctx context.Context, w io.Writer, opts *inspectOpts) error {
	eng, err := loadEngine(loggerFromContext(ctx), opts.project, opts.image)
	if err != nil {
		return err
	}
	defer eng.Close()

	out := inspection{Image: eng.Frame().Image, Groups: eng.Groups()}
	if opts.slices {
		out.Slices = eng.Slices()
	}

	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return printInspection(w, &out)
}

func printInspection(w io.Writer, in *inspection) error {
	desc := "none"
	if in.Image.HasImage {
		desc = fmt.Sprintf("%s %dx%d scale %.2f offset %.0f,%.0f",
			in.Image.Name, in.Image.Width, in.Image.Height,
			in.Image.Transform.Scale, in.Image.Transform.OffsetX, in.Image.Transform.OffsetY)
	}
	printKeyValue(w, "image", desc)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tNAME\tCOLOR\tANCHOR\tSLICES")
	for _, g := range in.Groups {
		name := g.Name
		if g.Current {
			name += " *"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", g.Index, name, g.Color, g.Preset, g.Slices)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(in.Slices) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(tw, "ID\tGROUP\tFRAME\tRECT\tANCHOR\tPIVOT")
	for _, s := range in.Slices {
		anchor := s.Preset
		if s.Inherits {
			anchor += " (group)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.0f,%.0f %.0fx%.0f\t%s\t%d,%d\n",
			s.ID, s.GroupName, s.Index+1, s.X, s.Y, s.Width, s.Height, anchor, s.Pivot.X, s.Pivot.Y)
	}
	return tw.Flush()
}
