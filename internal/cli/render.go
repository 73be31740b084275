package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/floorsmith/pkg/planfile"
	"github.com/matzehuels/floorsmith/pkg/render"
)

// renderCommand creates the render command for producing plan images.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output   string
		view     string
		format   string
		scale    float64
		noLabels bool
		detailed bool
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "render [plan file]",
		Short: "Render a plan as a floor-plan image or connectivity graph",
		Long: `Render a plan as a floor-plan image or connectivity graph.

Two views are available:

  plan   top-down floor plan with walls, doors, and labels (SVG)
  graph  space connectivity as an undirected graph (SVG, PNG, or DOT)

With --watch the command keeps running and re-renders whenever the input
file changes, which pairs well with an SVG viewer that auto-reloads.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := renderOptions{
				view:     view,
				format:   format,
				scale:    scale,
				noLabels: noLabels,
				detailed: detailed,
			}
			if watch {
				return c.runRenderWatch(cmd.Context(), args[0], output, opts)
			}
			return c.runRender(args[0], output, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.<format>)")
	cmd.Flags().StringVar(&view, "view", "plan", "view: plan (default), graph")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg (default), png, dot (graph only)")
	cmd.Flags().Float64Var(&scale, "scale", render.DefaultSVGOptions().Scale, "pixels per foot (plan view)")
	cmd.Flags().BoolVar(&noLabels, "no-labels", false, "omit space labels (plan view)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include purpose and size in graph nodes")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-render on input file changes")

	return cmd
}

// renderOptions collects the per-invocation render flags.
type renderOptions struct {
	view     string
	format   string
	scale    float64
	noLabels bool
	detailed bool
}

// runRender renders the plan once and writes the output file.
func (c *CLI) runRender(input, output string, opts renderOptions) error {
	doc, err := planfile.Load(input)
	if err != nil {
		return fmt.Errorf("load plan %s: %w", input, err)
	}

	data, ext, err := renderDocument(doc, opts)
	if err != nil {
		return err
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + "." + ext
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Rendered %s view", opts.view)
	printFile(outputPath)

	return nil
}

// runRenderWatch renders once, then re-renders on every change to input
// until the context is cancelled.
func (c *CLI) runRenderWatch(ctx context.Context, input, output string, opts renderOptions) error {
	if err := c.runRender(input, output, opts); err != nil {
		return err
	}

	watcher, err := render.NewWatcher(input)
	if err != nil {
		return fmt.Errorf("watch %s: %w", input, err)
	}
	defer watcher.Close()

	printInfo("Watching %s (ctrl-c to stop)", input)

	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			c.Logger.Debug("plan changed", "path", path)
			if err := c.runRender(input, output, opts); err != nil {
				// Mid-save reads produce transient parse errors; keep
				// watching instead of exiting.
				printWarning("%v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printWarning("watch: %v", err)
		}
	}
}

// renderDocument dispatches on view and format, returning the rendered
// bytes and the canonical file extension.
func renderDocument(doc *planfile.Document, opts renderOptions) ([]byte, string, error) {
	switch opts.view {
	case "plan":
		if opts.format != "svg" {
			return nil, "", fmt.Errorf("plan view supports only svg, got %q", opts.format)
		}
		svgOpts := render.DefaultSVGOptions()
		if opts.scale > 0 {
			svgOpts.Scale = opts.scale
		}
		svgOpts.Labels = !opts.noLabels
		return render.SVG(doc.Spaces, doc.WallSettings(), svgOpts), "svg", nil

	case "graph":
		dot := render.ToDOT(doc.Spaces, render.DOTOptions{Detailed: opts.detailed})
		switch opts.format {
		case "dot":
			return []byte(dot), "dot", nil
		case "svg":
			data, err := render.RenderDOTSVG(dot)
			return data, "svg", err
		case "png":
			data, err := render.RenderDOTPNG(dot)
			return data, "png", err
		default:
			return nil, "", fmt.Errorf("unknown format %q (want svg, png, or dot)", opts.format)
		}

	default:
		return nil, "", fmt.Errorf("unknown view %q (want plan or graph)", opts.view)
	}
}
