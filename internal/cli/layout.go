package cli

import (
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/floorsmith/pkg/layout"
	"github.com/matzehuels/floorsmith/pkg/plan/doors"
	"github.com/matzehuels/floorsmith/pkg/planfile"
)

// layoutCommand creates the layout command for computing room placement.
func (c *CLI) layoutCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "layout [plan file]",
		Short: "Synchronize doors and compute room placement",
		Long: `Synchronize doors and compute room placement.

The layout command first runs the reciprocal-door synchronization pass
(creating, moving, or dropping mirror doors as needed), then assigns a
position to every unlocked space by breadth-first expansion from a seed
space. Locked spaces keep their coordinates and anchor the frame.

Positions snap to the configured grid unit; adjacent spaces are separated
by the combined wall thickness of both rooms. The updated plan is written
back to the input file unless --output is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")

	return cmd
}

// runLayout loads the plan, synchronizes doors, computes placement, and
// writes the result.
func (c *CLI) runLayout(input, output string) error {
	doc, err := planfile.Load(input)
	if err != nil {
		return fmt.Errorf("load plan %s: %w", input, err)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	spaces := doc.Spaces

	warnings := doors.Synchronize(spaces, doors.Options{
		Tolerance: cfg.Layout.Tolerance,
		Logger:    c.Logger,
	})
	for _, w := range warnings {
		printWarning("%s", w.String())
	}

	placed, err := layout.Compute(spaces, layout.Options{
		GridUnit: cfg.Layout.GridUnit,
		Walls:    doc.WallSettings(),
		Logger:   c.Logger,
	})
	if err != nil {
		var infeasible *layout.InfeasibleError
		if stderrors.As(err, &infeasible) {
			printError("Layout infeasible")
			for _, item := range infeasible.Items() {
				printDetail("%s", item)
			}
		}
		return fmt.Errorf("compute layout: %w", err)
	}
	prog.done(fmt.Sprintf("Placed %d spaces", len(placed)))

	outputPath := output
	if outputPath == "" {
		outputPath = input
	}
	doc.Spaces = placed
	if err := planfile.Save(outputPath, doc); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(placed), countDoors(placed), 0)
	printNewline()
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}
