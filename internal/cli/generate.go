package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/floorsmith/pkg/generate"
	"github.com/matzehuels/floorsmith/pkg/planfile"
)

// generateCommand creates the generate command for running plan scripts.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		output    string
		runLayout bool
	)

	cmd := &cobra.Command{
		Use:   "generate [script.tengo]",
		Short: "Build a plan from a Tengo generator script",
		Long: `Build a plan from a Tengo generator script.

The script drives plan construction through a small builder API:

  add_space({name: "Great Hall", size: [40, 30]})
  add_door("Great Hall", {wall: "east", position: 15, width: 4, leads_to: "Armory"})
  set_walls({thickness: 1.5, material: "granite"})
  lock("Great Hall", 10, 10)
  set_access("Entrance")

Ordinary Tengo control flow (loops, functions, modules) is available, so
procedural generators can emit whole wings in a few lines. Every call is
validated as it lands; the first invalid call aborts the run.

With --layout the generated plan is synchronized and placed before it is
written, producing a ready-to-render file in one step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(args[0], output, runLayout)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output plan file (default: <script>.json)")
	cmd.Flags().BoolVar(&runLayout, "layout", false, "also synchronize doors and compute placement")

	return cmd
}

// runGenerate executes the script and writes the resulting plan.
func (c *CLI) runGenerate(script, output string, runLayout bool) error {
	prog := newProgress(c.Logger)

	doc, err := generate.RunFile(script)
	if err != nil {
		return fmt.Errorf("run script %s: %w", script, err)
	}
	prog.done(fmt.Sprintf("Generated %d spaces", len(doc.Spaces)))

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(script, filepath.Ext(script))
		outputPath = base + ".json"
	}
	if err := planfile.Save(outputPath, doc); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	if runLayout {
		return c.runLayout(outputPath, "")
	}

	printSuccess("Plan generated")
	printFile(outputPath)
	printStats(len(doc.Spaces), countDoors(doc.Spaces), 0)
	printNewline()
	printNextStep("Place rooms", appName+" layout "+outputPath)

	return nil
}
