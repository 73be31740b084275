package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/floorsmith/pkg/plan"
	"github.com/matzehuels/floorsmith/pkg/planfile"
)

// validateCommand creates the validate command for checking door geometry.
func (c *CLI) validateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [plan file]",
		Short: "Check all doors of a plan against the geometry rules",
		Long: `Check all doors of a plan against the geometry rules.

Every door must sit on a valid wall, fit inside its wall with positive
width, not overlap other doors on the same wall, and reference an existing
space (or the pending/outside sentinels). Duplicate space identities are
reported as plan-level issues.

The command exits non-zero when any issue is found, so it can gate CI
pipelines and content imports.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(args[0])
		},
	}

	return cmd
}

func (c *CLI) runValidate(input string) error {
	doc, err := planfile.Load(input)
	if err != nil {
		return fmt.Errorf("load plan %s: %w", input, err)
	}

	issues := plan.ValidateAll(doc.Spaces)
	if len(issues) > 0 {
		printError("Plan has issues")
		printIssues(issues)
		printStats(len(doc.Spaces), countDoors(doc.Spaces), len(issues))
		return fmt.Errorf("%d validation issue(s)", len(issues))
	}

	printSuccess("Plan is valid")
	printStats(len(doc.Spaces), countDoors(doc.Spaces), 0)
	return nil
}
