package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/floorsmith/pkg/editor"
	"github.com/matzehuels/floorsmith/pkg/planfile"
)

// editCommand creates the edit command for interactive plan editing.
func (c *CLI) editCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [plan file]",
		Short: "Edit a plan interactively in the terminal",
		Long: `Edit a plan interactively in the terminal.

The editor shows all spaces with their placement and door state. Spaces
can be locked and unlocked, the layout recomputed, and every change undone
or redone. Unlocking triggers an automatic layout recompute, exactly as it
does through the editing server.

Keys:
  ↑/↓ or k/j   navigate
  l            lock/unlock the selected space
  r            recompute layout
  u / y        undo / redo
  s            save to the input file
  q            quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(args[0])
		},
	}

	return cmd
}

// runEdit loads the plan into an editor and hands control to the TUI.
func (c *CLI) runEdit(input string) error {
	doc, err := planfile.Load(input)
	if err != nil {
		return fmt.Errorf("load plan %s: %w", input, err)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	ed := editor.New(doc.Spaces, doc.WallSettings(), editor.Options{
		GridUnit:  cfg.Layout.GridUnit,
		Tolerance: cfg.Layout.Tolerance,
		Logger:    c.Logger,
	})

	model := newPlanEditorModel(ed, input)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("run editor: %w", err)
	}

	m, ok := final.(planEditorModel)
	if !ok {
		return nil
	}
	if m.dirty {
		printWarning("Unsaved changes discarded")
	}
	if m.savedOnce {
		printSuccess("Saved")
		printFile(input)
	}
	return nil
}
