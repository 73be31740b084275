package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/floorsmith/pkg/planfile"
	"github.com/matzehuels/floorsmith/pkg/store"
)

// sessionsCommand creates the sessions command group for store maintenance.
func (c *CLI) sessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage stored editing sessions",
		Long: `Inspect and manage stored editing sessions.

Sessions are created by the serve command and persist in the configured
store backend. These subcommands operate on the same store the server
uses, so they work against a live server as long as both read the same
configuration.`,
	}

	cmd.AddCommand(c.sessionsListCommand())
	cmd.AddCommand(c.sessionsShowCommand())
	cmd.AddCommand(c.sessionsDeleteCommand())

	return cmd
}

func (c *CLI) sessionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
				summaries, err := st.List(ctx)
				if err != nil {
					return err
				}
				if len(summaries) == 0 {
					printInfo("No sessions")
					return nil
				}
				for _, s := range summaries {
					name := s.Name
					if name == "" {
						name = StyleDim.Render("(unnamed)")
					}
					fmt.Println(StyleHighlight.Render(s.ID) + "  " + StyleValue.Render(name))
					printDetail("%d spaces · updated %s", s.Spaces, s.UpdatedAt.Local().Format(time.RFC822))
				}
				return nil
			})
		},
	}
}

func (c *CLI) sessionsShowCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show [session id]",
		Short: "Show one session, optionally exporting its plan to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
				sess, err := st.Get(ctx, args[0])
				if err != nil {
					return err
				}

				printKeyValue("ID", sess.ID)
				printKeyValue("Name", sess.Name)
				printKeyValue("Created", sess.CreatedAt.Local().Format(time.RFC822))
				printKeyValue("Updated", sess.UpdatedAt.Local().Format(time.RFC822))
				printKeyValue("Spaces", fmt.Sprintf("%d", len(sess.Spaces)))
				for i := range sess.Spaces {
					s := &sess.Spaces[i]
					pos := "unplaced"
					if s.Placed() {
						pos = fmt.Sprintf("(%.0f, %.0f)", s.Position.X, s.Position.Y)
					}
					printDetail("%s · %.0f×%.0f ft · %s · %d doors", s.Key(), s.Size.Width, s.Size.Height, pos, len(s.Doors))
				}

				if output != "" {
					walls := sess.Walls
					doc := &planfile.Document{Spaces: sess.Spaces, Walls: &walls}
					if err := planfile.Save(output, doc); err != nil {
						return fmt.Errorf("write plan %s: %w", output, err)
					}
					printNewline()
					printSuccess("Plan exported")
					printFile(output)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "export the session's plan to a file")

	return cmd
}

func (c *CLI) sessionsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [session id]",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
				if err := st.Delete(ctx, args[0]); err != nil {
					return err
				}
				printSuccess("Deleted %s", args[0])
				return nil
			})
		},
	}
}

// withStore opens the configured store, runs fn, and closes the store.
func (c *CLI) withStore(ctx context.Context, fn func(context.Context, store.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer st.Close(ctx)
	return fn(ctx, st)
}
