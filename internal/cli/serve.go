package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/floorsmith/internal/server"
	"github.com/matzehuels/floorsmith/pkg/store"
)

// serveCommand creates the serve command for running the editing server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		backend string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the floor-plan editing server",
		Long: `Run the floor-plan editing server.

The server exposes editing sessions over HTTP: create a session from a
plan, apply editing commands against it, fetch the validated state, render
it, and save it back to the session store. Sessions persist in the
configured backend (memory, file, redis, mongo, or postgres).

Commands against one session are serialized; concurrent clients on
different sessions do not block each other.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, addr, backend)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8420)")
	cmd.Flags().StringVar(&backend, "store", "", "session store backend: memory, file, redis, mongo, postgres (default from config)")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, addr, backend string) error {
	ctx := cmd.Context()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if backend != "" {
		cfg.Store.Backend = backend
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer st.Close(ctx)

	srv := server.New(server.Options{
		Store:  st,
		Config: cfg,
		Logger: c.Logger,
	})

	printInfo("Serving on %s (%s store, ctrl-c to stop)", addr, cfg.Store.Backend)
	return srv.Run(ctx, addr)
}
