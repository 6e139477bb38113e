package cli

import (
	"github.com/spf13/cobra"

	"github.com/permitscope/permitscope/internal/server"
	"github.com/permitscope/permitscope/pkg/pipeline"
	"github.com/permitscope/permitscope/pkg/store"
)

// serveCommand creates the "serve" command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long:  `Serve the access graph API: directory users, graph exports in json/dot/svg/png, and saved-view CRUD. Saved views persist to MongoDB when store.mongo_uri is configured, otherwise in memory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			backend, err := c.newCache(ctx, noCache)
			if err != nil {
				return err
			}
			defer backend.Close()
			runner := pipeline.NewRunner(c.newClient(), backend, nil, c.Logger)

			views, err := c.newStore(cmd)
			if err != nil {
				return err
			}
			defer views.Close(ctx)

			cfg := c.cfg.Server
			if addr != "" {
				cfg.Addr = addr
			}

			srv := server.New(runner, views, c.Logger)
			return srv.Run(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the cache backend")
	return cmd
}

// newStore creates the saved-view store from config: MongoDB when a URI is
// configured, in-memory otherwise.
func (c *CLI) newStore(cmd *cobra.Command) (store.Store, error) {
	if c.cfg.Store.MongoURI == "" {
		c.Logger.Debug("using in-memory view store")
		return store.NewMemoryStore(), nil
	}
	c.Logger.Debug("connecting to mongodb", "database", c.cfg.Store.Database)
	return store.NewMongoStore(cmd.Context(), c.cfg.Store.MongoURI, c.cfg.Store.Database)
}
