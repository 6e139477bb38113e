package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/permitscope/permitscope/pkg/pipeline"
	"github.com/permitscope/permitscope/pkg/store"
)

// viewsCommand creates the "views" command group for saved views.
func (c *CLI) viewsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Manage saved views",
		Long:  `Manage saved views: named bookmarks of a selection plus its expanded nodes, search query, and layout direction. Views are stored under ~/.config/permitscope/views/, or in MongoDB when store.mongo_uri is configured.`,
	}
	cmd.AddCommand(c.viewsListCommand())
	cmd.AddCommand(c.viewsSaveCommand())
	cmd.AddCommand(c.viewsDeleteCommand())
	cmd.AddCommand(c.viewsExportCommand())
	return cmd
}

// viewStore opens the configured view store: MongoDB when a URI is set,
// files otherwise.
func (c *CLI) viewStore(cmd *cobra.Command) (store.Store, error) {
	if c.cfg.Store.MongoURI != "" {
		return store.NewMongoStore(cmd.Context(), c.cfg.Store.MongoURI, c.cfg.Store.Database)
	}
	return store.NewFileStore("")
}

func (c *CLI) viewsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved views",
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := c.viewStore(cmd)
			if err != nil {
				return err
			}
			defer views.Close(cmd.Context())

			all, err := views.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(all) == 0 {
				printInfo("No saved views")
				return nil
			}

			rows := make([][]string, 0, len(all))
			for _, v := range all {
				target := "all pages"
				switch {
				case v.Selection == pipeline.SelectionUser:
					target = "user " + v.UserID
				case v.PageID != "":
					target = "page " + v.PageID
				}
				rows = append(rows, []string{v.ID, v.Name, target, v.UpdatedAt.Format("2006-01-02 15:04")})
			}

			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(StyleDim).
				Headers("ID", "Name", "Target", "Updated").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == -1 {
						return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
					}
					return StyleValue
				})
			fmt.Println(t.Render())
			return nil
		},
	}
}

func (c *CLI) viewsSaveCommand() *cobra.Command {
	var (
		userID    string
		pageID    string
		query     string
		direction string
		expanded  []string
	)

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save a view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := c.viewStore(cmd)
			if err != nil {
				return err
			}
			defer views.Close(cmd.Context())

			selection := pipeline.SelectionPages
			if userID != "" {
				selection = pipeline.SelectionUser
			}
			view := &store.View{
				Name:      args[0],
				Selection: selection,
				UserID:    userID,
				PageID:    pageID,
				Query:     query,
				Direction: direction,
				Expanded:  expanded,
			}
			if err := views.Save(cmd.Context(), view); err != nil {
				return err
			}
			printSuccess("Saved view %s", view.Name)
			printDetail("ID: %s", view.ID)
			printNextStep("Export it", appName+" views export "+view.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "save a user view for this user id")
	cmd.Flags().StringVar(&pageID, "page", "", "focus page id")
	cmd.Flags().StringVarP(&query, "query", "q", "", "search term")
	cmd.Flags().StringVarP(&direction, "direction", "d", "", "layout direction")
	cmd.Flags().StringSliceVar(&expanded, "expanded", nil, "expanded node ids")
	return cmd
}

func (c *CLI) viewsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := c.viewStore(cmd)
			if err != nil {
				return err
			}
			defer views.Close(cmd.Context())

			if err := views.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted view %s", args[0])
			return nil
		},
	}
}

// viewsExportCommand re-runs the pipeline from a saved view's state.
func (c *CLI) viewsExportCommand() *cobra.Command {
	var (
		formats string
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			views, err := c.viewStore(cmd)
			if err != nil {
				return err
			}
			defer views.Close(ctx)

			view, err := views.Get(ctx, args[0])
			if err != nil {
				return err
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			opts := pipeline.Options{
				Selection: view.Selection,
				UserID:    view.UserID,
				PageID:    view.PageID,
				Expanded:  view.Expanded,
				Query:     view.Query,
				Direction: view.Direction,
				Formats:   parseFormats(formats),
			}

			spinner := newSpinnerWithContext(ctx, "Building graph...")
			spinner.Start()
			result, err := runner.Execute(ctx, opts)
			spinner.Stop()
			if err != nil {
				return err
			}

			printSuccess("Built view %s", view.Name)
			printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.SnapshotHit)
			return c.writeArtifacts(result, output, "view-"+view.ID)
		},
	}

	cmd.Flags().StringVarP(&formats, "format", "f", "json", "output formats (comma-separated: json,dot,svg,png)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file base path")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the local cache")
	return cmd
}
