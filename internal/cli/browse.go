package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/permitscope/permitscope/pkg/cache"
	"github.com/permitscope/permitscope/pkg/console"
	"github.com/permitscope/permitscope/pkg/directory"
)

// browseCommand creates the "browse" command for interactive exploration.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		pageID  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "browse [user-id]",
		Short: "Browse access graphs interactively",
		Long: `Browse the page hierarchy or a user's access fan-out in the terminal.

Keys:
  ↑/↓, j/k    move
  enter       expand/collapse the selected node
  /           search (highlights matches and their ancestors)
  esc         clear the search
  d           toggle layout direction
  r           re-fetch the current selection
  q           quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Responses are cached so re-opening the browser is instant;
			// the r key forces a live fetch.
			backend, err := c.newCache(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer backend.Close()

			client := c.newClient(directory.WithCache(backend, cache.TTLSnapshot))
			ctrl := console.New(client, c.Logger)

			sel := console.Selection{Kind: console.SelectPages, PageID: pageID}
			if len(args) == 1 {
				sel = console.Selection{Kind: console.SelectUser, UserID: args[0]}
			}

			m := newBrowseModel(ctrl, sel)
			p := tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&pageID, "page", "", "focus on one page id")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the local response cache")
	return cmd
}
