package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// usersCommand creates the "users" command for listing directory users.
func (c *CLI) usersCommand() *cobra.Command {
	var (
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users known to the access directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(ctx, "Fetching users...")
			spinner.Start()
			prog := newProgress(c.Logger)
			users, err := runner.ListUsers(ctx, refresh)
			spinner.Stop()
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Fetched %d users", len(users)))

			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{u.ID, u.Username, u.FullName, u.Email})
			}

			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(StyleDim).
				Headers("ID", "Username", "Name", "Email").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == -1 {
						return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
					}
					return StyleValue
				})
			fmt.Println(t.Render())

			printNewline()
			printNextStep("Inspect a user's access", appName+" graph user <id>")
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the local cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass cached directory data")
	return cmd
}
