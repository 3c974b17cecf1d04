package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/ragchat/internal/browser"
)

func newBrowsersCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "browsers",
		Short: "List browsers with readable cookie stores",
		Long: `List the browsers whose cookies can be sent with --browser-cookies.

Log in to the chat server in one of these browsers, then run
ragchat --browser-cookies <browser> to reuse that session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := browser.ListAvailableBrowsers(cmd.Context())
			if len(names) == 0 {
				fmt.Fprintln(deps.Stdout, "No browser cookie stores found.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(deps.Stdout, name)
			}
			return nil
		},
	}
}
