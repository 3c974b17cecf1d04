package commands

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/ragchat/internal/chat"
	"github.com/diogo/ragchat/internal/config"
)

func newConfigCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
		Long: `Show or change ragchat settings.

Settings are read from ~/.ragchat/config.json and can be overridden with
RAGCHAT_* environment variables, e.g. RAGCHAT_SERVER_URL.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprintln(deps.Stdout, string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(deps.Stdout, path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Long: fmt.Sprintf(`Change a setting and save it.

Valid keys: %s

Lists such as models are comma separated.`, strings.Join(config.Keys(), ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "locale" && !slices.Contains(chat.Locales(), args[1]) {
				return fmt.Errorf("unsupported locale %q (supported: %s)", args[1], strings.Join(chat.Locales(), ", "))
			}

			cfg, err := config.LoadSavedConfig()
			if err != nil {
				return err
			}
			if err := config.SetValue(&cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.SaveConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(deps.Stdout, "✓ %s = %s\n", args[0], args[1])
			return nil
		},
	})

	return cmd
}
