package commands

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/diogo/ragchat/internal/chat"
	"github.com/diogo/ragchat/internal/config"
	"github.com/diogo/ragchat/internal/logging"
	"github.com/diogo/ragchat/internal/render"
	"github.com/diogo/ragchat/internal/tui"
)

func newChatCmd(deps *Dependencies, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Enter sends the question and Esc stops a running answer. Tab cycles the
model, Ctrl+R toggles retrieval and Ctrl+C quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadSettings(deps, g)

			logger, closer := chatLogger(deps, cfg)
			if closer != nil {
				defer closer.Close()
			}

			streamer, err := newStreamer(cmd.Context(), deps, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			return deps.TUI.RunChat(streamer, chat.LabelsFor(cfg.Locale), logger, chatOptions(cfg))
		},
	}
}

// chatLogger writes to the log file when verbose. Logging to stderr would
// corrupt the alternate screen.
func chatLogger(deps *Dependencies, cfg config.Config) (zerolog.Logger, io.Closer) {
	if !cfg.Verbose {
		return logging.Nop(), nil
	}

	path, err := config.GetLogPath()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "Warning: %v\n", err)
		return logging.Nop(), nil
	}
	logger, closer, err := logging.NewFile(path, true)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "Warning: %v\n", err)
		return logging.Nop(), nil
	}
	return logger, closer
}

func chatOptions(cfg config.Config) tui.Options {
	return tui.Options{
		Models:       cfg.Models,
		DefaultModel: cfg.DefaultModel,
		Retrieval:    cfg.Retrieval,
		Theme:        cfg.TUITheme,
		Markdown:     render.OptionsFromConfig(cfg.Markdown, 80),
	}
}
