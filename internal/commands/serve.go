package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/diogo/ragchat/internal/logging"
	"github.com/diogo/ragchat/internal/server"
)

func newServeCmd(deps *Dependencies, g *globalFlags) *cobra.Command {
	var (
		addr  string
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local development chat server",
		Long: `Run a chat handler that streams answers over Server-Sent Events.

The development server has no retrieval or language model behind it: it
echoes each question back token by token, which is enough to exercise the
chat client end to end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadSettings(deps, g)

			if !cmd.Flags().Changed("addr") {
				addr = cfg.Serve.Addr
			}
			if !cmd.Flags().Changed("delay") {
				delay = time.Duration(cfg.Serve.TokenDelayMS) * time.Millisecond
			}

			logger := logging.New(deps.Stderr, cfg.Verbose)
			srv := server.New(
				server.EchoResponder{Delay: delay},
				server.WithHandlerPath(cfg.HandlerPath),
				server.WithLogger(logger),
			)

			fmt.Fprintf(deps.Stdout, "Serving chat handler on http://%s%s (Ctrl+C to stop)\n", addr, cfg.HandlerPath)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config serve.addr)")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Pause between tokens, e.g. 40ms (default from config serve.token_delay_ms)")

	return cmd
}
