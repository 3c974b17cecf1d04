// Package commands provides CLI commands for ragchat.
package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/diogo/ragchat/internal/api"
	"github.com/diogo/ragchat/internal/browser"
	"github.com/diogo/ragchat/internal/chat"
	"github.com/diogo/ragchat/internal/config"
	"github.com/diogo/ragchat/internal/models"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// globalFlags are the persistent flags that override configuration
type globalFlags struct {
	server         string
	model          string
	noRAG          bool
	browserCookies string
	verbose        bool
}

// queryFlags are the flags of the one-shot query
type queryFlags struct {
	output string
	file   string
	raw    bool
}

// NewRootCmd builds the command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	deps = deps.withDefaults()
	g := &globalFlags{}
	q := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "ragchat [prompt]",
		Short: "Chat with a retrieval-augmented assistant",
		Long: `ragchat talks to a chat server that streams answers over Server-Sent
Events. Answers appear token by token as the server produces them.

Examples:
  ragchat chat                          Start interactive chat
  ragchat "What is in the handbook?"    Ask a single question
  ragchat -f question.md                Read the question from a file
  cat question.md | ragchat             Read the question from stdin
  ragchat "Summarize" -o answer.md      Save the answer to a file
  ragchat serve                         Run a local development server`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "ragchat %s (built %s)\n", Version, BuildTime)
				return nil
			}

			prompt, ok, err := readPrompt(args, q.file, deps.Stdin)
			if err != nil {
				return err
			}
			if !ok {
				return cmd.Help()
			}

			cfg := loadSettings(deps, g)
			return runQuery(cmd.Context(), deps, cfg, prompt, *q)
		},
	}

	cmd.SetOut(deps.Stdout)
	cmd.SetErr(deps.Stderr)

	cmd.PersistentFlags().StringVar(&g.server, "server", "", "Chat server base URL (e.g., http://127.0.0.1:8000)")
	cmd.PersistentFlags().StringVarP(&g.model, "model", "m", "", "Model to request; empty lets the server choose")
	cmd.PersistentFlags().BoolVar(&g.noRAG, "no-rag", false, "Disable retrieval augmentation")
	cmd.PersistentFlags().StringVar(&g.browserCookies, "browser-cookies", "",
		"Send session cookies from a browser (auto, chrome, firefox, edge, chromium, opera)")
	cmd.PersistentFlags().BoolVar(&g.verbose, "verbose", false, "Enable debug logging")

	cmd.Flags().StringVarP(&q.output, "output", "o", "", "Save answer to file")
	cmd.Flags().StringVarP(&q.file, "file", "f", "", "Read prompt from file")
	cmd.Flags().BoolVar(&q.raw, "raw", false, "Print only the answer text")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(newChatCmd(deps, g))
	cmd.AddCommand(newServeCmd(deps, g))
	cmd.AddCommand(newConfigCmd(deps))
	cmd.AddCommand(newBrowsersCmd(deps))

	return cmd
}

var rootCmd = NewRootCmd(nil)

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// readPrompt resolves the prompt from the file flag, the argument or piped
// stdin, in that order. ok is false when no input was given.
func readPrompt(args []string, file string, stdin io.Reader) (prompt string, ok bool, err error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if len(args) > 0 {
		return args[0], true, nil
	}

	if hasPipedInput(stdin) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), true, nil
	}

	return "", false, nil
}

// hasPipedInput reports whether r carries input that is not a terminal
func hasPipedInput(r io.Reader) bool {
	if r == nil {
		return false
	}
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// loadSettings loads the configuration and applies flag overrides. A broken
// config file is reported and the defaults are used.
func loadSettings(deps *Dependencies, g *globalFlags) config.Config {
	cfg, err := deps.LoadConfig()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "Warning: %v\n", err)
	}

	if g.server != "" {
		cfg.ServerURL = g.server
	}
	if g.model != "" {
		cfg.DefaultModel = g.model
	}
	if g.noRAG {
		cfg.Retrieval = models.RetrievalOff
	}
	if g.browserCookies != "" {
		cfg.BrowserCookies = g.browserCookies
	}
	if g.verbose {
		cfg.Verbose = true
	}
	return cfg
}

// newStreamer returns the injected streamer or an API client for cfg
func newStreamer(ctx context.Context, deps *Dependencies, cfg config.Config, logger zerolog.Logger) (chat.Streamer, error) {
	if deps.Streamer != nil {
		return deps.Streamer, nil
	}

	opts := []api.ClientOption{
		api.WithHandlerPath(cfg.HandlerPath),
		api.WithLogger(logger),
		api.WithUserAgent("ragchat/" + Version),
	}

	if cfg.BrowserCookies != "" {
		if cookies := browserCookies(ctx, cfg, logger); len(cookies) > 0 {
			opts = append(opts, api.WithCookies(cookies))
		}
	}

	client, err := api.NewClient(cfg.ServerURL, opts...)
	if err != nil {
		return nil, err
	}
	return chat.FromClient(client), nil
}

// browserCookies imports the server's cookies from the configured browser.
// Failures are logged and the request proceeds without them.
func browserCookies(ctx context.Context, cfg config.Config, logger zerolog.Logger) []*http.Cookie {
	b, err := browser.ParseBrowser(cfg.BrowserCookies)
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring browser_cookies")
		return nil
	}

	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := browser.ExtractSessionCookies(ctx, b, u.Host)
	if err != nil {
		logger.Warn().Err(err).Msg("could not import browser cookies")
		return nil
	}
	logger.Debug().Str("browser", result.BrowserName).Int("cookies", len(result.Cookies)).Msg("imported browser cookies")
	return result.Cookies
}
