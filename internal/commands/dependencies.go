package commands

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/diogo/ragchat/internal/chat"
	"github.com/diogo/ragchat/internal/config"
	"github.com/diogo/ragchat/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(streamer chat.Streamer, labels chat.Labels, logger zerolog.Logger, opts tui.Options) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Streamer replaces the HTTP client built from configuration.
	Streamer chat.Streamer

	// TUI is the terminal user interface.
	TUI TUIInterface

	// LoadConfig loads the effective configuration.
	LoadConfig func() (config.Config, error)

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// IsTTY reports whether stdout is a terminal.
	IsTTY func() bool
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(streamer chat.Streamer, labels chat.Labels, logger zerolog.Logger, opts tui.Options) error {
	return tui.RunChat(streamer, labels, logger, opts)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI:        &DefaultTUI{},
		LoadConfig: config.LoadConfig,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		IsTTY:      isStdoutTTY,
	}
}

// withDefaults fills unset fields with the production implementations
func (d *Dependencies) withDefaults() *Dependencies {
	def := NewDependencies()
	if d == nil {
		return def
	}

	out := *d
	if out.TUI == nil {
		out.TUI = def.TUI
	}
	if out.LoadConfig == nil {
		out.LoadConfig = def.LoadConfig
	}
	if out.Stdout == nil {
		out.Stdout = def.Stdout
	}
	if out.Stderr == nil {
		out.Stderr = def.Stderr
	}
	if out.IsTTY == nil {
		out.IsTTY = def.IsTTY
	}
	return &out
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
