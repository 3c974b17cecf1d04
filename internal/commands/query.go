package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/ragchat/internal/chat"
	"github.com/diogo/ragchat/internal/config"
	apierrors "github.com/diogo/ragchat/internal/errors"
	"github.com/diogo/ragchat/internal/logging"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"),
	lipgloss.Color("#feca57"),
	lipgloss.Color("#48dbfb"),
	lipgloss.Color("#ff9ff3"),
	lipgloss.Color("#54a0ff"),
	lipgloss.Color("#5f27cd"),
	lipgloss.Color("#00d2d3"),
	lipgloss.Color("#1dd1a1"),
}

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextDim  = lipgloss.Color("#565f89")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorPrimary  = lipgloss.Color("#7aa2f7")
	colorError    = lipgloss.Color("#f7768e")
)

var assistantLabelStyle = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Bold(true)

// spinner draws an animated waiting indicator until the first token
type spinner struct {
	w       io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

func newSpinner(w io.Writer, message string) *spinner {
	return &spinner{
		w:       w,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.w, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.w, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	fmt.Fprintf(s.w, "\r\033[K%s %s %s", spinnerChar, msg, dots.String())
}

// halt stops the animation and waits for the line to be cleared. It may be
// called more than once.
func (s *spinner) halt() {
	s.mu.Lock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
	s.mu.Unlock()
	<-s.done
}

// runQuery asks one question and prints the answer as it streams in
func runQuery(ctx context.Context, deps *Dependencies, cfg config.Config, prompt string, q queryFlags) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	logger := logging.New(deps.Stderr, cfg.Verbose)
	logger.Debug().
		Str("server", cfg.ServerURL).
		Str("model", cfg.DefaultModel).
		Str("retrieval", cfg.Retrieval).
		Msg("sending question")

	streamer, err := newStreamer(ctx, deps, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	decorated := !q.raw && deps.IsTTY()
	labels := chat.LabelsFor(cfg.Locale)

	live := deps.Stdout
	if q.output != "" {
		live = io.Discard
	}

	var spin *spinner
	if decorated {
		spin = newSpinner(deps.Stderr, "Waiting for answer")
		spin.start()
	}

	var (
		started  bool
		done     = make(chan struct{})
		doneOnce sync.Once
	)
	observer := func(ch chat.Change) {
		switch ch.Kind {
		case chat.ChangeToken, chat.ChangeError:
			if !started {
				started = true
				if spin != nil {
					spin.halt()
				}
				if decorated && q.output == "" {
					fmt.Fprintln(live, assistantLabelStyle.Render("✦ "+labels.Assistant))
				}
			}
			fmt.Fprint(live, ch.Delta)
		case chat.ChangeState:
			if ch.State == chat.StateIdle {
				doneOnce.Do(func() { close(done) })
			}
		}
	}

	ctrl := chat.NewController(streamer,
		chat.WithLabels(labels),
		chat.WithLogger(logger),
		chat.WithContext(ctx),
		chat.WithObserver(observer),
	)

	startTime := time.Now()
	ctrl.StartStream(prompt, chat.Selection{Model: cfg.DefaultModel, Retrieval: cfg.Retrieval})

	select {
	case <-done:
	case <-ctx.Done():
		ctrl.StopStream()
		<-done
	}
	if spin != nil {
		spin.halt()
	}

	logger.Debug().Dur("elapsed", time.Since(startTime).Round(time.Millisecond)).Msg("stream finished")

	text := ctrl.Transcript().Last().Text()

	if err := ctrl.LastError(); err != nil {
		if text == "" {
			if !q.raw {
				fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Request failed"))
			}
			return fmt.Errorf("request failed: %w", err)
		}
		logger.Warn().Err(err).Msg("answer may be incomplete")
	}
	if text == "" && ctx.Err() != nil {
		return ctx.Err()
	}

	if q.output == "" && text != "" && !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(live)
	}

	if q.output != "" {
		if err := os.WriteFile(q.output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !q.raw {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render(
				fmt.Sprintf("✓ Answer saved to %s", q.output),
			))
		}
	}

	if cfg.CopyToClipboard && !q.raw && text != "" {
		if err := clipboard.WriteAll(text); err != nil {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorError).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			))
		} else {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	return nil
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, action string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", action, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	if body := apierrors.GetResponseBody(err); body != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n\n  %s", strings.ReplaceAll(strings.TrimSpace(body), "\n", "\n  "))))
		return sb.String()
	}

	switch {
	case apierrors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check that the chat server is running, or start one with 'ragchat serve'"))
	case apierrors.Is(err, chat.ErrEndedWithoutEnd):
		sb.WriteString(dimStyle.Render("\n  Hint: The server closed the connection before sending any text"))
	case apierrors.GetHTTPStatus(err) == 404:
		sb.WriteString(dimStyle.Render("\n  Hint: Check handler_path with 'ragchat config show'"))
	}

	return sb.String()
}
