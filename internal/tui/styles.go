// Package tui provides the terminal user interface for ragchat.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/ragchat/internal/render"
)

// Color variables (updated from the palette)
var (
	colorSurface lipgloss.Color
	colorBorder  lipgloss.Color

	colorUser      lipgloss.Color
	colorAssistant lipgloss.Color
	colorAccent    lipgloss.Color
	colorWarning   lipgloss.Color

	colorText    lipgloss.Color
	colorTextDim lipgloss.Color
)

// Style variables (rebuilt when the palette changes)
var (
	headerStyle   lipgloss.Style
	titleStyle    lipgloss.Style
	subtitleStyle lipgloss.Style
	hintStyle     lipgloss.Style
	ragOnStyle    lipgloss.Style
	ragOffStyle   lipgloss.Style

	messagesAreaStyle lipgloss.Style

	userBubbleStyle      lipgloss.Style
	userLabelStyle       lipgloss.Style
	assistantBubbleStyle lipgloss.Style
	assistantLabelStyle  lipgloss.Style

	inputPanelStyle lipgloss.Style
	inputLabelStyle lipgloss.Style
	loadingStyle    lipgloss.Style

	statusBarStyle      lipgloss.Style
	statusKeyStyle      lipgloss.Style
	statusDescStyle     lipgloss.Style
	statusDisabledStyle lipgloss.Style

	welcomeStyle      lipgloss.Style
	welcomeTitleStyle lipgloss.Style
)

func init() {
	SetTheme(render.DefaultPalette)
}

// SetTheme rebuilds all styles from the named palette. Unknown names fall
// back to the default palette.
func SetTheme(name string) {
	p := render.PaletteFor(name)

	colorSurface = p.Surface
	colorBorder = p.Border
	colorUser = p.User
	colorAssistant = p.Assistant
	colorAccent = p.Accent
	colorWarning = p.Warning
	colorText = p.Text
	colorTextDim = p.TextDim

	rebuildStyles()
}

func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorText)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	ragOnStyle = lipgloss.NewStyle().
		Foreground(colorAssistant).
		Bold(true)

	ragOffStyle = lipgloss.NewStyle().
		Foreground(colorWarning).
		Bold(true)

	messagesAreaStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	userLabelStyle = lipgloss.NewStyle().
		Foreground(colorUser).
		Bold(true)

	userBubbleStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Background(colorSurface).
		Padding(0, 1).
		MarginLeft(2)

	assistantLabelStyle = lipgloss.NewStyle().
		Foreground(colorAssistant).
		Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Padding(0, 1).
		MarginLeft(2)

	inputPanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorUser).
		Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(colorUser).
		Bold(true)

	loadingStyle = lipgloss.NewStyle().
		Foreground(colorAccent)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	statusDisabledStyle = lipgloss.NewStyle().
		Foreground(colorBorder).
		Strikethrough(true)

	welcomeStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Align(lipgloss.Center)

	welcomeTitleStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true).
		Align(lipgloss.Center)
}
