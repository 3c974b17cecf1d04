package render

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the colour scheme used by the chat interface.
type Palette struct {
	Name string

	Surface lipgloss.Color
	Border  lipgloss.Color

	User      lipgloss.Color
	Assistant lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color

	Text    lipgloss.Color
	TextDim lipgloss.Color
}

// DefaultPalette is used when no palette, or an unknown one, is configured.
const DefaultPalette = "tokyonight"

var palettes = map[string]Palette{
	"tokyonight": {
		Name:      "tokyonight",
		Surface:   "#24283b",
		Border:    "#414868",
		User:      "#7aa2f7",
		Assistant: "#9ece6a",
		Accent:    "#bb9af7",
		Warning:   "#e0af68",
		Text:      "#c0caf5",
		TextDim:   "#565f89",
	},
	"catppuccin": {
		Name:      "catppuccin",
		Surface:   "#313244",
		Border:    "#45475a",
		User:      "#89b4fa",
		Assistant: "#a6e3a1",
		Accent:    "#cba6f7",
		Warning:   "#f9e2af",
		Text:      "#cdd6f4",
		TextDim:   "#6c7086",
	},
	"nord": {
		Name:      "nord",
		Surface:   "#3b4252",
		Border:    "#4c566a",
		User:      "#88c0d0",
		Assistant: "#a3be8c",
		Accent:    "#b48ead",
		Warning:   "#ebcb8b",
		Text:      "#eceff4",
		TextDim:   "#616e88",
	},
	"dracula": {
		Name:      "dracula",
		Surface:   "#44475a",
		Border:    "#6272a4",
		User:      "#8be9fd",
		Assistant: "#50fa7b",
		Accent:    "#bd93f9",
		Warning:   "#f1fa8c",
		Text:      "#f8f8f2",
		TextDim:   "#6272a4",
	},
}

// PaletteFor returns the named palette, falling back to DefaultPalette.
func PaletteFor(name string) Palette {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes[DefaultPalette]
}

// HasPalette reports whether name is a known palette.
func HasPalette(name string) bool {
	_, ok := palettes[name]
	return ok
}

// PaletteNames returns the available palette names, sorted.
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
