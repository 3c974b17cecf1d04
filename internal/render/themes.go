package render

import (
	"sort"

	"github.com/charmbracelet/glamour/styles"
)

// IsStandardStyle reports whether style names one of glamour's bundled
// styles, as opposed to a path to a JSON style file
func IsStandardStyle(style string) bool {
	_, ok := styles.DefaultStyles[style]
	return ok
}

// StyleNames returns the bundled glamour style names in sorted order
func StyleNames() []string {
	names := make([]string, 0, len(styles.DefaultStyles))
	for name := range styles.DefaultStyles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
