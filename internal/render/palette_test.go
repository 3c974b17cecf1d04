package render

import "testing"

func TestPaletteFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"tokyonight", "tokyonight"},
		{"nord", "nord"},
		{"dracula", "dracula"},
		{"", DefaultPalette},
		{"unknown", DefaultPalette},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PaletteFor(tt.name).Name; got != tt.want {
				t.Errorf("PaletteFor(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestPaletteNames(t *testing.T) {
	names := PaletteNames()
	if len(names) != 4 {
		t.Fatalf("expected 4 palettes, got %d", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
	for _, n := range names {
		if !HasPalette(n) {
			t.Errorf("HasPalette(%q) = false", n)
		}
		p := PaletteFor(n)
		if p.User == "" || p.Assistant == "" || p.Warning == "" {
			t.Errorf("palette %s has empty colours", n)
		}
	}
}

func TestStyles(t *testing.T) {
	if !IsStandardStyle("dark") {
		t.Error("dark should be a standard style")
	}
	if IsStandardStyle("/tmp/custom.json") {
		t.Error("paths are not standard styles")
	}
	names := StyleNames()
	found := false
	for _, n := range names {
		if n == "notty" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected notty in %v", names)
	}
}
