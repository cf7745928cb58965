// Package theme defines the color palettes for the fincast dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme names the color roles the dashboard draws with.
type Theme struct {
	Name        string
	Background  lipgloss.Color
	Surface     lipgloss.Color
	Border      lipgloss.Color
	TextDim     lipgloss.Color
	TextMuted   lipgloss.Color
	TextPrimary lipgloss.Color
	Accent      lipgloss.Color
	Positive    lipgloss.Color // income, savings, high confidence
	Caution     lipgloss.Color // medium confidence, warnings
	Negative    lipgloss.Color // overspend, low confidence
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default warm dark palette.
var FlexokiDark = Theme{
	Name:        "flexoki-dark",
	Background:  lipgloss.Color("#100F0F"),
	Surface:     lipgloss.Color("#1C1B1A"),
	Border:      lipgloss.Color("#403E3C"),
	TextDim:     lipgloss.Color("#575653"),
	TextMuted:   lipgloss.Color("#878580"),
	TextPrimary: lipgloss.Color("#FFFCF0"),
	Accent:      lipgloss.Color("#3AA99F"),
	Positive:    lipgloss.Color("#879A39"),
	Caution:     lipgloss.Color("#DA702C"),
	Negative:    lipgloss.Color("#D14D41"),
}

// CatppuccinMocha is a soft pastel palette.
var CatppuccinMocha = Theme{
	Name:        "catppuccin-mocha",
	Background:  lipgloss.Color("#1E1E2E"),
	Surface:     lipgloss.Color("#313244"),
	Border:      lipgloss.Color("#585B70"),
	TextDim:     lipgloss.Color("#6C7086"),
	TextMuted:   lipgloss.Color("#A6ADC8"),
	TextPrimary: lipgloss.Color("#CDD6F4"),
	Accent:      lipgloss.Color("#89B4FA"),
	Positive:    lipgloss.Color("#A6E3A1"),
	Caution:     lipgloss.Color("#FAB387"),
	Negative:    lipgloss.Color("#F38BA8"),
}

// TokyoNight is a cool blue palette.
var TokyoNight = Theme{
	Name:        "tokyo-night",
	Background:  lipgloss.Color("#1A1B26"),
	Surface:     lipgloss.Color("#24283B"),
	Border:      lipgloss.Color("#565F89"),
	TextDim:     lipgloss.Color("#565F89"),
	TextMuted:   lipgloss.Color("#A9B1D6"),
	TextPrimary: lipgloss.Color("#C0CAF5"),
	Accent:      lipgloss.Color("#7AA2F7"),
	Positive:    lipgloss.Color("#9ECE6A"),
	Caution:     lipgloss.Color("#FF9E64"),
	Negative:    lipgloss.Color("#F7768E"),
}

// Terminal uses ANSI 16 colors only.
var Terminal = Theme{
	Name:        "terminal",
	Background:  lipgloss.Color("0"),
	Surface:     lipgloss.Color("0"),
	Border:      lipgloss.Color("8"),
	TextDim:     lipgloss.Color("8"),
	TextMuted:   lipgloss.Color("7"),
	TextPrimary: lipgloss.Color("15"),
	Accent:      lipgloss.Color("6"),
	Positive:    lipgloss.Color("2"),
	Caution:     lipgloss.Color("3"),
	Negative:    lipgloss.Color("1"),
}

// All available themes.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// Names lists theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// ForConfidence picks the color for a forecast confidence in [0, 1].
func ForConfidence(c float64) lipgloss.Color {
	switch {
	case c >= 0.7:
		return Active.Positive
	case c >= 0.4:
		return Active.Caution
	}
	return Active.Negative
}
