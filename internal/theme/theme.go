// Package theme provides theme definitions and management for the TUI.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines all colors used in the application UI.
type Theme struct {
	Background lipgloss.Color
	Accent     lipgloss.Color
	AccentFg   lipgloss.Color // Foreground color for text on Accent background
	AccentDim  lipgloss.Color
	Border     lipgloss.Color
	BorderDim  lipgloss.Color
	MutedFg    lipgloss.Color
	TextFg     lipgloss.Color
	SuccessFg  lipgloss.Color
	WarnFg     lipgloss.Color
	ErrorFg    lipgloss.Color
	Cyan       lipgloss.Color

	// Status letter colours in the file lists.
	StagedFg    lipgloss.Color
	UnstagedFg  lipgloss.Color
	UntrackedFg lipgloss.Color
}

// Theme names.
const (
	DraculaName        = "dracula"
	DraculaLightName   = "dracula-light"
	NarnaName          = "narna"
	NordName           = "nord"
	GruvboxDarkName    = "gruvbox-dark"
	SolarizedLightName = "solarized-light"
)

// Dracula returns the Dracula theme (dark background, vibrant colors).
func Dracula() *Theme {
	return &Theme{
		Background:  lipgloss.Color("#282A36"), // Background
		Accent:      lipgloss.Color("#BD93F9"), // Purple (primary accent)
		AccentFg:    lipgloss.Color("#282A36"), // Dark text on accent
		AccentDim:   lipgloss.Color("#44475A"), // Current Line / Selection
		Border:      lipgloss.Color("#6272A4"), // Comment (subtle borders)
		BorderDim:   lipgloss.Color("#44475A"), // Darker borders
		MutedFg:     lipgloss.Color("#6272A4"), // Comment (muted text)
		TextFg:      lipgloss.Color("#F8F8F2"), // Foreground (primary text)
		SuccessFg:   lipgloss.Color("#50FA7B"), // Green (success)
		WarnFg:      lipgloss.Color("#FFB86C"), // Orange (warning)
		ErrorFg:     lipgloss.Color("#FF5555"), // Red (error)
		Cyan:        lipgloss.Color("#8BE9FD"), // Cyan (info/secondary)
		StagedFg:    lipgloss.Color("#50FA7B"),
		UnstagedFg:  lipgloss.Color("#FF5555"),
		UntrackedFg: lipgloss.Color("#FF79C6"),
	}
}

// DraculaLight returns the Dracula theme adapted for light backgrounds.
func DraculaLight() *Theme {
	return &Theme{
		Background:  lipgloss.Color("#FFFFFF"), // White
		Accent:      lipgloss.Color("#c6dbe5"),
		AccentFg:    lipgloss.Color("#24292F"), // Dark text on accent
		AccentDim:   lipgloss.Color("#F3E8FF"), // Light purple wash
		Border:      lipgloss.Color("#D0D7DE"), // Subtle gray border
		BorderDim:   lipgloss.Color("#E8E8E8"), // Lighter border
		MutedFg:     lipgloss.Color("#6E7781"), // Muted gray text
		TextFg:      lipgloss.Color("#24292F"), // Dark text
		SuccessFg:   lipgloss.Color("#059669"), // Green
		WarnFg:      lipgloss.Color("#D97706"), // Orange
		ErrorFg:     lipgloss.Color("#DC2626"), // Red
		Cyan:        lipgloss.Color("#0891B2"), // Cyan/Teal
		StagedFg:    lipgloss.Color("#059669"),
		UnstagedFg:  lipgloss.Color("#DC2626"),
		UntrackedFg: lipgloss.Color("#DB2777"),
	}
}

// Narna returns a balanced dark theme with blue accents.
func Narna() *Theme {
	return &Theme{
		Background:  lipgloss.Color("#0D1117"), // Charcoal background
		Accent:      lipgloss.Color("#41ADFF"), // Blue accent
		AccentFg:    lipgloss.Color("#0D1117"), // Dark text on accent
		AccentDim:   lipgloss.Color("#1A2230"), // Selected rows / panels
		Border:      lipgloss.Color("#30363D"), // Subtle borders
		BorderDim:   lipgloss.Color("#20252D"), // Dim borders
		MutedFg:     lipgloss.Color("#8B949E"), // Muted text
		TextFg:      lipgloss.Color("#E6EDF3"), // Primary text
		SuccessFg:   lipgloss.Color("#3FB950"), // Success green
		WarnFg:      lipgloss.Color("#E3B341"), // Warning amber
		ErrorFg:     lipgloss.Color("#F47067"), // Soft red
		Cyan:        lipgloss.Color("#7CE0F3"), // Cyan highlights
		StagedFg:    lipgloss.Color("#3FB950"),
		UnstagedFg:  lipgloss.Color("#F47067"),
		UntrackedFg: lipgloss.Color("#D2A8FF"),
	}
}

// Nord returns the Nord theme.
func Nord() *Theme {
	return &Theme{
		Background:  lipgloss.Color("#2E3440"),
		Accent:      lipgloss.Color("#88C0D0"),
		AccentFg:    lipgloss.Color("#2E3440"), // Dark text on accent
		AccentDim:   lipgloss.Color("#3B4252"),
		Border:      lipgloss.Color("#4C566A"),
		BorderDim:   lipgloss.Color("#434C5E"),
		MutedFg:     lipgloss.Color("#81A1C1"),
		TextFg:      lipgloss.Color("#E5E9F0"),
		SuccessFg:   lipgloss.Color("#A3BE8C"),
		WarnFg:      lipgloss.Color("#EBCB8B"),
		ErrorFg:     lipgloss.Color("#BF616A"),
		Cyan:        lipgloss.Color("#88C0D0"),
		StagedFg:    lipgloss.Color("#A3BE8C"),
		UnstagedFg:  lipgloss.Color("#BF616A"),
		UntrackedFg: lipgloss.Color("#B48EAD"),
	}
}

// GruvboxDark returns the Gruvbox dark theme.
func GruvboxDark() *Theme {
	return &Theme{
		Background:  lipgloss.Color("#282828"),
		Accent:      lipgloss.Color("#FABD2F"),
		AccentFg:    lipgloss.Color("#282828"),
		AccentDim:   lipgloss.Color("#3C3836"),
		Border:      lipgloss.Color("#665C54"),
		BorderDim:   lipgloss.Color("#504945"),
		MutedFg:     lipgloss.Color("#A89984"),
		TextFg:      lipgloss.Color("#EBDBB2"),
		SuccessFg:   lipgloss.Color("#B8BB26"),
		WarnFg:      lipgloss.Color("#FE8019"),
		ErrorFg:     lipgloss.Color("#FB4934"),
		Cyan:        lipgloss.Color("#8EC07C"),
		StagedFg:    lipgloss.Color("#B8BB26"),
		UnstagedFg:  lipgloss.Color("#FB4934"),
		UntrackedFg: lipgloss.Color("#D3869B"),
	}
}

// SolarizedLight returns the Solarized light theme.
func SolarizedLight() *Theme {
	return &Theme{
		Background:  lipgloss.Color("#FDF6E3"),
		Accent:      lipgloss.Color("#268BD2"),
		AccentFg:    lipgloss.Color("#FDF6E3"),
		AccentDim:   lipgloss.Color("#EEE8D5"),
		Border:      lipgloss.Color("#93A1A1"),
		BorderDim:   lipgloss.Color("#EEE8D5"),
		MutedFg:     lipgloss.Color("#93A1A1"),
		TextFg:      lipgloss.Color("#586E75"),
		SuccessFg:   lipgloss.Color("#859900"),
		WarnFg:      lipgloss.Color("#CB4B16"),
		ErrorFg:     lipgloss.Color("#DC322F"),
		Cyan:        lipgloss.Color("#2AA198"),
		StagedFg:    lipgloss.Color("#859900"),
		UnstagedFg:  lipgloss.Color("#DC322F"),
		UntrackedFg: lipgloss.Color("#D33682"),
	}
}

// GetTheme returns a theme by name, or Dracula if not found.
func GetTheme(name string) *Theme {
	switch name {
	case DraculaLightName:
		return DraculaLight()
	case NarnaName:
		return Narna()
	case NordName:
		return Nord()
	case GruvboxDarkName:
		return GruvboxDark()
	case SolarizedLightName:
		return SolarizedLight()
	default:
		return Dracula()
	}
}

// IsLight returns true if the theme is a light theme.
func IsLight(name string) bool {
	switch name {
	case DraculaLightName, SolarizedLightName:
		return true
	default:
		return false
	}
}

// DefaultDark returns the default dark theme name.
func DefaultDark() string {
	return DraculaName
}

// DefaultLight returns the default light theme name.
func DefaultLight() string {
	return DraculaLightName
}

// Detect picks the default dark or light theme from the terminal background.
func Detect() string {
	if lipgloss.HasDarkBackground() {
		return DefaultDark()
	}
	return DefaultLight()
}

// AvailableThemes returns a list of available theme names.
func AvailableThemes() []string {
	return []string{
		DraculaName,
		DraculaLightName,
		NarnaName,
		NordName,
		GruvboxDarkName,
		SolarizedLightName,
	}
}
