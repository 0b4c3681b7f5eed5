package screen

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/chmouel/lazystage/internal/theme"
	"github.com/muesli/reflow/wordwrap"
)

// InfoScreen displays a modal message with an OK button. Errors, push
// results and "nothing to do" notices all go through it.
type InfoScreen struct {
	Title   string
	Message string
	IsError bool
	Thm     *theme.Theme

	// Callback
	OnClose func() tea.Cmd
}

// NewInfoScreen creates an informational modal with an OK button.
func NewInfoScreen(title, message string, thm *theme.Theme) *InfoScreen {
	return &InfoScreen{
		Title:   title,
		Message: message,
		Thm:     thm,
	}
}

// NewErrorScreen creates an info screen styled as an error.
func NewErrorScreen(title string, err error, thm *theme.Theme) *InfoScreen {
	s := NewInfoScreen(title, err.Error(), thm)
	s.IsError = true
	return s
}

// Type returns the screen type.
func (s *InfoScreen) Type() Type {
	return TypeInfo
}

// Update processes keyboard events for the info dialog.
// Returns nil to signal that the screen should be closed.
func (s *InfoScreen) Update(msg tea.KeyMsg) (Screen, tea.Cmd) {
	switch msg.String() {
	case keyEnter, keyEsc, keyEscRaw, keyQ, keyCtrlC:
		if s.OnClose != nil {
			return nil, s.OnClose()
		}
		return nil, nil
	}
	return s, nil
}

// View renders the informational box with a single OK button.
func (s *InfoScreen) View() string {
	width := 60
	height := 13

	accent := s.Thm.Accent
	if s.IsError {
		accent = s.Thm.ErrorFg
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2).
		Width(width).
		Height(height)

	titleStyle := lipgloss.NewStyle().
		Width(width - 4).
		Align(lipgloss.Center).
		Foreground(accent).
		Bold(true)

	messageStyle := lipgloss.NewStyle().
		Width(width-4).
		Height(height-8).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(s.Thm.TextFg)

	okStyle := lipgloss.NewStyle().
		Width(width-6).
		Align(lipgloss.Center).
		Padding(0, 2).
		Foreground(s.Thm.AccentFg).
		Background(accent).
		Bold(true)

	message := lastLines(wordwrap.String(s.Message, width-6), height-8)

	content := fmt.Sprintf("%s\n\n%s\n\n%s",
		titleStyle.Render(s.Title),
		messageStyle.Render(message),
		okStyle.Render("[OK]"),
	)

	return boxStyle.Render(content)
}

// SetTheme updates the theme for this screen.
func (s *InfoScreen) SetTheme(thm *theme.Theme) {
	s.Thm = thm
}
