package screen

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/chmouel/lazystage/internal/theme"
)

// Key constants for navigation.
const (
	keyEnter    = "enter"
	keyEsc      = "esc"
	keyEscRaw   = "\x1b" // Raw escape byte for terminals that send ESC as a rune
	keyTab      = "tab"
	keyShiftTab = "shift+tab"
	keyQ        = "q"
	keyCtrlC    = "ctrl+c"
)

// ConfirmScreen displays a yes/no question. It is used for the bulk stage
// prompts, restore, push and cancelling a running push.
type ConfirmScreen struct {
	Title          string
	Message        string
	SelectedButton int // 0 = Yes, 1 = No
	Thm            *theme.Theme

	// Destructive colours the Yes button as an error.
	Destructive bool

	// Callbacks
	OnConfirm func() tea.Cmd
	OnCancel  func() tea.Cmd
}

// NewConfirmScreen creates a confirm screen preloaded with a message.
func NewConfirmScreen(title, message string, thm *theme.Theme) *ConfirmScreen {
	return &ConfirmScreen{
		Title:   title,
		Message: message,
		Thm:     thm,
	}
}

// Type returns the screen type.
func (s *ConfirmScreen) Type() Type {
	return TypeConfirm
}

func (s *ConfirmScreen) confirm() (Screen, tea.Cmd) {
	if s.OnConfirm != nil {
		return nil, s.OnConfirm()
	}
	return nil, nil
}

func (s *ConfirmScreen) cancel() (Screen, tea.Cmd) {
	if s.OnCancel != nil {
		return nil, s.OnCancel()
	}
	return nil, nil
}

// Update processes keyboard events for the confirmation dialog.
// Returns nil to signal that the screen should be closed.
func (s *ConfirmScreen) Update(msg tea.KeyMsg) (Screen, tea.Cmd) {
	switch msg.String() {
	case keyTab, "right", "l":
		s.SelectedButton = (s.SelectedButton + 1) % 2
	case keyShiftTab, "left", "h":
		s.SelectedButton = (s.SelectedButton - 1 + 2) % 2
	case "y", "Y":
		return s.confirm()
	case "n", "N", keyEsc, keyEscRaw, keyQ, keyCtrlC:
		return s.cancel()
	case keyEnter:
		if s.SelectedButton == 0 {
			return s.confirm()
		}
		return s.cancel()
	}
	return s, nil
}

// View renders the confirmation box with focused button highlighting.
func (s *ConfirmScreen) View() string {
	width := 60
	height := 11

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Thm.Accent).
		Padding(1, 2).
		Width(width).
		Height(height)

	titleStyle := lipgloss.NewStyle().
		Width(width - 4).
		Align(lipgloss.Center).
		Foreground(s.Thm.Accent).
		Bold(true)

	messageStyle := lipgloss.NewStyle().
		Width(width-4).
		Height(height-8).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(s.Thm.TextFg)

	yesColour := s.Thm.SuccessFg
	if s.Destructive {
		yesColour = s.Thm.ErrorFg
	}
	button := lipgloss.NewStyle().
		Width((width-6)/2).
		Align(lipgloss.Center).
		Padding(0, 2)
	focusedYes := button.Foreground(s.Thm.AccentFg).Background(yesColour).Bold(true)
	focusedNo := button.Foreground(s.Thm.AccentFg).Background(s.Thm.Accent).Bold(true)
	unfocused := button.Foreground(s.Thm.MutedFg).Background(s.Thm.BorderDim)

	yes, no := unfocused.Render("[Yes]"), unfocused.Render("[No]")
	if s.SelectedButton == 0 {
		yes = focusedYes.Render("[Yes]")
	} else {
		no = focusedNo.Render("[No]")
	}

	content := fmt.Sprintf("%s\n\n%s\n\n%s  %s",
		titleStyle.Render(s.Title),
		messageStyle.Render(s.Message),
		yes,
		no,
	)

	return boxStyle.Render(content)
}

// SetTheme updates the theme for this screen.
func (s *ConfirmScreen) SetTheme(thm *theme.Theme) {
	s.Thm = thm
}
