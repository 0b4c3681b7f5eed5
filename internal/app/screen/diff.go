package screen

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/chmouel/lazystage/internal/theme"
)

// Pane titles of the diff screen.
const (
	BeforeTitle = "Before"
	AfterTitle  = "After"
)

// DiffScreen shows git's diff text for one file in two read-only panes.
// No diff is computed: both panes receive the text as git printed it.
type DiffScreen struct {
	Path      string
	Before    viewport.Model
	After     viewport.Model
	Focused   int // 0 = Before, 1 = After
	ShowIcons bool
	Thm       *theme.Theme

	width  int
	height int
}

// NewDiffScreen creates a diff viewer sized relative to the terminal.
func NewDiffScreen(path, before, after string, maxWidth, maxHeight int, thm *theme.Theme, showIcons bool) *DiffScreen {
	s := &DiffScreen{
		Path:      path,
		Before:    viewport.New(0, 0),
		After:     viewport.New(0, 0),
		ShowIcons: showIcons,
		Thm:       thm,
	}
	s.Before.SetContent(emptyDiffPlaceholder(before))
	s.After.SetContent(emptyDiffPlaceholder(after))
	s.Resize(maxWidth, maxHeight)
	return s
}

func emptyDiffPlaceholder(text string) string {
	if strings.TrimSpace(text) == "" {
		return "(no changes)"
	}
	return text
}

// Resize fits both panes into a maxWidth x maxHeight window.
func (s *DiffScreen) Resize(maxWidth, maxHeight int) {
	if maxWidth <= 0 {
		maxWidth = 120
	}
	if maxHeight <= 0 {
		maxHeight = 40
	}
	s.width = clampInt(maxWidth-4, 40, maxWidth)
	s.height = clampInt(maxHeight-4, 10, maxHeight)

	paneWidth := (s.width - 4) / 2
	paneInner := max(paneWidth-4, 1)
	paneHeight := max(s.height-6, 1)
	s.Before.Width, s.Before.Height = paneInner, paneHeight
	s.After.Width, s.After.Height = paneInner, paneHeight
}

// Type returns the screen type.
func (s *DiffScreen) Type() Type {
	return TypeDiff
}

func (s *DiffScreen) focusedPane() *viewport.Model {
	if s.Focused == 1 {
		return &s.After
	}
	return &s.Before
}

// Update scrolls the focused pane; tab switches panes; esc or q closes.
func (s *DiffScreen) Update(msg tea.KeyMsg) (Screen, tea.Cmd) {
	pane := s.focusedPane()
	switch msg.String() {
	case keyEsc, keyEscRaw, keyQ, keyCtrlC:
		return nil, nil
	case keyTab, keyShiftTab, "left", "right", "h", "l":
		s.Focused = (s.Focused + 1) % 2
		return s, nil
	case "j", "down":
		pane.ScrollDown(1)
	case "k", "up":
		pane.ScrollUp(1)
	case "ctrl+d", "pgdown", " ":
		pane.HalfPageDown()
	case "ctrl+u", "pgup":
		pane.HalfPageUp()
	case "g", "home":
		pane.GotoTop()
	case "G", "end":
		pane.GotoBottom()
	}
	return s, nil
}

func (s *DiffScreen) renderPane(title string, vp viewport.Model, focused bool) string {
	border := s.Thm.BorderDim
	titleStyle := lipgloss.NewStyle().Foreground(s.Thm.MutedFg).Bold(true)
	if focused {
		border = s.Thm.Accent
		titleStyle = titleStyle.Foreground(s.Thm.Accent)
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(vp.Width + 2)
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), vp.View()))
}

// View renders the two panes side by side.
func (s *DiffScreen) View() string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Thm.Accent).
		Width(s.width)

	titleStyle := lipgloss.NewStyle().
		Foreground(s.Thm.Accent).
		Bold(true).
		Width(s.width).
		Align(lipgloss.Center)
	footerStyle := lipgloss.NewStyle().
		Foreground(s.Thm.MutedFg).
		Width(s.width).
		Align(lipgloss.Center)

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		s.renderPane(BeforeTitle, s.Before, s.Focused == 0),
		s.renderPane(AfterTitle, s.After, s.Focused == 1),
	)

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fileLabel(s.Path, s.width-4, s.ShowIcons)),
		panes,
		footerStyle.Render("j/k scroll • Tab switch pane • Esc close"),
	))
}

// SetTheme updates the theme for this screen.
func (s *DiffScreen) SetTheme(thm *theme.Theme) {
	s.Thm = thm
}
