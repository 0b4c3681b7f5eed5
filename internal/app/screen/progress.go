package screen

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/chmouel/lazystage/internal/theme"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// StoppingMessage replaces the progress text once a cancel was confirmed.
const StoppingMessage = "Stopping..."

// DefaultWrapWidth is the column at which progress text is wrapped.
const DefaultWrapWidth = 35

// ProgressScreen shows the latest line printed by a running command. Esc
// asks for cancellation through OnCancelRequest; the screen itself never
// closes, the owner removes it when the command ends.
type ProgressScreen struct {
	Title          string
	Message        string
	WrapWidth      int
	Stopping       bool
	FrameIdx       int
	BorderColorIdx int
	SpinnerFrames  []string
	Thm            *theme.Theme

	OnCancelRequest func() tea.Cmd
}

// DefaultSpinnerFrames returns the text-only spinner frames.
func DefaultSpinnerFrames() []string {
	return []string{"...", ".. ", ".  "}
}

// NewProgressScreen creates a progress modal.
func NewProgressScreen(title, message string, wrapWidth int, thm *theme.Theme) *ProgressScreen {
	if wrapWidth <= 0 {
		wrapWidth = DefaultWrapWidth
	}
	return &ProgressScreen{
		Title:         title,
		Message:       message,
		WrapWidth:     wrapWidth,
		SpinnerFrames: DefaultSpinnerFrames(),
		Thm:           thm,
	}
}

// Type returns the screen type.
func (s *ProgressScreen) Type() Type {
	return TypeProgress
}

// Update handles key events. Only a cancel request is recognised, and only
// until the stop is under way.
func (s *ProgressScreen) Update(msg tea.KeyMsg) (Screen, tea.Cmd) {
	switch msg.String() {
	case keyEsc, keyEscRaw, keyCtrlC:
		if s.Stopping || s.OnCancelRequest == nil {
			return s, nil
		}
		return s, s.OnCancelRequest()
	}
	return s, nil
}

// SetMessage replaces the displayed progress text. It is ignored once the
// screen is stopping so late output does not hide the stop notice.
func (s *ProgressScreen) SetMessage(text string) {
	if s.Stopping {
		return
	}
	s.Message = text
}

// MarkStopping switches to the stopping notice and disables further cancels.
func (s *ProgressScreen) MarkStopping() {
	s.Stopping = true
	s.Message = StoppingMessage
}

// Wrapped returns the message wrapped at WrapWidth. Words longer than the
// width are hard wrapped.
func (s *ProgressScreen) Wrapped() string {
	return wrap.String(wordwrap.String(s.Message, s.WrapWidth), s.WrapWidth)
}

func (s *ProgressScreen) borderColors() []lipgloss.Color {
	return []lipgloss.Color{
		s.Thm.Accent,
		s.Thm.SuccessFg,
		s.Thm.WarnFg,
		s.Thm.Accent,
	}
}

// Tick advances the spinner frame and border colour.
func (s *ProgressScreen) Tick() {
	s.FrameIdx = (s.FrameIdx + 1) % len(s.SpinnerFrames)
	s.BorderColorIdx = (s.BorderColorIdx + 1) % len(s.borderColors())
}

// View renders the progress modal.
func (s *ProgressScreen) View() string {
	width := max(s.WrapWidth+8, 44)
	msgLines := 6

	colours := s.borderColors()
	borderColour := colours[s.BorderColorIdx%len(colours)]
	if s.Stopping {
		borderColour = s.Thm.WarnFg
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColour).
		Padding(1, 2).
		Width(width)

	titleStyle := lipgloss.NewStyle().Foreground(s.Thm.Accent).Bold(true)
	spinnerStyle := lipgloss.NewStyle().Foreground(s.Thm.Accent).Bold(true)
	messageStyle := lipgloss.NewStyle().
		Foreground(s.Thm.TextFg).
		Height(msgLines)
	if s.Stopping {
		messageStyle = messageStyle.Foreground(s.Thm.WarnFg)
	}
	hintStyle := lipgloss.NewStyle().Foreground(s.Thm.MutedFg).Italic(true)

	hint := "Esc cancel"
	if s.Stopping {
		hint = "waiting for git to exit"
	}

	separator := lipgloss.NewStyle().
		Foreground(s.Thm.BorderDim).
		Render(strings.Repeat("-", width-6))

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(s.Title)+"  "+spinnerStyle.Render(s.SpinnerFrames[s.FrameIdx%len(s.SpinnerFrames)]),
		"",
		messageStyle.Render(lastLines(s.Wrapped(), msgLines)),
		separator,
		hintStyle.Render(hint),
	)

	return boxStyle.Render(content)
}

// SetTheme updates the theme for this screen.
func (s *ProgressScreen) SetTheme(thm *theme.Theme) {
	s.Thm = thm
}
