package screen

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/chmouel/lazystage/internal/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConfirmScreenKeys(t *testing.T) {
	thm := theme.Dracula()

	s := NewConfirmScreen("Stage all", "Stage every file?", thm)
	updated, _ := s.Update(runeKey("l"))
	assert.Equal(t, 1, updated.(*ConfirmScreen).SelectedButton)

	tests := []struct {
		name        string
		key         tea.KeyMsg
		selected    int
		wantConfirm bool
	}{
		{name: "y confirms", key: runeKey("y"), wantConfirm: true},
		{name: "n cancels", key: runeKey("n")},
		{name: "esc cancels", key: tea.KeyMsg{Type: tea.KeyEsc}},
		{name: "enter on yes", key: tea.KeyMsg{Type: tea.KeyEnter}, wantConfirm: true},
		{name: "enter on no", key: tea.KeyMsg{Type: tea.KeyEnter}, selected: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewConfirmScreen("t", "m", thm)
			s.SelectedButton = tt.selected
			var confirmed, cancelled bool
			s.OnConfirm = func() tea.Cmd { confirmed = true; return nil }
			s.OnCancel = func() tea.Cmd { cancelled = true; return nil }

			next, _ := s.Update(tt.key)
			assert.Nil(t, next)
			assert.Equal(t, tt.wantConfirm, confirmed)
			assert.Equal(t, !tt.wantConfirm, cancelled)
		})
	}
}

func TestConfirmScreenViewShowsTitleAndMessage(t *testing.T) {
	s := NewConfirmScreen("Stage all", "Stage every file?", theme.Dracula())
	view := s.View()
	assert.Contains(t, view, "Stage all")
	assert.Contains(t, view, "Stage every file?")
	assert.Contains(t, view, "[Yes]")
	assert.Contains(t, view, "[No]")
}

func TestInfoScreen(t *testing.T) {
	thm := theme.Dracula()
	s := NewErrorScreen("Push failed", errors.New("fatal: no upstream"), thm)
	assert.True(t, s.IsError)
	assert.Contains(t, s.View(), "fatal: no upstream")

	closed := false
	s.OnClose = func() tea.Cmd { closed = true; return nil }
	next, _ := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, next)
	assert.True(t, closed)

	s = NewInfoScreen("Info", "x", thm)
	next, _ = s.Update(runeKey("z"))
	assert.Equal(t, s, next)
}

func TestProgressScreenWrapsAtWidth(t *testing.T) {
	s := NewProgressScreen("Git Push", "", 0, theme.Dracula())
	require.Equal(t, DefaultWrapWidth, s.WrapWidth)

	s.SetMessage("Enumerating objects: 12, done. Counting objects: 100% (12/12), done. Writing objects")
	for _, line := range strings.Split(s.Wrapped(), "\n") {
		assert.LessOrEqual(t, len(line), DefaultWrapWidth, line)
	}

	s.SetMessage(strings.Repeat("x", 80))
	for _, line := range strings.Split(s.Wrapped(), "\n") {
		assert.LessOrEqual(t, len(line), DefaultWrapWidth)
	}
}

func TestProgressScreenCancelFlow(t *testing.T) {
	s := NewProgressScreen("Git Push", "Running commit", 35, theme.Dracula())
	requests := 0
	s.OnCancelRequest = func() tea.Cmd {
		requests++
		return nil
	}

	next, _ := s.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, s, next, "progress screen never closes itself")
	assert.Equal(t, 1, requests)

	next, _ = s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, s, next)
	assert.Equal(t, 1, requests)

	s.MarkStopping()
	assert.Equal(t, StoppingMessage, s.Message)
	s.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 1, requests, "cancel is disabled while stopping")

	s.SetMessage("late output from git")
	assert.Equal(t, StoppingMessage, s.Message)
	assert.Contains(t, s.View(), StoppingMessage)
}

func TestProgressScreenTick(t *testing.T) {
	s := NewProgressScreen("Git Push", "", 35, theme.Dracula())
	assert.Equal(t, 0, s.FrameIdx)
	s.Tick()
	assert.Equal(t, 1, s.FrameIdx)
	s.Tick()
	s.Tick()
	assert.Equal(t, 0, s.FrameIdx)
}

func TestDiffScreen(t *testing.T) {
	diff := "diff --git a/foo.txt b/foo.txt\n-old\n+new\n"
	s := NewDiffScreen("foo.txt", diff, diff, 120, 40, theme.Dracula(), false)

	view := s.View()
	assert.Contains(t, view, BeforeTitle)
	assert.Contains(t, view, AfterTitle)
	assert.Contains(t, view, "+new")
	assert.Contains(t, view, "foo.txt")

	next, _ := s.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, next.(*DiffScreen).Focused)
	next, _ = s.Update(runeKey("j"))
	assert.NotNil(t, next)

	next, _ = s.Update(runeKey("q"))
	assert.Nil(t, next)
}

func TestDiffScreenEmptyText(t *testing.T) {
	s := NewDiffScreen("foo.txt", "", "", 80, 30, theme.Dracula(), false)
	assert.Contains(t, s.View(), "(no changes)")
}

func TestFileLabelUsesIconFunc(t *testing.T) {
	t.Cleanup(func() { SetFileIconFunc(nil) })
	SetFileIconFunc(func(name string) string { return "I" })

	assert.Equal(t, "I foo.go", fileLabel("foo.go", 40, true))
	assert.Equal(t, "foo.go", fileLabel("foo.go", 40, false))
	assert.Equal(t, "abcd...yz.go", fileLabel("abcdefghijklmnopqrstuvwxyz.go", 12, false))
}
