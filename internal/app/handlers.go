package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	appscreen "github.com/chmouel/lazystage/internal/app/screen"
	log "github.com/chmouel/lazystage/internal/log"
	"github.com/chmouel/lazystage/internal/stage"
)

const (
	keyTab    = "tab"
	keyEnter  = "enter"
	keySpace  = " "
	keyDown   = "down"
	keyUp     = "up"
	keyCtrlC  = "ctrl+c"
	warnTitle = "Warning"
	errTitle  = "Error"
)

// Update handles all Bubble Tea messages. Every change to the model,
// including the git calls made by toggles, happens here on the UI goroutine.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case reloadMsg:
		if err := m.reload(); err != nil {
			m.showError(errTitle, err)
		}
		return m, nil

	case repoChangedMsg:
		m.watch.ResetWaiting()
		if m.push == nil && m.watch.ShouldRefresh(time.Now()) {
			log.Printf("auto refresh: repository changed")
			if err := m.refresh(); err != nil {
				m.statusLine = err.Error()
			}
		}
		return m, m.waitForRepoChange()

	case pushEventMsg:
		return m, m.handlePushEvent(msg)

	case progressTickMsg:
		if msg.ex == nil || msg.ex != m.push || m.progress == nil {
			return m, nil
		}
		m.progress.Tick()
		return m, progressTick(msg.ex)

	case tea.KeyMsg:
		if m.screens.IsActive() {
			return m, m.handleScreenKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

// handleScreenKey forwards a key to the top screen. Callbacks may push new
// screens, so a closing screen is removed by identity rather than popped.
func (m *Model) handleScreenKey(msg tea.KeyMsg) tea.Cmd {
	scr := m.screens.Current()
	next, cmd := scr.Update(msg)
	if next == nil {
		m.screens.Remove(scr)
	}
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", keyCtrlC:
		m.quitting = true
		m.shutdown()
		return m, tea.Quit

	case keyTab, "shift+tab", "h", "l", "left", "right":
		if m.focused == paneUnstaged {
			m.focused = paneStaged
		} else {
			m.focused = paneUnstaged
		}

	case "j", keyDown:
		if n := len(m.entries(m.focused)); m.cursor[m.focused] < n-1 {
			m.cursor[m.focused]++
		}

	case "k", keyUp:
		if m.cursor[m.focused] > 0 {
			m.cursor[m.focused]--
		}

	case "g", "home":
		m.cursor[m.focused] = 0

	case "G", "end":
		m.cursor[m.focused] = max(len(m.entries(m.focused))-1, 0)

	case keySpace, keyEnter:
		m.toggleSelected()

	case "a":
		m.stageAll()

	case "u":
		m.unstageAll()

	case "d":
		m.showDiff()

	case "c":
		m.editCommitMessage()

	case "P":
		return m, m.requestPush()

	case "r":
		if err := m.reload(); err != nil {
			m.showError(errTitle, err)
		} else {
			m.statusLine = "Refreshed"
		}

	case "x":
		m.confirmRestore()
	}
	return m, nil
}

func (m *Model) showError(title string, err error) {
	log.Printf("%s: %v", strings.ToLower(title), err)
	m.screens.Push(appscreen.NewErrorScreen(title, err, m.theme))
}

func (m *Model) showInfo(title, message string) {
	m.screens.Push(appscreen.NewInfoScreen(title, message, m.theme))
}

func (m *Model) showWarning(message string) {
	s := appscreen.NewInfoScreen(warnTitle, message, m.theme)
	s.IsError = true
	m.screens.Push(s)
}

// toggleSelected moves the entry under the cursor to the other list. When
// git refuses, the lists are reloaded so they show what git really has.
func (m *Model) toggleSelected() {
	entry, ok := m.selected()
	if !ok {
		return
	}
	if err := m.session.Toggle(m.ctx, entry.Path); err != nil {
		m.showError(errTitle, err)
		if rerr := m.reload(); rerr != nil {
			log.Printf("reload after failed toggle: %v", rerr)
		}
		return
	}
	m.syncFromModel()
	if entry.Staged {
		m.statusLine = "Unstaged " + entry.Path
	} else {
		m.statusLine = "Staged " + entry.Path
	}
}

func (m *Model) stageAll() {
	if len(m.unstaged) == 0 {
		m.showWarning(stage.NothingToAddMsg)
		return
	}
	m.confirmBulk(stage.StageAllPrompt, stage.StageAllDeclined, "Staged all changes", func() error {
		return m.session.Model().StageAllConfirmed(m.ctx)
	})
}

func (m *Model) unstageAll() {
	if len(m.staged) == 0 {
		m.showWarning(stage.NothingToResetMsg)
		return
	}
	m.confirmBulk(stage.UnstageAllPrompt, stage.UnstageAllDeclined, "Unstaged all changes", func() error {
		return m.session.Model().UnstageAllConfirmed(m.ctx)
	})
}

func (m *Model) confirmBulk(prompt, declined, done string, apply func() error) {
	confirm := appscreen.NewConfirmScreen("Are you sure?", prompt, m.theme)
	confirm.SelectedButton = 1
	confirm.OnConfirm = func() tea.Cmd {
		if err := apply(); err != nil {
			m.showError(errTitle, err)
			if rerr := m.reload(); rerr != nil {
				log.Printf("reload after failed bulk change: %v", rerr)
			}
			return nil
		}
		m.syncFromModel()
		m.statusLine = done
		return nil
	}
	confirm.OnCancel = func() tea.Cmd {
		m.showInfo("Cancelled", declined)
		return nil
	}
	m.screens.Push(confirm)
}

func (m *Model) showDiff() {
	entry, ok := m.selected()
	if !ok {
		return
	}
	diff, err := m.session.DiffText(m.ctx, entry.Path)
	if err != nil {
		m.showError(errTitle, err)
		return
	}
	if m.repo != nil {
		diff = m.repo.ApplyGitPager(m.ctx, diff)
	}
	m.screens.Push(appscreen.NewDiffScreen(entry.Path, diff, diff, m.windowWidth, m.windowHeight, m.theme, m.config.ShowIcons))
}

func (m *Model) editCommitMessage() {
	ta := appscreen.NewTextareaScreen("Commit message", "Describe the change", m.commitMessage, m.windowWidth, m.windowHeight, m.theme)
	ta.Validate = func(value string) string {
		if strings.TrimSpace(value) == "" {
			return "Commit message cannot be empty"
		}
		return ""
	}
	ta.OnSubmit = func(value string) tea.Cmd {
		m.commitMessage = value
		m.statusLine = "Commit message saved"
		return nil
	}
	m.screens.Push(ta)
}

func (m *Model) confirmRestore() {
	entry, ok := m.selected()
	if !ok || m.focused != paneUnstaged {
		return
	}
	if entry.Untracked() {
		m.showWarning(fmt.Sprintf("%s is untracked, there is nothing to restore", entry.Path))
		return
	}
	confirm := appscreen.NewConfirmScreen("Discard changes",
		fmt.Sprintf("Discard all unstaged changes to %s?", entry.Path), m.theme)
	confirm.Destructive = true
	confirm.SelectedButton = 1
	confirm.OnConfirm = func() tea.Cmd {
		if err := m.session.Restore(m.ctx, entry.Path); err != nil {
			m.showError(errTitle, err)
			return nil
		}
		m.syncFromModel()
		m.statusLine = "Restored " + entry.Path
		return nil
	}
	m.screens.Push(confirm)
}

// pushWarning maps a rejected push to the message shown to the user.
func pushWarning(err error) string {
	switch {
	case errors.Is(err, stage.ErrNothingStaged):
		return "There are no staged files."
	case errors.Is(err, stage.ErrEmptyMessage):
		return "Write a commit message first (press c)."
	case errors.Is(err, stage.ErrPushInFlight):
		return "A push is already running."
	default:
		return err.Error()
	}
}
