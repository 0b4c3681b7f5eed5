package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	appscreen "github.com/chmouel/lazystage/internal/app/screen"
	log "github.com/chmouel/lazystage/internal/log"
	"github.com/chmouel/lazystage/internal/runner"
	"github.com/chmouel/lazystage/internal/stage"
)

// requestPush checks the preconditions, then asks for confirmation when
// confirm_push is on.
func (m *Model) requestPush() tea.Cmd {
	if err := m.session.ValidatePush(m.commitMessage); err != nil {
		m.showWarning(pushWarning(err))
		return nil
	}
	if !m.config.ConfirmPush {
		return m.startPush()
	}
	confirm := appscreen.NewConfirmScreen("Are you sure?", "Commit the staged changes and push?", m.theme)
	confirm.SelectedButton = 1
	confirm.OnConfirm = m.startPush
	confirm.OnCancel = func() tea.Cmd {
		m.showInfo("Cancelled", "Push was cancelled.")
		return nil
	}
	m.screens.Push(confirm)
	return nil
}

func (m *Model) startPush() tea.Cmd {
	ex, err := m.session.StartPush(m.ctx, m.commitMessage)
	if err != nil {
		m.showWarning(pushWarning(err))
		return nil
	}
	m.push = ex
	m.progress = appscreen.NewProgressScreen("Pushing", "Starting...", m.config.ProgressWrapWidth, m.theme)
	m.progress.OnCancelRequest = m.requestCancel
	m.screens.Push(m.progress)
	log.Printf("push: started")
	return tea.Batch(waitForPushEvent(ex), progressTick(ex))
}

// requestCancel asks before stopping the running push. The progress screen
// stays up until the runner reports the terminal event.
func (m *Model) requestCancel() tea.Cmd {
	if m.push == nil || m.cancelConfirm != nil {
		return nil
	}
	ex := m.push
	confirm := appscreen.NewConfirmScreen("Confirm", "Stop the running operation?", m.theme)
	confirm.Destructive = true
	confirm.SelectedButton = 1
	confirm.OnConfirm = func() tea.Cmd {
		m.cancelConfirm = nil
		if ex != m.push {
			return nil
		}
		m.session.Cancel(ex)
		if m.progress != nil {
			m.progress.MarkStopping()
		}
		log.Printf("push: cancel requested")
		return nil
	}
	confirm.OnCancel = func() tea.Cmd {
		m.cancelConfirm = nil
		return nil
	}
	m.cancelConfirm = confirm
	m.screens.Push(confirm)
	return nil
}

func (m *Model) handlePushEvent(msg pushEventMsg) tea.Cmd {
	if msg.ex != m.push {
		return nil
	}
	if !msg.ok {
		// Channel closed without a terminal event reaching us; the
		// execution state still tells how it ended.
		return m.finishPush(msg.ex.State(), msg.ex.Output(), msg.ex.Err())
	}

	switch msg.event.Kind {
	case runner.EventProgress:
		if m.progress != nil {
			m.progress.SetMessage(msg.event.Text)
		}
		return waitForPushEvent(msg.ex)
	case runner.EventCompleted:
		return m.finishPush(runner.StateCompleted, msg.event.Text, "")
	case runner.EventFailed:
		return m.finishPush(runner.StateFailed, "", msg.event.Text)
	case runner.EventCancelled:
		return m.finishPush(runner.StateCancelled, "", msg.event.Text)
	}
	return waitForPushEvent(msg.ex)
}

// finishPush tears the progress UI down and reports the result.
func (m *Model) finishPush(state runner.State, output, errText string) tea.Cmd {
	if m.progress != nil {
		m.screens.Remove(m.progress)
	}
	if m.cancelConfirm != nil {
		m.screens.Remove(m.cancelConfirm)
	}
	m.push = nil
	m.progress = nil
	m.cancelConfirm = nil
	log.Printf("push: %s", state)

	switch state {
	case runner.StateCompleted:
		m.commitMessage = ""
		m.statusLine = "Pushed"
		msg := strings.TrimSpace(output)
		if msg == "" {
			msg = "Changes were committed and pushed."
		}
		m.showInfo("Success", msg)
	case runner.StateCancelled:
		m.statusLine = "Push cancelled"
		m.showInfo(stage.PushLabel, runner.CancelledMessage)
	default:
		m.statusLine = "Push failed"
		text := strings.TrimSpace(errText)
		if text == "" {
			text = "push failed"
		}
		s := appscreen.NewInfoScreen(errTitle, text, m.theme)
		s.IsError = true
		m.screens.Push(s)
	}

	if err := m.reload(); err != nil {
		log.Printf("reload after push: %v", err)
	}
	return nil
}
