package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/chmouel/lazystage/internal/runner"
)

type reloadMsg struct{}

type repoChangedMsg struct{}

type progressTickMsg struct {
	ex *runner.Execution
}

type pushEventMsg struct {
	ex    *runner.Execution
	event runner.Event
	ok    bool
}

const progressTickInterval = 150 * time.Millisecond

// waitForPushEvent reads one event from ex. The runner never blocks on
// its channel, so reading one event per command keeps the UI goroutine
// as the only place where state changes.
func waitForPushEvent(ex *runner.Execution) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ex.Events()
		return pushEventMsg{ex: ex, event: ev, ok: ok}
	}
}

func progressTick(ex *runner.Execution) tea.Cmd {
	return tea.Tick(progressTickInterval, func(time.Time) tea.Msg {
		return progressTickMsg{ex: ex}
	})
}
