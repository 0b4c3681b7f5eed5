package app

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/chmouel/lazystage/internal/config"
	"github.com/chmouel/lazystage/internal/runner"
	"github.com/chmouel/lazystage/internal/stage"
	"github.com/stretchr/testify/require"
)

const sampleStatus = " M foo.txt\n?? bar.txt\nM  baz.txt\n"

// fakeGit stands in for the git service and the repository information.
type fakeGit struct {
	status string
	failOn map[string]error
	ops    []string
}

func (f *fakeGit) record(op, path string) error {
	f.ops = append(f.ops, strings.TrimSpace(op+" "+path))
	if err, ok := f.failOn[op]; ok {
		return err
	}
	return nil
}

func (f *fakeGit) Status(context.Context, string) ([]string, error) {
	if err := f.record("status", ""); err != nil {
		return nil, err
	}
	return strings.Split(f.status, "\n"), nil
}

func (f *fakeGit) Add(_ context.Context, _, path string) error { return f.record("add", path) }
func (f *fakeGit) Reset(_ context.Context, _, path string) error { return f.record("reset", path) }
func (f *fakeGit) AddAll(context.Context, string) error { return f.record("add-all", "") }
func (f *fakeGit) ResetAll(context.Context, string) error { return f.record("reset-all", "") }

func (f *fakeGit) Diff(_ context.Context, _, path string) (string, error) {
	return "diff --git a/" + path + " b/" + path, f.record("diff", path)
}

func (f *fakeGit) DiffCached(_ context.Context, _, path string) (string, error) {
	return "cached " + path, f.record("diff-cached", path)
}

func (f *fakeGit) DiffUntracked(_ context.Context, _, path string) (string, error) {
	return "new file " + path, f.record("diff-untracked", path)
}

func (f *fakeGit) Restore(_ context.Context, _, path string) error {
	return f.record("restore", path)
}

func (f *fakeGit) CurrentBranch(context.Context, string) (string, error) {
	return "main", nil
}

func (f *fakeGit) GitDir(context.Context, string) (string, error) {
	return "", errors.New("no git dir in tests")
}

func (f *fakeGit) ApplyGitPager(_ context.Context, diff string) string {
	return diff
}

// scriptStarter runs a shell script in place of the commit and push steps
// and remembers the command it was asked to run.
type scriptStarter struct {
	mu       sync.Mutex
	script   string
	commands []runner.Command
}

func (s *scriptStarter) Start(ctx context.Context, command runner.Command) *runner.Execution {
	s.mu.Lock()
	s.commands = append(s.commands, command)
	s.mu.Unlock()
	return runner.New().Start(ctx, runner.Command{
		Label: command.Label,
		Steps: [][]string{{"sh", "-c", s.script}},
	})
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func testConfig() *config.AppConfig {
	cfg := config.DefaultConfig()
	cfg.ShowIcons = false
	cfg.AutoRefresh = false
	cfg.ConfirmPush = false
	return cfg
}

// loadedModel returns a model that already processed the initial reload.
func loadedModel(t *testing.T, status string) (*Model, *fakeGit, *scriptStarter) {
	t.Helper()
	fg := &fakeGit{status: status}
	st := &scriptStarter{script: "echo pushed"}
	m := NewModel(testConfig(), stage.NewSession("/repo", fg, st), fg)
	t.Cleanup(m.shutdown)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Update(reloadMsg{})
	require.False(t, m.screens.IsActive(), "initial load should not show an error")
	fg.ops = nil
	return m, fg, st
}

func press(m *Model, key string) tea.Cmd {
	var msg tea.KeyMsg
	switch key {
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "space":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+s":
		msg = tea.KeyMsg{Type: tea.KeyCtrlS}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

// drainPush feeds runner events into the model until the push is over.
func drainPush(t *testing.T, m *Model) {
	t.Helper()
	for i := 0; m.push != nil; i++ {
		require.Less(t, i, 1000, "push never finished")
		ex := m.push
		ch := make(chan tea.Msg, 1)
		go func() { ch <- waitForPushEvent(ex)() }()
		select {
		case msg := <-ch:
			m.Update(msg)
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for a push event")
		}
	}
}
