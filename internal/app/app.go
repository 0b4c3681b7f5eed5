// Package app implements the lazystage terminal UI: two file lists, a
// commit message editor and a cancellable commit and push.
package app

import (
	"context"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	appscreen "github.com/chmouel/lazystage/internal/app/screen"
	"github.com/chmouel/lazystage/internal/app/services"
	"github.com/chmouel/lazystage/internal/config"
	log "github.com/chmouel/lazystage/internal/log"
	"github.com/chmouel/lazystage/internal/models"
	"github.com/chmouel/lazystage/internal/runner"
	"github.com/chmouel/lazystage/internal/stage"
	"github.com/chmouel/lazystage/internal/theme"
)

// RepoInfo is what the header, the diff viewer and the watcher need from git.
type RepoInfo interface {
	CurrentBranch(ctx context.Context, repo string) (string, error)
	GitDir(ctx context.Context, repo string) (string, error)
	ApplyGitPager(ctx context.Context, diff string) string
}

type pane int

const (
	paneUnstaged pane = iota
	paneStaged
)

func (p pane) title() string {
	if p == paneStaged {
		return "Staged"
	}
	return "Unstaged"
}

// Model is the bubbletea model of the staging screen.
type Model struct {
	config  *config.AppConfig
	theme   *theme.Theme
	session *stage.Session
	repo    RepoInfo

	ctx    context.Context
	cancel context.CancelFunc

	screens *appscreen.Manager
	watch   *services.RepoWatchService

	unstaged []models.ChangeEntry
	staged   []models.ChangeEntry
	cursor   [2]int
	focused  pane

	branch        string
	commitMessage string
	statusLine    string

	push          *runner.Execution
	progress      *appscreen.ProgressScreen
	cancelConfirm *appscreen.ConfirmScreen

	windowWidth  int
	windowHeight int
	quitting     bool
}

// NewModel creates the UI for session. repo may be nil in which case the
// branch is not shown, diffs are not paged and auto refresh is off.
func NewModel(cfg *config.AppConfig, session *stage.Session, repo RepoInfo) *Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Model{
		config:  cfg,
		theme:   theme.GetTheme(cfg.Theme),
		session: session,
		repo:    repo,
		ctx:     ctx,
		cancel:  cancel,
		screens: appscreen.NewManager(),
		watch:   services.NewRepoWatchService(log.Printf),
	}
}

// Init loads the status and starts the repository watcher.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return reloadMsg{} },
		m.startWatcher(),
	)
}

func (m *Model) startWatcher() tea.Cmd {
	if !m.config.AutoRefresh || m.repo == nil {
		return nil
	}
	gitDir, err := m.repo.GitDir(m.ctx, m.session.Repo())
	if err != nil {
		log.Printf("auto refresh: %v", err)
		return nil
	}
	started, err := m.watch.Start(gitDir)
	if err != nil {
		log.Printf("auto refresh: watching %s: %v", gitDir, err)
		return nil
	}
	if !started {
		return nil
	}
	return m.waitForRepoChange()
}

// waitForRepoChange arms the watcher. NextEvent is read here, on the UI
// goroutine, so only the channel receive happens in the command.
func (m *Model) waitForRepoChange() tea.Cmd {
	ch := m.watch.NextEvent()
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return repoChangedMsg{}
	}
}

// repoName is shown in the header.
func (m *Model) repoName() string {
	return filepath.Base(m.session.Repo())
}

// reload replaces both lists with git status order, keeping cursors in range.
func (m *Model) reload() error {
	return m.applySnapshot(m.session.LoadSnapshot)
}

// refresh merges the current git status without reordering the lists.
func (m *Model) refresh() error {
	return m.applySnapshot(m.session.RefreshSnapshot)
}

func (m *Model) applySnapshot(load func(context.Context) (models.StatusSnapshot, error)) error {
	snap, err := load(m.ctx)
	if err != nil {
		return err
	}
	m.unstaged = snap.Unstaged
	m.staged = snap.Staged
	m.clampCursors()
	if m.repo != nil {
		if branch, err := m.repo.CurrentBranch(m.ctx, m.session.Repo()); err == nil {
			m.branch = branch
		}
	}
	return nil
}

// syncFromModel copies the session buckets after an in-memory change.
func (m *Model) syncFromModel() {
	m.unstaged = m.session.Model().Unstaged()
	m.staged = m.session.Model().Staged()
	m.clampCursors()
}

func (m *Model) entries(p pane) []models.ChangeEntry {
	if p == paneStaged {
		return m.staged
	}
	return m.unstaged
}

func (m *Model) clampCursors() {
	for _, p := range []pane{paneUnstaged, paneStaged} {
		n := len(m.entries(p))
		switch {
		case n == 0:
			m.cursor[p] = 0
		case m.cursor[p] >= n:
			m.cursor[p] = n - 1
		case m.cursor[p] < 0:
			m.cursor[p] = 0
		}
	}
}

// selected returns the entry under the cursor of the focused pane.
func (m *Model) selected() (models.ChangeEntry, bool) {
	list := m.entries(m.focused)
	if len(list) == 0 {
		return models.ChangeEntry{}, false
	}
	return list[m.cursor[m.focused]], true
}

// shutdown stops background work. A running push is cancelled rather
// than left behind.
func (m *Model) shutdown() {
	if m.push != nil {
		m.session.Cancel(m.push)
	}
	m.watch.Stop()
	m.cancel()
}

// CommitMessage returns the message that the next push will use.
func (m *Model) CommitMessage() string {
	return m.commitMessage
}
