package stage

import (
	"context"
	"errors"
	"fmt"
	"slices"

	log "github.com/chmouel/lazystage/internal/log"
	"github.com/chmouel/lazystage/internal/models"
)

// ErrUnknownPath is returned when toggling a path that is in neither bucket.
var ErrUnknownPath = errors.New("path is not in the status list")

// Adapter is the subset of the git service the model drives.
type Adapter interface {
	Status(ctx context.Context, repo string) ([]string, error)
	Add(ctx context.Context, repo, path string) error
	Reset(ctx context.Context, repo, path string) error
	AddAll(ctx context.Context, repo string) error
	ResetAll(ctx context.Context, repo string) error
}

// Outcome is the result of a bulk stage or unstage request.
type Outcome int

// Bulk operation outcomes.
const (
	OutcomeDone Outcome = iota
	OutcomeNothingToDo
	OutcomeDeclined
)

// User facing prompts and messages of the bulk operations.
const (
	StageAllPrompt     = "Stage all changes?"
	UnstageAllPrompt   = "Unstage all changes?"
	NothingToAddMsg    = "Nothing to add"
	NothingToResetMsg  = "Nothing to unstage"
	StageAllDeclined   = "Staging all changes was cancelled."
	UnstageAllDeclined = "Unstaging all changes was cancelled."
)

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(prompt string) bool

// Model owns the two ordered buckets. It is not safe for concurrent use:
// it belongs to the interactive goroutine.
type Model struct {
	repo     string
	git      Adapter
	unstaged []models.ChangeEntry
	staged   []models.ChangeEntry
}

// NewModel returns an empty model for repo.
func NewModel(repo string, git Adapter) *Model {
	return &Model{repo: repo, git: git}
}

// Repo returns the repository path.
func (m *Model) Repo() string {
	return m.repo
}

// Load replaces both buckets with a fresh git status.
func (m *Model) Load(ctx context.Context) error {
	lines, err := m.git.Status(ctx, m.repo)
	if err != nil {
		return err
	}
	snap := Parse(lines)
	m.unstaged = snap.Unstaged
	m.staged = snap.Staged
	log.Printf("stage: loaded %d unstaged, %d staged", len(m.unstaged), len(m.staged))
	return nil
}

// Refresh merges a fresh git status into the buckets. Entries git still
// reports in the same bucket keep their place and take the new code,
// vanished entries are dropped and new ones are appended in git's order.
func (m *Model) Refresh(ctx context.Context) error {
	lines, err := m.git.Status(ctx, m.repo)
	if err != nil {
		return err
	}
	snap := Parse(lines)
	m.unstaged = reconcile(m.unstaged, snap.Unstaged)
	m.staged = reconcile(m.staged, snap.Staged)
	log.Printf("stage: refreshed %d unstaged, %d staged", len(m.unstaged), len(m.staged))
	return nil
}

// reconcile orders fresh like current, appending what current lacks.
func reconcile(current, fresh []models.ChangeEntry) []models.ChangeEntry {
	pending := make(map[string]models.ChangeEntry, len(fresh))
	for _, e := range fresh {
		pending[e.Path] = e
	}
	out := make([]models.ChangeEntry, 0, len(fresh))
	for _, e := range current {
		if f, ok := pending[e.Path]; ok {
			out = append(out, f)
			delete(pending, e.Path)
		}
	}
	for _, e := range fresh {
		if _, ok := pending[e.Path]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Snapshot returns a copy of both buckets.
func (m *Model) Snapshot() models.StatusSnapshot {
	return models.StatusSnapshot{
		Unstaged: slices.Clone(m.unstaged),
		Staged:   slices.Clone(m.staged),
	}
}

// Unstaged returns a copy of the unstaged bucket.
func (m *Model) Unstaged() []models.ChangeEntry {
	return slices.Clone(m.unstaged)
}

// Staged returns a copy of the staged bucket.
func (m *Model) Staged() []models.ChangeEntry {
	return slices.Clone(m.staged)
}

// Lookup returns the entry for path.
func (m *Model) Lookup(path string) (models.ChangeEntry, bool) {
	if i := indexOf(m.unstaged, path); i >= 0 {
		return m.unstaged[i], true
	}
	if i := indexOf(m.staged, path); i >= 0 {
		return m.staged[i], true
	}
	return models.ChangeEntry{}, false
}

func indexOf(entries []models.ChangeEntry, path string) int {
	return slices.IndexFunc(entries, func(e models.ChangeEntry) bool {
		return e.Path == path
	})
}

// Toggle moves path to the end of the other bucket and runs git add or
// git reset for it. The move is kept even when git fails; callers reload
// to resynchronise.
func (m *Model) Toggle(ctx context.Context, path string) error {
	if i := indexOf(m.unstaged, path); i >= 0 {
		entry := m.unstaged[i]
		m.unstaged = slices.Delete(m.unstaged, i, i+1)
		m.staged = append(m.staged, entry.Flipped())
		if err := m.git.Add(ctx, m.repo, entry.GitPath()); err != nil {
			return fmt.Errorf("stage %s: %w", path, err)
		}
		return nil
	}
	if i := indexOf(m.staged, path); i >= 0 {
		entry := m.staged[i]
		m.staged = slices.Delete(m.staged, i, i+1)
		m.unstaged = append(m.unstaged, entry.Flipped())
		if err := m.git.Reset(ctx, m.repo, entry.GitPath()); err != nil {
			return fmt.Errorf("unstage %s: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownPath, path)
}

// StageAll asks for confirmation and stages every unstaged entry.
// An empty unstaged bucket reports OutcomeNothingToDo without asking or
// calling git.
func (m *Model) StageAll(ctx context.Context, confirm ConfirmFunc) (Outcome, error) {
	if len(m.unstaged) == 0 {
		return OutcomeNothingToDo, nil
	}
	if confirm != nil && !confirm(StageAllPrompt) {
		return OutcomeDeclined, nil
	}
	return OutcomeDone, m.StageAllConfirmed(ctx)
}

// StageAllConfirmed toggles every unstaged entry in order, then runs git add --all.
func (m *Model) StageAllConfirmed(ctx context.Context) error {
	for _, entry := range slices.Clone(m.unstaged) {
		if err := m.Toggle(ctx, entry.Path); err != nil {
			return err
		}
	}
	if err := m.git.AddAll(ctx, m.repo); err != nil {
		return fmt.Errorf("stage all: %w", err)
	}
	return nil
}

// UnstageAll is the mirror of StageAll for the staged bucket.
func (m *Model) UnstageAll(ctx context.Context, confirm ConfirmFunc) (Outcome, error) {
	if len(m.staged) == 0 {
		return OutcomeNothingToDo, nil
	}
	if confirm != nil && !confirm(UnstageAllPrompt) {
		return OutcomeDeclined, nil
	}
	return OutcomeDone, m.UnstageAllConfirmed(ctx)
}

// UnstageAllConfirmed toggles every staged entry in order, then runs git reset HEAD.
func (m *Model) UnstageAllConfirmed(ctx context.Context) error {
	for _, entry := range slices.Clone(m.staged) {
		if err := m.Toggle(ctx, entry.Path); err != nil {
			return err
		}
	}
	if err := m.git.ResetAll(ctx, m.repo); err != nil {
		return fmt.Errorf("unstage all: %w", err)
	}
	return nil
}
