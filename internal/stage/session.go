package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chmouel/lazystage/internal/git"
	"github.com/chmouel/lazystage/internal/models"
	"github.com/chmouel/lazystage/internal/runner"
)

// Precondition errors of StartPush. They are detected before any process is spawned.
var (
	ErrNothingStaged = errors.New("no staged files to commit")
	ErrEmptyMessage  = git.ErrEmptyMessage
	ErrPushInFlight  = errors.New("a push is already running")
)

// PushLabel names the commit and push execution.
const PushLabel = "Git Push"

// GitService is everything a Session needs from the git adapter.
type GitService interface {
	Adapter
	Diff(ctx context.Context, repo, path string) (string, error)
	DiffCached(ctx context.Context, repo, path string) (string, error)
	DiffUntracked(ctx context.Context, repo, path string) (string, error)
	Restore(ctx context.Context, repo, path string) error
}

// Starter launches background executions.
type Starter interface {
	Start(ctx context.Context, command runner.Command) *runner.Execution
}

// Session is the surface offered to the presentation layer: one repository,
// its status buckets and at most one commit and push in flight.
type Session struct {
	model   *Model
	git     GitService
	starter Starter
	current *runner.Execution
}

// NewSession binds a repository path to the git service and runner.
func NewSession(repo string, gitSvc GitService, starter Starter) *Session {
	return &Session{
		model:   NewModel(repo, gitSvc),
		git:     gitSvc,
		starter: starter,
	}
}

// Repo returns the repository path.
func (s *Session) Repo() string {
	return s.model.Repo()
}

// Model exposes the underlying buckets.
func (s *Session) Model() *Model {
	return s.model
}

// LoadSnapshot refreshes the buckets from git status.
func (s *Session) LoadSnapshot(ctx context.Context) (models.StatusSnapshot, error) {
	if err := s.model.Load(ctx); err != nil {
		return models.StatusSnapshot{}, err
	}
	return s.model.Snapshot(), nil
}

// RefreshSnapshot merges git status into the buckets, keeping their order.
func (s *Session) RefreshSnapshot(ctx context.Context) (models.StatusSnapshot, error) {
	if err := s.model.Refresh(ctx); err != nil {
		return models.StatusSnapshot{}, err
	}
	return s.model.Snapshot(), nil
}

// Toggle moves path between buckets.
func (s *Session) Toggle(ctx context.Context, path string) error {
	return s.model.Toggle(ctx, path)
}

// StageAllWithConfirmation stages everything after confirm agreed.
func (s *Session) StageAllWithConfirmation(ctx context.Context, confirm ConfirmFunc) (Outcome, error) {
	return s.model.StageAll(ctx, confirm)
}

// UnstageAllWithConfirmation unstages everything after confirm agreed.
func (s *Session) UnstageAllWithConfirmation(ctx context.Context, confirm ConfirmFunc) (Outcome, error) {
	return s.model.UnstageAll(ctx, confirm)
}

// DiffText returns the raw diff of path: the index diff for staged entries,
// an all-added diff for untracked files and the working tree diff otherwise.
func (s *Session) DiffText(ctx context.Context, path string) (string, error) {
	entry, ok := s.model.Lookup(path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}
	switch {
	case entry.Staged:
		return s.git.DiffCached(ctx, s.Repo(), entry.GitPath())
	case entry.Untracked():
		return s.git.DiffUntracked(ctx, s.Repo(), entry.GitPath())
	default:
		return s.git.Diff(ctx, s.Repo(), entry.GitPath())
	}
}

// Restore discards the working tree changes of an unstaged tracked path and
// refreshes the buckets.
func (s *Session) Restore(ctx context.Context, path string) error {
	entry, ok := s.model.Lookup(path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}
	if entry.Staged || entry.Untracked() {
		return fmt.Errorf("cannot restore %s: only unstaged changes to tracked files can be discarded", path)
	}
	if err := s.git.Restore(ctx, s.Repo(), entry.GitPath()); err != nil {
		return fmt.Errorf("restore %s: %w", path, err)
	}
	return s.model.Refresh(ctx)
}

// ValidatePush checks the push preconditions without starting anything.
func (s *Session) ValidatePush(message string) error {
	if s.PushInFlight() {
		return ErrPushInFlight
	}
	if len(s.model.staged) == 0 {
		return ErrNothingStaged
	}
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	return nil
}

// StartPush commits the staged changes with message and pushes, in the background.
func (s *Session) StartPush(ctx context.Context, message string) (*runner.Execution, error) {
	if err := s.ValidatePush(message); err != nil {
		return nil, err
	}
	steps, err := git.CommitAndPushSteps(s.Repo(), message)
	if err != nil {
		return nil, err
	}
	s.current = s.starter.Start(ctx, runner.Command{
		Label: PushLabel,
		Dir:   s.Repo(),
		Steps: steps,
	})
	return s.current, nil
}

// PushInFlight reports whether a started push has not finished yet.
func (s *Session) PushInFlight() bool {
	return s.current != nil && s.current.State() == runner.StateRunning
}

// Cancel asks ex to stop. It returns immediately.
func (s *Session) Cancel(ex *runner.Execution) {
	if ex == nil {
		return
	}
	ex.Cancel()
}
