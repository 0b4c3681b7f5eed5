// Package git wraps the git executable for the staging, commit and push workflow.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	log "github.com/chmouel/lazystage/internal/log"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEmptyMessage is returned when a commit is requested with a blank message.
var ErrEmptyMessage = errors.New("commit message is empty")

// LookupPath is used to find executables in PATH. It's exposed as a package variable
// so tests can mock it and avoid depending on system binaries being installed.
var LookupPath = exec.LookPath

// CommandError describes a git invocation that could not be started or exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	command := strings.Join(e.Args, " ")
	if e.ExitCode > 0 {
		return fmt.Sprintf("%s (exit %d)", command, e.ExitCode)
	}
	return fmt.Sprintf("failed to run %s: %v", command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Service is the only component that spawns git processes.
type Service struct {
	commandRunner func(ctx context.Context, name string, args ...string) *exec.Cmd
	useGitPager   bool
	gitPager      string
	gitPagerArgs  []string
	maxDiffChars  int
}

// NewService constructs a Service running the real git binary.
func NewService() *Service {
	return &Service{
		commandRunner: exec.CommandContext,
	}
}

// SetCommandRunner overrides how processes are created. Intended for tests.
func (s *Service) SetCommandRunner(fn func(ctx context.Context, name string, args ...string) *exec.Cmd) {
	if fn == nil {
		fn = exec.CommandContext
	}
	s.commandRunner = fn
}

// SetGitPager sets the diff formatter command and enables it when found in PATH.
func (s *Service) SetGitPager(pager string) {
	s.gitPager = strings.TrimSpace(pager)
	s.useGitPager = false
	if s.gitPager == "" {
		return
	}
	if _, err := LookupPath(s.gitPager); err == nil {
		s.useGitPager = true
	}
}

// SetGitPagerArgs sets additional arguments used when formatting diffs.
func (s *Service) SetGitPagerArgs(args []string) {
	if len(args) == 0 {
		s.gitPagerArgs = nil
		return
	}
	s.gitPagerArgs = append([]string{}, args...)
}

// SetMaxDiffChars limits how much diff text is returned. Zero disables the limit.
func (s *Service) SetMaxDiffChars(n int) {
	s.maxDiffChars = max(n, 0)
}

// UseGitPager reports whether diff pager integration is enabled.
func (s *Service) UseGitPager() bool {
	return s.useGitPager
}

func (s *Service) debugf(format string, args ...any) {
	log.Printf(format, args...)
}

// run executes git -C repo args... and returns decoded stdout.
func (s *Service) run(ctx context.Context, repo string, okReturncodes []int, args ...string) (string, error) {
	full := append([]string{"-C", repo}, args...)
	display := append([]string{"git"}, full...)
	command := strings.Join(display, " ")
	s.debugf("run: %s", command)

	// #nosec G204 -- fixed executable, arguments are passed without a shell
	cmd := s.commandRunner(ctx, "git", full...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			if slices.Contains(okReturncodes, exitError.ExitCode()) {
				s.debugf("ok: %s (exit %d)", command, exitError.ExitCode())
				return DecodeOutput(output), nil
			}
			cerr := &CommandError{
				Args:     display,
				ExitCode: exitError.ExitCode(),
				Stderr:   strings.TrimSpace(DecodeOutput(stderr.Bytes())),
				Err:      err,
			}
			s.debugf("error: %s: %v", command, cerr)
			return "", cerr
		}
		s.debugf("error: %s: %v", command, err)
		return "", &CommandError{Args: display, Err: err}
	}

	s.debugf("ok: %s", command)
	return DecodeOutput(output), nil
}

// DecodeOutput converts git output to UTF-8, substituting U+FFFD for invalid sequences.
func DecodeOutput(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	decoded, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), b)
	if err != nil {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}
	return string(decoded)
}

// ConfigureQuotePathOff makes git print non-ASCII paths verbatim instead of octal escapes.
func (s *Service) ConfigureQuotePathOff(ctx context.Context, repo string) error {
	if _, err := s.run(ctx, repo, nil, "config", "core.quotepath", "off"); err != nil {
		return fmt.Errorf("configure core.quotepath: %w", err)
	}
	return nil
}

// ConfigGetRegexp lists config entries matching pattern from the global or
// the repository scope. No match is not an error.
func (s *Service) ConfigGetRegexp(ctx context.Context, repo, pattern string, global bool) (string, error) {
	scope := "--local"
	if global {
		scope = "--global"
	}
	return s.run(ctx, repo, []int{1}, "config", scope, "--get-regexp", pattern)
}

// Status returns the raw lines of git status --porcelain.
func (s *Service) Status(ctx context.Context, repo string) ([]string, error) {
	if err := s.ConfigureQuotePathOff(ctx, repo); err != nil {
		return nil, err
	}
	out, err := s.run(ctx, repo, nil, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines, nil
}

// Add stages one path.
func (s *Service) Add(ctx context.Context, repo, path string) error {
	_, err := s.run(ctx, repo, nil, "add", "--", PathArg(path))
	return err
}

// AddAll stages every change in the working tree.
func (s *Service) AddAll(ctx context.Context, repo string) error {
	_, err := s.run(ctx, repo, nil, "add", "--all")
	return err
}

// Reset unstages one path.
func (s *Service) Reset(ctx context.Context, repo, path string) error {
	_, err := s.run(ctx, repo, nil, "reset", "--", PathArg(path))
	return err
}

// ResetAll unstages everything.
func (s *Service) ResetAll(ctx context.Context, repo string) error {
	_, err := s.run(ctx, repo, nil, "reset", "HEAD")
	return err
}

// Commit creates a commit. The message is passed as a single argument.
func (s *Service) Commit(ctx context.Context, repo, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}
	return s.run(ctx, repo, nil, "commit", "-m", message)
}

// Push pushes the current branch to its configured upstream.
func (s *Service) Push(ctx context.Context, repo string) (string, error) {
	return s.run(ctx, repo, nil, "push")
}

// CommitAndPushSteps returns the argument vectors of the commit then push sequence.
func CommitAndPushSteps(repo, message string) ([][]string, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	return [][]string{
		{"git", "-C", repo, "commit", "-m", message},
		{"git", "-C", repo, "push"},
	}, nil
}

// Diff returns the raw working tree diff of one path.
func (s *Service) Diff(ctx context.Context, repo, path string) (string, error) {
	out, err := s.run(ctx, repo, nil, "diff", "--", PathArg(path))
	if err != nil {
		return "", err
	}
	return s.truncateDiff(out), nil
}

// DiffCached returns the raw index diff of one path.
func (s *Service) DiffCached(ctx context.Context, repo, path string) (string, error) {
	out, err := s.run(ctx, repo, nil, "diff", "--cached", "--", PathArg(path))
	if err != nil {
		return "", err
	}
	return s.truncateDiff(out), nil
}

// DiffUntracked renders an untracked file as an all-added diff.
func (s *Service) DiffUntracked(ctx context.Context, repo, path string) (string, error) {
	// git diff --no-index exits 1 when the files differ
	out, err := s.run(ctx, repo, []int{1}, "diff", "--no-index", "/dev/null", PathArg(path))
	if err != nil {
		return "", err
	}
	return s.truncateDiff(out), nil
}

func (s *Service) truncateDiff(diff string) string {
	if s.maxDiffChars <= 0 || len(diff) <= s.maxDiffChars {
		return diff
	}
	cut := diff[:s.maxDiffChars]
	for !utf8.ValidString(cut) && len(cut) > 0 {
		cut = cut[:len(cut)-1]
	}
	return cut + fmt.Sprintf("\n\n[...truncated at %d chars]", s.maxDiffChars)
}

// Restore discards working tree changes of path.
func (s *Service) Restore(ctx context.Context, repo, path string) error {
	_, err := s.run(ctx, repo, nil, "restore", "--", PathArg(path))
	return err
}

// RepoRoot returns the top level directory of the repository containing dir.
func (s *Service) RepoRoot(ctx context.Context, dir string) (string, error) {
	out, err := s.run(ctx, dir, nil, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// GitDir returns the absolute path of the repository's .git directory.
func (s *Service) GitDir(ctx context.Context, repo string) (string, error) {
	out, err := s.run(ctx, repo, nil, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CurrentBranch returns the checked out branch, or "HEAD" when detached.
func (s *Service) CurrentBranch(ctx context.Context, repo string) (string, error) {
	out, err := s.run(ctx, repo, nil, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ApplyGitPager pipes diff output through the configured git pager when available.
func (s *Service) ApplyGitPager(ctx context.Context, diff string) string {
	if !s.useGitPager || diff == "" {
		return diff
	}

	args := []string{}
	if s.gitPager == "delta" {
		args = append(args, "--no-gitconfig", "--paging=never")
	}
	args = append(args, s.gitPagerArgs...)
	// #nosec G204 -- git_pager comes from local config and is controlled by the user
	cmd := s.commandRunner(ctx, s.gitPager, args...)
	cmd.Stdin = strings.NewReader(diff)
	output, err := cmd.Output()
	if err != nil {
		s.debugf("git pager %s failed: %v", s.gitPager, err)
		return diff
	}
	return string(output)
}

// PathArg turns a path as printed by git status into a command argument.
// C-quoted paths are unquoted, anything else is used as is.
func PathArg(path string) string {
	if len(path) >= 2 && strings.HasPrefix(path, `"`) && strings.HasSuffix(path, `"`) {
		if unquoted, err := strconv.Unquote(path); err == nil {
			return unquoted
		}
	}
	return path
}
