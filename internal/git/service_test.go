package git

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupGitRepo creates a repository with one committed file.
func setupGitRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-b", "main"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test User"},
		{"config", "commit.gpgsign", "false"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		output, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, output)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "tracked.txt"), []byte("one\n"), 0o600))
	for _, args := range [][]string{
		{"add", "tracked.txt"},
		{"commit", "-m", "initial"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		output, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, output)
	}
	return dir
}

type recorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recorder) runner(ctx context.Context, name string, args ...string) *exec.Cmd {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()
	return exec.CommandContext(ctx, name, args...)
}

func (r *recorder) last() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func TestStatusClassifiesPorcelainLines(t *testing.T) {
	repo := setupGitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "tracked.txt"), []byte("two\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "new.txt"), []byte("new\n"), 0o600))

	svc := NewService()
	lines, err := svc.Status(context.Background(), repo)
	require.NoError(t, err)

	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, " M tracked.txt")
	assert.Contains(t, joined, "?? new.txt")
}

func TestStatusKeepsNonASCIIPathsLiteral(t *testing.T) {
	repo := setupGitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "güncelle.md"), []byte("x\n"), 0o600))

	svc := NewService()
	lines, err := svc.Status(context.Background(), repo)
	require.NoError(t, err)
	assert.Contains(t, lines, "?? güncelle.md")
}

func TestStatusOutsideRepositoryFails(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	svc := NewService()
	_, err := svc.Status(context.Background(), t.TempDir())
	require.Error(t, err)

	var cerr *CommandError
	require.ErrorAs(t, err, &cerr)
	assert.NotEmpty(t, cerr.Stderr)
}

func TestMissingExecutableIsReported(t *testing.T) {
	svc := NewService()
	svc.SetCommandRunner(func(ctx context.Context, _ string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "/nonexistent/git-binary", args...)
	})

	err := svc.AddAll(context.Background(), t.TempDir())
	require.Error(t, err)

	var cerr *CommandError
	require.ErrorAs(t, err, &cerr)
	assert.Zero(t, cerr.ExitCode)
	assert.Contains(t, err.Error(), "failed to run git")
}

func TestAddPassesPathWithSpaceAsOneArgument(t *testing.T) {
	repo := setupGitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "my file.txt"), []byte("x\n"), 0o600))

	rec := &recorder{}
	svc := NewService()
	svc.SetCommandRunner(rec.runner)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, repo, "my file.txt"))
	assert.Equal(t, []string{"git", "-C", repo, "add", "--", "my file.txt"}, rec.last())

	lines, err := svc.Status(ctx, repo)
	require.NoError(t, err)
	staged := false
	for _, line := range lines {
		if strings.HasPrefix(line, "A ") && strings.Contains(line, "my file.txt") {
			staged = true
		}
	}
	assert.True(t, staged, "expected my file.txt to be staged, got %q", lines)

	require.NoError(t, svc.Reset(ctx, repo, `"my file.txt"`))
	assert.Equal(t, []string{"git", "-C", repo, "reset", "--", "my file.txt"}, rec.last())
}

func TestAddAllAndResetAll(t *testing.T) {
	repo := setupGitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "a.txt"), []byte("a\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "tracked.txt"), []byte("changed\n"), 0o600))

	svc := NewService()
	ctx := context.Background()

	require.NoError(t, svc.AddAll(ctx, repo))
	lines, err := svc.Status(ctx, repo)
	require.NoError(t, err)
	assert.Contains(t, lines, "A  a.txt")
	assert.Contains(t, lines, "M  tracked.txt")

	require.NoError(t, svc.ResetAll(ctx, repo))
	lines, err = svc.Status(ctx, repo)
	require.NoError(t, err)
	assert.Contains(t, lines, "?? a.txt")
	assert.Contains(t, lines, " M tracked.txt")
}

func TestCommitRejectsEmptyMessageWithoutSpawning(t *testing.T) {
	rec := &recorder{}
	svc := NewService()
	svc.SetCommandRunner(rec.runner)

	_, err := svc.Commit(context.Background(), t.TempDir(), "  \n")
	require.ErrorIs(t, err, ErrEmptyMessage)
	assert.Nil(t, rec.last())
}

func TestCommitKeepsMessageAsSingleArgument(t *testing.T) {
	repo := setupGitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "tracked.txt"), []byte("two\n"), 0o600))

	rec := &recorder{}
	svc := NewService()
	svc.SetCommandRunner(rec.runner)
	ctx := context.Background()

	require.NoError(t, svc.AddAll(ctx, repo))
	_, err := svc.Commit(ctx, repo, "update tracked file && echo nope")
	require.NoError(t, err)
	assert.Equal(t, []string{"git", "-C", repo, "commit", "-m", "update tracked file && echo nope"}, rec.last())

	cmd := exec.Command("git", "log", "-1", "--format=%s")
	cmd.Dir = repo
	out, err := cmd.Output()
	require.NoError(t, err)
	assert.Equal(t, "update tracked file && echo nope", strings.TrimSpace(string(out)))
}

func TestPushWithoutUpstreamSurfacesStderr(t *testing.T) {
	repo := setupGitRepo(t)
	svc := NewService()

	_, err := svc.Push(context.Background(), repo)
	require.Error(t, err)

	var cerr *CommandError
	require.ErrorAs(t, err, &cerr)
	assert.NotZero(t, cerr.ExitCode)
	assert.Equal(t, cerr.Stderr, err.Error())
}

func TestDiffVariants(t *testing.T) {
	repo := setupGitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "tracked.txt"), []byte("two\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "fresh.txt"), []byte("fresh\n"), 0o600))

	svc := NewService()
	ctx := context.Background()

	diff, err := svc.Diff(ctx, repo, "tracked.txt")
	require.NoError(t, err)
	assert.Contains(t, diff, "-one")
	assert.Contains(t, diff, "+two")

	untracked, err := svc.DiffUntracked(ctx, repo, "fresh.txt")
	require.NoError(t, err)
	assert.Contains(t, untracked, "+fresh")

	require.NoError(t, svc.Add(ctx, repo, "tracked.txt"))
	cached, err := svc.DiffCached(ctx, repo, "tracked.txt")
	require.NoError(t, err)
	assert.Contains(t, cached, "+two")

	unstaged, err := svc.Diff(ctx, repo, "tracked.txt")
	require.NoError(t, err)
	assert.Empty(t, unstaged)
}

func TestDiffTruncation(t *testing.T) {
	svc := NewService()
	svc.SetMaxDiffChars(5)
	out := svc.truncateDiff("0123456789")
	assert.True(t, strings.HasPrefix(out, "01234"))
	assert.Contains(t, out, "[...truncated at 5 chars]")

	svc.SetMaxDiffChars(0)
	assert.Equal(t, "0123456789", svc.truncateDiff("0123456789"))
}

func TestRestoreUsesGivenPath(t *testing.T) {
	repo := setupGitRepo(t)
	path := filepath.Join(repo, "tracked.txt")
	require.NoError(t, os.WriteFile(path, []byte("dirty\n"), 0o600))

	rec := &recorder{}
	svc := NewService()
	svc.SetCommandRunner(rec.runner)

	require.NoError(t, svc.Restore(context.Background(), repo, "tracked.txt"))
	assert.Equal(t, []string{"git", "-C", repo, "restore", "--", "tracked.txt"}, rec.last())

	data, err := os.ReadFile(path) //nolint:gosec
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(data))
}

func TestRepoRootAndBranch(t *testing.T) {
	repo := setupGitRepo(t)
	sub := filepath.Join(repo, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	svc := NewService()
	ctx := context.Background()

	root, err := svc.RepoRoot(ctx, sub)
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(repo)
	require.NoError(t, err)
	actual, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)

	branch, err := svc.CurrentBranch(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)

	gitDir, err := svc.GitDir(ctx, sub)
	require.NoError(t, err)
	actual, err = filepath.EvalSymlinks(gitDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(expected, ".git"), actual)
}

func TestCommitAndPushSteps(t *testing.T) {
	steps, err := CommitAndPushSteps("/repo", "fix: handle spaces")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"git", "-C", "/repo", "commit", "-m", "fix: handle spaces"},
		{"git", "-C", "/repo", "push"},
	}, steps)

	_, err = CommitAndPushSteps("/repo", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestConfigGetRegexp(t *testing.T) {
	repo := setupGitRepo(t)
	global := filepath.Join(t.TempDir(), "gitconfig")
	require.NoError(t, os.WriteFile(global, []byte("[lazystage]\n\ttheme = nord\n"), 0o600))
	t.Setenv("GIT_CONFIG_GLOBAL", global)

	rec := &recorder{}
	svc := NewService()
	svc.SetCommandRunner(rec.runner)
	ctx := context.Background()

	_, err := svc.run(ctx, repo, nil, "config", "lazystage.git-pager-args", "side-by-side")
	require.NoError(t, err)
	_, err = svc.run(ctx, repo, nil, "config", "--add", "lazystage.git-pager-args", "line numbers")
	require.NoError(t, err)

	out, err := svc.ConfigGetRegexp(ctx, repo, `^lazystage\.`, false)
	require.NoError(t, err)
	assert.Equal(t, "lazystage.git-pager-args side-by-side\nlazystage.git-pager-args line numbers\n", out)
	assert.Equal(t, []string{"git", "-C", repo, "config", "--local", "--get-regexp", `^lazystage\.`}, rec.last())

	out, err = svc.ConfigGetRegexp(ctx, repo, `^lazystage\.`, true)
	require.NoError(t, err)
	assert.Equal(t, "lazystage.theme nord\n", out)

	out, err = svc.ConfigGetRegexp(ctx, repo, `^nosuchsection\.`, false)
	require.NoError(t, err, "no match is not an error")
	assert.Empty(t, out)
}

func TestPathArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "foo.txt", want: "foo.txt"},
		{name: "space", in: "my file.txt", want: "my file.txt"},
		{name: "quoted", in: `"my file.txt"`, want: "my file.txt"},
		{name: "escaped tab", in: `"a\tb"`, want: "a\tb"},
		{name: "octal utf8", in: `"\303\274.txt"`, want: "ü.txt"},
		{name: "arrow in plain name", in: "a -> b.txt", want: "a -> b.txt"},
		{name: "quoted arrow", in: `"x -> y"`, want: "x -> y"},
		{name: "broken quote", in: `"abc`, want: `"abc`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PathArg(tt.in))
		})
	}
}

func TestDecodeOutputReplacesInvalidBytes(t *testing.T) {
	out := DecodeOutput([]byte("?? caf\xe9.txt\n"))
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasPrefix(out, "?? caf"))
	assert.True(t, strings.HasSuffix(out, ".txt\n"))

	assert.Equal(t, "plain", DecodeOutput([]byte("plain")))
}

func TestCommandErrorMessages(t *testing.T) {
	base := errors.New("boom")
	withStderr := &CommandError{Args: []string{"git", "push"}, ExitCode: 1, Stderr: "rejected", Err: base}
	assert.Equal(t, "rejected", withStderr.Error())
	assert.ErrorIs(t, withStderr, base)

	withCode := &CommandError{Args: []string{"git", "push"}, ExitCode: 128}
	assert.Equal(t, "git push (exit 128)", withCode.Error())

	spawn := &CommandError{Args: []string{"git", "push"}, Err: base}
	assert.Equal(t, "failed to run git push: boom", spawn.Error())
}

func TestSetGitPager(t *testing.T) {
	origLookup := LookupPath
	t.Cleanup(func() { LookupPath = origLookup })

	svc := NewService()

	t.Run("empty value disables git_pager", func(t *testing.T) {
		svc.SetGitPager("")
		assert.False(t, svc.UseGitPager())
	})

	t.Run("pager found in PATH", func(t *testing.T) {
		LookupPath = func(string) (string, error) { return "/usr/bin/delta", nil }
		svc.SetGitPager("  delta  ")
		assert.Equal(t, "delta", svc.gitPager)
		assert.True(t, svc.UseGitPager())
	})

	t.Run("pager missing", func(t *testing.T) {
		LookupPath = func(string) (string, error) { return "", exec.ErrNotFound }
		svc.SetGitPager("delta")
		assert.False(t, svc.UseGitPager())
	})
}

func TestApplyGitPager(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	assert.Empty(t, svc.ApplyGitPager(ctx, ""))
	assert.Equal(t, "diff text", svc.ApplyGitPager(ctx, "diff text"))

	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("requires cat")
	}
	svc.gitPager = "cat"
	svc.useGitPager = true
	svc.SetGitPagerArgs([]string{"-"})
	assert.Equal(t, "piped\n", svc.ApplyGitPager(ctx, "piped\n"))
}
