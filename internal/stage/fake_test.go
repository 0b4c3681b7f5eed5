package stage

import (
	"context"
	"errors"
	"strings"
)

type call struct {
	op   string
	repo string
	path string
}

// fakeGit records every adapter call and serves canned status output.
type fakeGit struct {
	status    string
	statusErr error
	failOn    map[string]error
	calls     []call
}

func (f *fakeGit) record(op, repo, path string) error {
	f.calls = append(f.calls, call{op: op, repo: repo, path: path})
	if err, ok := f.failOn[op]; ok {
		return err
	}
	return nil
}

func (f *fakeGit) Status(_ context.Context, repo string) ([]string, error) {
	if err := f.record("status", repo, ""); err != nil {
		return nil, err
	}
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return strings.Split(f.status, "\n"), nil
}

func (f *fakeGit) Add(_ context.Context, repo, path string) error {
	return f.record("add", repo, path)
}

func (f *fakeGit) Reset(_ context.Context, repo, path string) error {
	return f.record("reset", repo, path)
}

func (f *fakeGit) AddAll(_ context.Context, repo string) error {
	return f.record("add-all", repo, "")
}

func (f *fakeGit) ResetAll(_ context.Context, repo string) error {
	return f.record("reset-all", repo, "")
}

func (f *fakeGit) Diff(_ context.Context, repo, path string) (string, error) {
	return "worktree:" + path, f.record("diff", repo, path)
}

func (f *fakeGit) DiffCached(_ context.Context, repo, path string) (string, error) {
	return "cached:" + path, f.record("diff-cached", repo, path)
}

func (f *fakeGit) DiffUntracked(_ context.Context, repo, path string) (string, error) {
	return "untracked:" + path, f.record("diff-untracked", repo, path)
}

func (f *fakeGit) Restore(_ context.Context, repo, path string) error {
	return f.record("restore", repo, path)
}

func (f *fakeGit) ops() []string {
	var out []string
	for _, c := range f.calls {
		if c.op == "status" {
			continue
		}
		out = append(out, c.op+" "+c.path)
	}
	return out
}

var errGitFailed = errors.New("fatal: pathspec did not match any files")

const sampleStatus = " M foo.txt\n?? bar.txt\nA  baz.txt\n"
