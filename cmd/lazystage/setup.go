package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/chmouel/lazystage/internal/config"
	"github.com/chmouel/lazystage/internal/git"
	"github.com/chmouel/lazystage/internal/log"
	"github.com/chmouel/lazystage/internal/runner"
	"github.com/chmouel/lazystage/internal/stage"
	"github.com/chmouel/lazystage/internal/utils"
	urfavecli "github.com/urfave/cli/v3"
)

// environment is everything a command needs to act on one repository.
type environment struct {
	cfg     *config.AppConfig
	git     *git.Service
	session *stage.Session
}

// exitInterrupted is the conventional status for a run stopped by Ctrl-C.
const exitInterrupted = 130

var errCancelled = errors.New(runner.CancelledMessage)

func exitCode(err error) int {
	if errors.Is(err, errCancelled) {
		return exitInterrupted
	}
	return 1
}

// setupDebugLog opens the debug log. An empty path discards buffered lines.
func setupDebugLog(path string) {
	if path == "" {
		_ = log.SetFile("")
		return
	}
	if expanded, err := utils.ExpandPath(path); err == nil {
		path = expanded
	}
	if err := log.SetFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening debug log file %q: %v\n", path, err)
	}
}

// setupEnvironment resolves the repository root, loads the layered
// configuration and wires the git service, the runner and the session.
// Log lines are buffered until the configuration says where they go.
func setupEnvironment(ctx context.Context, cmd *urfavecli.Command) (*environment, error) {
	logPath := cmd.String("debug-log")

	dir := cmd.String("repo")
	if expanded, err := utils.ExpandPath(dir); err == nil {
		dir = expanded
	}

	gitSvc := git.NewService()
	root, err := gitSvc.RepoRoot(ctx, dir)
	if err != nil {
		setupDebugLog(logPath)
		return nil, fmt.Errorf("%s: %w", dir, err)
	}

	overrides := cmd.StringSlice("config")
	if themeName := cmd.String("theme"); themeName != "" {
		if config.NormalizeThemeName(themeName) == "" {
			setupDebugLog(logPath)
			return nil, fmt.Errorf("unknown theme %q", themeName)
		}
		// The flag wins over every other source, including --config.
		overrides = append(overrides, "lazystage.theme="+themeName)
	}

	cfg, err := config.Load(ctx, config.LoadOptions{
		ConfigFile: cmd.String("config-file"),
		RepoPath:   root,
		Git:        gitSvc,
		Overrides:  overrides,
	})
	log.SetMaxSize(cfg.DebugLogMaxSize)
	if logPath == "" && err == nil {
		logPath = cfg.DebugLog
	}
	setupDebugLog(logPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	log.Printf("lazystage: repository %s, theme %q", root, cfg.Theme)

	gitSvc.SetGitPager(cfg.GitPager)
	gitSvc.SetGitPagerArgs(cfg.GitPagerArgs)
	gitSvc.SetMaxDiffChars(cfg.MaxDiffChars)

	return &environment{
		cfg:     cfg,
		git:     gitSvc,
		session: stage.NewSession(root, gitSvc, runner.New()),
	}, nil
}
