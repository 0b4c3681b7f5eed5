// Package main is the entry point for the lazystage application.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/chmouel/lazystage/internal/app"
	"github.com/chmouel/lazystage/internal/buildinfo"
	"github.com/chmouel/lazystage/internal/log"
	urfavecli "github.com/urfave/cli/v3"
	"golang.org/x/term"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	buildinfo.Set(version, commit, date, builtBy)
	buildinfo.Enrich()

	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		_ = log.Close()
		os.Exit(exitCode(err))
	}
	_ = log.Close()
}

func newRootCommand() *urfavecli.Command {
	urfavecli.VersionPrinter = func(cmd *urfavecli.Command) {
		_, _ = fmt.Fprintln(cmd.Root().Writer, buildinfo.Summary())
	}
	return &urfavecli.Command{
		Name:                  "lazystage",
		Usage:                 "Stage files, write a commit message and push, from the terminal",
		Version:               buildinfo.Version(),
		EnableShellCompletion: true,
		Flags:                 globalFlags(),
		Commands: []*urfavecli.Command{
			statusCommand(),
			stageCommand(),
			unstageCommand(),
			stageAllCommand(),
			unstageAllCommand(),
			diffCommand(),
			restoreCommand(),
			pushCommand(),
		},
		Action: runTUI,
	}
}

// runTUI is the default action that launches the TUI when no subcommand is given.
func runTUI(ctx context.Context, cmd *urfavecli.Command) error {
	if cmd.Args().Len() > 0 {
		return fmt.Errorf("unknown command %q", cmd.Args().First())
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("the interactive interface needs a terminal; use a subcommand such as `lazystage status`")
	}

	env, err := setupEnvironment(ctx, cmd)
	if err != nil {
		return err
	}

	model := app.NewModel(env.cfg, env.session, env.git)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}
