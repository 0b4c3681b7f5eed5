package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/chmouel/lazystage/internal/models"
	"github.com/chmouel/lazystage/internal/runner"
	"github.com/chmouel/lazystage/internal/stage"
	"github.com/muesli/reflow/wordwrap"
	urfavecli "github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// setupEnvironmentFunc is replaced in tests.
var setupEnvironmentFunc = setupEnvironment

// loadSession sets up the environment and reads the current status.
func loadSession(ctx context.Context, cmd *urfavecli.Command) (*environment, error) {
	env, err := setupEnvironmentFunc(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if _, err := env.session.LoadSnapshot(ctx); err != nil {
		return nil, err
	}
	return env, nil
}

func statusCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "status",
		Usage: "Show staged and unstaged files",
		Flags: []urfavecli.Flag{
			&urfavecli.BoolFlag{
				Name:  "json",
				Usage: "Print the status as JSON",
			},
		},
		Action: handleStatusAction,
	}
}

type statusEntryJSON struct {
	Path string `json:"path"`
	Code string `json:"code"`
}

type statusJSON struct {
	Staged   []statusEntryJSON `json:"staged"`
	Unstaged []statusEntryJSON `json:"unstaged"`
}

func toStatusJSON(entries []models.ChangeEntry) []statusEntryJSON {
	out := make([]statusEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, statusEntryJSON{Path: e.Path, Code: e.Code})
	}
	return out
}

func handleStatusAction(ctx context.Context, cmd *urfavecli.Command) error {
	env, err := loadSession(ctx, cmd)
	if err != nil {
		return err
	}
	snap := env.session.Model().Snapshot()
	out := cmd.Root().Writer

	if cmd.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(statusJSON{
			Staged:   toStatusJSON(snap.Staged),
			Unstaged: toStatusJSON(snap.Unstaged),
		})
	}

	if snap.Empty() {
		_, _ = fmt.Fprintln(out, "Nothing to commit, working tree clean")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	printSection := func(title string, entries []models.ChangeEntry) {
		if len(entries) == 0 {
			return
		}
		_, _ = fmt.Fprintf(w, "%s:\n", title)
		for _, e := range entries {
			_, _ = fmt.Fprintf(w, "  %s\t%s\n", e.Code, e.Path)
		}
	}
	printSection("Staged", snap.Staged)
	printSection("Unstaged", snap.Unstaged)
	return w.Flush()
}

func stageCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "stage",
		Aliases:   []string{"add"},
		Usage:     "Stage the given files",
		ArgsUsage: "<path>...",
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			return handleToggleAction(ctx, cmd, true)
		},
	}
}

func unstageCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "unstage",
		Aliases:   []string{"reset"},
		Usage:     "Unstage the given files",
		ArgsUsage: "<path>...",
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			return handleToggleAction(ctx, cmd, false)
		},
	}
}

// handleToggleAction moves every named path to the wanted bucket. Paths
// already there are reported and left alone.
func handleToggleAction(ctx context.Context, cmd *urfavecli.Command, toStaged bool) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("usage: lazystage %s <path>...", cmd.Name)
	}
	env, err := loadSession(ctx, cmd)
	if err != nil {
		return err
	}
	out := cmd.Root().Writer
	for _, path := range paths {
		entry, ok := env.session.Model().Lookup(path)
		if !ok {
			return fmt.Errorf("%w: %s", stage.ErrUnknownPath, path)
		}
		if entry.Staged == toStaged {
			_, _ = fmt.Fprintf(out, "%s is already %s\n", path, bucketName(toStaged))
			continue
		}
		if err := env.session.Toggle(ctx, path); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%s %s\n", actionName(toStaged), path)
	}
	return nil
}

func bucketName(staged bool) string {
	if staged {
		return "staged"
	}
	return "unstaged"
}

func actionName(staged bool) string {
	if staged {
		return "Staged"
	}
	return "Unstaged"
}

func stageAllCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "stage-all",
		Usage: "Stage every change",
		Flags: []urfavecli.Flag{yesFlag()},
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			return handleBulkAction(ctx, cmd, true)
		},
	}
}

func unstageAllCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "unstage-all",
		Usage: "Unstage every change",
		Flags: []urfavecli.Flag{yesFlag()},
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			return handleBulkAction(ctx, cmd, false)
		},
	}
}

func handleBulkAction(ctx context.Context, cmd *urfavecli.Command, toStaged bool) error {
	env, err := loadSession(ctx, cmd)
	if err != nil {
		return err
	}
	confirm := promptConfirm(cmd)

	var (
		outcome  stage.Outcome
		declined string
		empty    string
	)
	if toStaged {
		outcome, err = env.session.StageAllWithConfirmation(ctx, confirm)
		declined, empty = stage.StageAllDeclined, stage.NothingToAddMsg
	} else {
		outcome, err = env.session.UnstageAllWithConfirmation(ctx, confirm)
		declined, empty = stage.UnstageAllDeclined, stage.NothingToResetMsg
	}
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	switch outcome {
	case stage.OutcomeNothingToDo:
		_, _ = fmt.Fprintln(out, empty)
	case stage.OutcomeDeclined:
		_, _ = fmt.Fprintln(out, declined)
	case stage.OutcomeDone:
		n := len(env.session.Model().Staged())
		if !toStaged {
			n = len(env.session.Model().Unstaged())
		}
		_, _ = fmt.Fprintf(out, "%d file(s) %s\n", n, bucketName(toStaged))
	}
	return nil
}

// promptConfirm asks on the command's reader unless --yes was given. A
// closed or non-interactive input counts as no.
func promptConfirm(cmd *urfavecli.Command) stage.ConfirmFunc {
	if cmd.Bool("yes") {
		return func(string) bool { return true }
	}
	return func(prompt string) bool {
		return askYesNo(cmd.Root().Reader, cmd.Root().ErrWriter, prompt)
	}
}

func askYesNo(in io.Reader, out io.Writer, prompt string) bool {
	_, _ = fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		_, _ = fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func diffCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "diff",
		Usage:     "Show the diff of a file (staged files show the index diff)",
		ArgsUsage: "<path>",
		Flags: []urfavecli.Flag{
			&urfavecli.BoolFlag{
				Name:  "no-pager",
				Usage: "Print the raw diff even on a terminal",
			},
		},
		Action: handleDiffAction,
	}
}

func handleDiffAction(ctx context.Context, cmd *urfavecli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: lazystage diff <path>")
	}
	env, err := loadSession(ctx, cmd)
	if err != nil {
		return err
	}
	diff, err := env.session.DiffText(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	if !cmd.Bool("no-pager") && env.git.UseGitPager() && writerIsTerminal(cmd.Root().Writer) {
		diff = env.git.ApplyGitPager(ctx, diff)
	}
	_, err = io.WriteString(cmd.Root().Writer, strings.TrimRight(diff, "\n")+"\n")
	return err
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func restoreCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "restore",
		Usage:     "Discard the unstaged changes of a tracked file",
		ArgsUsage: "<path>",
		Flags:     []urfavecli.Flag{yesFlag()},
		Action:    handleRestoreAction,
	}
}

func handleRestoreAction(ctx context.Context, cmd *urfavecli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: lazystage restore <path>")
	}
	path := cmd.Args().First()
	env, err := loadSession(ctx, cmd)
	if err != nil {
		return err
	}
	if !promptConfirm(cmd)(fmt.Sprintf("Discard all unstaged changes to %s?", path)) {
		_, _ = fmt.Fprintln(cmd.Root().Writer, "Restore was cancelled.")
		return nil
	}
	if err := env.session.Restore(ctx, path); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.Root().Writer, "Restored %s\n", path)
	return nil
}

func pushCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "push",
		Usage: "Commit the staged files and push",
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:     "message",
				Aliases:  []string{"m"},
				Usage:    "Commit message",
				Required: true,
			},
			&urfavecli.IntFlag{
				Name:  "wrap",
				Usage: "Wrap progress lines at this column (0 uses progress_wrap_width)",
			},
		},
		Action: handlePushAction,
	}
}

// handlePushAction runs commit and push in the background, printing
// progress on stderr. Ctrl-C cancels the run and kills git.
func handlePushAction(ctx context.Context, cmd *urfavecli.Command) error {
	env, err := loadSession(ctx, cmd)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ex, err := env.session.StartPush(ctx, cmd.String("message"))
	if err != nil {
		return err
	}

	wrapWidth := int(cmd.Int("wrap"))
	if wrapWidth <= 0 {
		wrapWidth = env.cfg.ProgressWrapWidth
	}
	return followExecution(sigCtx, env.session, ex, cmd.Root().Writer, cmd.Root().ErrWriter, wrapWidth)
}

// followExecution prints events until the execution ends. When ctx is
// done first the execution is cancelled and the terminal event awaited.
func followExecution(ctx context.Context, session *stage.Session, ex *runner.Execution, out, errOut io.Writer, wrapWidth int) error {
	interrupted := ctx.Done()
	for {
		select {
		case <-interrupted:
			interrupted = nil
			_, _ = fmt.Fprintln(errOut, "Stopping...")
			session.Cancel(ex)
		case ev, ok := <-ex.Events():
			if ok && ev.Kind == runner.EventProgress {
				_, _ = fmt.Fprintln(errOut, wordwrap.String(ev.Text, wrapWidth))
				continue
			}
			// Terminal event or closed channel: the worker is finishing.
			return executionResult(ex.Wait(), ex.Output(), ex.Err(), out)
		}
	}
}

func executionResult(state runner.State, output, errText string, out io.Writer) error {
	switch state {
	case runner.StateCompleted:
		if output != "" {
			_, _ = fmt.Fprintln(out, output)
		}
		return nil
	case runner.StateCancelled:
		return errCancelled
	default:
		if errText == "" {
			errText = "push failed"
		}
		return errors.New(errText)
	}
}
