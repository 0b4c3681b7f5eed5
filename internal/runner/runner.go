// Package runner executes a multi-step command on a background goroutine,
// streams progress text and supports cancellation that kills the whole
// process tree.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	log "github.com/chmouel/lazystage/internal/log"
)

// eventBuffer is the capacity of an execution's event channel. The last slot
// is reserved for the terminal event.
const eventBuffer = 64

// waitDelay bounds how long Wait lingers on output pipes after the process exits.
const waitDelay = 2 * time.Second

// State is the lifecycle state of an Execution.
type State int

// Execution states.
const (
	StateRunning State = iota
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// EventKind identifies the kind of an Event.
type EventKind int

// Event kinds. Progress may repeat; the other kinds are terminal and sent once.
const (
	EventProgress EventKind = iota
	EventCompleted
	EventFailed
	EventCancelled
)

// Event is a message from a running Execution.
type Event struct {
	Kind EventKind
	Text string
}

// Terminal reports whether the event ends the execution.
func (e Event) Terminal() bool {
	return e.Kind != EventProgress
}

// CancelledMessage is the text of the terminal event after a user cancel.
const CancelledMessage = "operation cancelled by user"

// Command is an ordered list of process invocations run as one unit.
// Execution stops at the first failing step.
type Command struct {
	Label string
	Dir   string
	Steps [][]string
}

// Runner starts Executions.
type Runner struct {
	commandRunner func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// New returns a Runner spawning real processes.
func New() *Runner {
	return &Runner{commandRunner: exec.CommandContext}
}

// SetCommandRunner overrides how processes are created. Intended for tests.
func (r *Runner) SetCommandRunner(fn func(ctx context.Context, name string, args ...string) *exec.Cmd) {
	if fn == nil {
		fn = exec.CommandContext
	}
	r.commandRunner = fn
}

// Execution is one background invocation of a Command.
type Execution struct {
	Command Command

	events chan Event
	done   chan struct{}
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	output    string
	errText   string
	cancelled bool
	cmd       *exec.Cmd
}

// Start runs command on a new goroutine and returns immediately.
func (r *Runner) Start(ctx context.Context, command Command) *Execution {
	execCtx, cancel := context.WithCancel(ctx)
	ex := &Execution{
		Command: command,
		events:  make(chan Event, eventBuffer),
		done:    make(chan struct{}),
		cancel:  cancel,
		state:   StateRunning,
	}
	go r.run(execCtx, ex)
	return ex
}

// Events returns the event channel. It is closed after the terminal event.
func (ex *Execution) Events() <-chan Event {
	return ex.events
}

// Done returns a channel that is closed once the execution reached a terminal state.
func (ex *Execution) Done() <-chan struct{} {
	return ex.done
}

// Wait blocks until the execution finishes and returns its final state.
func (ex *Execution) Wait() State {
	<-ex.done
	return ex.State()
}

// State returns the current state.
func (ex *Execution) State() State {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.state
}

// Output returns the collected output of a completed execution.
func (ex *Execution) Output() string {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.output
}

// Err returns the error text of a failed or cancelled execution.
func (ex *Execution) Err() string {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.errText
}

// Cancel requests termination and kills the running process group.
// It never waits for the worker and is safe to call more than once.
func (ex *Execution) Cancel() {
	ex.mu.Lock()
	defer ex.mu.Unlock()

	if ex.cancelled || ex.state != StateRunning {
		return
	}
	ex.cancelled = true
	ex.cancel()
	if ex.cmd != nil && ex.cmd.Process != nil {
		if err := killProcessTree(ex.cmd.Process); err != nil {
			log.Printf("runner: kill %s: %v", ex.Command.Label, err)
		}
	}
}

// Cancelled reports whether Cancel was called while running.
func (ex *Execution) Cancelled() bool {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.cancelled
}

func (ex *Execution) progress(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	ex.mu.Lock()
	defer ex.mu.Unlock()
	if ex.state != StateRunning || len(ex.events) >= cap(ex.events)-1 {
		return
	}
	select {
	case ex.events <- Event{Kind: EventProgress, Text: text}:
	default:
	}
}

// finish records the terminal state once. A cancelled execution always ends
// as StateCancelled whatever the last step returned.
func (ex *Execution) finish(state State, text string) {
	ex.mu.Lock()
	if ex.state != StateRunning {
		ex.mu.Unlock()
		return
	}
	if ex.cancelled {
		state = StateCancelled
		text = CancelledMessage
	}
	ex.state = state
	ex.cmd = nil

	var ev Event
	switch state {
	case StateCompleted:
		ex.output = text
		ev = Event{Kind: EventCompleted, Text: text}
	case StateCancelled:
		ex.errText = text
		ev = Event{Kind: EventCancelled, Text: text}
	default:
		ex.errText = text
		ev = Event{Kind: EventFailed, Text: text}
	}
	ex.events <- ev
	close(ex.events)
	ex.mu.Unlock()

	ex.cancel()
	close(ex.done)
	log.Printf("runner: %s finished: %s", ex.Command.Label, state)
}

func (r *Runner) run(ctx context.Context, ex *Execution) {
	steps := ex.Command.Steps
	if len(steps) == 0 {
		ex.finish(StateFailed, "no command provided")
		return
	}

	var output strings.Builder
	for i, step := range steps {
		if ex.Cancelled() || ctx.Err() != nil {
			ex.finish(StateCancelled, CancelledMessage)
			return
		}
		if len(step) == 0 {
			ex.finish(StateFailed, fmt.Sprintf("step %d: no command provided", i+1))
			return
		}

		ex.progress(fmt.Sprintf("%s (%d/%d)...", DescribeStep(step), i+1, len(steps)))
		out, err := r.runStep(ctx, ex, step)
		output.WriteString(out)
		if err != nil {
			if ctx.Err() != nil {
				ex.finish(StateCancelled, CancelledMessage)
				return
			}
			ex.finish(StateFailed, err.Error())
			return
		}
	}
	ex.finish(StateCompleted, strings.TrimSpace(output.String()))
}

func (r *Runner) runStep(ctx context.Context, ex *Execution, step []string) (string, error) {
	log.Printf("runner: %s: exec %s (cwd=%s)", ex.Command.Label, DescribeStep(step), ex.Command.Dir)

	// #nosec G204 -- steps are argument vectors built by the caller, no shell involved
	cmd := r.commandRunner(ctx, step[0], step[1:]...)
	if ex.Command.Dir != "" {
		cmd.Dir = ex.Command.Dir
	}
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return killProcessTree(cmd.Process)
	}
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("stderr pipe: %w", err)
	}

	// Register the process under the lock so Cancel either sees it or has
	// already cancelled ctx, which makes Start fail.
	ex.mu.Lock()
	if ex.cancelled {
		ex.mu.Unlock()
		return "", errors.New(CancelledMessage)
	}
	if err := cmd.Start(); err != nil {
		ex.mu.Unlock()
		return "", fmt.Errorf("failed to start %s: %w", step[0], err)
	}
	ex.cmd = cmd
	ex.mu.Unlock()

	var (
		outBuf, errBuf bytes.Buffer
		wg             sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		ex.stream(stdout, &outBuf)
	}()
	go func() {
		defer wg.Done()
		ex.stream(stderr, &errBuf)
	}()
	wg.Wait()

	waitErr := cmd.Wait()

	ex.mu.Lock()
	ex.cmd = nil
	ex.mu.Unlock()

	combined := outBuf.String() + errBuf.String()
	if waitErr != nil {
		if detail := strings.TrimSpace(errBuf.String()); detail != "" {
			return combined, errors.New(detail)
		}
		if detail := strings.TrimSpace(outBuf.String()); detail != "" {
			return combined, errors.New(detail)
		}
		return combined, fmt.Errorf("%s: %w", DescribeStep(step), waitErr)
	}
	return combined, nil
}

// stream copies r into buf and reports every line as progress.
func (ex *Execution) stream(r io.Reader, buf *bytes.Buffer) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanLinesOrCR)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		ex.progress(line)
	}
	// drain whatever is left so the process never blocks on a full pipe
	_, _ = io.Copy(io.Discard, r)
}

// scanLinesOrCR splits on \n, \r\n and bare \r (git progress meters use \r).
func scanLinesOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			advance++
		} else if data[i] == '\r' && i+1 == len(data) && !atEOF {
			// a \r at the end of the buffer may be followed by \n
			return 0, nil, nil
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// DescribeStep returns a short human readable name for a step, e.g. "git push".
// Flags and their values such as "-C <dir>" and commit messages are left out.
func DescribeStep(step []string) string {
	if len(step) == 0 {
		return ""
	}
	parts := []string{step[0]}
	for i := 1; i < len(step); i++ {
		arg := step[i]
		if arg == "-C" || arg == "-c" {
			i++
			continue
		}
		if strings.HasPrefix(arg, "-") {
			continue
		}
		parts = append(parts, arg)
		break
	}
	return strings.Join(parts, " ")
}
