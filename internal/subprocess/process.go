package subprocess

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/wagiedev/claude-session-go/internal/errors"
)

// Command describes one CLI invocation.
type Command struct {
	Path string
	Args []string
	Env  []string
	Dir  string
}

// Proc is a started subprocess.
type Proc interface {
	// Pid returns the OS process id.
	Pid() int
	// Stdout returns the readable stdout stream, or nil if none is available.
	Stdout() io.Reader
	// Stderr returns the readable stderr stream, or nil if none is available.
	Stderr() io.Reader
	// Kill terminates the process and its group.
	Kill() error
	// Wait blocks until the process exits. It is idempotent.
	Wait() error
}

// Spawner starts subprocesses.
type Spawner interface {
	Spawn(ctx context.Context, cmd Command) (Proc, error)
}

// ExecSpawner starts real OS processes with os/exec.
type ExecSpawner struct {
	log *slog.Logger
}

// Compile-time verification that ExecSpawner implements Spawner.
var _ Spawner = (*ExecSpawner)(nil)

// NewExecSpawner creates a spawner backed by os/exec.
func NewExecSpawner(log *slog.Logger) *ExecSpawner {
	return &ExecSpawner{log: log.With("component", "spawner")}
}

// Spawn starts the command. The process is not bound to ctx; it runs until
// it exits or is killed. ctx only aborts the spawn itself.
//
// Returns StdoutUnavailableError if the stdout pipe cannot be created and
// SpawnError if the OS refuses to start the process.
func (s *ExecSpawner) Spawn(ctx context.Context, c Command) (Proc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	//nolint:gosec // G204: Subprocess launching with dynamic args is expected for CLI invocation
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdin = nil

	setProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.log.Error("Failed to create stdout pipe", "error", err)

		return nil, &errors.StdoutUnavailableError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.log.Error("Failed to create stderr pipe", "error", err)

		return nil, &errors.SpawnError{Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		s.log.Error("Failed to start CLI process", "error", err)

		return nil, &errors.SpawnError{Err: fmt.Errorf("start process: %w", err)}
	}

	s.log.Debug("CLI subprocess started", "pid", cmd.Process.Pid, "dir", c.Dir)

	return &Process{
		log:    s.log.With("pid", cmd.Process.Pid),
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// Process is a running CLI subprocess started by ExecSpawner.
type Process struct {
	log    *slog.Logger
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser

	waitOnce sync.Once
	waitErr  error
}

// Compile-time verification that Process implements Proc.
var _ Proc = (*Process)(nil)

// Pid implements Proc.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Stdout implements Proc.
func (p *Process) Stdout() io.Reader {
	if p.stdout == nil {
		return nil
	}

	return p.stdout
}

// Stderr implements Proc.
func (p *Process) Stderr() io.Reader {
	if p.stderr == nil {
		return nil
	}

	return p.stderr
}

// Kill sends SIGKILL to the process group. Killing an exited process is not
// an error.
func (p *Process) Kill() error {
	p.log.Debug("Killing CLI process")

	if err := killTree(p.cmd.Process); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill CLI process (pid %d): %w", p.cmd.Process.Pid, err)
	}

	return nil
}

// Wait reaps the process. Readers of stdout and stderr should reach EOF
// before the first call, since Wait closes both pipes.
func (p *Process) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
		p.log.Debug("CLI process exited", "error", p.waitErr)
	})

	return p.waitErr
}

// ExitCode extracts the exit code from a Wait error. It returns 0 for nil
// and -1 when the code is unknown, such as after a signal.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
		return exitErr.ExitCode()
	}

	return -1
}
