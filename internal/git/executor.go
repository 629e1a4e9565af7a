package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	relErrors "github.com/relcut/relcut/internal/errors"
)

// CommandExecutor defines an interface for executing external commands.
// Both git and the code-hosting CLI are driven through this interface so
// tests can substitute a recording mock.
type CommandExecutor interface {
	// Execute runs a prepared command and returns its error, if any
	Execute(ctx context.Context, cmd *exec.Cmd) error

	// ExecuteWithOutput runs a prepared command and returns its stdout
	ExecuteWithOutput(ctx context.Context, cmd *exec.Cmd) (string, error)

	// ExecuteWithContext builds and runs a command from a name and arguments
	ExecuteWithContext(ctx context.Context, name string, args ...string) error

	// ExecuteWithContextAndOutput builds and runs a command, returning stdout
	ExecuteWithContextAndOutput(ctx context.Context, name string, args ...string) (string, error)
}

// ExecError is the raw failure of one external command invocation.
// Call sites wrap it into the typed errors of internal/errors; ExecError
// itself only preserves what the process reported.
type ExecError struct {
	Name   string
	Args   []string
	Stderr string
	Err    error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Name, strings.Join(e.Args, " "))
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s: %v", msg, e.Stderr, e.Err)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit code, or -1 if the command never ran.
func (e *ExecError) ExitCode() int {
	var exitErr *exec.ExitError
	if relErrors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// ExecExecutor is the default implementation of CommandExecutor
// that delegates to the os/exec package
type ExecExecutor struct{}

// NewExecExecutor creates a new ExecExecutor
func NewExecExecutor() *ExecExecutor {
	return &ExecExecutor{}
}

// Execute implements CommandExecutor.Execute
func (e *ExecExecutor) Execute(ctx context.Context, cmd *exec.Cmd) error {
	var stderr bytes.Buffer
	if cmd.Stderr == nil {
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		return newExecError(cmd, strings.TrimSpace(stderr.String()), err)
	}
	return nil
}

// ExecuteWithOutput implements CommandExecutor.ExecuteWithOutput
func (e *ExecExecutor) ExecuteWithOutput(ctx context.Context, cmd *exec.Cmd) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), newExecError(cmd, strings.TrimSpace(stderr.String()), err)
	}
	return stdout.String(), nil
}

// ExecuteWithContext implements CommandExecutor.ExecuteWithContext
func (e *ExecExecutor) ExecuteWithContext(ctx context.Context, name string, args ...string) error {
	return e.Execute(ctx, exec.CommandContext(ctx, name, args...))
}

// ExecuteWithContextAndOutput implements CommandExecutor.ExecuteWithContextAndOutput
func (e *ExecExecutor) ExecuteWithContextAndOutput(ctx context.Context, name string, args ...string) (string, error) {
	return e.ExecuteWithOutput(ctx, exec.CommandContext(ctx, name, args...))
}

// newExecError builds an ExecError from a finished command.
func newExecError(cmd *exec.Cmd, stderr string, err error) *ExecError {
	name := ""
	var args []string
	if len(cmd.Args) > 0 {
		name = cmd.Args[0]
	}
	if len(cmd.Args) > 1 {
		args = cmd.Args[1:]
	}
	return &ExecError{Name: name, Args: args, Stderr: stderr, Err: err}
}
