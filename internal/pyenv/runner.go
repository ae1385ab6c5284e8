package pyenv

import (
	"context"
	"io"
	"os"
	"os/exec"
)

// StreamRequest describes a subprocess whose output is forwarded live to the
// caller instead of captured.
type StreamRequest struct {
	Name string
	Args []string

	// Env entries are appended to the inherited environment. Later entries
	// override earlier duplicates, so a "PATH=..." entry here replaces the
	// inherited PATH for the child.
	Env []string

	Stdout io.Writer
	Stderr io.Writer
}

// CommandRunner abstracts subprocess execution so the version probe and the
// pip invocations can be faked in tests.
type CommandRunner interface {
	// Output runs the command and returns its combined stdout and stderr.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Stream runs the command with stdout and stderr forwarded to the
	// request's writers, waiting for the process to exit.
	Stream(ctx context.Context, req StreamRequest) error
}

// ExecRunner is the os/exec backed CommandRunner used outside of tests.
type ExecRunner struct{}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (ExecRunner) Stream(ctx context.Context, req StreamRequest) error {
	cmd := exec.CommandContext(ctx, req.Name, req.Args...)
	if len(req.Env) > 0 {
		cmd.Env = append(os.Environ(), req.Env...)
	}

	cmd.Stdout = req.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = req.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	return cmd.Run()
}
