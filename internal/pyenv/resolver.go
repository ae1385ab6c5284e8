package pyenv

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/rshade/pybundle/internal/logging"
)

// DefaultPythonExecutable is the interpreter probed when no explicit name or
// path is configured.
const DefaultPythonExecutable = "python"

// Resolver determines the Python version to bundle by probing an on-PATH
// interpreter with its standard version flag.
type Resolver struct {
	// Python is the interpreter name or path. Defaults to
	// DefaultPythonExecutable when empty.
	Python string

	// LookPath resolves an executable name to a path. Defaults to
	// exec.LookPath.
	LookPath func(string) (string, error)

	// Runner executes the interpreter. Defaults to ExecRunner.
	Runner CommandRunner
}

// NewResolver creates a Resolver for the given interpreter name or path.
func NewResolver(python string) *Resolver {
	return &Resolver{Python: python}
}

// Resolve runs the interpreter with --version and parses its output into a
// Version. Both probe errors are fatal, user-correctable configuration
// errors: ErrInterpreterNotFound when no executable resolves or it cannot be
// run, ErrUnparseableVersion when the output carries no version triple.
func (r *Resolver) Resolve(ctx context.Context) (Version, error) {
	log := logging.FromContext(ctx)

	python := r.Python
	if python == "" {
		python = DefaultPythonExecutable
	}
	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	runner := r.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	path, err := lookPath(python)
	if err != nil {
		return Version{}, stepErr(StepResolve, ErrInterpreterNotFound, err)
	}

	// Python 3 prints the version to stdout, Python 2 printed it to stderr.
	// Combined output covers both.
	out, err := runner.Output(ctx, path, "--version")
	if err != nil {
		return Version{}, stepErr(StepResolve, ErrInterpreterNotFound,
			fmt.Errorf("running %s --version: %w", path, err))
	}

	v, err := ParseVersion(string(out))
	if err != nil {
		return Version{}, &StepError{Step: StepResolve, Kind: ErrUnparseableVersion, Err: err}
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "pyenv").
		Str("operation", "resolve").
		Str("interpreter", path).
		Str("version", v.String()).
		Msg("resolved host python version")

	return v, nil
}
