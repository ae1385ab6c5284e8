package pyenv

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rshade/pybundle/internal/logging"
)

const (
	// scriptsDirName is where the vendor layout places console entry points,
	// pip.exe among them, once pip is bootstrapped.
	scriptsDirName = "Scripts"

	// pipBinName is the package manager executable inside Scripts.
	pipBinName = "pip.exe"

	// pythonBinName is the interpreter executable at the distribution root.
	pythonBinName = "python.exe"

	// getPipFileName is the local name for the downloaded bootstrap script.
	getPipFileName = "get-pip.py"
)

// PipInstaller locates and drives the package manager bundled inside an
// extracted embeddable distribution. It observes only the process exit code;
// package-level failure reasons stay opaque.
type PipInstaller struct {
	// Runner defaults to ExecRunner.
	Runner CommandRunner

	// Downloader fetches get-pip.py when pip needs bootstrapping. Defaults
	// to a vendor-default Downloader.
	Downloader *Downloader

	// GetPipURL defaults to DefaultGetPipURL.
	GetPipURL string

	// Stdout and Stderr receive the live output of child processes.
	// Default to os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// NewPipInstaller creates a PipInstaller with defaults.
func NewPipInstaller() *PipInstaller {
	return &PipInstaller{}
}

// PipPath returns the fixed relative location of pip inside distDir.
func PipPath(distDir string) string {
	return filepath.Join(distDir, scriptsDirName, pipBinName)
}

// HasPip reports whether the pip executable exists inside distDir.
func HasPip(distDir string) bool {
	info, err := os.Stat(PipPath(distDir))
	return err == nil && !info.IsDir()
}

// EnsurePip bootstraps pip inside distDir when it is missing. The embeddable
// distribution ships without pip, so the first build of an environment
// downloads get-pip.py and runs it with the bundled interpreter. The child's
// PATH is pinned to the distribution and its Scripts directory so the
// bootstrap cannot pick up a different Python. Failures wrap
// ErrInstallFailed since they leave no installer to delegate to.
func (p *PipInstaller) EnsurePip(ctx context.Context, distDir string) error {
	if HasPip(distDir) {
		return nil
	}

	log := logging.FromContext(ctx)
	log.Info().
		Ctx(ctx).
		Str("component", "pyenv").
		Str("operation", "ensure_pip").
		Str("dist_dir", distDir).
		Msg("pip not present, bootstrapping with get-pip.py")

	url := p.GetPipURL
	if url == "" {
		url = DefaultGetPipURL
	}
	downloader := p.Downloader
	if downloader == nil {
		downloader = NewDownloader()
	}

	getPipPath := filepath.Join(distDir, getPipFileName)
	if err := downloader.Fetch(ctx, url, getPipPath, nil); err != nil {
		// Fetch reports a download StepError; rewrap as an install failure
		// since this fetch only exists to make the installer available.
		return stepErr(StepPrepare, ErrInstallFailed, err)
	}

	err := p.runner().Stream(ctx, StreamRequest{
		Name:   filepath.Join(distDir, pythonBinName),
		Args:   []string{getPipPath},
		Env:    []string{"PATH=" + distPathVar(distDir)},
		Stdout: p.stdout(),
		Stderr: p.stderr(),
	})
	if err != nil {
		return stepErr(StepPrepare, ErrInstallFailed,
			fmt.Errorf("running get-pip.py: %w", err))
	}

	return nil
}

// Install invokes pip inside distDir with an install-from-requirements-file
// argument and waits for it to complete, streaming its output. The
// requirements file is passed through verbatim and never validated here; a
// nonexistent file simply surfaces as a non-zero pip exit. Failures wrap
// ErrInstallFailed.
func (p *PipInstaller) Install(ctx context.Context, distDir, requirementsPath string) error {
	log := logging.FromContext(ctx)

	pipPath := PipPath(distDir)
	if !HasPip(distDir) {
		return stepErr(StepInstall, ErrInstallFailed,
			fmt.Errorf("pip executable not found at %s", pipPath))
	}

	log.Info().
		Ctx(ctx).
		Str("component", "pyenv").
		Str("operation", "install").
		Str("pip", pipPath).
		Str("requirements", requirementsPath).
		Msg("installing requirements")

	err := p.runner().Stream(ctx, StreamRequest{
		Name:   pipPath,
		Args:   []string{"install", "-r", requirementsPath},
		Env:    []string{"PATH=" + distPathVar(distDir)},
		Stdout: p.stdout(),
		Stderr: p.stderr(),
	})
	if err != nil {
		return stepErr(StepInstall, ErrInstallFailed, err)
	}

	return nil
}

// distPathVar builds the PATH value pointing a child process at the
// distribution root and its Scripts directory.
func distPathVar(distDir string) string {
	return distDir + string(os.PathListSeparator) + filepath.Join(distDir, scriptsDirName)
}

func (p *PipInstaller) runner() CommandRunner {
	if p.Runner != nil {
		return p.Runner
	}
	return ExecRunner{}
}

func (p *PipInstaller) stdout() io.Writer {
	if p.Stdout != nil {
		return p.Stdout
	}
	return os.Stdout
}

func (p *PipInstaller) stderr() io.Writer {
	if p.Stderr != nil {
		return p.Stderr
	}
	return os.Stderr
}
