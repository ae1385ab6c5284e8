// Package pyenv builds portable Python runtime directories from the
// official embeddable distribution: version probe, archive download, zip
// extraction, post-extraction preparation, and requirements install via the
// bundled pip.
package pyenv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rshade/pybundle/internal/logging"
)

// DownloadObserver receives archive download lifecycle events so a caller
// can render progress. Started is called once before the first byte,
// Progress with cumulative counts as the body arrives (total is -1 when
// unknown), Finished exactly once with the step's outcome.
type DownloadObserver interface {
	Started(url string, total int64)
	Progress(written, total int64)
	Finished(err error)
}

// Options configures a single environment build.
type Options struct {
	// Dest is the destination directory, created if absent. Re-running
	// against an existing environment overwrites in place; the build is
	// not atomic.
	Dest string

	// Requirements is the path to the requirements file handed verbatim
	// to pip.
	Requirements string

	// PyVersion, when non-empty, is an explicit major.minor.patch string
	// that skips the interpreter probe.
	PyVersion string

	// SkipLibs turns the missing-host-libs error into a skipped step.
	SkipLibs bool

	// Observer, when non-nil, receives download progress events.
	Observer DownloadObserver
}

// Result reports what a completed build produced.
type Result struct {
	Version         Version
	Dest            string
	PipBootstrapped bool
	LibsDir         string
	LibsSkipped     bool
}

// Builder assembles a portable Python runtime directory: resolve, download,
// extract, prepare, install, strictly in that order. Any step's failure
// aborts the remaining pipeline immediately; there is no retry, no rollback
// and no cleanup of already written files.
type Builder struct {
	Resolver   *Resolver
	Downloader *Downloader
	Installer  *PipInstaller

	// PathEnv supplies the PATH value scanned for host libs. Defaults to
	// reading the process environment.
	PathEnv func() string
}

// NewBuilder creates a Builder with default collaborators.
func NewBuilder() *Builder {
	return &Builder{
		Resolver:   NewResolver(DefaultPythonExecutable),
		Downloader: NewDownloader(),
		Installer:  NewPipInstaller(),
	}
}

// Run executes the whole pipeline and returns a Result on success. The
// returned error is always a *StepError identifying the failing step.
func (b *Builder) Run(ctx context.Context, opts Options) (*Result, error) {
	log := logging.ComponentLogger(*logging.FromContext(ctx), "builder")

	v, err := b.resolveVersion(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.Dest, dirPerm); err != nil {
		return nil, stepErr(StepExtract, ErrExtractionFailed, err)
	}

	archivePath, err := b.downloadArchive(ctx, v, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		// The archive is an intermediate artifact, not part of the
		// environment. Removal is best effort.
		_ = os.Remove(archivePath)
	}()

	log.Info().Ctx(ctx).Str("dest", opts.Dest).Msg("extracting archive")
	if err := ExtractZip(archivePath, opts.Dest); err != nil {
		return nil, err
	}

	result := &Result{Version: v, Dest: opts.Dest}

	log.Info().Ctx(ctx).Str("pth", v.PthFileName()).Msg("enabling import site")
	if err := EnableImportSite(opts.Dest, v); err != nil {
		return nil, err
	}

	if err := b.copyLibs(ctx, v, opts, result); err != nil {
		return nil, err
	}

	bootstrapped := !HasPip(opts.Dest)
	if err := b.installer().EnsurePip(ctx, opts.Dest); err != nil {
		return nil, err
	}
	result.PipBootstrapped = bootstrapped

	if err := b.installer().Install(ctx, opts.Dest, opts.Requirements); err != nil {
		return nil, err
	}

	log.Info().
		Ctx(ctx).
		Str("version", v.String()).
		Str("dest", opts.Dest).
		Msg("environment ready")

	return result, nil
}

// resolveVersion parses an explicit version string or probes the host
// interpreter.
func (b *Builder) resolveVersion(ctx context.Context, opts Options) (Version, error) {
	if opts.PyVersion != "" {
		v, err := ParseVersion(opts.PyVersion)
		if err != nil {
			return Version{}, &StepError{Step: StepResolve, Kind: ErrUnparseableVersion, Err: err}
		}
		return v, nil
	}

	resolver := b.Resolver
	if resolver == nil {
		resolver = NewResolver(DefaultPythonExecutable)
	}
	return resolver.Resolve(ctx)
}

// downloadArchive fetches the embeddable zip into the destination directory
// and returns its path. Observer events bracket the fetch.
func (b *Builder) downloadArchive(ctx context.Context, v Version, opts Options) (string, error) {
	downloader := b.Downloader
	if downloader == nil {
		downloader = NewDownloader()
	}

	url := downloader.ArchiveURL(v)
	archivePath := filepath.Join(opts.Dest, filepath.Base(url))

	var progress ProgressFunc
	if opts.Observer != nil {
		opts.Observer.Started(url, -1)
		progress = opts.Observer.Progress
	}

	err := downloader.Download(ctx, v, archivePath, progress)
	if opts.Observer != nil {
		opts.Observer.Finished(err)
	}
	if err != nil {
		return "", err
	}

	return archivePath, nil
}

// copyLibs locates the host installation's libs directory and copies it into
// the environment. With SkipLibs set a missing host directory is recorded
// instead of failing the build.
func (b *Builder) copyLibs(ctx context.Context, v Version, opts Options, result *Result) error {
	log := logging.FromContext(ctx)

	pathEnv := os.Getenv("PATH")
	if b.PathEnv != nil {
		pathEnv = b.PathEnv()
	}

	libsDir, err := HostLibsDir(v, pathEnv)
	if err != nil {
		if opts.SkipLibs {
			log.Warn().Ctx(ctx).Err(err).Msg("skipping host libs copy")
			result.LibsSkipped = true
			return nil
		}
		return stepErr(StepPrepare, ErrPrepareFailed,
			fmt.Errorf("%w (pass --skip-libs to build without them)", err))
	}

	log.Info().Ctx(ctx).Str("libs", libsDir).Msg("copying host libs")
	if err := CopyHostLibs(libsDir, opts.Dest); err != nil {
		return err
	}
	result.LibsDir = libsDir

	return nil
}

func (b *Builder) installer() *PipInstaller {
	if b.Installer != nil {
		return b.Installer
	}
	return NewPipInstaller()
}
