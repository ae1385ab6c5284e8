package pyenv

import (
	"errors"
	"fmt"
)

// Step identifies a phase of the environment build pipeline.
type Step string

const (
	// StepResolve is the interpreter version probe.
	StepResolve Step = "resolve"

	// StepDownload is the embeddable archive fetch.
	StepDownload Step = "download"

	// StepExtract is the archive extraction into the destination directory.
	StepExtract Step = "extract"

	// StepPrepare covers post-extraction fixups: enabling import site,
	// copying host libs, and bootstrapping pip.
	StepPrepare Step = "prepare"

	// StepInstall is the requirements install via the bundled pip.
	StepInstall Step = "install"
)

// Sentinel errors, one per failure kind. Every pipeline failure wraps exactly
// one of these so callers can match with errors.Is.
var (
	// ErrInterpreterNotFound indicates no Python executable could be resolved
	// or executed for the version probe.
	ErrInterpreterNotFound = errors.New("python interpreter not found")

	// ErrUnparseableVersion indicates the interpreter's version output did
	// not contain a recognizable major.minor.patch triple.
	ErrUnparseableVersion = errors.New("unparseable python version")

	// ErrDownloadFailed indicates a transport error or non-success HTTP
	// status while fetching an archive.
	ErrDownloadFailed = errors.New("archive download failed")

	// ErrExtractionFailed indicates the downloaded file is not a valid zip
	// archive or a write into the destination directory failed.
	ErrExtractionFailed = errors.New("archive extraction failed")

	// ErrPrepareFailed indicates a post-extraction fixup failed.
	ErrPrepareFailed = errors.New("environment preparation failed")

	// ErrInstallFailed indicates the pip executable was missing or exited
	// with a non-zero status.
	ErrInstallFailed = errors.New("dependency install failed")
)

// StepError ties a failure kind and its underlying cause to the pipeline
// step that produced it. Failures are fatal: the pipeline never retries and
// aborts at the first StepError.
type StepError struct {
	Step Step
	Kind error
	Err  error
}

func (e *StepError) Error() string {
	// Causes produced inside this package already carry the sentinel text;
	// avoid printing it twice.
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Step, e.Kind)
	}
	if errors.Is(e.Err, e.Kind) {
		return fmt.Sprintf("%s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Step, e.Kind, e.Err)
}

// Unwrap exposes both the sentinel kind and the underlying cause so that
// errors.Is matches either.
func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// stepErr wraps cause as a StepError for the given step and kind.
func stepErr(step Step, kind, cause error) error {
	return &StepError{Step: step, Kind: kind, Err: cause}
}

// FailedStep returns the pipeline step err originated from, if any.
func FailedStep(err error) (Step, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, true
	}
	return "", false
}
