package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/pybundle/internal/logging"
	"github.com/rshade/pybundle/internal/pyenv"
	"github.com/rshade/pybundle/internal/tui"
)

// NewCreateCmd creates the create command, the whole build pipeline behind a
// single invocation: resolve, download, extract, prepare, install.
func NewCreateCmd() *cobra.Command {
	var (
		requirements string
		pyVersion    string
		python       string
		noProgress   bool
		skipLibs     bool
	)

	cmd := &cobra.Command{
		Use:   "create <dest>",
		Short: "Create a portable Python environment",
		Long: `Creates a portable Python runtime directory at <dest> and installs the
given requirements into it with the bundled pip.

The destination directory is created if absent, including intermediate path
segments. Re-running against an existing environment overwrites files in
place; the build is not atomic and a failed run may leave a partially
populated directory behind.`,
		Example: `  # Build an environment for the host's Python version
  pybundle create myenv -r requirements.txt

  # Pin the runtime version instead of probing the host
  pybundle create myenv -r requirements.txt --py-version 3.11.4

  # Probe a specific interpreter
  pybundle create myenv -r requirements.txt --python py

  # Build without the host's libs directory (no native extension builds)
  pybundle create myenv -r requirements.txt --skip-libs`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			cfg := configFromCmd(cmd)
			if python != "" {
				cfg.Python.Executable = python
			}

			builder := cfg.NewBuilder()
			builder.Installer.Stdout = cmd.OutOrStdout()
			builder.Installer.Stderr = cmd.ErrOrStderr()

			opts := pyenv.Options{
				Dest:         args[0],
				Requirements: requirements,
				PyVersion:    pyVersion,
				SkipLibs:     skipLibs,
				Observer:     downloadObserver(ctx, cancel, noProgress),
			}

			result, err := builder.Run(ctx, opts)
			if err != nil {
				return err
			}

			printCreateResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&requirements, "requirements", "r", "", "requirements file installed into the environment")
	cmd.Flags().StringVar(&pyVersion, "py-version", "", "Python version to bundle (e.g. 3.11.4); skips the interpreter probe")
	cmd.Flags().StringVar(&python, "python", "", "interpreter name or path used for the version probe")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the download progress display")
	cmd.Flags().BoolVar(&skipLibs, "skip-libs", false, "tolerate a missing host libs directory")
	_ = cmd.MarkFlagRequired("requirements")

	return cmd
}

// downloadObserver picks the interactive progress bar on a terminal and a
// plain logging observer everywhere else.
func downloadObserver(ctx context.Context, cancel context.CancelFunc, noProgress bool) pyenv.DownloadObserver {
	if !noProgress && logging.IsTerminal(os.Stderr) {
		return tui.NewDownloadTracker(cancel)
	}
	return logObserver{ctx: ctx}
}

// logObserver reports download lifecycle through the structured log instead
// of a progress bar.
type logObserver struct {
	ctx context.Context
}

func (o logObserver) Started(url string, _ int64) {
	logging.FromContext(o.ctx).Info().
		Ctx(o.ctx).
		Str("component", "cli").
		Str("url", url).
		Msg("downloading archive")
}

func (o logObserver) Progress(_, _ int64) {}

func (o logObserver) Finished(err error) {
	if err != nil {
		return // the pipeline reports the failure
	}
	logging.FromContext(o.ctx).Info().
		Ctx(o.ctx).
		Str("component", "cli").
		Msg("download complete")
}

// printCreateResult renders the human-readable build summary.
func printCreateResult(cmd *cobra.Command, result *pyenv.Result) {
	cmd.Printf("\n✓ Environment created\n")
	cmd.Printf("  Python: %s\n", result.Version)
	cmd.Printf("  Dest:   %s\n", result.Dest)
	if result.PipBootstrapped {
		cmd.Printf("  Pip:    bootstrapped via get-pip.py\n")
	}
	switch {
	case result.LibsSkipped:
		cmd.Printf("  Libs:   skipped (no host libs on PATH)\n")
	case result.LibsDir != "":
		cmd.Printf("  Libs:   copied from %s\n", result.LibsDir)
	}
}
