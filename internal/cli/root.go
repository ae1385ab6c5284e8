// Package cli implements the cobra commands for pybundle. Each command
// lives in its own file and is created by a NewXxxCmd constructor.
package cli

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/pybundle/internal/config"
)

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// configKey carries the loaded configuration on the command context.
type configKey struct{}

// NewRootCmd creates the root Cobra command for the pybundle CLI. It wires
// up configuration loading, logging, and the create, probe, and config
// subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var logCloser io.Closer

	cmd := &cobra.Command{
		Use:   "pybundle",
		Short: "Portable embeddable-Python environment builder",
		Long: `pybundle creates a portable, self-contained Python runtime directory on
Windows. It downloads the official embeddable distribution matching the host
Python version, extracts it, makes the runtime usable (import site enabled,
host libs copied, pip bootstrapped), and installs a requirements file with
the bundled pip.`,
		Version: ver,

		// Errors are printed once by main with the failing step named;
		// cobra would otherwise print them a second time.
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Build an environment for the host's Python version
  pybundle create myenv -r requirements.txt

  # Pin the runtime version instead of probing the host
  pybundle create myenv -r requirements.txt --py-version 3.11.4

  # Show the version the probe would use
  pybundle probe

  # Write a default configuration file
  pybundle config init`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			closer, err := setupLogging(cmd, cfg)
			if err != nil {
				return err
			}
			logCloser = closer

			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "config file path (default: ~/.pybundle/config.yaml)")

	cmd.AddCommand(NewCreateCmd(), NewProbeCmd(), newConfigCmd())

	return cmd
}

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigValidateCmd())
	return cmd
}

// loadConfig reads the config file named by --config, falling back to the
// per-user default location. A missing file yields defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}
	return config.Load(path)
}

// configFromCmd returns the configuration stored by the root command's
// PersistentPreRunE, or defaults when the command runs outside that path
// (direct RunE invocation in tests).
func configFromCmd(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return config.Default()
}
