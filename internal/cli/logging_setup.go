package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/rshade/pybundle/internal/config"
	"github.com/rshade/pybundle/internal/logging"
)

// setupLogging configures the root logger from config and CLI flags, tags
// the command context with a run ID, and attaches the logger to the context
// so downstream packages can retrieve it with logging.FromContext. The
// returned closer releases the log file handle, if any.
func setupLogging(cmd *cobra.Command, cfg *config.Config) (io.Closer, error) {
	logCfg := cfg.Logging

	// --debug forces verbose console output regardless of config.
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logCfg.Level = "debug"
		logCfg.Format = logging.FormatConsole
		logCfg.File = ""
	}

	root, closer, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	runID := logging.NewRunID()
	root = root.With().Str("run_id", runID).Logger()
	logger = logging.ComponentLogger(root, "cli")

	ctx := logging.ContextWithRunID(cmd.Context(), runID)
	ctx = root.WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Debug().Str("command", cmd.Name()).Msg("command started")

	return closer, nil
}
