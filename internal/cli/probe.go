package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/pybundle/internal/pyenv"
)

// NewProbeCmd creates the probe command, a diagnostic surface for the
// version resolver: it runs only the interpreter probe and prints the triple
// the create pipeline would use.
func NewProbeCmd() *cobra.Command {
	var python string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Print the Python version the build would bundle",
		Example: `  # Probe the default interpreter on PATH
  pybundle probe

  # Probe a specific interpreter
  pybundle probe --python C:\Python311\python.exe`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFromCmd(cmd)
			if python != "" {
				cfg.Python.Executable = python
			}

			v, err := pyenv.NewResolver(cfg.Python.Executable).Resolve(cmd.Context())
			if err != nil {
				return err
			}

			cmd.Println(v.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&python, "python", "", "interpreter name or path to probe")

	return cmd
}
