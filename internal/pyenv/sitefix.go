package pyenv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// disabledSiteLine is how the vendor ships the site import in the path
// configuration file of every embeddable distribution.
const disabledSiteLine = "#import site"

// EnableImportSite rewrites the distribution's python{MM}._pth file so the
// interpreter processes site-packages on startup. Without this the embedded
// runtime cannot see anything pip installs. Failures wrap ErrPrepareFailed.
func EnableImportSite(distDir string, v Version) error {
	pthPath := filepath.Join(distDir, v.PthFileName())

	data, err := os.ReadFile(pthPath)
	if err != nil {
		return stepErr(StepPrepare, ErrPrepareFailed,
			fmt.Errorf("reading %s: %w", pthPath, err))
	}

	updated := strings.Replace(string(data), disabledSiteLine, "import site", 1)
	if updated == string(data) {
		// Already enabled, nothing to rewrite.
		return nil
	}

	if err := os.WriteFile(pthPath, []byte(updated), 0o644); err != nil {
		return stepErr(StepPrepare, ErrPrepareFailed,
			fmt.Errorf("writing %s: %w", pthPath, err))
	}

	return nil
}
