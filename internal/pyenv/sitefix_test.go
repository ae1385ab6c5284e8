package pyenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnableImportSite(t *testing.T) {
	distDir := t.TempDir()
	v := Version{Major: 3, Minor: 11, Patch: 4}
	pthPath := filepath.Join(distDir, "python311._pth")

	require.NoError(t, os.WriteFile(pthPath,
		[]byte("python311.zip\n.\n\n# Uncomment to run site.main() automatically\n#import site\n"), 0o644))

	require.NoError(t, EnableImportSite(distDir, v))

	data, err := os.ReadFile(pthPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\nimport site\n")
	assert.NotContains(t, string(data), "#import site")
}

func TestEnableImportSiteAlreadyEnabled(t *testing.T) {
	distDir := t.TempDir()
	v := Version{Major: 3, Minor: 11, Patch: 4}
	pthPath := filepath.Join(distDir, "python311._pth")

	content := "python311.zip\n.\nimport site\n"
	require.NoError(t, os.WriteFile(pthPath, []byte(content), 0o644))

	require.NoError(t, EnableImportSite(distDir, v))

	data, err := os.ReadFile(pthPath)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestEnableImportSiteMissingFile(t *testing.T) {
	err := EnableImportSite(t.TempDir(), Version{Major: 3, Minor: 11, Patch: 4})
	require.ErrorIs(t, err, ErrPrepareFailed)

	step, ok := FailedStep(err)
	require.True(t, ok)
	assert.Equal(t, StepPrepare, step)
}
