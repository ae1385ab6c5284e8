package pyenv

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// libsDirName is the subdirectory of a standard Windows Python installation
// holding the import libraries compiled extensions link against.
const libsDirName = "libs"

// HostLibsDir scans the entries of pathEnv (a PATH-style list) for a
// Python{MM} installation directory containing a libs subdirectory and
// returns that subdirectory. The embeddable distribution ships without it,
// so building native extensions inside the bundle needs the host's copy.
func HostLibsDir(v Version, pathEnv string) (string, error) {
	target := v.HostInstallDirName()

	for _, dir := range filepath.SplitList(pathEnv) {
		if filepath.Base(dir) != target {
			continue
		}
		libs := filepath.Join(dir, libsDirName)
		if info, err := os.Stat(libs); err == nil && info.IsDir() {
			return libs, nil
		}
	}

	return "", fmt.Errorf("no %s%c%s directory on PATH", target, filepath.Separator, libsDirName)
}

// CopyHostLibs copies the first level of srcDir into destDir/libs, skipping
// entries that already exist and descending into no subdirectories. Failures
// wrap ErrPrepareFailed.
func CopyHostLibs(srcDir, destDir string) error {
	target := filepath.Join(destDir, filepath.Base(srcDir))
	if err := os.MkdirAll(target, dirPerm); err != nil {
		return stepErr(StepPrepare, ErrPrepareFailed, err)
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return stepErr(StepPrepare, ErrPrepareFailed, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		dst := filepath.Join(target, entry.Name())
		if _, statErr := os.Lstat(dst); statErr == nil {
			continue
		}
		if copyErr := copyFile(filepath.Join(srcDir, entry.Name()), dst); copyErr != nil {
			return stepErr(StepPrepare, ErrPrepareFailed, copyErr)
		}
	}

	return nil
}

// copyFile copies a file from src to dst, preserving its mode.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	if _, copyErr := io.Copy(dstFile, srcFile); copyErr != nil {
		_ = dstFile.Close()
		return fmt.Errorf("copying file: %w", copyErr)
	}

	if syncErr := dstFile.Sync(); syncErr != nil {
		_ = dstFile.Close()
		return fmt.Errorf("syncing destination: %w", syncErr)
	}

	if closeErr := dstFile.Close(); closeErr != nil {
		return fmt.Errorf("closing destination: %w", closeErr)
	}

	return nil
}
