package pyenv

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxFileSize caps a single extracted file at 500MB to guard against
// decompression bombs. Embeddable distributions are a few tens of megabytes.
const maxFileSize = 500 * 1024 * 1024

// dirPerm is the permission mode for directories created during extraction.
const dirPerm = 0o750

// ExtractZip extracts every entry of the zip archive at archivePath into
// destDir, recreating the archive's internal directory structure. destDir and
// any intermediate path segments are created when absent; existing files at
// colliding paths are overwritten. A failed extraction may leave a partially
// populated destination, there is no cleanup. Failures wrap
// ErrExtractionFailed.
func ExtractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return stepErr(StepExtract, ErrExtractionFailed,
			fmt.Errorf("opening %s: %w", archivePath, err))
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, dirPerm); err != nil {
		return stepErr(StepExtract, ErrExtractionFailed, err)
	}

	for _, f := range r.File {
		if err := extractZipEntry(f, destDir); err != nil {
			return stepErr(StepExtract, ErrExtractionFailed,
				fmt.Errorf("entry %s: %w", f.Name, err))
		}
	}

	return nil
}

// sanitizePath joins name under destDir and rejects entries that would
// escape it (zip-slip).
func sanitizePath(destDir, name string) (string, error) {
	path := filepath.Join(destDir, name)
	if !strings.HasPrefix(path, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal path %q escapes destination", name)
	}
	return path, nil
}

func extractZipEntry(f *zip.File, destDir string) error {
	path, err := sanitizePath(destDir, f.Name)
	if err != nil {
		return err
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(path, dirPerm)
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	// Zips produced on Windows often carry a zero mode.
	mode := f.Mode().Perm()
	if mode == 0 {
		mode = fs.FileMode(0o644)
	}

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	written, err := io.Copy(out, io.LimitReader(rc, maxFileSize+1))
	if err != nil {
		_ = out.Close()
		return err
	}
	if written > maxFileSize {
		_ = out.Close()
		return fmt.Errorf("exceeds %d byte limit", maxFileSize)
	}

	return out.Close()
}
