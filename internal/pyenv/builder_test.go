package pyenv

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embedZipBytes builds an in-memory archive shaped like an embeddable
// distribution for 3.11.x.
func embedZipBytes(t *testing.T, withPip bool) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := map[string]string{
		"python311._pth": "python311.zip\n.\n#import site\n",
		"python.exe":     "interpreter",
		"python311.dll":  "runtime",
	}
	if withPip {
		files["Scripts/pip.exe"] = "pip"
	}

	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

// archiveServer serves the given zip for every request.
func archiveServer(t *testing.T, zipData []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(zipData)
	}))
	t.Cleanup(server.Close)
	return server
}

// hostLibsPathEnv creates a fake host installation and returns a PATH value
// pointing at it.
func hostLibsPathEnv(t *testing.T) string {
	t.Helper()
	installDir := filepath.Join(t.TempDir(), "Python311")
	require.NoError(t, os.MkdirAll(filepath.Join(installDir, "libs"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(installDir, "libs", "python311.lib"), []byte("lib"), 0o644))
	return installDir
}

func newTestBuilder(serverURL string, client *http.Client, runner CommandRunner, pathEnv string) *Builder {
	downloader := &Downloader{BaseURL: serverURL, HTTPClient: client}
	return &Builder{
		Resolver: &Resolver{
			Python:   "python",
			LookPath: func(name string) (string, error) { return name, nil },
			Runner:   runner,
		},
		Downloader: downloader,
		Installer: &PipInstaller{
			Runner:     runner,
			Downloader: downloader,
		},
		PathEnv: func() string { return pathEnv },
	}
}

func TestBuilderRun(t *testing.T) {
	server := archiveServer(t, embedZipBytes(t, true))
	runner := &fakeRunner{output: []byte("Python 3.11.4\n")}
	b := newTestBuilder(server.URL, server.Client(), runner, hostLibsPathEnv(t))

	dest := filepath.Join(t.TempDir(), "myenv")
	result, err := b.Run(context.Background(), Options{
		Dest:         dest,
		Requirements: "requirements.txt",
	})
	require.NoError(t, err)

	assert.Equal(t, Version{3, 11, 4}, result.Version)
	assert.Equal(t, dest, result.Dest)
	assert.False(t, result.PipBootstrapped)
	assert.NotEmpty(t, result.LibsDir)

	// Environment populated with the archive's contents.
	assert.FileExists(t, filepath.Join(dest, "python.exe"))
	assert.FileExists(t, filepath.Join(dest, "Scripts", "pip.exe"))
	assert.FileExists(t, filepath.Join(dest, "libs", "python311.lib"))

	// Import site enabled in place.
	data, err := os.ReadFile(filepath.Join(dest, "python311._pth"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "#import site")

	// Intermediate archive removed after extraction.
	assert.NoFileExists(t, filepath.Join(dest, "python-3.11.4-embed-amd64.zip"))

	// Installer invoked with the requirements file path.
	require.Len(t, runner.streamCalls, 1)
	assert.Equal(t, []string{"install", "-r", "requirements.txt"}, runner.streamCalls[0].Args)
}

func TestBuilderRunCreatesDest(t *testing.T) {
	server := archiveServer(t, embedZipBytes(t, true))
	runner := &fakeRunner{output: []byte("Python 3.11.4\n")}
	b := newTestBuilder(server.URL, server.Client(), runner, hostLibsPathEnv(t))

	// Destination with intermediate segments that do not exist yet.
	dest := filepath.Join(t.TempDir(), "a", "b", "myenv")
	_, err := b.Run(context.Background(), Options{Dest: dest, Requirements: "req.txt"})
	require.NoError(t, err)
	assert.DirExists(t, dest)
}

func TestBuilderRunExplicitVersionSkipsProbe(t *testing.T) {
	server := archiveServer(t, embedZipBytes(t, true))
	runner := &fakeRunner{}
	b := newTestBuilder(server.URL, server.Client(), runner, hostLibsPathEnv(t))

	_, err := b.Run(context.Background(), Options{
		Dest:         filepath.Join(t.TempDir(), "env"),
		Requirements: "req.txt",
		PyVersion:    "3.11.4",
	})
	require.NoError(t, err)
	assert.Empty(t, runner.outputCalls, "probe must not run with an explicit version")
}

func TestBuilderRunBadExplicitVersion(t *testing.T) {
	b := NewBuilder()

	_, err := b.Run(context.Background(), Options{
		Dest:         t.TempDir(),
		Requirements: "req.txt",
		PyVersion:    "not-a-version",
	})
	require.ErrorIs(t, err, ErrUnparseableVersion)

	step, ok := FailedStep(err)
	require.True(t, ok)
	assert.Equal(t, StepResolve, step)
}

func TestBuilderRunDownloadNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	runner := &fakeRunner{output: []byte("Python 3.11.4\n")}
	b := newTestBuilder(server.URL, server.Client(), runner, hostLibsPathEnv(t))

	dest := filepath.Join(t.TempDir(), "env")
	_, err := b.Run(context.Background(), Options{Dest: dest, Requirements: "req.txt"})
	require.ErrorIs(t, err, ErrDownloadFailed)

	step, ok := FailedStep(err)
	require.True(t, ok)
	assert.Equal(t, StepDownload, step)

	// No extraction and no install attempted after the failed fetch.
	assert.NoFileExists(t, filepath.Join(dest, "python.exe"))
	assert.Empty(t, runner.streamCalls)
}

func TestBuilderRunBootstrapsPip(t *testing.T) {
	// Archive without pip: the builder must fetch get-pip.py and run it.
	zipData := embedZipBytes(t, false)
	mux := http.NewServeMux()
	mux.HandleFunc("/get-pip.py", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# bootstrap"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(zipData)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "env")
	runner := &fakeRunner{output: []byte("Python 3.11.4\n")}

	// Bootstrapping creates pip, like the real get-pip.py would.
	runner.onStream = func(req StreamRequest) error {
		if strings.HasSuffix(req.Name, "python.exe") {
			if err := os.MkdirAll(filepath.Join(dest, "Scripts"), 0o750); err != nil {
				return err
			}
			return os.WriteFile(PipPath(dest), []byte("pip"), 0o755)
		}
		return nil
	}

	b := newTestBuilder(server.URL, server.Client(), runner, hostLibsPathEnv(t))
	b.Installer.GetPipURL = server.URL + "/get-pip.py"

	result, err := b.Run(context.Background(), Options{Dest: dest, Requirements: "req.txt"})
	require.NoError(t, err)
	assert.True(t, result.PipBootstrapped)

	// get-pip run plus the requirements install.
	require.Len(t, runner.streamCalls, 2)
	assert.True(t, strings.HasSuffix(runner.streamCalls[0].Name, "python.exe"))
	assert.Equal(t, []string{"install", "-r", "req.txt"}, runner.streamCalls[1].Args)
}

func TestBuilderRunMissingLibs(t *testing.T) {
	server := archiveServer(t, embedZipBytes(t, true))
	runner := &fakeRunner{output: []byte("Python 3.11.4\n")}
	b := newTestBuilder(server.URL, server.Client(), runner, "")

	dest := filepath.Join(t.TempDir(), "env")
	_, err := b.Run(context.Background(), Options{Dest: dest, Requirements: "req.txt"})
	require.ErrorIs(t, err, ErrPrepareFailed)

	// With SkipLibs the same build succeeds and records the skip.
	result, err := b.Run(context.Background(), Options{
		Dest:         dest,
		Requirements: "req.txt",
		SkipLibs:     true,
	})
	require.NoError(t, err)
	assert.True(t, result.LibsSkipped)
	assert.Empty(t, result.LibsDir)
}

func TestBuilderRunInstallFails(t *testing.T) {
	server := archiveServer(t, embedZipBytes(t, true))
	runner := &fakeRunner{
		output:    []byte("Python 3.11.4\n"),
		streamErr: errors.New("exit status 1"),
	}
	b := newTestBuilder(server.URL, server.Client(), runner, hostLibsPathEnv(t))

	_, err := b.Run(context.Background(), Options{
		Dest:         filepath.Join(t.TempDir(), "env"),
		Requirements: "does-not-exist.txt",
	})
	require.ErrorIs(t, err, ErrInstallFailed)

	step, ok := FailedStep(err)
	require.True(t, ok)
	assert.Equal(t, StepInstall, step)
}

// recordingObserver captures download lifecycle events.
type recordingObserver struct {
	startedURL string
	progressed bool
	finishErr  error
	finished   bool
}

func (o *recordingObserver) Started(url string, _ int64) { o.startedURL = url }
func (o *recordingObserver) Progress(_, _ int64)         { o.progressed = true }
func (o *recordingObserver) Finished(err error)          { o.finishErr = err; o.finished = true }

func TestBuilderRunObserver(t *testing.T) {
	server := archiveServer(t, embedZipBytes(t, true))
	runner := &fakeRunner{output: []byte("Python 3.11.4\n")}
	b := newTestBuilder(server.URL, server.Client(), runner, hostLibsPathEnv(t))

	obs := &recordingObserver{}
	_, err := b.Run(context.Background(), Options{
		Dest:         filepath.Join(t.TempDir(), "env"),
		Requirements: "req.txt",
		Observer:     obs,
	})
	require.NoError(t, err)

	assert.Contains(t, obs.startedURL, "python-3.11.4-embed-amd64.zip")
	assert.True(t, obs.progressed)
	assert.True(t, obs.finished)
	assert.NoError(t, obs.finishErr)
}
