package pyenv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rshade/pybundle/internal/logging"
)

const (
	// DefaultBaseURL is the python.org archive root serving embeddable
	// distribution zips.
	DefaultBaseURL = "https://www.python.org/ftp/python"

	// DefaultArch is the architecture suffix of the supported target, the
	// 64-bit Windows build.
	DefaultArch = "amd64"

	// DefaultGetPipURL serves the pip bootstrap script.
	DefaultGetPipURL = "https://bootstrap.pypa.io/get-pip.py"

	// downloadTimeout bounds a single archive fetch end to end.
	downloadTimeout = 10 * time.Minute
)

// ProgressFunc receives byte counts as a download advances. total is -1 when
// the server did not announce a content length.
type ProgressFunc func(written, total int64)

// Downloader fetches embeddable-distribution archives over HTTP. A single
// blocking GET per archive, no retry, no resume, no checksum verification:
// correctness of the fetched bytes is trusted to the HTTP layer and the
// vendor's server.
type Downloader struct {
	// HTTPClient defaults to a client with downloadTimeout applied.
	HTTPClient *http.Client

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Arch defaults to DefaultArch.
	Arch string
}

// NewDownloader creates a Downloader with vendor defaults.
func NewDownloader() *Downloader {
	return &Downloader{}
}

// ArchiveURL returns the download URL for the given version. Identical
// versions always yield identical URLs.
func (d *Downloader) ArchiveURL(v Version) string {
	base := d.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	arch := d.Arch
	if arch == "" {
		arch = DefaultArch
	}
	return fmt.Sprintf("%s/%s/python-%s-embed-%s.zip", base, v, v, arch)
}

// Download fetches the embeddable archive for v and writes it to destPath,
// overwriting any existing file. Failures wrap ErrDownloadFailed.
func (d *Downloader) Download(ctx context.Context, v Version, destPath string, progress ProgressFunc) error {
	return d.Fetch(ctx, d.ArchiveURL(v), destPath, progress)
}

// Fetch performs a single blocking GET of url and writes the whole response
// body to destPath. Any transport error or non-2xx status wraps
// ErrDownloadFailed; there is no retry and no partial-download handling.
func (d *Downloader) Fetch(ctx context.Context, url, destPath string, progress ProgressFunc) error {
	log := logging.FromContext(ctx)

	client := d.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return stepErr(StepDownload, ErrDownloadFailed, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return stepErr(StepDownload, ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return stepErr(StepDownload, ErrDownloadFailed,
			fmt.Errorf("GET %s: %s", url, resp.Status))
	}

	out, err := os.Create(destPath)
	if err != nil {
		return stepErr(StepDownload, ErrDownloadFailed, err)
	}

	var body io.Reader = resp.Body
	if progress != nil {
		body = &progressReader{r: resp.Body, total: resp.ContentLength, fn: progress}
	}

	written, err := io.Copy(out, body)
	if err != nil {
		_ = out.Close()
		return stepErr(StepDownload, ErrDownloadFailed, err)
	}
	if closeErr := out.Close(); closeErr != nil {
		return stepErr(StepDownload, ErrDownloadFailed, closeErr)
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "pyenv").
		Str("operation", "download").
		Str("url", url).
		Str("dest", destPath).
		Int64("bytes", written).
		Msg("archive downloaded")

	return nil
}

// progressReader reports cumulative byte counts to a ProgressFunc as the
// response body is consumed.
type progressReader struct {
	r       io.Reader
	written int64
	total   int64
	fn      ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.written += int64(n)
		p.fn(p.written, p.total)
	}
	return n, err
}
