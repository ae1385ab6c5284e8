package tui

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// DownloadTracker renders a progress bar for an archive download on stderr.
// It implements pyenv.DownloadObserver: Started launches the Bubble Tea
// program, Progress feeds it counts, Finished waits for it to exit. A
// Ctrl+C inside the program cancels the download's context, which makes the
// download step itself fail and abort the pipeline.
type DownloadTracker struct {
	cancel context.CancelFunc
	prog   *tea.Program
	done   chan struct{}
}

// NewDownloadTracker creates a tracker. cancel, when non-nil, is invoked if
// the user interrupts the progress display.
func NewDownloadTracker(cancel context.CancelFunc) *DownloadTracker {
	return &DownloadTracker{cancel: cancel}
}

// Started launches the progress program. The download itself runs on the
// caller's goroutine; the program only renders.
func (t *DownloadTracker) Started(url string, _ int64) {
	t.prog = tea.NewProgram(newDownloadModel(url), tea.WithOutput(os.Stderr))
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)
		final, err := t.prog.Run()
		if err != nil {
			return
		}
		if m, ok := final.(downloadModel); ok && m.interrupted && t.cancel != nil {
			t.cancel()
		}
	}()
}

// Progress forwards byte counts to the program.
func (t *DownloadTracker) Progress(written, total int64) {
	if t.prog != nil {
		t.prog.Send(progressMsg{written: written, total: total})
	}
}

// Finished stops the program and waits for the terminal to be restored.
func (t *DownloadTracker) Finished(err error) {
	if t.prog == nil {
		return
	}
	t.prog.Send(doneMsg{err: err})
	<-t.done
}
