// Package tui renders interactive terminal output for long-running steps.
// Only the archive download is interactive; everything else logs plainly.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer formats byte counts with thousand separators, English locale for
// consistent output.
var printer = message.NewPrinter(language.English)

var (
	urlStyle   = lipgloss.NewStyle().Faint(true)
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

// Default dimensions for the progress bar.
const (
	defaultBarWidth = 60
	barPadding      = 4
)

// FormatBytes formats a byte count into a human-readable string.
func FormatBytes(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(kb))
	default:
		return printer.Sprintf("%d bytes", bytes)
	}
}

// progressMsg carries cumulative download counts into the model.
type progressMsg struct {
	written int64
	total   int64
}

// doneMsg ends the program with the download's outcome.
type doneMsg struct {
	err error
}

// downloadModel is the Bubble Tea model for a single archive download.
type downloadModel struct {
	bar     progress.Model
	url     string
	written int64
	total   int64

	done        bool
	interrupted bool
	err         error
}

func newDownloadModel(url string) downloadModel {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = defaultBarWidth
	return downloadModel{bar: bar, url: url, total: -1}
}

func (m downloadModel) Init() tea.Cmd {
	return nil
}

func (m downloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		width := msg.Width - barPadding
		if width > 0 && width < m.bar.Width {
			m.bar.Width = width
		}
		return m, nil

	case progressMsg:
		m.written = msg.written
		m.total = msg.total
		return m, nil

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.interrupted = true
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

func (m downloadModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(urlStyle.Render("downloading "+m.url) + "\n")

	if m.total > 0 {
		b.WriteString(m.bar.ViewAs(float64(m.written) / float64(m.total)))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(
			fmt.Sprintf("%s / %s", FormatBytes(m.written), FormatBytes(m.total))))
	} else {
		b.WriteString(countStyle.Render(FormatBytes(m.written)))
	}
	b.WriteString("\n")

	return b.String()
}
