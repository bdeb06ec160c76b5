package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
)

// terminalProgress renders scan progress on a terminal: a status line while
// files are collected, then a bar while candidates are compared.
type terminalProgress struct {
	mu  sync.Mutex
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newTerminalProgress(w io.Writer) *terminalProgress {
	return &terminalProgress{w: w}
}

// clearLine erases the current status line.
func (p *terminalProgress) clearLine() {
	fmt.Fprint(p.w, "\r\033[2K\r")
}

func (p *terminalProgress) Scanned(files int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		return
	}

	fmt.Fprintf(p.w, "\r\033[2K%s\r", "Scanning… "+humanize.Comma(files)+" files")
}

func (p *terminalProgress) Classifying(candidates int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearLine()

	if candidates == 0 {
		return
	}

	p.bar = progressbar.NewOptions(candidates,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("Comparing…"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(15), //nolint:mnd // Bar width in columns
		progressbar.OptionThrottle(65*time.Millisecond), //nolint:mnd // Redraw cadence
		progressbar.OptionClearOnFinish(),
	)
}

func (p *terminalProgress) Classified(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Add(n)
	}
}

// done clears whatever is left on the status line.
func (p *terminalProgress) done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Finish()
	}

	p.clearLine()
}
