// Package progress renders a terminal progress bar for page builds.
package progress

import (
	"fmt"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Bar tracks completed pages on stderr. When stderr is not a terminal the bar
// is disabled and only lines routed through Println are printed.
type Bar struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// New creates a bar for total pages. The bar clears itself when finished so
// the build summary prints on a clean line.
func New(total int, description string) *Bar {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return &Bar{}
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionClearOnFinish(),
	)
	return &Bar{bar: bar}
}

// Add advances the bar by n completed pages.
func (b *Bar) Add(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil {
		b.bar.Add(n)
	}
}

// Finish completes and clears the bar.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil {
		b.bar.Finish()
	}
}

// Println prints a line above the bar and repaints it. Implements ui.Sink so
// log records interleave cleanly with the bar.
func (b *Bar) Println(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		fmt.Fprintln(os.Stderr, line)
		return
	}
	b.bar.Clear()
	fmt.Fprintln(os.Stderr, line)
	b.bar.RenderBlank()
}
