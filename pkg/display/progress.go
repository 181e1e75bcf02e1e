// Package display renders run progress for the terminal. It implements
// the engine's Reporter interface with a pterm progress bar, falling back
// to silence when stdout is not interactive, and optional per-action
// lines in verbose mode.
package display

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	"github.com/arthur-debert/snapback/pkg/types"
)

// Progress is a terminal Reporter. The completed count it renders is an
// observational signal only; it says nothing about which items finished.
type Progress struct {
	verbose     bool
	interactive bool

	mu  sync.Mutex
	bar *pterm.ProgressbarPrinter
}

// NewProgress creates a Progress reporter. The bar is only drawn on an
// interactive stdout; verbose adds one line per completed action.
func NewProgress(verbose bool) *Progress {
	return &Progress{
		verbose:     verbose,
		interactive: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}
}

// Start begins the bar with the total number of files to process.
func (p *Progress) Start(total int) {
	if !p.interactive || total == 0 {
		return
	}
	bar, err := pterm.DefaultProgressbar.WithTotal(total).WithTitle("snapshotting").Start()
	if err != nil {
		return
	}
	p.mu.Lock()
	p.bar = bar
	p.mu.Unlock()
}

// Completed records one finished item. Called concurrently by workers.
func (p *Progress) Completed(res types.WorkResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case res.Failed():
		pterm.Error.Printfln("%s: %v", res.Item.Rel, res.Err)
	case p.verbose:
		switch res.Action {
		case types.ActionLinked:
			pterm.Printfln("link: %s", res.Item.Rel)
		case types.ActionCopied:
			pterm.Printfln("copy: %s", res.Item.Rel)
		case types.ActionDirCreated:
			pterm.Printfln("mkdir: %s", res.Item.Rel)
		}
	}

	// The total counts files only, so directories don't advance the bar.
	if p.bar != nil && res.Item.Kind == types.ItemFile {
		p.bar.Increment()
	}
}

// Finish stops the bar.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_, _ = p.bar.Stop()
		p.bar = nil
	}
}
