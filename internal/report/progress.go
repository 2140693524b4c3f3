package report

import (
	"io"
	"sync"

	"github.com/maltedev/frame-scraper/internal/catalog"
	"github.com/schollz/progressbar/v3"
)

// Progress draws a console bar over the product extraction phase.
type Progress struct {
	mu  sync.Mutex
	out io.Writer
	bar *progressbar.ProgressBar
}

func NewProgress(out io.Writer) *Progress {
	return &Progress{out: out}
}

func (p *Progress) OnEvent(e catalog.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Kind {
	case catalog.EventProductsCollected:
		p.bar = progressbar.NewOptions(e.Count,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription("extracting products"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	case catalog.EventProductScraped, catalog.EventProductFailed:
		if p.bar != nil {
			_ = p.bar.Add(1)
		}
	case catalog.EventRunFinished:
		if p.bar != nil {
			_ = p.bar.Finish()
			p.bar = nil
		}
	}
}

// Current returns how many products the bar has counted so far.
func (p *Progress) Current() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return 0
	}
	return p.bar.State().CurrentNum
}
