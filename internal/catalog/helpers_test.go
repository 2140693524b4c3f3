package catalog_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/maltedev/frame-scraper/internal/catalog"
)

const testBase = "https://shop.test"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func homePage(hrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="main-megamenu"><ul class="list-featured">`)
	for _, h := range hrefs {
		fmt.Fprintf(&b, `<li><a href="#" onclick="document.location.href='%s'">Category</a></li>`, h)
	}
	b.WriteString(`</ul></div></body></html>`)
	return b.String()
}

// listingPage renders a listing with the given pagination labels and product
// ids. A nil pages slice renders no pagination block at all.
func listingPage(pages []string, ids ...int) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	if pages != nil {
		b.WriteString(`<div class="pagination">`)
		for _, p := range pages {
			fmt.Fprintf(&b, `<a class="activeLink" href="#">%s</a>`, p)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`<div class="list-product-content">`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<div class="item-product"><a href="#" onclick="gotoproductpage(%d)"><img src="x.jpg"></a></div>`, id)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func productPage(brand, name, upc string) string {
	return fmt.Sprintf(`<html><body><div class="text-product">
<span class="brand">%s</span>
<h1>%s</h1>
<span class="color">UPC: %s</span>
<p>Acetate frame</p>
</div></body></html>`, brand, name, upc)
}

func productURL(id int) string {
	return catalog.ProductURL(testBase, fmt.Sprint(id))
}

type memSink struct {
	mu     sync.Mutex
	calls  int
	result catalog.ScrapeResult
	err    error
}

func (s *memSink) Persist(_ context.Context, result catalog.ScrapeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.result = result
	return s.err
}

type eventLog struct {
	mu     sync.Mutex
	events []catalog.Event
}

func (l *eventLog) OnEvent(e catalog.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) count(kind catalog.EventKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (l *eventLog) last(kind catalog.EventKind) (catalog.Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Kind == kind {
			return l.events[i], true
		}
	}
	return catalog.Event{}, false
}

type staticCategories []string

func (c staticCategories) Categories(context.Context, catalog.Session) ([]string, error) {
	return c, nil
}
