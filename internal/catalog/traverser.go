package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Timing holds the fixed delays and bounded waits of a crawl. The settle
// delays give client-side rendering time to populate the DOM; the site
// offers no completion signal to wait on instead.
type Timing struct {
	LandingSettle  time.Duration
	CategorySettle time.Duration
	PageSettle     time.Duration
	ProductSettle  time.Duration
	WaitTimeout    time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		LandingSettle:  1 * time.Second,
		CategorySettle: 1500 * time.Millisecond,
		PageSettle:     1 * time.Second,
		ProductSettle:  1500 * time.Millisecond,
		WaitTimeout:    10 * time.Second,
	}
}

// Traverser walks every listing page of one category and collects product
// URLs.
type Traverser struct {
	BaseURL   string
	Selectors Selectors
	Timing    Timing
	Resolver  PageURLResolver
	Observer  Observer
	logger    *slog.Logger
}

func NewTraverser(baseURL string, sel Selectors, timing Timing, resolver PageURLResolver, obs Observer, logger *slog.Logger) *Traverser {
	if obs == nil {
		obs = nopObserver{}
	}
	return &Traverser{
		BaseURL:   baseURL,
		Selectors: sel,
		Timing:    timing,
		Resolver:  resolver,
		Observer:  obs,
		logger:    logger.With("component", "category_traverser"),
	}
}

// Traverse returns the distinct product URLs of the category in first-seen
// order. Page-level failures are reported and skipped, so Traverse never
// fails; at worst the result is empty.
func (t *Traverser) Traverse(ctx context.Context, sess Session, categoryURL string) []string {
	urls, _ := t.traverse(ctx, sess, categoryURL)
	return urls
}

// traverse also returns the number of listing pages that failed.
func (t *Traverser) traverse(ctx context.Context, sess Session, categoryURL string) ([]string, int) {
	found := NewURLSet()
	notify(t.Observer, Event{Kind: EventCategoryStarted, URL: categoryURL})

	maxPage := t.scanPages(ctx, sess, categoryURL)
	failures := 0

	for page := 1; page <= maxPage; page++ {
		if ctx.Err() != nil {
			t.logger.Warn("category traversal cancelled", "url", categoryURL, "page", page)
			break
		}

		pageURL, err := t.Resolver.Resolve(categoryURL, page)
		if err != nil {
			failures++
			t.pageFailed(categoryURL, page, err)
			continue
		}

		urls, err := t.collectPage(ctx, sess, pageURL)
		if err != nil {
			failures++
			t.pageFailed(pageURL, page, err)
			continue
		}

		added := found.AddAll(urls)
		t.logger.Debug("listing page collected", "url", pageURL, "page", page, "links", len(urls), "new", added)
		notify(t.Observer, Event{Kind: EventPageVisited, URL: pageURL, Page: page, Count: len(urls)})
	}

	t.logger.Info("category finished", "url", categoryURL, "pages", maxPage, "failed_pages", failures, "products", found.Len())
	notify(t.Observer, Event{Kind: EventCategoryFinished, URL: categoryURL, Page: maxPage, Count: found.Len()})
	return found.Items(), failures
}

// scanPages loads the category's first page and reads its pagination. Any
// failure falls back to a single page.
func (t *Traverser) scanPages(ctx context.Context, sess Session, categoryURL string) int {
	if err := sess.Visit(ctx, categoryURL); err != nil {
		t.logger.Warn("failed to open category", "url", categoryURL, "error", err)
		return 1
	}
	if err := sess.Settle(ctx, t.Timing.CategorySettle); err != nil {
		return 1
	}

	maxPage, err := ScanPagination(ctx, sess, t.Selectors)
	if err != nil {
		if !errors.Is(err, ErrElementNotFound) {
			t.logger.Warn("failed to scan pagination", "url", categoryURL, "error", err)
		}
		notify(t.Observer, Event{Kind: EventPaginationMissing, URL: categoryURL, Err: err})
	}
	return maxPage
}

func (t *Traverser) collectPage(ctx context.Context, sess Session, pageURL string) ([]string, error) {
	if err := sess.Visit(ctx, pageURL); err != nil {
		return nil, fmt.Errorf("failed to open listing page: %w", err)
	}
	if err := sess.Settle(ctx, t.Timing.PageSettle); err != nil {
		return nil, err
	}
	if _, err := sess.WaitFor(ctx, t.Selectors.ListingContainer, t.Timing.WaitTimeout); err != nil {
		return nil, err
	}
	return ExtractProductLinks(ctx, sess, t.Selectors, t.BaseURL)
}

func (t *Traverser) pageFailed(pageURL string, page int, err error) {
	t.logger.Warn("listing page failed", "url", pageURL, "page", page, "error", err)
	notify(t.Observer, Event{Kind: EventPageFailed, URL: pageURL, Page: page, Err: err})
}
