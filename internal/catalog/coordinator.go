package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Coordinator drives a full crawl on one session: categories, listing pages,
// product pages, then a single hand-off to the sink.
type Coordinator struct {
	traverser *Traverser
	extractor *ProductExtractor
	observer  Observer
	logger    *slog.Logger
}

// Options configures a Coordinator.
type Options struct {
	BaseURL   string
	Selectors Selectors
	Timing    Timing
	Resolver  PageURLResolver
	Observer  Observer
}

func NewCoordinator(opts Options, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &Coordinator{
		traverser: NewTraverser(opts.BaseURL, opts.Selectors, opts.Timing, opts.Resolver, obs, logger),
		extractor: NewProductExtractor(opts.Selectors, opts.Timing, obs, logger),
		observer:  obs,
		logger:    logger.With("component", "coordinator"),
	}
}

// Run crawls every category the provider yields and persists the records
// it could extract. Page and product failures are reported through the
// observer and never abort the run. The returned error is non-nil only when
// the sink fails; the Outcome is returned either way.
//
// If ctx is cancelled no new category or product is started, but whatever
// was collected is still persisted.
func (c *Coordinator) Run(ctx context.Context, sess Session, provider CategoryProvider, sink Sink) (*Outcome, error) {
	start := time.Now()
	stats := Stats{}
	notify(c.observer, Event{Kind: EventRunStarted})

	categories, err := provider.Categories(ctx, sess)
	if err != nil {
		c.logger.Error("category discovery failed", "error", err)
		notify(c.observer, Event{Kind: EventCategoriesFailed, Err: err})
		categories = nil
	}
	stats.Categories = len(categories)
	notify(c.observer, Event{Kind: EventCategoriesFound, Count: len(categories)})
	c.logger.Info("categories discovered", "count", len(categories))

	products := NewURLSet()
	for _, categoryURL := range categories {
		if ctx.Err() != nil {
			c.logger.Warn("run cancelled during traversal", "error", ctx.Err())
			break
		}
		urls, failures := c.traverser.traverse(ctx, sess, categoryURL)
		stats.PageFailures += failures
		products.AddAll(urls)
	}
	stats.ProductURLs = products.Len()
	notify(c.observer, Event{Kind: EventProductsCollected, Count: products.Len()})
	c.logger.Info("product urls collected", "count", products.Len())

	result := make(ScrapeResult, 0, products.Len())
	for _, productURL := range products.Items() {
		if ctx.Err() != nil {
			c.logger.Warn("run cancelled during extraction", "error", ctx.Err())
			break
		}
		rec, err := c.extractor.Extract(ctx, sess, productURL)
		if err != nil {
			stats.ProductFailures++
			continue
		}
		result = append(result, rec)
	}
	stats.Records = len(result)

	outcome := &Outcome{Result: result}
	persistErr := sink.Persist(context.WithoutCancel(ctx), result)
	if persistErr != nil {
		c.logger.Error("failed to persist result", "records", len(result), "error", persistErr)
		notify(c.observer, Event{Kind: EventPersistFailed, Count: len(result), Err: persistErr})
		persistErr = fmt.Errorf("failed to persist result: %w", persistErr)
	}

	stats.Elapsed = time.Since(start)
	outcome.Stats = stats
	notify(c.observer, Event{Kind: EventRunFinished, Count: stats.Records, Stats: &stats, Err: persistErr})
	c.logger.Info("run finished",
		"categories", stats.Categories,
		"product_urls", stats.ProductURLs,
		"records", stats.Records,
		"page_failures", stats.PageFailures,
		"product_failures", stats.ProductFailures,
		"elapsed", stats.Elapsed)

	return outcome, persistErr
}
