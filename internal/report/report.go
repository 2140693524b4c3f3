// Package report turns crawl lifecycle events into logs, metrics, console
// progress and an in-memory summary.
package report

import (
	"log/slog"

	"github.com/maltedev/frame-scraper/internal/catalog"
)

// Multi forwards every event to each observer in order. A panicking
// observer does not keep the event from the ones after it.
type Multi []catalog.Observer

func (m Multi) OnEvent(e catalog.Event) {
	for _, obs := range m {
		if obs == nil {
			continue
		}
		deliver(obs, e)
	}
}

func deliver(obs catalog.Observer, e catalog.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Default().Error("observer panicked", "kind", e.Kind, "panic", r)
		}
	}()
	obs.OnEvent(e)
}

// LogObserver writes one structured log line per event. Failures are logged
// at warn level, run boundaries at info, everything else at debug.
type LogObserver struct {
	logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger.With("component", "progress")}
}

func (o *LogObserver) OnEvent(e catalog.Event) {
	attrs := []any{"kind", string(e.Kind)}
	if e.URL != "" {
		attrs = append(attrs, "url", e.URL)
	}
	if e.Page > 0 {
		attrs = append(attrs, "page", e.Page)
	}
	if e.Count > 0 {
		attrs = append(attrs, "count", e.Count)
	}
	if e.Err != nil {
		attrs = append(attrs, "error", e.Err)
	}
	if e.Stats != nil {
		attrs = append(attrs,
			"records", e.Stats.Records,
			"product_urls", e.Stats.ProductURLs,
			"page_failures", e.Stats.PageFailures,
			"product_failures", e.Stats.ProductFailures,
			"elapsed", e.Stats.Elapsed)
	}

	switch e.Kind {
	case catalog.EventCategoriesFailed, catalog.EventPageFailed, catalog.EventProductFailed,
		catalog.EventPaginationMissing, catalog.EventPersistFailed:
		o.logger.Warn("crawl event", attrs...)
	case catalog.EventRunStarted, catalog.EventCategoriesFound, catalog.EventProductsCollected,
		catalog.EventRunFinished:
		o.logger.Info("crawl event", attrs...)
	default:
		o.logger.Debug("crawl event", attrs...)
	}
}
