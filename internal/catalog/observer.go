package catalog

import (
	"log/slog"
	"time"
)

type EventKind string

const (
	EventRunStarted        EventKind = "run_started"
	EventCategoriesFound   EventKind = "categories_found"
	EventCategoriesFailed  EventKind = "categories_failed"
	EventCategoryStarted   EventKind = "category_started"
	EventCategoryFinished  EventKind = "category_finished"
	EventPaginationMissing EventKind = "pagination_missing"
	EventPageVisited       EventKind = "page_visited"
	EventPageFailed        EventKind = "page_failed"
	EventProductsCollected EventKind = "products_collected"
	EventProductScraped    EventKind = "product_scraped"
	EventProductFailed     EventKind = "product_failed"
	EventPersistFailed     EventKind = "persist_failed"
	EventRunFinished       EventKind = "run_finished"
)

// Event describes one lifecycle step. Only the fields relevant to Kind are set.
type Event struct {
	Kind  EventKind
	Time  time.Time
	URL   string
	Page  int
	Count int
	Err   error
	Stats *Stats
}

// Observer receives progress and error reports. OnEvent must not block for
// long; panics are recovered by the pipeline.
type Observer interface {
	OnEvent(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

type nopObserver struct{}

func (nopObserver) OnEvent(Event) {}

// notify delivers e to obs and swallows any panic so reporting can never
// abort a crawl.
func notify(obs Observer, e Event) {
	if obs == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Default().Error("observer panicked", "kind", e.Kind, "panic", r)
		}
	}()
	obs.OnEvent(e)
}
