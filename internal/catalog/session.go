package catalog

import (
	"context"
	"time"
)

// Session is a logged-in browsing session that can load URLs and read the
// rendered DOM. Implementations are not safe for concurrent use; one run owns
// one session.
type Session interface {
	Visit(ctx context.Context, url string) error
	// WaitFor blocks until selector matches or timeout expires. Expiry is
	// reported as ErrNavigationTimeout.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// FindAll returns every element matching selector, or an empty slice.
	FindAll(ctx context.Context, selector string) ([]Element, error)
	// Settle waits a fixed duration so client-side rendering can finish.
	Settle(ctx context.Context, d time.Duration) error
}

type Element interface {
	Attribute(name string) (string, error)
	Text() (string, error)
}

// CategoryProvider discovers the category listing URLs to crawl.
type CategoryProvider interface {
	Categories(ctx context.Context, sess Session) ([]string, error)
}

// Sink receives the complete result once, at the end of a run.
type Sink interface {
	Persist(ctx context.Context, result ScrapeResult) error
}
