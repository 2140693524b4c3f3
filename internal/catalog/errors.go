package catalog

import "errors"

var (
	// ErrElementNotFound is returned when a selector lookup found nothing.
	ErrElementNotFound = errors.New("element not found")
	// ErrNavigationTimeout is returned when a bounded wait for a page or
	// element expired.
	ErrNavigationTimeout = errors.New("navigation timeout")
	// ErrExtractionIncomplete is returned when a product page is missing one
	// of the nodes a record is built from.
	ErrExtractionIncomplete = errors.New("extraction incomplete")
	// ErrUnresolvablePageURL is returned by a strict PageURLResolver when no
	// rule could place the page number into the category URL.
	ErrUnresolvablePageURL = errors.New("unresolvable page url")
)
