package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var menuHref = regexp.MustCompile(`document\.location\.href='([^']+)'`)

// HomePath is the landing page that carries the category mega-menu.
const HomePath = "/home"

// MenuCategories discovers category URLs from the landing page mega-menu.
type MenuCategories struct {
	BaseURL   string
	Selectors Selectors
	Settle    time.Duration
}

// Categories returns the absolute category URLs in menu order, without
// duplicates. Menu entries whose onclick carries no location are skipped.
func (m MenuCategories) Categories(ctx context.Context, sess Session) ([]string, error) {
	base := strings.TrimRight(m.BaseURL, "/")
	if err := sess.Visit(ctx, base+HomePath); err != nil {
		return nil, fmt.Errorf("failed to open landing page: %w", err)
	}
	if err := sess.Settle(ctx, m.Settle); err != nil {
		return nil, err
	}

	links, err := sess.FindAll(ctx, m.Selectors.MenuLinks)
	if err != nil {
		return nil, fmt.Errorf("failed to read category menu: %w", err)
	}

	found := NewURLSet()
	for _, link := range links {
		onclick, err := link.Attribute("onclick")
		if err != nil {
			continue
		}
		match := menuHref.FindStringSubmatch(onclick)
		if match == nil {
			continue
		}
		found.Add(base + "/" + strings.TrimLeft(match[1], "/"))
	}
	return found.Items(), nil
}
