package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ScanPagination returns the highest page number linked from the rendered
// category page. Without pagination links it returns 1 and an error wrapping
// ErrElementNotFound; the count is usable either way.
func ScanPagination(ctx context.Context, sess Session, sel Selectors) (int, error) {
	links, err := sess.FindAll(ctx, sel.PaginationLinks)
	if err != nil {
		return 1, fmt.Errorf("failed to read pagination: %w", err)
	}
	if len(links) == 0 {
		return 1, fmt.Errorf("%w: %s", ErrElementNotFound, sel.PaginationLinks)
	}

	maxPage := 1
	for _, link := range links {
		text, err := link.Text()
		if err != nil {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			continue
		}
		if n > maxPage {
			maxPage = n
		}
	}
	return maxPage, nil
}
