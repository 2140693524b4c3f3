package catalog

import (
	"context"
	"fmt"
	"regexp"
)

var productOnclick = regexp.MustCompile(`gotoproductpage\((\d+)\)`)

// ExtractProductLinks collects product detail URLs from the anchors of a
// rendered listing page. The id comes from the anchor's onclick handler;
// anchors without one are skipped. The result may contain duplicates.
func ExtractProductLinks(ctx context.Context, sess Session, sel Selectors, baseURL string) ([]string, error) {
	anchors, err := sess.FindAll(ctx, sel.ListingAnchors)
	if err != nil {
		return nil, fmt.Errorf("failed to find product anchors: %w", err)
	}

	var urls []string
	for _, a := range anchors {
		onclick, err := a.Attribute("onclick")
		if err != nil || onclick == "" {
			continue
		}
		if m := productOnclick.FindStringSubmatch(onclick); m != nil {
			urls = append(urls, ProductURL(baseURL, m[1]))
		}
	}
	return urls, nil
}
