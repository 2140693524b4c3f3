package catalog

import (
	"strings"
	"time"
)

// ProductRecord is the data read from one product detail page.
type ProductRecord struct {
	URL     string `json:"url"`
	Brand   string `json:"brand"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	RawText string `json:"raw_text"`
}

// ScrapeResult holds records in the order their product URLs were processed.
type ScrapeResult []ProductRecord

// Stats summarises a finished run.
type Stats struct {
	Categories      int           `json:"categories"`
	ProductURLs     int           `json:"product_urls"`
	Records         int           `json:"records"`
	PageFailures    int           `json:"page_failures"`
	ProductFailures int           `json:"product_failures"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Outcome is what Coordinator.Run hands back to its caller.
type Outcome struct {
	Result ScrapeResult
	Stats  Stats
}

// Selectors are the CSS selectors the pipeline reads. They describe the
// catalog site's markup and rarely change.
type Selectors struct {
	MenuLinks        string
	PaginationLinks  string
	ListingContainer string
	ListingAnchors   string
	ProductContainer string
	ProductBrand     string
	ProductName      string
	ProductCode      string
	CodePrefix       string
}

func DefaultSelectors() Selectors {
	return Selectors{
		MenuLinks:        ".main-megamenu .list-featured a",
		PaginationLinks:  ".pagination a.activeLink",
		ListingContainer: ".list-product-content",
		ListingAnchors:   ".list-product-content .item-product a",
		ProductContainer: ".text-product",
		ProductBrand:     ".text-product .brand",
		ProductName:      ".text-product h1",
		ProductCode:      ".text-product span.color",
		CodePrefix:       "UPC:",
	}
}

// ProductURL builds the detail page URL for a product id.
func ProductURL(base, id string) string {
	return strings.TrimRight(base, "/") + "/" + id + "-cfm"
}
