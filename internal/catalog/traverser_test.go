package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/maltedev/frame-scraper/internal/catalog"
	"github.com/maltedev/frame-scraper/internal/htmlsession"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTraverser(obs catalog.Observer, strict bool) *catalog.Traverser {
	return catalog.NewTraverser(testBase, catalog.DefaultSelectors(), catalog.DefaultTiming(),
		catalog.PageURLResolver{Strict: strict}, obs, discardLogger())
}

func TestScanPagination(t *testing.T) {
	tests := []struct {
		name    string
		pages   []string
		want    int
		missing bool
	}{
		{"highest number wins", []string{"1", "3", "2"}, 3, false},
		{"labels are skipped", []string{"Prev", " 4 ", "Next"}, 4, false},
		{"only labels", []string{"Next"}, 1, false},
		{"no pagination", nil, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := htmlsession.New(map[string]string{menCategory: listingPage(tt.pages, 1)}, discardLogger())
			require.NoError(t, sess.Visit(context.Background(), menCategory))

			got, err := catalog.ScanPagination(context.Background(), sess, catalog.DefaultSelectors())
			assert.Equal(t, tt.want, got)
			if tt.missing {
				assert.ErrorIs(t, err, catalog.ErrElementNotFound)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExtractProductLinks(t *testing.T) {
	html := `<div class="list-product-content">
<div class="item-product"><a onclick="gotoproductpage(11)">a</a></div>
<div class="item-product"><a href="/elsewhere">no handler</a></div>
<div class="item-product"><a onclick="trackClick()">other handler</a></div>
<div class="item-product"><a onclick="gotoproductpage(11)">again</a></div>
<div class="item-product"><a onclick="return gotoproductpage(12);">b</a></div>
</div>`
	sess := htmlsession.New(map[string]string{menCategory: html}, discardLogger())
	require.NoError(t, sess.Visit(context.Background(), menCategory))

	urls, err := catalog.ExtractProductLinks(context.Background(), sess, catalog.DefaultSelectors(), testBase+"/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://shop.test/11-cfm",
		"https://shop.test/11-cfm",
		"https://shop.test/12-cfm",
	}, urls)
}

func TestTraverseWithoutPaginationVisitsOnePage(t *testing.T) {
	category := testBase + "/brands/rayban"
	sess := htmlsession.New(map[string]string{category: listingPage(nil, 7, 8, 7)}, discardLogger())
	events := &eventLog{}

	urls := newTraverser(events, false).Traverse(context.Background(), sess, category)

	assert.Equal(t, []string{productURL(7), productURL(8)}, urls)
	assert.Equal(t, 1, events.count(catalog.EventPageVisited))
	assert.Equal(t, 1, events.count(catalog.EventPaginationMissing))
	assert.Zero(t, events.count(catalog.EventPageFailed))
}

func TestTraverseSkipsFailedPages(t *testing.T) {
	pages := map[string]string{
		menCategory:                    listingPage([]string{"1", "2", "3"}, 1, 2),
		testBase + "/all-men-1-2-0-0-0": `<html><body><p>Temporarily unavailable</p></body></html>`,
		testBase + "/all-men-1-3-0-0-0": listingPage([]string{"1", "2", "3"}, 2, 3),
	}
	sess := htmlsession.New(pages, discardLogger())
	events := &eventLog{}

	urls := newTraverser(events, false).Traverse(context.Background(), sess, menCategory)

	assert.Equal(t, []string{productURL(1), productURL(2), productURL(3)}, urls)
	assert.Equal(t, 2, events.count(catalog.EventPageVisited))
	assert.Equal(t, 1, events.count(catalog.EventPageFailed))

	failed, ok := events.last(catalog.EventPageFailed)
	require.True(t, ok)
	assert.Equal(t, 2, failed.Page)
	assert.ErrorIs(t, failed.Err, catalog.ErrNavigationTimeout)
}

func TestTraverseStrictReportsUnresolvablePages(t *testing.T) {
	category := testBase + "/brands/rayban"
	sess := htmlsession.New(map[string]string{category: listingPage([]string{"1", "2"}, 7)}, discardLogger())
	events := &eventLog{}

	urls := newTraverser(events, true).Traverse(context.Background(), sess, category)

	assert.Equal(t, []string{productURL(7)}, urls)
	failed, ok := events.last(catalog.EventPageFailed)
	require.True(t, ok)
	assert.ErrorIs(t, failed.Err, catalog.ErrUnresolvablePageURL)
}

func TestTraverseSettles(t *testing.T) {
	category := testBase + "/brands/rayban"
	sess := htmlsession.New(map[string]string{category: listingPage(nil, 7)}, discardLogger())
	timing := catalog.DefaultTiming()

	newTraverser(nil, false).Traverse(context.Background(), sess, category)

	assert.Equal(t, []time.Duration{timing.CategorySettle, timing.PageSettle}, sess.Settles())
}

func TestMenuCategories(t *testing.T) {
	home := homePage(
		"/all-men-1-1-0-0-0",
		"//Clearance-Sale-1-1-25",
		"/all-men-1-1-0-0-0",
	) + `<div class="main-megamenu"><div class="list-featured"><a onclick="openMenu()">x</a></div></div>`
	sess := htmlsession.New(map[string]string{testBase + "/home": home}, discardLogger())

	got, err := catalog.MenuCategories{
		BaseURL:   testBase + "/",
		Selectors: catalog.DefaultSelectors(),
	}.Categories(context.Background(), sess)

	require.NoError(t, err)
	assert.Equal(t, []string{
		testBase + "/all-men-1-1-0-0-0",
		testBase + "/Clearance-Sale-1-1-25",
	}, got)
}

func TestProductExtractor(t *testing.T) {
	url := productURL(42)

	t.Run("reads every field", func(t *testing.T) {
		sess := htmlsession.New(map[string]string{url: productPage("Ray-Ban", "RB5154 Clubmaster", "805289")}, discardLogger())
		events := &eventLog{}

		rec, err := catalog.NewProductExtractor(catalog.DefaultSelectors(), catalog.DefaultTiming(), events, discardLogger()).
			Extract(context.Background(), sess, url)

		require.NoError(t, err)
		assert.Equal(t, url, rec.URL)
		assert.Equal(t, "Ray-Ban", rec.Brand)
		assert.Equal(t, "RB5154 Clubmaster", rec.Name)
		assert.Equal(t, "805289", rec.Code)
		assert.Contains(t, rec.RawText, "UPC: 805289")
		assert.Equal(t, 1, events.count(catalog.EventProductScraped))
	})

	tests := []struct {
		name    string
		html    string
		wantErr error
	}{
		{
			name:    "container never appears",
			html:    `<html><body><p>Session expired</p></body></html>`,
			wantErr: catalog.ErrNavigationTimeout,
		},
		{
			name:    "code missing",
			html:    `<div class="text-product"><span class="brand">Gucci</span><h1>GG0061S</h1></div>`,
			wantErr: catalog.ErrExtractionIncomplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := htmlsession.New(map[string]string{url: tt.html}, discardLogger())
			events := &eventLog{}

			rec, err := catalog.NewProductExtractor(catalog.DefaultSelectors(), catalog.DefaultTiming(), events, discardLogger()).
				Extract(context.Background(), sess, url)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, catalog.ProductRecord{}, rec)
			assert.Equal(t, 1, events.count(catalog.EventProductFailed))
		})
	}
}

func TestURLSet(t *testing.T) {
	set := catalog.NewURLSet()

	assert.True(t, set.Add("b"))
	assert.False(t, set.Add("b"))
	assert.False(t, set.Add(""))
	assert.Equal(t, 2, set.AddAll([]string{"a", "b", "c", "a"}))

	assert.Equal(t, []string{"b", "a", "c"}, set.Items())
	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contains("c"))

	items := set.Items()
	items[0] = "mutated"
	assert.Equal(t, "b", set.Items()[0])
}
