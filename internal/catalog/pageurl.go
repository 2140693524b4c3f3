package catalog

import (
	"fmt"
	"regexp"
	"strconv"
)

// pageRule rewrites a category URL of one known shape so that it points at
// a given page. match selects the rule; target is the part that gets
// replaced and may be absent even when match succeeds.
type pageRule struct {
	name        string
	match       *regexp.Regexp
	target      *regexp.Regexp
	replacement func(page string) string
}

// pageRules are evaluated top to bottom, first match wins. The shapes
// overlap; their order and substitution positions must stay as they are.
var pageRules = []pageRule{
	{
		name:   "all-listing",
		match:  regexp.MustCompile(`all-\w+-\d+-\d+-\d+-\d+-\d+`),
		target: regexp.MustCompile(`-(\d+)-(\d+)-(\d+)-(\d+)-(\d+)$`),
		replacement: func(page string) string {
			return "-${1}-" + page + "-${3}-${4}-${5}"
		},
	},
	{
		name:   "new-stock",
		match:  regexp.MustCompile(`0-New%20Stock-\d+-25-Arrival`),
		target: regexp.MustCompile(`-(\d+)-25-`),
		replacement: func(page string) string {
			return "-" + page + "-25-"
		},
	},
	{
		name:   "clearance",
		match:  regexp.MustCompile(`Clearance-Sale-\d+-\d+-25`),
		target: regexp.MustCompile(`-(\d+)-25$`),
		replacement: func(page string) string {
			return "-" + page + "-25"
		},
	},
	{
		name:   "default",
		match:  regexp.MustCompile(``),
		target: regexp.MustCompile(`-(\d+)-25-`),
		replacement: func(page string) string {
			return "-" + page + "-25-"
		},
	},
}

// ResolvePageURL returns the URL of the given page of the category listing
// at categoryURL. It never fails: a URL no rule can rewrite is returned
// unchanged.
func ResolvePageURL(categoryURL string, page int) string {
	resolved, _, _ := resolve(categoryURL, page)
	return resolved
}

func resolve(categoryURL string, page int) (resolved, rule string, rewritten bool) {
	p := strconv.Itoa(page)
	for _, r := range pageRules {
		if !r.match.MatchString(categoryURL) {
			continue
		}
		if !r.target.MatchString(categoryURL) {
			return categoryURL, r.name, false
		}
		return r.target.ReplaceAllString(categoryURL, r.replacement(p)), r.name, true
	}
	return categoryURL, "", false
}

// PageURLResolver applies ResolvePageURL with a policy for category URLs
// that carry no recognisable page token.
type PageURLResolver struct {
	// Strict makes Resolve fail for pages beyond the first when no rule
	// could rewrite the URL. Page 1 always resolves because the category
	// URL itself is a valid first page.
	Strict bool
}

func (r PageURLResolver) Resolve(categoryURL string, page int) (string, error) {
	resolved, rule, ok := resolve(categoryURL, page)
	if !ok && r.Strict && page > 1 {
		return "", fmt.Errorf("%w: rule %q found no page token in %s", ErrUnresolvablePageURL, rule, categoryURL)
	}
	return resolved, nil
}
