package catalog

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// URLSet is a set of URLs that remembers first-seen order. It is not safe
// for concurrent use.
type URLSet struct {
	seen  mapset.Set[string]
	order []string
}

func NewURLSet() *URLSet {
	return &URLSet{seen: mapset.NewThreadUnsafeSet[string]()}
}

// Add inserts u and reports whether it was new. Empty strings are ignored.
func (s *URLSet) Add(u string) bool {
	if u == "" || !s.seen.Add(u) {
		return false
	}
	s.order = append(s.order, u)
	return true
}

// AddAll inserts every URL and returns how many were new.
func (s *URLSet) AddAll(urls []string) int {
	added := 0
	for _, u := range urls {
		if s.Add(u) {
			added++
		}
	}
	return added
}

func (s *URLSet) Contains(u string) bool {
	return s.seen.Contains(u)
}

func (s *URLSet) Len() int {
	return len(s.order)
}

// Items returns a copy of the URLs in insertion order.
func (s *URLSet) Items() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
