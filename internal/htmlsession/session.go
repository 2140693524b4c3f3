// Package htmlsession implements catalog.Session over saved HTML documents.
// It renders nothing and never touches the network, which makes it suitable
// for replaying a captured crawl and for exercising the pipeline in tests.
package htmlsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/frame-scraper/internal/catalog"
)

// ManifestFile maps page URLs to HTML files inside a replay directory.
const ManifestFile = "manifest.json"

var (
	ErrPageNotFound = errors.New("page not found")
	ErrNoPage       = errors.New("no page loaded")
)

// Session serves pages from memory. Settle records the requested delay
// instead of sleeping.
type Session struct {
	mu      sync.Mutex
	pages   map[string]string
	current *goquery.Document
	visits  []string
	settles []time.Duration
	logger  *slog.Logger
}

func New(pages map[string]string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	copied := make(map[string]string, len(pages))
	for u, html := range pages {
		copied[u] = html
	}
	return &Session{
		pages:  copied,
		logger: logger.With("component", "html_session"),
	}
}

// Load reads a replay directory. The directory must contain a manifest.json
// of the form {"<url>": "<file>"} with file paths relative to dir.
func Load(dir string, logger *slog.Logger) (*Session, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest map[string]string
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	pages := make(map[string]string, len(manifest))
	for u, file := range manifest {
		html, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("failed to read page %s: %w", u, err)
		}
		pages[u] = string(html)
	}

	s := New(pages, logger)
	s.logger.Info("replay pages loaded", "dir", dir, "pages", len(pages))
	return s, nil
}

// SetPage adds or replaces the document served for url.
func (s *Session) SetPage(url, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = html
}

func (s *Session) Visit(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.visits = append(s.visits, url)
	s.current = nil

	html, ok := s.pages[url]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPageNotFound, url)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}
	s.current = doc
	s.logger.Debug("page loaded", "url", url)
	return nil
}

// WaitFor returns the first match immediately. A static document never
// changes, so an absent selector is reported as a timeout straight away.
func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration) (catalog.Element, error) {
	els, err := s.FindAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s after %s", catalog.ErrNavigationTimeout, selector, timeout)
	}
	return els[0], nil
}

func (s *Session) FindAll(ctx context.Context, selector string) ([]catalog.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoPage
	}

	sel := s.current.Find(selector)
	els := make([]catalog.Element, 0, sel.Length())
	sel.Each(func(_ int, node *goquery.Selection) {
		els = append(els, element{node})
	})
	return els, nil
}

func (s *Session) Settle(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.settles = append(s.settles, d)
	s.mu.Unlock()
	return nil
}

// Visits returns every URL passed to Visit, in order.
func (s *Session) Visits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.visits))
	copy(out, s.visits)
	return out
}

// Settles returns every delay passed to Settle, in order.
func (s *Session) Settles() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.settles))
	copy(out, s.settles)
	return out
}

type element struct {
	sel *goquery.Selection
}

// Attribute returns "" without error when the attribute is absent, as a
// rendered DOM does.
func (e element) Attribute(name string) (string, error) {
	v, _ := e.sel.Attr(name)
	return v, nil
}

func (e element) Text() (string, error) {
	return strings.TrimSpace(e.sel.Text()), nil
}
