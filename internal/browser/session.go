package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/frame-scraper/internal/catalog"
	"github.com/playwright-community/playwright-go"
)

// Session is a catalog.Session backed by a single Playwright page.
type Session struct {
	page       playwright.Page
	navTimeout time.Duration
	logger     *slog.Logger
}

func newSession(page playwright.Page, navTimeout time.Duration, logger *slog.Logger) *Session {
	return &Session{
		page:       page,
		navTimeout: navTimeout,
		logger:     logger.With("component", "browser_session"),
	}
}

func (s *Session) Visit(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.navTimeout.Milliseconds())),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return fmt.Errorf("%w: %s", catalog.ErrNavigationTimeout, url)
		}
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	s.logger.Debug("page loaded", "url", url)
	return nil
}

func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration) (catalog.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	handle, err := s.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s after %s", catalog.ErrNavigationTimeout, selector, timeout)
		}
		return nil, fmt.Errorf("failed to wait for %s: %w", selector, err)
	}
	if handle == nil {
		return nil, fmt.Errorf("%w: %s", catalog.ErrElementNotFound, selector)
	}
	return element{handle}, nil
}

func (s *Session) FindAll(ctx context.Context, selector string) ([]catalog.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	handles, err := s.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}

	els := make([]catalog.Element, 0, len(handles))
	for _, h := range handles {
		els = append(els, element{h})
	}
	return els, nil
}

func (s *Session) Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetUserAgent overrides the User-Agent header for every later request of
// this page.
func (s *Session) SetUserAgent(ua string) error {
	if err := s.page.SetExtraHTTPHeaders(map[string]string{"User-Agent": ua}); err != nil {
		return fmt.Errorf("failed to set user agent: %w", err)
	}
	s.logger.Debug("user agent set", "user_agent", ua)
	return nil
}

func (s *Session) Close() error {
	if err := s.page.Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	return nil
}

type element struct {
	handle playwright.ElementHandle
}

func (e element) Attribute(name string) (string, error) {
	return e.handle.GetAttribute(name)
}

func (e element) Text() (string, error) {
	text, err := e.handle.InnerText()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
